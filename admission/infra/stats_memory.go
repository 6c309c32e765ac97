package infra

import (
	"context"
	"sync"

	"github.com/takeshishimada/Lockman-sub001/admission/domain"
)

type Counters struct {
	Admitted  int64
	Preempted int64
	Rejected  int64
}

// MemoryStatsStore é uma implementação simples em memória.
// Útil para testes e desenvolvimento.
//
// Não faz expiração e não é indicada para produção.
type MemoryStatsStore struct {
	mu         sync.Mutex
	total      Counters
	byStrategy map[domain.StrategyID]Counters
	byReason   map[domain.RejectReason]int64
	byBoundary map[domain.BoundaryID]Counters

	trackBoundaries bool
}

type MemoryStatsOption func(*MemoryStatsStore)

func WithTrackBoundaries(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackBoundaries = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byStrategy: make(map[domain.StrategyID]Counters),
		byReason:   make(map[domain.RejectReason]int64),
		byBoundary: make(map[domain.BoundaryID]Counters),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bump(&s.total, ev)

	c := s.byStrategy[ev.StrategyID]
	bump(&c, ev)
	s.byStrategy[ev.StrategyID] = c

	if !ev.Allowed {
		s.byReason[ev.Reason]++
	}

	if s.trackBoundaries {
		b := s.byBoundary[ev.Boundary]
		bump(&b, ev)
		s.byBoundary[ev.Boundary] = b
	}
	return nil
}

func bump(c *Counters, ev domain.StatsEvent) {
	switch {
	case ev.Allowed && ev.Preempted:
		c.Preempted++
	case ev.Allowed:
		c.Admitted++
	default:
		c.Rejected++
	}
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryStatsStore) ByStrategy() map[domain.StrategyID]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.StrategyID]Counters, len(s.byStrategy))
	for k, v := range s.byStrategy {
		out[k] = v
	}
	return out
}

func (s *MemoryStatsStore) ByReason() map[domain.RejectReason]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.RejectReason]int64, len(s.byReason))
	for k, v := range s.byReason {
		out[k] = v
	}
	return out
}

func (s *MemoryStatsStore) ByBoundary() map[domain.BoundaryID]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.BoundaryID]Counters, len(s.byBoundary))
	for k, v := range s.byBoundary {
		out[k] = v
	}
	return out
}
