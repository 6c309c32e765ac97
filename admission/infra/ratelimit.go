package infra

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/takeshishimada/Lockman-sub001/admission/domain"
)

// RateLimit é a estratégia de admissão por token-bucket (x/time/rate), com
// um bucket por (boundary, chave) e limpeza periódica de chaves inativas.
//
// Diferente das demais estratégias, ela não rastreia registro algum: a
// decisão vem inteiramente do bucket, Commit e Release são no-ops e a
// admissão não precisa ser liberada.
type RateLimit struct {
	mu           sync.Mutex
	entries      map[string]*rlEntry
	idleTTL      time.Duration
	cleanupEvery time.Duration
}

type rlEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type RateLimitOption func(*RateLimit)

func WithIdleTTL(d time.Duration) RateLimitOption {
	return func(s *RateLimit) { s.idleTTL = d }
}

func WithCleanupEvery(d time.Duration) RateLimitOption {
	return func(s *RateLimit) { s.cleanupEvery = d }
}

func NewRateLimit(opts ...RateLimitOption) *RateLimit {
	s := &RateLimit{
		entries:      make(map[string]*rlEntry),
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RateLimit) ID() domain.StrategyID { return "rate-limit" }

func (s *RateLimit) PayloadKind() string { return domain.KindRateLimit }

func bucketKey(b domain.BoundaryID, key string) string {
	return string(b) + "\x00" + key
}

func (s *RateLimit) limiter(b domain.BoundaryID, rec domain.LockRecord, p domain.RateLimitPayload) *rate.Limiter {
	key := p.Key
	if key == "" {
		key = string(rec.ActionID)
	}
	full := bucketKey(b, key)
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if ent, ok := s.entries[full]; ok {
		ent.lastSeen = now
		return ent.lim
	}

	// o primeiro payload visto para a chave fixa a configuração do bucket.
	lim := rate.NewLimiter(rate.Limit(p.RPS), p.Burst)
	s.entries[full] = &rlEntry{lim: lim, lastSeen: now}
	return lim
}

// Decide apenas espia o bucket, sem consumir token: o consumo acontece no
// Commit. Isso mantém o decide livre de mutação — um composite rejeitado por
// outra parte não queima token daqui. A leitura não fica obsoleta entre
// decide e commit porque o gate do boundary serializa os dois, e cada bucket
// é por (boundary, chave).
func (s *RateLimit) Decide(b domain.BoundaryID, rec domain.LockRecord) domain.Decision {
	p, _ := rec.Payload.(domain.RateLimitPayload)
	if p.RPS <= 0 {
		return domain.Admit()
	}
	if s.limiter(b, rec, p).Tokens() >= 1 {
		return domain.Admit()
	}
	return domain.Reject(domain.ReasonRateLimited, 0)
}

// Commit consome o token da admissão decidida.
func (s *RateLimit) Commit(b domain.BoundaryID, rec domain.LockRecord) {
	p, _ := rec.Payload.(domain.RateLimitPayload)
	if p.RPS <= 0 {
		return
	}
	_ = s.limiter(b, rec, p).Allow()
}

func (s *RateLimit) Release(domain.BoundaryID, domain.LockRecord) {}

func (s *RateLimit) Active(domain.BoundaryID) []domain.LockRecord { return nil }

func (s *RateLimit) ClearBoundary(b domain.BoundaryID) {
	prefix := string(b) + "\x00"

	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.entries {
		if strings.HasPrefix(k, prefix) {
			delete(s.entries, k)
		}
	}
}

func (s *RateLimit) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*rlEntry)
}

// Cleanup descarta buckets sem uso há mais de idleTTL.
func (s *RateLimit) Cleanup() {
	cutoff := time.Now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, ent := range s.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(s.entries, k)
		}
	}
}

// StartJanitor inicia uma goroutine que limpa buckets inativos
// periodicamente. Pare cancelando o contexto.
func (s *RateLimit) StartJanitor(ctx context.Context) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}
