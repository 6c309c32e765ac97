package infra

import (
	"github.com/takeshishimada/Lockman-sub001/admission/domain"
)

// ConcurrencyLimited implementa um teto de admissões simultâneas por grupo de
// concorrência dentro de um boundary.
type ConcurrencyLimited struct {
	tracking
}

func NewConcurrencyLimited() *ConcurrencyLimited {
	return &ConcurrencyLimited{tracking{store: NewLockStore()}}
}

func (s *ConcurrencyLimited) ID() domain.StrategyID { return "concurrency-limited" }

func (s *ConcurrencyLimited) PayloadKind() string { return domain.KindConcurrency }

func (s *ConcurrencyLimited) Decide(b domain.BoundaryID, rec domain.LockRecord) domain.Decision {
	p, _ := rec.Payload.(domain.ConcurrencyPayload)
	if p.Limit.Unlimited() {
		return domain.Admit()
	}

	if n := s.store.Count(b, p.Group); n >= p.Limit.Max {
		return domain.Reject(domain.ReasonLimitReached, n, s.store.CurrentByKey(b, p.Group)...)
	}
	return domain.Admit()
}

func (s *ConcurrencyLimited) Commit(b domain.BoundaryID, rec domain.LockRecord) {
	p, _ := rec.Payload.(domain.ConcurrencyPayload)
	s.store.Add(b, rec, p.Group)
}
