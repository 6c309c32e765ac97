package infra

import (
	"github.com/takeshishimada/Lockman-sub001/admission/domain"
)

// chave constante do modo boundary (um único slot por boundary).
const boundaryWideKey = "\x00boundary"

// tracking concentra o comportamento comum das estratégias que mantêm
// registros num LockStore próprio.
type tracking struct {
	store *LockStore
}

func (t *tracking) Release(b domain.BoundaryID, rec domain.LockRecord) {
	t.store.Remove(b, rec.UniqueID)
}

func (t *tracking) Active(b domain.BoundaryID) []domain.LockRecord {
	return t.store.Current(b)
}

func (t *tracking) ClearBoundary(b domain.BoundaryID) {
	t.store.ClearBoundary(b)
}

func (t *tracking) Clear() {
	t.store.Clear()
}

// SingleExecution implementa exclusão mútua declarativa: no máximo uma
// operação ativa por boundary (ModeBoundary) ou por (boundary, actionID)
// (ModeAction). ModeNone nunca rastreia e sempre admite.
type SingleExecution struct {
	tracking
}

func NewSingleExecution() *SingleExecution {
	return &SingleExecution{tracking{store: NewLockStore()}}
}

func (s *SingleExecution) ID() domain.StrategyID { return "single-execution" }

func (s *SingleExecution) PayloadKind() string { return domain.KindSingleExecution }

func (s *SingleExecution) key(rec domain.LockRecord) (string, bool) {
	p, _ := rec.Payload.(domain.SingleExecutionPayload)
	switch p.Mode {
	case domain.ModeBoundary:
		return boundaryWideKey, true
	case domain.ModeAction:
		return string(rec.ActionID), true
	default:
		return "", false
	}
}

func (s *SingleExecution) Decide(b domain.BoundaryID, rec domain.LockRecord) domain.Decision {
	key, tracked := s.key(rec)
	if !tracked {
		return domain.Admit()
	}

	if n := s.store.Count(b, key); n > 0 {
		return domain.Reject(domain.ReasonAlreadyRunning, n, s.store.CurrentByKey(b, key)...)
	}
	return domain.Admit()
}

func (s *SingleExecution) Commit(b domain.BoundaryID, rec domain.LockRecord) {
	key, tracked := s.key(rec)
	if !tracked {
		return
	}
	s.store.Add(b, rec, key)
}
