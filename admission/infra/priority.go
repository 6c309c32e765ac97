package infra

import (
	"github.com/takeshishimada/Lockman-sub001/admission/domain"
)

// PriorityBased implementa admissão por prioridade com preempção.
//
// Regras, nesta ordem, avaliadas contra todos os registros ativos do boundary
// (não há escopo por chave):
//
//  1. sem registros ativos → admite;
//  2. existe ativo com prioridade maior → rejeita (LowerPriorityBlocked);
//  3. existe ativo com prioridade igual → rejeita (SamePriorityConflict) se
//     qualquer um dos lados for exclusive; coexiste se ambos replaceable;
//  4. todos os ativos têm prioridade menor → admite preemptando uma vítima:
//     a de menor prioridade e, em empate, a mais antiga.
type PriorityBased struct {
	tracking
}

func NewPriorityBased() *PriorityBased {
	return &PriorityBased{tracking{store: NewLockStore()}}
}

func (s *PriorityBased) ID() domain.StrategyID { return "priority-based" }

func (s *PriorityBased) PayloadKind() string { return domain.KindPriority }

func (s *PriorityBased) Decide(b domain.BoundaryID, rec domain.LockRecord) domain.Decision {
	p, _ := rec.Payload.(domain.PriorityPayload)

	active := s.store.Current(b)
	if len(active) == 0 {
		return domain.Admit()
	}

	var equals []domain.LockRecord
	var lower []domain.LockRecord
	for _, cur := range active {
		cp, _ := cur.Payload.(domain.PriorityPayload)
		switch {
		case cp.Priority > p.Priority:
			// prioridade maior sempre bloqueia a nova tentativa.
			return domain.Reject(domain.ReasonLowerPriorityBlocked, len(active), cur)
		case cp.Priority == p.Priority:
			equals = append(equals, cur)
		default:
			lower = append(lower, cur)
		}
	}

	if len(equals) > 0 {
		if p.Exclusivity == domain.Exclusive {
			return domain.Reject(domain.ReasonSamePriorityConflict, len(active), equals...)
		}
		for _, cur := range equals {
			cp, _ := cur.Payload.(domain.PriorityPayload)
			if cp.Exclusivity == domain.Exclusive {
				return domain.Reject(domain.ReasonSamePriorityConflict, len(active), cur)
			}
		}
		// ambos replaceable: coexistem, sem preempção.
		return domain.Admit()
	}

	// só restam ativos de prioridade menor: preempta a de menor prioridade;
	// como Current preserva ordem de inserção, o primeiro mínimo é o mais
	// antigo.
	victim := lower[0]
	victimPrio := priorityOf(victim)
	for _, cur := range lower[1:] {
		if priorityOf(cur) < victimPrio {
			victim = cur
			victimPrio = priorityOf(cur)
		}
	}
	return domain.AdmitPreempting(domain.Victim{Strategy: s, Record: victim})
}

func priorityOf(rec domain.LockRecord) domain.Priority {
	p, _ := rec.Payload.(domain.PriorityPayload)
	return p.Priority
}

func (s *PriorityBased) Commit(b domain.BoundaryID, rec domain.LockRecord) {
	s.store.Add(b, rec, string(rec.ActionID))
}
