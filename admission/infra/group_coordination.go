package infra

import (
	"github.com/takeshishimada/Lockman-sub001/admission/domain"
)

// GroupCoordination implementa coordenação líder/membro por grupos nomeados.
//
// Um leader só admite se nenhum líder ativo compartilha qualquer um dos seus
// grupos. Um member só admite se existir líder ativo em pelo menos um dos
// grupos requeridos e a política de entrada permitir o momento.
type GroupCoordination struct {
	tracking
}

func NewGroupCoordination() *GroupCoordination {
	return &GroupCoordination{tracking{store: NewLockStore()}}
}

func (s *GroupCoordination) ID() domain.StrategyID { return "group-coordination" }

func (s *GroupCoordination) PayloadKind() string { return domain.KindGroup }

func (s *GroupCoordination) Decide(b domain.BoundaryID, rec domain.LockRecord) domain.Decision {
	p, _ := rec.Payload.(domain.GroupPayload)
	active := s.store.Current(b)

	if p.Role == domain.RoleLeader {
		for _, cur := range active {
			cp, _ := cur.Payload.(domain.GroupPayload)
			if cp.Role == domain.RoleLeader && sharesGroup(cp.Groups, p.Groups) {
				return domain.Reject(domain.ReasonLeaderAlreadyActive, len(active), cur)
			}
		}
		return domain.Admit()
	}

	// member: exige líder ativo em pelo menos um grupo requerido.
	var leader *domain.LockRecord
	for i, cur := range active {
		cp, _ := cur.Payload.(domain.GroupPayload)
		if cp.Role == domain.RoleLeader && sharesGroup(cp.Groups, p.Groups) {
			leader = &active[i]
			break
		}
	}
	if leader == nil {
		return domain.Reject(domain.ReasonNoActiveLeader, len(active))
	}

	if p.Entry == domain.JoinBeforeOthers {
		for _, cur := range active {
			cp, _ := cur.Payload.(domain.GroupPayload)
			if cp.Role == domain.RoleMember && sharesGroup(cp.Groups, p.Groups) {
				// outro member já entrou: a janela de entrada fechou.
				return domain.Reject(domain.ReasonNoActiveLeader, len(active), cur)
			}
		}
	}
	return domain.Admit()
}

func sharesGroup(a, b []string) bool {
	for _, ga := range a {
		for _, gb := range b {
			if ga == gb {
				return true
			}
		}
	}
	return false
}

func (s *GroupCoordination) Commit(b domain.BoundaryID, rec domain.LockRecord) {
	p, _ := rec.Payload.(domain.GroupPayload)
	s.store.Add(b, rec, roleKey(p.Role))
}

func roleKey(r domain.GroupRole) string {
	if r == domain.RoleLeader {
		return "leader"
	}
	return "member"
}
