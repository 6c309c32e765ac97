package infra

import (
	"github.com/takeshishimada/Lockman-sub001/admission/domain"
)

// Composite combina N sub-estratégias (tipicamente 2 a 5) numa decisão única
// em duas fases:
//
//   - fase 1: avalia o decide de cada sub-estratégia, na ordem declarada,
//     contra o store de cada uma; a primeira rejeição encerra o composite
//     como rejeitado, com zero mutação em qualquer sub-estratégia;
//   - fase 2: se todas admitiram, o commit insere o sub-registro de cada
//     sub-estratégia. As vítimas de preempção coletadas na fase 1 são
//     devolvidas ao Manager, que as libera antes do commit.
//
// O composite não possui store próprio: os registros vivem nos stores das
// sub-estratégias, e o release repassa a remoção para cada uma.
type Composite struct{}

func NewComposite() *Composite { return &Composite{} }

func (s *Composite) ID() domain.StrategyID { return "composite" }

func (s *Composite) PayloadKind() string { return domain.KindComposite }

// subRecord deriva o registro de uma sub-estratégia a partir do registro
// composite. O UniqueID é compartilhado: cada sub-estratégia tem store
// próprio, então não há colisão, e a remoção por id continua O(1).
func subRecord(rec domain.LockRecord, part domain.CompositePart) domain.LockRecord {
	return domain.LockRecord{
		UniqueID:   rec.UniqueID,
		ActionID:   rec.ActionID,
		StrategyID: part.Strategy.ID(),
		Payload:    part.Payload,
	}
}

func (s *Composite) Decide(b domain.BoundaryID, rec domain.LockRecord) domain.Decision {
	p, _ := rec.Payload.(domain.CompositePayload)

	// partes não passam pela checagem de kind do registry: valida tudo antes
	// de avaliar qualquer sub-estratégia, para rejeitar sem tocar em nenhuma.
	for _, part := range p.Parts {
		if part.Strategy == nil || part.Payload == nil ||
			part.Payload.Kind() != part.Strategy.PayloadKind() {
			return domain.Reject(domain.ReasonPayloadMismatch, 0)
		}
	}

	var victims []domain.Victim
	for _, part := range p.Parts {
		d := part.Strategy.Decide(b, subRecord(rec, part))
		if !d.Allowed {
			return d
		}
		victims = append(victims, d.Victims...)
	}
	if len(victims) > 0 {
		return domain.AdmitPreempting(victims...)
	}
	return domain.Admit()
}

func (s *Composite) Commit(b domain.BoundaryID, rec domain.LockRecord) {
	p, _ := rec.Payload.(domain.CompositePayload)
	for _, part := range p.Parts {
		part.Strategy.Commit(b, subRecord(rec, part))
	}
}

func (s *Composite) Release(b domain.BoundaryID, rec domain.LockRecord) {
	p, _ := rec.Payload.(domain.CompositePayload)
	for _, part := range p.Parts {
		part.Strategy.Release(b, subRecord(rec, part))
	}
}

// Active retorna nil: os registros do composite vivem nos stores das
// sub-estratégias e aparecem no Active de cada uma.
func (s *Composite) Active(domain.BoundaryID) []domain.LockRecord { return nil }

// ClearBoundary é no-op pelo mesmo motivo de Active: o estado pertence às
// sub-estratégias, limpas individualmente pelo Manager.
func (s *Composite) ClearBoundary(domain.BoundaryID) {}

func (s *Composite) Clear() {}
