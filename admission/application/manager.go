package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/takeshishimada/Lockman-sub001/admission/domain"
)

// OutcomeKind discrimina o resultado de uma tentativa.
type OutcomeKind int

const (
	Admitted OutcomeKind = iota
	AdmittedWithPreemption
	Rejected
)

// Outcome é o resultado de Manager.Attempt.
//
// Handle está presente apenas nas admissões. Victims carrega os snapshots dos
// registros preemptados — já removidos do store no momento em que o Outcome é
// produzido, então o chamador só precisa interromper o trabalho das vítimas.
type Outcome struct {
	Kind    OutcomeKind
	Handle  *Handle
	Victims []domain.LockRecord

	// Reason e Diagnostic são preenchidos apenas em rejeições.
	Reason     domain.RejectReason
	Diagnostic domain.Diagnostic
}

// ManagerOption configura o Manager na construção.
type ManagerOption func(*Manager)

// WithStats registra cada tentativa no store de estatística, best-effort:
// erro de gravação nunca afeta o resultado da tentativa.
func WithStats(stats domain.StatsStore) ManagerOption {
	return func(m *Manager) { m.stats = stats }
}

// Manager orquestra o ciclo de vida de uma tentativa: resolve a estratégia,
// adquire o gate do boundary, decide, libera vítimas, commita e devolve o
// Outcome com o handle de liberação.
//
// O mapa de gates é append-only: um gate é criado na primeira tentativa do
// boundary e nunca destruído, o que elimina corridas entre criação e uso. O
// mapa em si é guardado por uma região curta própria, distinta de qualquer
// gate individual.
type Manager struct {
	registry *Registry
	stats    domain.StatsStore

	gatesMu sync.Mutex
	gates   map[domain.BoundaryID]*sync.Mutex
}

func NewManager(reg *Registry, opts ...ManagerOption) *Manager {
	m := &Manager{
		registry: reg,
		gates:    make(map[domain.BoundaryID]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Registry expõe o registry do Manager (registro de estratégias extras).
func (m *Manager) Registry() *Registry { return m.registry }

func (m *Manager) gate(b domain.BoundaryID) *sync.Mutex {
	m.gatesMu.Lock()
	defer m.gatesMu.Unlock()

	g, ok := m.gates[b]
	if !ok {
		g = &sync.Mutex{}
		m.gates[b] = g
	}
	return g
}

// Attempt executa uma tentativa de admissão.
//
// O erro retornado cobre apenas falhas de resolução (ErrNotRegistered,
// ErrTypeMismatch); rejeições de admissão são valores no Outcome, nunca erro.
// decide+commit para um boundary é estritamente serializado pelo gate dele;
// tentativas em boundaries distintos rodam em paralelo sem lock compartilhado.
//
// O contexto é usado apenas na gravação de estatística: o core não bloqueia
// nem faz I/O.
func (m *Manager) Attempt(ctx context.Context, b domain.BoundaryID, req domain.Request) (Outcome, error) {
	if req.Payload == nil {
		return Outcome{}, fmt.Errorf("%w: request without payload", domain.ErrTypeMismatch)
	}

	strategy, err := m.registry.Resolve(req.StrategyID, req.Payload.Kind())
	if err != nil {
		return Outcome{}, err
	}

	rec := domain.LockRecord{
		UniqueID:   uuid.NewString(),
		ActionID:   req.ActionID,
		StrategyID: strategy.ID(),
		Payload:    req.Payload,
	}

	gate := m.gate(b)
	gate.Lock()

	d := strategy.Decide(b, rec)
	if !d.Allowed {
		gate.Unlock()
		out := Outcome{Kind: Rejected, Reason: d.Reason, Diagnostic: d.Diagnostic}
		m.record(ctx, b, req, out)
		return out, nil
	}

	// vítimas saem do store ANTES do commit e ainda sob o gate: em nenhum
	// instante o registro antigo e o novo aparecem ativos ao mesmo tempo.
	victims := make([]domain.LockRecord, 0, len(d.Victims))
	for _, v := range d.Victims {
		v.Strategy.Release(b, v.Record)
		victims = append(victims, v.Record)
	}

	strategy.Commit(b, rec)
	gate.Unlock()

	out := Outcome{
		Kind:   Admitted,
		Handle: newHandle(b, rec, strategy),
	}
	if len(victims) > 0 {
		out.Kind = AdmittedWithPreemption
		out.Victims = victims
	}
	m.record(ctx, b, req, out)
	return out, nil
}

func (m *Manager) record(ctx context.Context, b domain.BoundaryID, req domain.Request, out Outcome) {
	if m.stats == nil {
		return
	}
	_ = m.stats.Record(ctx, domain.StatsEvent{
		Boundary:   b,
		ActionID:   req.ActionID,
		StrategyID: req.StrategyID,
		Allowed:    out.Kind != Rejected,
		Preempted:  out.Kind == AdmittedWithPreemption,
		Reason:     out.Reason,
		At:         time.Now(),
	})
}

// boundaries retorna todos os boundaries já vistos (o mapa de gates é
// append-only, então ele é o superconjunto de qualquer store).
func (m *Manager) boundaries() []domain.BoundaryID {
	m.gatesMu.Lock()
	defer m.gatesMu.Unlock()

	out := make([]domain.BoundaryID, 0, len(m.gates))
	for b := range m.gates {
		out = append(out, b)
	}
	return out
}

// ListActive retorna um snapshot dos registros ativos por estratégia e
// boundary, para debug/telemetria.
func (m *Manager) ListActive() map[domain.StrategyID]map[domain.BoundaryID][]domain.LockRecord {
	boundaries := m.boundaries()

	out := make(map[domain.StrategyID]map[domain.BoundaryID][]domain.LockRecord)
	for _, s := range m.registry.All() {
		for _, b := range boundaries {
			active := s.Active(b)
			if len(active) == 0 {
				continue
			}
			byBoundary, ok := out[s.ID()]
			if !ok {
				byBoundary = make(map[domain.BoundaryID][]domain.LockRecord)
				out[s.ID()] = byBoundary
			}
			byBoundary[b] = active
		}
	}
	return out
}

// ClearBoundary descarta os registros do boundary em todas as estratégias.
// Pensado para reset de teste e encerramento por boundary.
func (m *Manager) ClearBoundary(b domain.BoundaryID) {
	gate := m.gate(b)
	gate.Lock()
	defer gate.Unlock()

	for _, s := range m.registry.All() {
		s.ClearBoundary(b)
	}
}

// Clear descarta todos os registros de todas as estratégias (shutdown e
// isolamento de testes).
func (m *Manager) Clear() {
	for _, s := range m.registry.All() {
		s.Clear()
	}
}
