package application

import (
	"sync/atomic"
	"time"

	"github.com/takeshishimada/Lockman-sub001/admission/domain"
)

// Handle é o token opaco de liberação de uma admissão: referencia o boundary,
// o registro e a estratégia dona, sem passar pelo Manager.
//
// A liberação acontece exatamente uma vez: a flag consumed torna invocações
// repetidas no-ops, independente da variante de timing usada.
type Handle struct {
	boundary domain.BoundaryID
	record   domain.LockRecord
	strategy domain.Strategy
	consumed atomic.Bool
}

func newHandle(b domain.BoundaryID, rec domain.LockRecord, s domain.Strategy) *Handle {
	return &Handle{boundary: b, record: rec, strategy: s}
}

// Record retorna o registro que o handle libera. Útil para log/telemetria.
func (h *Handle) Record() domain.LockRecord { return h.record }

// Boundary retorna o boundary da admissão.
func (h *Handle) Boundary() domain.BoundaryID { return h.boundary }

// Release remove o registro do store da estratégia, imediatamente.
// Invocações após a primeira são no-ops.
func (h *Handle) Release() {
	if h == nil || h.consumed.Swap(true) {
		return
	}
	h.strategy.Release(h.boundary, h.record)
}

// Released informa se o handle já foi consumido.
func (h *Handle) Released() bool { return h != nil && h.consumed.Load() }

// ReleaseAsync agenda a liberação para um próximo tick do scheduler, fora do
// caminho de execução atual do chamador.
func (h *Handle) ReleaseAsync() {
	if h == nil {
		return
	}
	go h.Release()
}

// ReleaseAfter agenda a liberação para depois do atraso informado.
// Um atraso <= 0 libera imediatamente. A política só muda QUANDO a liberação
// executa, nunca SE ela executa.
func (h *Handle) ReleaseAfter(d time.Duration) {
	if h == nil {
		return
	}
	if d <= 0 {
		h.Release()
		return
	}
	time.AfterFunc(d, h.Release)
}

// ReleaseOn libera quando o sinal externo fechar/enviar. O canal nil libera
// imediatamente.
func (h *Handle) ReleaseOn(signal <-chan struct{}) {
	if h == nil {
		return
	}
	if signal == nil {
		h.Release()
		return
	}
	go func() {
		<-signal
		h.Release()
	}()
}
