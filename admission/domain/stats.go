package domain

import (
	"context"
	"time"
)

// StatsEvent representa o resultado de uma tentativa de admissão, para fins
// de estatística/telemetria.
//
// Observação: cuidado com cardinalidade — gravar Boundary sem controle pode
// explodir o número de chaves em uma base como Redis.
type StatsEvent struct {
	Boundary   BoundaryID
	ActionID   ActionID
	StrategyID StrategyID

	Allowed   bool
	Preempted bool
	Reason    RejectReason

	At time.Time
}

// StatsStore é a estratégia de persistência das estatísticas de decisão.
//
// Implementações podem armazenar em Redis, memória, etc. O Manager trata erro
// como best-effort (nunca falha uma tentativa por erro de estatística).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
