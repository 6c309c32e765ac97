package domain

// BoundaryID identifica um domínio independente de admissão/cancelamento.
// Ações em boundaries diferentes nunca interagem entre si.
type BoundaryID string

// ActionID é o rótulo semântico de um tipo de operação.
// Não é único por tentativa: várias tentativas podem carregar o mesmo ActionID.
type ActionID string

// StrategyID identifica uma estratégia registrada (ex: "single-execution").
type StrategyID string

// Request é o valor de entrada de uma tentativa de admissão, montado pela
// camada adaptadora (fora do engine).
type Request struct {
	ActionID   ActionID
	StrategyID StrategyID
	Payload    Payload
}
