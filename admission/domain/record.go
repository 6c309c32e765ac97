package domain

// LockRecord é o descritor armazenado de uma tentativa admitida.
//
// UniqueID é único por tentativa (nunca reutilizado enquanto o registro está
// vivo); ActionID e StrategyID vêm da Request que originou a admissão.
type LockRecord struct {
	UniqueID   string
	ActionID   ActionID
	StrategyID StrategyID
	Payload    Payload
}

// Payload é a carga específica de cada estratégia dentro de uma Request ou de
// um LockRecord.
//
// Kind é usado pelo registry na resolução: a estratégia declara qual kind
// aceita, e uma Request com kind diferente falha com ErrTypeMismatch.
type Payload interface {
	Kind() string
}

// Kinds de payload aceitos pelas estratégias embutidas.
const (
	KindSingleExecution = "single-execution"
	KindPriority        = "priority"
	KindConcurrency     = "concurrency-limited"
	KindGroup           = "group-coordination"
	KindComposite       = "composite"
	KindRateLimit       = "rate-limit"
)

// ExecutionMode controla o escopo da exclusão mútua da estratégia
// single-execution.
type ExecutionMode int

const (
	// ModeNone nunca rastreia registro e sempre admite.
	ModeNone ExecutionMode = iota
	// ModeBoundary admite no máximo uma operação por boundary.
	ModeBoundary
	// ModeAction admite no máximo uma operação por (boundary, actionID).
	ModeAction
)

// SingleExecutionPayload é o payload da estratégia single-execution.
type SingleExecutionPayload struct {
	Mode ExecutionMode
}

func (SingleExecutionPayload) Kind() string { return KindSingleExecution }

// Priority é ordenável: valores maiores preemptam valores menores.
type Priority int

const (
	PriorityLow  Priority = 1
	PriorityHigh Priority = 2
)

// Exclusivity define o desempate entre prioridades iguais: exclusive rejeita
// a nova tentativa, replaceable permite coexistência (se ambos os lados forem
// replaceable).
type Exclusivity int

const (
	Exclusive Exclusivity = iota
	Replaceable
)

// PriorityPayload é o payload da estratégia priority-based.
type PriorityPayload struct {
	Priority    Priority
	Exclusivity Exclusivity
}

func (PriorityPayload) Kind() string { return KindPriority }

// ConcurrencyLimit é o teto de admissões simultâneas de um grupo.
// Max <= 0 significa ilimitado.
type ConcurrencyLimit struct {
	Max int
}

// Unlimited informa se o limite não restringe nada.
func (l ConcurrencyLimit) Unlimited() bool { return l.Max <= 0 }

// ConcurrencyPayload é o payload da estratégia concurrency-limited.
type ConcurrencyPayload struct {
	Group string
	Limit ConcurrencyLimit
}

func (ConcurrencyPayload) Kind() string { return KindConcurrency }

// GroupRole define o papel de uma tentativa na coordenação de grupo.
type GroupRole int

const (
	RoleLeader GroupRole = iota
	RoleMember
)

// MemberEntryPolicy controla quando um member pode entrar num grupo com líder
// ativo.
type MemberEntryPolicy int

const (
	// JoinAnytime permite entrada a qualquer momento enquanto houver líder.
	JoinAnytime MemberEntryPolicy = iota
	// JoinBeforeOthers permite entrada apenas enquanto nenhum outro member
	// tiver entrado no grupo (fase inicial do líder).
	JoinBeforeOthers
)

// GroupPayload é o payload da estratégia group-coordination.
type GroupPayload struct {
	Groups []string
	Role   GroupRole
	Entry  MemberEntryPolicy
}

func (GroupPayload) Kind() string { return KindGroup }

// CompositePart é um par (estratégia, sub-payload) dentro de um composite.
type CompositePart struct {
	Strategy Strategy
	Payload  Payload
}

// CompositePayload é o payload da estratégia composite: uma lista ordenada de
// sub-estratégias avaliadas em duas fases (decide tudo, depois commit tudo).
type CompositePayload struct {
	Parts []CompositePart
}

func (CompositePayload) Kind() string { return KindComposite }

// RateLimitPayload é o payload da estratégia rate-limit (token bucket).
// Key vazio usa o ActionID da Request como chave do bucket.
type RateLimitPayload struct {
	Key   string
	RPS   float64
	Burst int
}

func (RateLimitPayload) Kind() string { return KindRateLimit }
