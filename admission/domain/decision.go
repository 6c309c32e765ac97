package domain

// RejectReason classifica uma rejeição de admissão. Rejeições são valores
// esperados e recuperáveis, não erros: o engine nunca re-tenta em nome do
// chamador.
type RejectReason string

const (
	ReasonAlreadyRunning       RejectReason = "already-running"
	ReasonSamePriorityConflict RejectReason = "same-priority-conflict"
	ReasonLowerPriorityBlocked RejectReason = "lower-priority-blocked"
	ReasonLimitReached         RejectReason = "limit-reached"
	ReasonLeaderAlreadyActive  RejectReason = "leader-already-active"
	ReasonNoActiveLeader       RejectReason = "no-active-leader"
	ReasonRateLimited          RejectReason = "rate-limited"

	// ReasonPayloadMismatch indica uma parte de composite cujo payload não é
	// do kind que a sub-estratégia aceita. Partes de composite não passam
	// pela checagem de kind do registry, então o composite valida antes de
	// avaliar qualquer sub-estratégia.
	ReasonPayloadMismatch RejectReason = "payload-mismatch"
)

// Diagnostic é o snapshot estruturado que acompanha uma rejeição, suficiente
// para a camada adaptadora montar mensagens ou decidir retry.
type Diagnostic struct {
	// HolderCount é a quantidade de registros ativos considerados na decisão.
	HolderCount int
	// Conflicting são os registros que motivaram a rejeição.
	Conflicting []LockRecord
}

// Victim é um registro ativo escolhido para preempção, junto da estratégia
// dona do registro (no composite, a sub-estratégia que o decidiu).
//
// Quando uma decisão com vítimas é retornada pelo Manager, os registros já
// foram removidos do store: o chamador só precisa interromper o trabalho em
// voo da vítima, nunca liberar o lock dela.
type Victim struct {
	Strategy Strategy
	Record   LockRecord
}

// Decision é o resultado do decide de uma estratégia, antes do commit.
type Decision struct {
	Allowed bool

	// Victims, quando não vazio, indica admissão por preempção: os registros
	// listados devem ser liberados antes do commit do novo registro.
	Victims []Victim

	// Reason e Diagnostic são preenchidos apenas quando Allowed=false.
	Reason     RejectReason
	Diagnostic Diagnostic
}

// Admit é a decisão de admissão simples.
func Admit() Decision { return Decision{Allowed: true} }

// AdmitPreempting admite removendo as vítimas antes do commit.
func AdmitPreempting(victims ...Victim) Decision {
	return Decision{Allowed: true, Victims: victims}
}

// Reject monta uma decisão de rejeição com diagnóstico.
func Reject(reason RejectReason, holderCount int, conflicting ...LockRecord) Decision {
	return Decision{
		Allowed: false,
		Reason:  reason,
		Diagnostic: Diagnostic{
			HolderCount: holderCount,
			Conflicting: conflicting,
		},
	}
}
