package domain

// Strategy é um algoritmo plugável de decisão de admissão, dono do seu próprio
// store de registros ativos.
//
// O Manager garante que Decide/Commit/Release para um mesmo boundary são
// serializados pelo gate do boundary; ainda assim toda implementação deve ser
// segura para uso concorrente, porque boundaries distintos rodam em paralelo
// sobre o mesmo store.
type Strategy interface {
	// ID é o identificador único usado no registro e na resolução.
	ID() StrategyID

	// PayloadKind é o kind de payload que a estratégia aceita. A resolução
	// falha com ErrTypeMismatch quando a Request carrega outro kind.
	PayloadKind() string

	// Decide avalia a tentativa contra o estado ativo do boundary.
	// Nunca muta estado.
	Decide(boundary BoundaryID, rec LockRecord) Decision

	// Commit insere o registro admitido no store da estratégia.
	Commit(boundary BoundaryID, rec LockRecord)

	// Release remove o registro do store. É no-op se o registro já foi
	// removido (idempotente).
	Release(boundary BoundaryID, rec LockRecord)

	// Active retorna um snapshot dos registros ativos do boundary, em ordem
	// de inserção.
	Active(boundary BoundaryID) []LockRecord

	// ClearBoundary remove todos os registros do boundary.
	ClearBoundary(boundary BoundaryID)

	// Clear remove todos os registros de todos os boundaries.
	Clear()
}
