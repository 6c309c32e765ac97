package infra

import (
	"sort"
	"sync"

	"github.com/takeshishimada/Lockman-sub001/admission/domain"
)

// LockStore é o store de registros ativos de uma estratégia.
//
// Mantém, por boundary, duas estruturas sincronizadas sob uma única região
// exclusiva de curta duração: um mapa uniqueID → registro que preserva ordem
// de inserção (via sequência monotônica) e um índice chave → conjunto de
// uniqueIDs, onde a chave é escolhida pela estratégia dona (ex: actionID,
// grupo de concorrência).
//
// A região nunca é mantida entre chamadas — apenas dentro de uma operação.
type LockStore struct {
	mu         sync.Mutex
	boundaries map[domain.BoundaryID]*boundaryLocks
}

type lockEntry struct {
	rec domain.LockRecord
	key string
	seq uint64
}

type boundaryLocks struct {
	nextSeq uint64
	byID    map[string]lockEntry
	byKey   map[string]map[string]struct{}
}

func NewLockStore() *LockStore {
	return &LockStore{boundaries: make(map[domain.BoundaryID]*boundaryLocks)}
}

// locked: só chamar segurando s.mu.
func (s *LockStore) locksFor(b domain.BoundaryID) *boundaryLocks {
	bl, ok := s.boundaries[b]
	if !ok {
		bl = &boundaryLocks{
			byID:  make(map[string]lockEntry),
			byKey: make(map[string]map[string]struct{}),
		}
		s.boundaries[b] = bl
	}
	return bl
}

// Add insere o registro sob a chave de índice informada.
// Um uniqueID já presente é sobrescrito preservando a posição original —
// na prática não acontece, porque uniqueIDs nunca são reusados em vida.
func (s *LockStore) Add(b domain.BoundaryID, rec domain.LockRecord, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bl := s.locksFor(b)

	if old, ok := bl.byID[rec.UniqueID]; ok {
		bl.unindex(old)
		bl.byID[rec.UniqueID] = lockEntry{rec: rec, key: key, seq: old.seq}
	} else {
		bl.byID[rec.UniqueID] = lockEntry{rec: rec, key: key, seq: bl.nextSeq}
		bl.nextSeq++
	}

	ids, ok := bl.byKey[key]
	if !ok {
		ids = make(map[string]struct{})
		bl.byKey[key] = ids
	}
	ids[rec.UniqueID] = struct{}{}
}

// Remove retira o registro pelo uniqueID. No-op se ausente (idempotente).
func (s *LockStore) Remove(b domain.BoundaryID, uniqueID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bl, ok := s.boundaries[b]
	if !ok {
		return
	}
	ent, ok := bl.byID[uniqueID]
	if !ok {
		return
	}
	delete(bl.byID, uniqueID)
	bl.unindex(ent)
}

// RemoveAllByKey remove todos os registros indexados sob a chave.
// O(n) no tamanho do conjunto da chave.
func (s *LockStore) RemoveAllByKey(b domain.BoundaryID, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bl, ok := s.boundaries[b]
	if !ok {
		return
	}
	for id := range bl.byKey[key] {
		delete(bl.byID, id)
	}
	delete(bl.byKey, key)
}

func (bl *boundaryLocks) unindex(ent lockEntry) {
	ids := bl.byKey[ent.key]
	delete(ids, ent.rec.UniqueID)
	if len(ids) == 0 {
		delete(bl.byKey, ent.key)
	}
}

// Current retorna um snapshot dos registros do boundary em ordem de inserção.
func (s *LockStore) Current(b domain.BoundaryID) []domain.LockRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	bl, ok := s.boundaries[b]
	if !ok {
		return nil
	}
	return bl.snapshot(func(lockEntry) bool { return true })
}

// CurrentByKey retorna o snapshot dos registros da chave, em ordem de inserção.
func (s *LockStore) CurrentByKey(b domain.BoundaryID, key string) []domain.LockRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	bl, ok := s.boundaries[b]
	if !ok {
		return nil
	}
	return bl.snapshot(func(ent lockEntry) bool { return ent.key == key })
}

func (bl *boundaryLocks) snapshot(match func(lockEntry) bool) []domain.LockRecord {
	entries := make([]lockEntry, 0, len(bl.byID))
	for _, ent := range bl.byID {
		if match(ent) {
			entries = append(entries, ent)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	out := make([]domain.LockRecord, len(entries))
	for i, ent := range entries {
		out[i] = ent.rec
	}
	return out
}

// Count retorna quantos registros ativos a chave tem no boundary.
func (s *LockStore) Count(b domain.BoundaryID, key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	bl, ok := s.boundaries[b]
	if !ok {
		return 0
	}
	return len(bl.byKey[key])
}

// Keys retorna as chaves com pelo menos um registro ativo no boundary.
func (s *LockStore) Keys(b domain.BoundaryID) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	bl, ok := s.boundaries[b]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(bl.byKey))
	for k := range bl.byKey {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Boundaries retorna os boundaries com pelo menos um registro ativo.
func (s *LockStore) Boundaries() []domain.BoundaryID {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.BoundaryID, 0, len(s.boundaries))
	for b, bl := range s.boundaries {
		if len(bl.byID) > 0 {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ClearBoundary descarta todos os registros do boundary.
func (s *LockStore) ClearBoundary(b domain.BoundaryID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.boundaries, b)
}

// Clear descarta todos os registros de todos os boundaries.
func (s *LockStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boundaries = make(map[domain.BoundaryID]*boundaryLocks)
}
