package infra

import (
	"fmt"
	"sync"
	"testing"

	"github.com/takeshishimada/Lockman-sub001/admission/domain"
)

func rec(id string, action domain.ActionID) domain.LockRecord {
	return domain.LockRecord{UniqueID: id, ActionID: action, StrategyID: "test"}
}

func TestLockStore_AddThenCurrentPreservesInsertionOrder(t *testing.T) {
	s := NewLockStore()
	b := domain.BoundaryID("b1")

	s.Add(b, rec("u1", "a"), "a")
	s.Add(b, rec("u2", "b"), "b")
	s.Add(b, rec("u3", "a"), "a")

	cur := s.Current(b)
	if len(cur) != 3 {
		t.Fatalf("expected 3 records, got %d", len(cur))
	}
	for i, want := range []string{"u1", "u2", "u3"} {
		if cur[i].UniqueID != want {
			t.Fatalf("expected %s at position %d, got %s", want, i, cur[i].UniqueID)
		}
	}
}

func TestLockStore_RemoveIsIdempotent(t *testing.T) {
	s := NewLockStore()
	b := domain.BoundaryID("b1")

	s.Add(b, rec("u1", "a"), "a")
	s.Remove(b, "u1")
	s.Remove(b, "u1")
	s.Remove(b, "never-added")

	if got := len(s.Current(b)); got != 0 {
		t.Fatalf("expected empty store, got %d records", got)
	}
	if got := s.Count(b, "a"); got != 0 {
		t.Fatalf("expected key count 0, got %d", got)
	}
}

func TestLockStore_CountAndCurrentByKey(t *testing.T) {
	s := NewLockStore()
	b := domain.BoundaryID("b1")

	s.Add(b, rec("u1", "a"), "g1")
	s.Add(b, rec("u2", "b"), "g1")
	s.Add(b, rec("u3", "c"), "g2")

	if got := s.Count(b, "g1"); got != 2 {
		t.Fatalf("expected count 2 for g1, got %d", got)
	}
	byKey := s.CurrentByKey(b, "g1")
	if len(byKey) != 2 || byKey[0].UniqueID != "u1" || byKey[1].UniqueID != "u2" {
		t.Fatalf("unexpected g1 snapshot: %+v", byKey)
	}
}

func TestLockStore_RemoveAllByKeyDropsOnlyThatKey(t *testing.T) {
	s := NewLockStore()
	b := domain.BoundaryID("b1")

	s.Add(b, rec("u1", "a"), "g1")
	s.Add(b, rec("u2", "b"), "g1")
	s.Add(b, rec("u3", "c"), "g2")

	s.RemoveAllByKey(b, "g1")

	if got := s.Count(b, "g1"); got != 0 {
		t.Fatalf("expected g1 empty, got %d", got)
	}
	if got := s.Count(b, "g2"); got != 1 {
		t.Fatalf("expected g2 untouched, got %d", got)
	}
	if keys := s.Keys(b); len(keys) != 1 || keys[0] != "g2" {
		t.Fatalf("unexpected keys: %v", keys)
	}
}

func TestLockStore_BoundariesAreIndependent(t *testing.T) {
	s := NewLockStore()
	b1 := domain.BoundaryID("b1")
	b2 := domain.BoundaryID("b2")

	s.Add(b1, rec("u1", "a"), "a")
	s.Add(b2, rec("u2", "a"), "a")

	s.ClearBoundary(b1)

	if got := len(s.Current(b1)); got != 0 {
		t.Fatalf("expected b1 cleared, got %d", got)
	}
	if got := len(s.Current(b2)); got != 1 {
		t.Fatalf("expected b2 untouched, got %d", got)
	}
}

func TestLockStore_ClearDropsEverything(t *testing.T) {
	s := NewLockStore()
	s.Add("b1", rec("u1", "a"), "a")
	s.Add("b2", rec("u2", "a"), "a")

	s.Clear()

	if got := len(s.Boundaries()); got != 0 {
		t.Fatalf("expected no boundaries after Clear, got %d", got)
	}
}

func TestLockStore_ConcurrentAddRemoveKeepsIndexConsistent(t *testing.T) {
	s := NewLockStore()
	b := domain.BoundaryID("b1")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("u%d", i)
			s.Add(b, rec(id, "a"), "g")
			s.Remove(b, id)
		}(i)
	}
	wg.Wait()

	if got := s.Count(b, "g"); got != 0 {
		t.Fatalf("expected count 0 after add/remove pairs, got %d", got)
	}
	if got := len(s.Current(b)); got != 0 {
		t.Fatalf("expected no records, got %d", got)
	}
}
