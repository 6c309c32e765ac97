package infra

import (
	"context"
	"testing"

	"github.com/takeshishimada/Lockman-sub001/admission/domain"
)

func TestMemoryStatsStore_CountsByOutcome(t *testing.T) {
	s := NewMemoryStatsStore()
	ctx := context.Background()

	_ = s.Record(ctx, domain.StatsEvent{StrategyID: "single-execution", Allowed: true})
	_ = s.Record(ctx, domain.StatsEvent{StrategyID: "priority-based", Allowed: true, Preempted: true})
	_ = s.Record(ctx, domain.StatsEvent{StrategyID: "single-execution", Allowed: false, Reason: domain.ReasonAlreadyRunning})

	total := s.Total()
	if total.Admitted != 1 || total.Preempted != 1 || total.Rejected != 1 {
		t.Fatalf("unexpected totals: %+v", total)
	}

	byStrategy := s.ByStrategy()
	if c := byStrategy["single-execution"]; c.Admitted != 1 || c.Rejected != 1 {
		t.Fatalf("unexpected single-execution counters: %+v", c)
	}
	if c := byStrategy["priority-based"]; c.Preempted != 1 {
		t.Fatalf("unexpected priority-based counters: %+v", c)
	}

	if got := s.ByReason()[domain.ReasonAlreadyRunning]; got != 1 {
		t.Fatalf("expected 1 AlreadyRunning rejection, got %d", got)
	}
}

func TestMemoryStatsStore_TracksBoundariesOnlyWhenEnabled(t *testing.T) {
	ctx := context.Background()

	off := NewMemoryStatsStore()
	_ = off.Record(ctx, domain.StatsEvent{Boundary: "b1", Allowed: true})
	if got := len(off.ByBoundary()); got != 0 {
		t.Fatalf("expected no boundary tracking by default, got %d entries", got)
	}

	on := NewMemoryStatsStore(WithTrackBoundaries(true))
	_ = on.Record(ctx, domain.StatsEvent{Boundary: "b1", Allowed: true})
	if c := on.ByBoundary()["b1"]; c.Admitted != 1 {
		t.Fatalf("expected b1 admitted=1, got %+v", c)
	}
}
