package admission

import (
	"context"
	"sync"
	"testing"

	"github.com/takeshishimada/Lockman-sub001/admission/application"
	"github.com/takeshishimada/Lockman-sub001/admission/domain"
	"github.com/takeshishimada/Lockman-sub001/admission/infra"
)

func mustNew(t *testing.T, opts ...Option) *application.Manager {
	t.Helper()
	m, err := New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func singleExecutionRequest(action domain.ActionID) domain.Request {
	return domain.Request{
		ActionID:   action,
		StrategyID: SingleExecutionID,
		Payload:    domain.SingleExecutionPayload{Mode: domain.ModeAction},
	}
}

func TestNew_RegistersAllBuiltinStrategies(t *testing.T) {
	m := mustNew(t)

	kinds := map[domain.StrategyID]string{
		SingleExecutionID:    domain.KindSingleExecution,
		PriorityBasedID:      domain.KindPriority,
		ConcurrencyLimitedID: domain.KindConcurrency,
		GroupCoordinationID:  domain.KindGroup,
		CompositeID:          domain.KindComposite,
		RateLimitID:          domain.KindRateLimit,
	}
	for id, kind := range kinds {
		if _, err := m.Registry().Resolve(id, kind); err != nil {
			t.Fatalf("expected %s registered: %v", id, err)
		}
	}
}

func TestAttempt_MutualExclusionSequencing(t *testing.T) {
	m := mustNew(t)
	ctx := context.Background()
	b := domain.BoundaryID("B")

	out1, err := m.Attempt(ctx, b, singleExecutionRequest("submit"))
	if err != nil || out1.Kind != application.Admitted {
		t.Fatalf("expected first attempt admitted, got %+v err=%v", out1, err)
	}

	out2, err := m.Attempt(ctx, b, singleExecutionRequest("submit"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out2.Kind != application.Rejected || out2.Reason != domain.ReasonAlreadyRunning {
		t.Fatalf("expected AlreadyRunning rejection, got %+v", out2)
	}

	out1.Handle.Release()

	out3, err := m.Attempt(ctx, b, singleExecutionRequest("submit"))
	if err != nil || out3.Kind != application.Admitted {
		t.Fatalf("expected admission after release, got %+v err=%v", out3, err)
	}
}

func TestAttempt_PriorityPreemptionRemovesVictimFromStore(t *testing.T) {
	m := mustNew(t)
	ctx := context.Background()
	b := domain.BoundaryID("B")

	low, err := m.Attempt(ctx, b, domain.Request{
		ActionID:   "work",
		StrategyID: PriorityBasedID,
		Payload:    domain.PriorityPayload{Priority: domain.PriorityLow, Exclusivity: domain.Replaceable},
	})
	if err != nil || low.Kind != application.Admitted {
		t.Fatalf("expected low admitted, got %+v err=%v", low, err)
	}

	high, err := m.Attempt(ctx, b, domain.Request{
		ActionID:   "work",
		StrategyID: PriorityBasedID,
		Payload:    domain.PriorityPayload{Priority: domain.PriorityHigh, Exclusivity: domain.Exclusive},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if high.Kind != application.AdmittedWithPreemption {
		t.Fatalf("expected preempting admission, got %+v", high)
	}
	if len(high.Victims) != 1 || high.Victims[0].UniqueID != low.Handle.Record().UniqueID {
		t.Fatalf("expected low record as victim, got %+v", high.Victims)
	}

	strategy, _ := m.Registry().Resolve(PriorityBasedID, domain.KindPriority)
	active := strategy.Active(b)
	if len(active) != 1 || active[0].UniqueID != high.Handle.Record().UniqueID {
		t.Fatalf("store must exclude the victim and include the new record, got %+v", active)
	}

	// liberar o handle da vítima depois da preempção é no-op inofensivo.
	low.Handle.Release()
	if got := strategy.Active(b); len(got) != 1 {
		t.Fatalf("victim handle release must be a no-op, got %+v", got)
	}
}

func TestAttempt_ConcurrencyCapUnderConcurrentAttempts(t *testing.T) {
	m := mustNew(t)
	b := domain.BoundaryID("B")

	req := domain.Request{
		ActionID:   "fetch",
		StrategyID: ConcurrencyLimitedID,
		Payload: domain.ConcurrencyPayload{
			Group: "G",
			Limit: domain.ConcurrencyLimit{Max: 2},
		},
	}

	strategy, err := m.Registry().Resolve(ConcurrencyLimitedID, domain.KindConcurrency)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	const attempts = 3
	var wg sync.WaitGroup
	results := make(chan application.Outcome, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := m.Attempt(context.Background(), b, req)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			// observação no meio do voo: o teto vale em qualquer instante,
			// não só depois que todas as tentativas terminam.
			if got := len(strategy.Active(b)); got > 2 {
				t.Errorf("active count exceeded the limit mid-flight: %d", got)
			}
			results <- out
		}()
	}
	wg.Wait()
	close(results)

	admitted, rejected := 0, 0
	for out := range results {
		switch out.Kind {
		case application.Admitted:
			admitted++
		case application.Rejected:
			rejected++
			if out.Reason != domain.ReasonLimitReached {
				t.Errorf("expected LimitReached, got %s", out.Reason)
			}
		}
	}
	if admitted != 2 || rejected != 1 {
		t.Fatalf("expected exactly 2 admitted and 1 rejected, got %d/%d", admitted, rejected)
	}

	if got := len(strategy.Active(b)); got != 2 {
		t.Fatalf("active count must not exceed the limit, got %d", got)
	}
}

func TestAttempt_CompositeShortCircuitLeavesFirstStoreUnchanged(t *testing.T) {
	m := mustNew(t)
	ctx := context.Background()
	b := domain.BoundaryID("B")

	se, _ := m.Registry().Resolve(SingleExecutionID, domain.KindSingleExecution)
	cl, _ := m.Registry().Resolve(ConcurrencyLimitedID, domain.KindConcurrency)

	// ocupa o único slot do grupo para a segunda parte rejeitar.
	held, err := m.Attempt(ctx, b, domain.Request{
		ActionID:   "upload",
		StrategyID: ConcurrencyLimitedID,
		Payload:    domain.ConcurrencyPayload{Group: "G", Limit: domain.ConcurrencyLimit{Max: 1}},
	})
	if err != nil || held.Kind != application.Admitted {
		t.Fatalf("setup attempt failed: %+v err=%v", held, err)
	}

	out, err := m.Attempt(ctx, b, domain.Request{
		ActionID:   "upload",
		StrategyID: CompositeID,
		Payload: domain.CompositePayload{Parts: []domain.CompositePart{
			{Strategy: se, Payload: domain.SingleExecutionPayload{Mode: domain.ModeAction}},
			{Strategy: cl, Payload: domain.ConcurrencyPayload{Group: "G", Limit: domain.ConcurrencyLimit{Max: 1}}},
		}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Kind != application.Rejected || out.Reason != domain.ReasonLimitReached {
		t.Fatalf("expected composite rejected by second part, got %+v", out)
	}
	if got := len(se.Active(b)); got != 0 {
		t.Fatalf("first part's store must be unchanged, got %d records", got)
	}
}

func TestAttempt_CompositeAdmissionReleasesThroughHandle(t *testing.T) {
	m := mustNew(t)
	ctx := context.Background()
	b := domain.BoundaryID("B")

	se, _ := m.Registry().Resolve(SingleExecutionID, domain.KindSingleExecution)
	cl, _ := m.Registry().Resolve(ConcurrencyLimitedID, domain.KindConcurrency)

	out, err := m.Attempt(ctx, b, domain.Request{
		ActionID:   "upload",
		StrategyID: CompositeID,
		Payload: domain.CompositePayload{Parts: []domain.CompositePart{
			{Strategy: se, Payload: domain.SingleExecutionPayload{Mode: domain.ModeAction}},
			{Strategy: cl, Payload: domain.ConcurrencyPayload{Group: "G", Limit: domain.ConcurrencyLimit{Max: 1}}},
		}},
	})
	if err != nil || out.Kind != application.Admitted {
		t.Fatalf("expected composite admitted, got %+v err=%v", out, err)
	}
	if len(se.Active(b)) != 1 || len(cl.Active(b)) != 1 {
		t.Fatalf("expected sub-locks in both stores")
	}

	out.Handle.Release()
	if len(se.Active(b)) != 0 || len(cl.Active(b)) != 0 {
		t.Fatalf("expected release to fan out to all sub-strategies")
	}
}

func TestAttempt_CrossBoundaryIndependence(t *testing.T) {
	m := mustNew(t)
	ctx := context.Background()

	out1, _ := m.Attempt(ctx, "B1", singleExecutionRequest("submit"))
	out2, err := m.Attempt(ctx, "B2", singleExecutionRequest("submit"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out1.Kind != application.Admitted || out2.Kind != application.Admitted {
		t.Fatalf("identical requests on distinct boundaries must both admit, got %v and %v", out1.Kind, out2.Kind)
	}
}

func TestAttempt_RecordsStatsInMemoryStore(t *testing.T) {
	stats := infra.NewMemoryStatsStore()
	m := mustNew(t, WithStats(stats))
	ctx := context.Background()

	_, _ = m.Attempt(ctx, "B", singleExecutionRequest("submit"))
	_, _ = m.Attempt(ctx, "B", singleExecutionRequest("submit"))

	total := stats.Total()
	if total.Admitted != 1 || total.Rejected != 1 {
		t.Fatalf("expected 1 admitted and 1 rejected recorded, got %+v", total)
	}
}

func TestClear_ResetsEveryStrategy(t *testing.T) {
	m := mustNew(t)
	ctx := context.Background()

	_, _ = m.Attempt(ctx, "B", singleExecutionRequest("submit"))
	m.Clear()

	out, err := m.Attempt(ctx, "B", singleExecutionRequest("submit"))
	if err != nil || out.Kind != application.Admitted {
		t.Fatalf("expected admission after Clear, got %+v err=%v", out, err)
	}
}

func TestDefault_IsSubstitutable(t *testing.T) {
	original := Default()
	if original == nil {
		t.Fatalf("expected lazily built default instance")
	}

	replacement := mustNew(t)
	SetDefault(replacement)
	defer SetDefault(original)

	if Default() != replacement {
		t.Fatalf("expected SetDefault to replace the default instance")
	}
}
