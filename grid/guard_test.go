package grid

import (
	"context"
	"testing"
	"time"

	"github.com/use-agent/brightscrape/models"
)

func TestGuard_StaleThenSuccess(t *testing.T) {
	calls := 0
	acc := &fakeAccessor{
		tableFn: func(context.Context) (string, error) { return sampleTable, nil },
		rowsFn: func(context.Context) ([]string, error) {
			calls++
			if calls <= 2 {
				return nil, staleErr()
			}
			return []string{`<tr><td>PACT100</td><td>1 Main St</td><td>519,000</td></tr>`}, nil
		},
	}

	g := NewGuard(NewExtractor(acc), 3, 2*time.Second)
	var slept []time.Duration
	g.sleep = func(d time.Duration) { slept = append(slept, d) }

	res := g.Extract(context.Background())
	if res.Empty() {
		t.Fatal("expected rows after stale reads resolved")
	}
	if calls != 3 {
		t.Errorf("extraction attempted %d times, want 3", calls)
	}
	if len(slept) != 2 {
		t.Fatalf("slept %d times, want 2 (between attempts only)", len(slept))
	}
	for _, d := range slept {
		if d != 2*time.Second {
			t.Errorf("backoff = %v, want 2s", d)
		}
	}
}

func TestGuard_NonStaleFailsFast(t *testing.T) {
	calls := 0
	acc := &fakeAccessor{
		tableFn: func(context.Context) (string, error) {
			calls++
			return "", models.NewScrapeError(models.ErrCodeTableNotFound, "gone", nil)
		},
	}

	g := NewGuard(NewExtractor(acc), 3, time.Second)
	slept := 0
	g.sleep = func(time.Duration) { slept++ }

	res := g.Extract(context.Background())
	if !res.Empty() {
		t.Fatal("expected empty result on structural failure")
	}
	if calls != 1 {
		t.Errorf("extraction attempted %d times, want 1 (no retry for non-stale errors)", calls)
	}
	if slept != 0 {
		t.Errorf("slept %d times, want 0", slept)
	}
}

func TestGuard_StaleExhaustion(t *testing.T) {
	calls := 0
	acc := &fakeAccessor{
		tableFn: func(context.Context) (string, error) {
			calls++
			return "", staleErr()
		},
	}

	g := NewGuard(NewExtractor(acc), 3, time.Second)
	slept := 0
	g.sleep = func(time.Duration) { slept++ }

	res := g.Extract(context.Background())
	if !res.Empty() {
		t.Fatal("expected empty result after exhausting retries")
	}
	if calls != 3 {
		t.Errorf("extraction attempted %d times, want 3", calls)
	}
	if slept != 2 {
		t.Errorf("slept %d times, want 2 (no sleep after the final attempt)", slept)
	}
}

func TestGuard_ClampsAttempts(t *testing.T) {
	acc := staticAccessor(sampleTable, []string{`<tr><td>x</td><td>y</td><td>z</td></tr>`})
	g := NewGuard(NewExtractor(acc), 0, time.Second)
	if g.attempts != 1 {
		t.Errorf("attempts = %d, want clamped to 1", g.attempts)
	}
	if res := g.Extract(context.Background()); res.Empty() {
		t.Error("expected a successful extraction")
	}
}
