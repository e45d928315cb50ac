package grid

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/use-agent/brightscrape/models"
)

type fakeSink struct {
	batches [][]*models.Row
	err     error
}

func (s *fakeSink) Append(rows []*models.Row, _ time.Time) error {
	s.batches = append(s.batches, rows)
	return s.err
}

type fakePager struct {
	enabled    bool
	advanceErr error
	advances   int
}

func (p *fakePager) Enabled() bool { return p.enabled }

func (p *fakePager) Advance(context.Context) error {
	p.advances++
	return p.advanceErr
}

func oneRow() []string {
	return []string{`<tr><td>PACT100</td><td>1 Main St</td><td>519,000</td></tr>`}
}

// newWalker assembles a walker over acc with sleeps stubbed out.
func newWalker(acc *fakeAccessor, sink Sink, cfg WalkerConfig) *Walker {
	w := NewWalker(acc, NewGuard(NewExtractor(acc), 1, 0), sink, cfg)
	w.sleep = func(time.Duration) {}
	return w
}

func TestWalker_SinglePageCap(t *testing.T) {
	acc := staticAccessor(sampleTable, oneRow())
	pagerCalls := 0
	acc.pagerFn = func(context.Context) (Pager, error) {
		pagerCalls++
		return &fakePager{enabled: true}, nil
	}
	sink := &fakeSink{}

	ds := newWalker(acc, sink, WalkerConfig{MaxPages: 1}).Run(context.Background())

	if ds.Stop != models.StopMaxPages {
		t.Errorf("stop = %q, want %q", ds.Stop, models.StopMaxPages)
	}
	if ds.Pages != 1 || len(ds.Rows) != 1 {
		t.Errorf("pages = %d rows = %d, want 1 and 1", ds.Pages, len(ds.Rows))
	}
	if pagerCalls != 0 {
		t.Errorf("pager consulted %d times, want 0 (cap reached before advancing)", pagerCalls)
	}
	if len(sink.batches) != 1 {
		t.Errorf("sink received %d batches, want 1", len(sink.batches))
	}
}

func TestWalker_PagerDisabledEndsWalk(t *testing.T) {
	acc := staticAccessor(sampleTable, oneRow())
	acc.pagerFn = func(context.Context) (Pager, error) {
		return &fakePager{enabled: false}, nil
	}

	ds := newWalker(acc, &fakeSink{}, WalkerConfig{MaxPages: 10}).Run(context.Background())

	if ds.Stop != models.StopPagerEnded {
		t.Errorf("stop = %q, want %q", ds.Stop, models.StopPagerEnded)
	}
	if ds.Pages != 1 {
		t.Errorf("pages = %d, want 1", ds.Pages)
	}
}

func TestWalker_RowsAccumulateAcrossPages(t *testing.T) {
	acc := staticAccessor(sampleTable, oneRow())
	pager := &fakePager{enabled: true}
	pagerCalls := 0
	acc.pagerFn = func(context.Context) (Pager, error) {
		pagerCalls++
		if pagerCalls >= 3 {
			pager.enabled = false
		}
		return pager, nil
	}
	sink := &fakeSink{}

	ds := newWalker(acc, sink, WalkerConfig{MaxPages: 10}).Run(context.Background())

	if ds.Pages != 3 || len(ds.Rows) != 3 {
		t.Errorf("pages = %d rows = %d, want 3 and 3", ds.Pages, len(ds.Rows))
	}
	if len(sink.batches) != 3 {
		t.Errorf("sink received %d batches, want 3 (one per page)", len(sink.batches))
	}
	// Schema comes from the first page and stays committed.
	if len(ds.Headers) != 5 || ds.Headers[0] != "MLS #" {
		t.Errorf("headers = %v, want the first page's schema", ds.Headers)
	}
}

func TestWalker_CancellationAtPageBoundary(t *testing.T) {
	acc := staticAccessor(sampleTable, oneRow())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &fakeSink{}
	ds := newWalker(acc, sink, WalkerConfig{MaxPages: 10}).Run(ctx)

	if ds.Stop != models.StopCancelled {
		t.Errorf("stop = %q, want %q", ds.Stop, models.StopCancelled)
	}
	if len(sink.batches) != 0 {
		t.Errorf("sink received %d batches, want 0", len(sink.batches))
	}
}

func TestWalker_BudgetCheckedAtBoundary(t *testing.T) {
	acc := staticAccessor(sampleTable, oneRow())
	acc.pagerFn = func(context.Context) (Pager, error) {
		return &fakePager{enabled: true}, nil
	}
	sink := &fakeSink{}

	w := newWalker(acc, sink, WalkerConfig{MaxPages: 10, Budget: 30 * time.Minute})
	base := time.Now()
	calls := 0
	w.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * 20 * time.Minute)
	}

	ds := w.Run(context.Background())

	if ds.Stop != models.StopBudget {
		t.Errorf("stop = %q, want %q", ds.Stop, models.StopBudget)
	}
	// The first page completed before the budget ran out; its rows stay.
	if ds.Pages != 1 || len(sink.batches) != 1 {
		t.Errorf("pages = %d batches = %d, want 1 and 1", ds.Pages, len(sink.batches))
	}
}

func TestWalker_SinkFailureDoesNotEndWalk(t *testing.T) {
	acc := staticAccessor(sampleTable, oneRow())
	pager := &fakePager{enabled: true}
	pagerCalls := 0
	acc.pagerFn = func(context.Context) (Pager, error) {
		pagerCalls++
		if pagerCalls >= 2 {
			pager.enabled = false
		}
		return pager, nil
	}
	sink := &fakeSink{err: errors.New("disk full")}

	ds := newWalker(acc, sink, WalkerConfig{MaxPages: 10}).Run(context.Background())

	if ds.Pages != 2 {
		t.Errorf("pages = %d, want 2 (walk survives sink failures)", ds.Pages)
	}
}

func TestWalker_StalePagerRetriesBounded(t *testing.T) {
	acc := staticAccessor(sampleTable, oneRow())
	pagerCalls := 0
	acc.pagerFn = func(context.Context) (Pager, error) {
		pagerCalls++
		return nil, staleErr()
	}

	ds := newWalker(acc, &fakeSink{}, WalkerConfig{MaxPages: 10, StaleRetries: 2}).Run(context.Background())

	if ds.Stop != models.StopPagerEnded {
		t.Errorf("stop = %q, want %q", ds.Stop, models.StopPagerEnded)
	}
	if pagerCalls != 2 {
		t.Errorf("pager attempted %d times, want 2", pagerCalls)
	}
}

func TestWalker_StopReasonOnEmptyPage(t *testing.T) {
	tests := []struct {
		name string
		acc  *fakeAccessor
		want models.StopReason
	}{
		{
			name: "no table at all",
			acc: &fakeAccessor{
				tableFn: func(context.Context) (string, error) {
					return "", models.NewScrapeError(models.ErrCodeTableNotFound, "gone", nil)
				},
			},
			want: models.StopExtractFailed,
		},
		{
			name: "table present but no rows",
			acc:  staticAccessor(sampleTable, nil),
			want: models.StopNoRows,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := newWalker(tt.acc, &fakeSink{}, WalkerConfig{MaxPages: 10}).Run(context.Background())
			if ds.Stop != tt.want {
				t.Errorf("stop = %q, want %q", ds.Stop, tt.want)
			}
		})
	}
}
