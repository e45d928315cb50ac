package grid

import (
	"context"
	"log/slog"
	"time"

	"github.com/use-agent/brightscrape/models"
)

// Sink receives each page's rows as they are produced, so a failure at any
// later page never loses data already collected.
type Sink interface {
	Append(rows []*models.Row, stamp time.Time) error
}

// WalkerConfig bounds one pagination walk.
type WalkerConfig struct {
	// MaxPages caps how many result pages the walk will visit.
	MaxPages int

	// Budget is the wall-clock budget for the whole walk. It is checked
	// only at page boundaries, so a slow page can overrun it by up to one
	// page's worth of waits. Zero disables the check.
	Budget time.Duration

	// SettleDelay is the fixed wait after advancing to the next page.
	SettleDelay time.Duration

	// StaleRetries bounds how often a stale pager control is re-located
	// before the walk gives up on advancing.
	StaleRetries int

	// StaleBackoff is the fixed wait between pager retries.
	StaleBackoff time.Duration
}

// Walker drives page-to-page advancement over the results grid, invoking
// the guard per page and appending each page's rows to the sink as they
// are produced.
type Walker struct {
	acc   PageAccessor
	guard *Guard
	sink  Sink
	cfg   WalkerConfig
	sleep func(time.Duration)
	now   func() time.Time
}

// NewWalker assembles a walker over the given accessor, guard, and sink.
func NewWalker(acc PageAccessor, guard *Guard, sink Sink, cfg WalkerConfig) *Walker {
	if cfg.MaxPages < 1 {
		cfg.MaxPages = 1
	}
	if cfg.StaleRetries < 1 {
		cfg.StaleRetries = 3
	}
	return &Walker{acc: acc, guard: guard, sink: sink, cfg: cfg, sleep: time.Sleep, now: time.Now}
}

// Run walks pages until exhaustion, cancellation, or budget expiry and
// returns the accumulated dataset with the reason the walk stopped.
// Cancellation and the budget are polled only at page boundaries.
func (w *Walker) Run(ctx context.Context) *models.Dataset {
	ds := &models.Dataset{}
	start := w.now()

	for page := 1; page <= w.cfg.MaxPages; page++ {
		if ctx.Err() != nil {
			slog.Info("walk cancelled", "page", page)
			ds.Stop = models.StopCancelled
			return ds
		}
		if w.cfg.Budget > 0 && w.now().Sub(start) > w.cfg.Budget {
			slog.Info("walk budget exhausted", "page", page, "budget", w.cfg.Budget)
			ds.Stop = models.StopBudget
			return ds
		}

		slog.Info("scraping page", "page", page)
		res := w.guard.Extract(ctx)
		if res.Empty() {
			if len(res.Headers) == 0 {
				ds.Stop = models.StopExtractFailed
			} else {
				ds.Stop = models.StopNoRows
			}
			slog.Info("no usable data, ending walk", "page", page, "reason", ds.Stop)
			return ds
		}

		// The schema is committed from the first page that yields headers
		// and stays immutable for the rest of the run.
		if ds.Headers == nil && len(res.Headers) > 0 {
			ds.Headers = res.Headers
		}
		ds.Rows = append(ds.Rows, res.Rows...)
		ds.Pages++

		if err := w.sink.Append(res.Rows, w.now()); err != nil {
			slog.Warn("sink append failed, continuing with next page", "page", page, "error", err)
		}

		if page == w.cfg.MaxPages {
			ds.Stop = models.StopMaxPages
			return ds
		}
		if !w.advance(ctx) {
			ds.Stop = models.StopPagerEnded
			return ds
		}
		w.sleep(w.cfg.SettleDelay)
	}

	ds.Stop = models.StopMaxPages
	return ds
}

// advance locates and triggers the next-page control. A stale pager
// reference is transient — the grid re-renders around it — and is retried
// without re-scraping the page; anything else ends the walk.
func (w *Walker) advance(ctx context.Context) bool {
	for attempt := 1; ; attempt++ {
		pager, err := w.acc.Pager(ctx)
		if err == nil {
			if !pager.Enabled() {
				slog.Info("pager disabled, no more pages")
				return false
			}
			if err = pager.Advance(ctx); err == nil {
				return true
			}
		}
		if !models.IsStale(err) {
			slog.Warn("pager navigation failed, ending walk", "error", err)
			return false
		}
		if attempt >= w.cfg.StaleRetries {
			slog.Warn("pager stayed stale, ending walk", "attempts", attempt)
			return false
		}
		slog.Warn("stale pager control, retrying advancement", "attempt", attempt)
		w.sleep(w.cfg.StaleBackoff)
	}
}
