package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/use-agent/brightscrape/browser"
	"github.com/use-agent/brightscrape/config"
	"github.com/use-agent/brightscrape/grid"
	"github.com/use-agent/brightscrape/models"
	"github.com/use-agent/brightscrape/store"
	"github.com/use-agent/brightscrape/webhook"
)

// Runner executes scrape cycles one at a time. A cycle owns a browser
// session for its whole duration; concurrent cycles would fight over the
// portal's server-side result state, so at most one runs at once.
type Runner struct {
	cfg *config.Config

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
}

// New creates a Runner over cfg.
func New(cfg *config.Config) *Runner {
	return &Runner{cfg: cfg}
}

// Running reports whether a scrape cycle is currently executing.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Stop requests cancellation of the active cycle. The cycle observes the
// request at its next page boundary, so rows already persisted stay
// persisted. Returns false when no cycle is active.
func (r *Runner) Stop() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running || r.cancel == nil {
		return false
	}
	r.cancel()
	return true
}

// Run executes one full scrape cycle: session, login, search, pagination
// walk, change detection. It always produces an outcome — failures and
// panics are mapped to a failure outcome rather than propagated — and the
// browser session is released on every exit path.
func (r *Runner) Run(ctx context.Context) (outcome *models.RunOutcome) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return &models.RunOutcome{
			Success:   false,
			Message:   "scraping is already in progress",
			Timestamp: time.Now().Format(models.TimeLayout),
		}
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.running = true
	r.cancel = cancel
	r.mu.Unlock()

	defer func() {
		cancel()
		r.mu.Lock()
		r.running = false
		r.cancel = nil
		r.mu.Unlock()

		if rec := recover(); rec != nil {
			slog.Error("scrape cycle panicked", "panic", rec)
			outcome = &models.RunOutcome{
				Success:   false,
				Message:   fmt.Sprintf("scrape failed: %v", rec),
				Timestamp: time.Now().Format(models.TimeLayout),
			}
		}
		r.notify(outcome)
	}()

	outcome = r.execute(runCtx)
	return outcome
}

func (r *Runner) execute(ctx context.Context) *models.RunOutcome {
	start := time.Now()
	slog.Info("scrape cycle starting")

	session, err := browser.NewSession(r.cfg.Browser, r.cfg.Portal, r.cfg.Grid.WaitTimeout)
	if err != nil {
		return failure(err, "failed to start browser session")
	}
	defer session.Close()

	if err := session.Login(ctx); err != nil {
		return failure(err, "login failed")
	}
	if err := session.SubmitSearch(ctx); err != nil {
		return failure(err, "search failed")
	}

	acc := session.Accessor()
	extractor := grid.NewExtractor(acc)
	guard := grid.NewGuard(extractor, r.cfg.Grid.StaleAttempts, r.cfg.Grid.StaleBackoff)
	sink := store.NewCSVSink(r.cfg.Storage.CSVPath)
	walker := grid.NewWalker(acc, guard, sink, grid.WalkerConfig{
		MaxPages:     r.cfg.Grid.MaxPages,
		Budget:       r.cfg.Grid.RunBudget,
		SettleDelay:  r.cfg.Grid.SettleDelay,
		StaleRetries: r.cfg.Grid.StaleAttempts,
		StaleBackoff: r.cfg.Grid.StaleBackoff,
	})

	ds := walker.Run(ctx)
	slog.Info("walk finished",
		"rows", len(ds.Rows),
		"pages", ds.Pages,
		"reason", ds.Stop,
		"elapsed", time.Since(start).Round(time.Second),
	)

	if len(ds.Rows) == 0 {
		return &models.RunOutcome{
			Success:   false,
			Message:   fmt.Sprintf("no data found (%s)", ds.Stop),
			Timestamp: time.Now().Format(models.TimeLayout),
		}
	}

	detector := store.NewChangeDetector(r.cfg.Storage.FingerprintPath)
	newData, err := detector.Check(ds.Rows)
	if err != nil {
		// Data is already on disk; a broken fingerprint record only costs
		// change detection, not the run.
		slog.Warn("change detection failed", "error", err)
	}

	msg := "no new data found - data unchanged"
	if newData {
		msg = fmt.Sprintf("new data saved with %d rows", len(ds.Rows))
	}
	return &models.RunOutcome{
		Success:   true,
		Message:   msg,
		RowCount:  len(ds.Rows),
		NewData:   newData,
		Timestamp: time.Now().Format(models.TimeLayout),
	}
}

// notify delivers the run outcome to the configured webhook, if any.
func (r *Runner) notify(outcome *models.RunOutcome) {
	if r.cfg.Webhook.URL == "" || outcome == nil {
		return
	}
	eventType := "scrape.completed"
	if !outcome.Success {
		eventType = "scrape.failed"
	}
	webhook.DeliverAsync(r.cfg.Webhook.URL, r.cfg.Webhook.Secret, &webhook.Event{
		Type:      eventType,
		Timestamp: time.Now().Unix(),
		Data:      outcome,
	})
}

func failure(err error, msg string) *models.RunOutcome {
	slog.Error(msg, "error", err)
	return &models.RunOutcome{
		Success:   false,
		Message:   fmt.Sprintf("%s: %v", msg, err),
		Timestamp: time.Now().Format(models.TimeLayout),
	}
}
