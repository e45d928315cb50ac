package grid

import (
	"context"
	"log/slog"
	"time"

	"github.com/use-agent/brightscrape/models"
)

// Guard retries extraction against transient DOM invalidation. Stale reads
// are expected while the grid re-renders asynchronously; anything else —
// missing table, malformed content — will not improve on retry and fails
// the attempt immediately.
type Guard struct {
	ex       *Extractor
	attempts int
	backoff  time.Duration
	sleep    func(time.Duration)
}

// NewGuard wraps ex with up to attempts tries and a fixed backoff between
// stale-read retries.
func NewGuard(ex *Extractor, attempts int, backoff time.Duration) *Guard {
	if attempts < 1 {
		attempts = 1
	}
	return &Guard{ex: ex, attempts: attempts, backoff: backoff, sleep: time.Sleep}
}

// Extract runs the extractor with bounded stale retries. It never returns
// an error: structural failures and retry exhaustion both degrade to an
// empty page for the walker to classify.
func (g *Guard) Extract(ctx context.Context) *models.PageResult {
	for attempt := 1; attempt <= g.attempts; attempt++ {
		res, err := g.ex.extract(ctx)
		if err == nil {
			return res
		}
		if !models.IsStale(err) {
			slog.Error("page extraction failed", "error", err)
			return &models.PageResult{}
		}
		slog.Warn("stale element during extraction, retrying",
			"attempt", attempt,
			"maxAttempts", g.attempts,
		)
		if attempt < g.attempts {
			g.sleep(g.backoff)
		}
	}
	slog.Error("extraction abandoned: stale elements on every attempt", "attempts", g.attempts)
	return &models.PageResult{}
}
