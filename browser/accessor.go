package browser

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"
	"github.com/use-agent/brightscrape/grid"
	"github.com/use-agent/brightscrape/models"
)

// resultsTableXPath is the structural path to the results grid inside the
// portal's deeply nested markup. It breaks whenever the portal reskins,
// which is why every lookup falls back to the first table in the document.
const (
	resultsTableXPath = "/html/body/form/div[3]/div[7]/table/tbody/tr/td/div[2]/div[3]/div[3]/div/div/div[1]/table"
	resultsRowsXPath  = resultsTableXPath + "//tbody//tr"
	pagerSelector     = "span.pagingLinks"
)

// Accessor returns a grid.PageAccessor bound to the session's page.
func (s *Session) Accessor() grid.PageAccessor {
	return &pageAccessor{page: s.page, wait: s.wait}
}

type pageAccessor struct {
	page *rod.Page
	wait time.Duration
}

func (a *pageAccessor) TableHTML(ctx context.Context) (string, error) {
	p := a.page.Context(ctx).Timeout(a.wait)

	el, err := p.ElementX(resultsTableXPath)
	if err != nil {
		slog.Debug("structural table path failed, falling back to first table", "error", err)
		el, err = p.Element("table")
	}
	if err != nil {
		return "", models.NewScrapeError(models.ErrCodeTableNotFound, "results table not found", err)
	}

	html, err := el.HTML()
	if err != nil {
		return "", classifyDOMError(err, "failed to read results table")
	}
	return html, nil
}

func (a *pageAccessor) RowsHTML(ctx context.Context) ([]string, error) {
	p := a.page.Context(ctx).Timeout(a.wait)

	els, err := p.ElementsX(resultsRowsXPath)
	if err != nil {
		return nil, classifyDOMError(err, "failed to enumerate body rows")
	}
	if len(els) == 0 {
		// The structural path missed; the table found via fallback still
		// has body rows.
		els, err = p.Elements("table tbody tr")
		if err != nil {
			return nil, classifyDOMError(err, "failed to enumerate body rows")
		}
	}

	htmls := make([]string, 0, len(els))
	for _, el := range els {
		h, err := el.HTML()
		if err != nil {
			if isStaleDOM(err) {
				slog.Warn("stale row element, skipping row")
				continue
			}
			return nil, classifyDOMError(err, "failed to read row")
		}
		htmls = append(htmls, h)
	}
	return htmls, nil
}

func (a *pageAccessor) Pager(ctx context.Context) (grid.Pager, error) {
	p := a.page.Context(ctx).Timeout(a.wait)

	span, err := p.Element(pagerSelector)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodePagerNotFound, "paging control not found", err)
	}
	links, err := span.Elements("a")
	if err != nil {
		return nil, classifyDOMError(err, "failed to enumerate pager links")
	}
	for _, link := range links {
		text, err := link.Text()
		if err != nil {
			return nil, classifyDOMError(err, "failed to read pager link")
		}
		if strings.EqualFold(strings.TrimSpace(text), "next") {
			return &rodPager{link: link}, nil
		}
	}
	return nil, models.NewScrapeError(models.ErrCodePagerNotFound, "next link not present", nil)
}

type rodPager struct {
	link *rod.Element
}

// Enabled reports whether the next link can still advance. The portal
// marks the last page by disabling the anchor.
func (p *rodPager) Enabled() bool {
	if disabled, _ := p.link.Attribute("disabled"); disabled != nil {
		return false
	}
	if cls, _ := p.link.Attribute("class"); cls != nil && strings.Contains(*cls, "disabled") {
		return false
	}
	return true
}

// Advance clicks the link through the DOM, bypassing hit-target checks.
func (p *rodPager) Advance(ctx context.Context) error {
	_, err := p.link.Context(ctx).Eval(`() => this.click()`)
	return classifyDOMError(err, "next click failed")
}

// classifyDOMError wraps raw rod/CDP errors into typed ScrapeErrors,
// separating node-invalidation races from everything else.
func classifyDOMError(err error, msg string) error {
	switch {
	case err == nil:
		return nil
	case isStaleDOM(err):
		return models.NewScrapeError(models.ErrCodeStaleElement, msg, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}

// isStaleDOM matches the failures Chrome emits when a node reference was
// invalidated by a re-render between locating and reading it.
func isStaleDOM(err error) bool {
	var objNotFound *rod.ObjectNotFoundError
	if errors.As(err, &objNotFound) {
		return true
	}
	var cdpErr *cdp.Error
	if errors.As(err, &cdpErr) {
		switch cdpErr.Message {
		case "Cannot find context with specified id",
			"Node with given id does not belong to the document",
			"No node with given id found",
			"Could not find node with given id":
			return true
		}
	}
	return false
}
