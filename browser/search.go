package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/use-agent/brightscrape/models"
)

// Search form selectors. The Results button id has been stable across the
// portal's Matrix releases; the property-type option is matched by value.
const (
	selectAllXPath   = `//a[contains(text(), 'Select All')]`
	resultsButtonSel = "#m_ucSearchButtons_m_lbSearch"

	// formSettle is the short pause between form interactions, giving the
	// form's postback handlers time to run.
	formSettle = 2 * time.Second
)

// SubmitSearch applies the search criteria and triggers the initial
// results render. When it returns nil, a results table is present in the
// DOM and the pagination walk can start.
func (s *Session) SubmitSearch(ctx context.Context) error {
	p := s.page.Context(ctx).Timeout(s.wait)

	if err := p.Navigate(s.portal.SearchURL); err != nil {
		return models.NewScrapeError(models.ErrCodeSearchFailed, "failed to open search page", err)
	}
	s.settle(ctx, s.portal.SearchSettle)

	selectAll, err := p.ElementX(selectAllXPath)
	if err != nil {
		return models.NewScrapeError(models.ErrCodeSearchFailed, "Select All control not found", err)
	}
	if err := safeClick(selectAll); err != nil {
		return models.NewScrapeError(models.ErrCodeSearchFailed, "Select All click failed", err)
	}
	s.settle(ctx, formSettle)

	opt, err := p.ElementX(fmt.Sprintf(`//option[@value='%s']`, s.portal.PropertyType))
	if err != nil {
		return models.NewScrapeError(models.ErrCodeSearchFailed, "property type option not found", err)
	}
	if err := safeClick(opt); err != nil {
		return models.NewScrapeError(models.ErrCodeSearchFailed, "property type select failed", err)
	}
	s.settle(ctx, formSettle)

	// The Results button sits below the fold.
	if _, err := p.Eval(`() => window.scrollTo(0, document.body.scrollHeight / 2)`); err == nil {
		s.settle(ctx, formSettle)
	}

	btn, err := p.Element(resultsButtonSel)
	if err != nil {
		return models.NewScrapeError(models.ErrCodeSearchFailed, "Results button not found", err)
	}
	if err := safeClick(btn); err != nil {
		return models.NewScrapeError(models.ErrCodeSearchFailed, "Results click failed", err)
	}
	s.settle(ctx, s.portal.SearchSettle)
	if err := ctx.Err(); err != nil {
		return models.NewScrapeError(models.ErrCodeTimeout, "search cancelled", err)
	}

	slog.Info("search submitted", "propertyType", s.portal.PropertyType)
	return nil
}

// safeClick scrolls the element into view and clicks it through the DOM,
// which works even when another element overlaps the hit target.
func safeClick(el *rod.Element) error {
	if err := el.ScrollIntoView(); err != nil {
		return err
	}
	_, err := el.Eval(`() => this.click()`)
	return err
}
