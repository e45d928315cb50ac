package grid

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/brightscrape/models"
)

// Icon source markers the portal uses to flag a price change on a listing.
const (
	iconPriceDown = "pricedown"
	iconPriceUp   = "priceup"
)

// Extractor converts the rendered results table into structured rows.
//
// Header and body are read independently: the header comes from a static
// snapshot of the table's markup, the body rows from live element queries,
// so a re-render between the two reads costs at most one row instead of the
// whole page.
type Extractor struct {
	acc PageAccessor
}

// NewExtractor creates an Extractor over the given page accessor.
func NewExtractor(acc PageAccessor) *Extractor {
	return &Extractor{acc: acc}
}

// extract performs one extraction pass. Errors are returned raw so the
// guard can classify them; only the guard degrades them to an empty page.
func (e *Extractor) extract(ctx context.Context) (*models.PageResult, error) {
	tableHTML, err := e.acc.TableHTML(ctx)
	if err != nil {
		return nil, err
	}
	headers := parseHeaders(tableHTML)

	rowsHTML, err := e.acc.RowsHTML(ctx)
	if err != nil {
		return nil, err
	}

	// The synthetic price-change columns are part of the schema whether or
	// not any row on this page set them, so the schema is stable across
	// pages.
	if len(headers) > 0 {
		headers = append(headers, models.ColPriceChangeType, models.ColPriceChangeTitle)
	}

	rows := make([]*models.Row, 0, len(rowsHTML))
	for _, rowHTML := range rowsHTML {
		values, ok := parseCells(rowHTML)
		if !ok {
			continue
		}
		if allBlank(values) {
			continue
		}
		rows = append(rows, zipRow(values, headers))
	}

	return &models.PageResult{Rows: rows, Headers: headers}, nil
}

// parseCells splits one row fragment into its cell texts and scans the
// cells for a price-change marker icon. The first qualifying icon wins;
// its type and title are appended as the row's two synthetic values.
func parseCells(rowHTML string) ([]string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rowHTML))
	if err != nil {
		return nil, false
	}

	cells := doc.Find("td, th")
	if cells.Length() == 0 {
		return nil, false
	}

	var values []string
	changeType, changeTitle := "", ""
	cells.Each(func(_ int, cell *goquery.Selection) {
		values = append(values, strings.TrimSpace(cell.Text()))
		if changeType != "" {
			return
		}
		cell.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
			src := img.AttrOr("src", "")
			if src == "" {
				return true
			}
			title := img.AttrOr("title", img.AttrOr("data-original-title", ""))
			switch {
			case strings.Contains(src, iconPriceDown):
				changeType, changeTitle = "down", defaultTitle(title, "Price Decrease")
			case strings.Contains(src, iconPriceUp):
				changeType, changeTitle = "up", defaultTitle(title, "Price Increase")
			}
			return changeType == ""
		})
	})

	return append(values, changeType, changeTitle), true
}

func defaultTitle(title, fallback string) string {
	if title != "" {
		return title
	}
	return fallback
}

// allBlank reports whether every value is empty after trimming.
func allBlank(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// zipRow keys values against the header schema by position. Positions past
// the schema get synthetic Column_<i> names; a row shorter than the schema
// simply yields a shorter mapping.
func zipRow(values, headers []string) *models.Row {
	row := models.NewRow()
	for i, v := range values {
		if i < len(headers) {
			row.Set(headers[i], v)
		} else {
			row.Set(fmt.Sprintf("Column_%d", i), v)
		}
	}
	return row
}
