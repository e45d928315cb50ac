package models

import "strings"

// Column names the extractor appends to every row in addition to the
// columns parsed from the results grid.
const (
	ColPriceChangeType  = "PriceChangeType"
	ColPriceChangeTitle = "PriceChangeTitle"

	// ColTimestamp is the capture-time column the sink stamps onto every
	// persisted row. It is excluded from content fingerprinting.
	ColTimestamp = "Timestamp"
)

// TimeLayout is the timestamp format used for row stamps and run outcomes.
const TimeLayout = "2006-01-02 15:04:05"

// Row is an ordered mapping from column name to cell text. Go maps do not
// preserve insertion order, so the column order is tracked separately; the
// sink and the fingerprint both depend on it being stable.
type Row struct {
	Columns []string
	Values  map[string]string
}

// NewRow returns an empty row.
func NewRow() *Row {
	return &Row{Values: make(map[string]string)}
}

// Set assigns a cell value, appending the column on first sight.
func (r *Row) Set(col, val string) {
	if _, ok := r.Values[col]; !ok {
		r.Columns = append(r.Columns, col)
	}
	r.Values[col] = val
}

// Get returns the cell value for col, or "" when absent.
func (r *Row) Get(col string) string {
	return r.Values[col]
}

// Blank reports whether every cell is empty after trimming.
func (r *Row) Blank() bool {
	for _, v := range r.Values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// PageResult is the outcome of extracting one results page.
// Headers is nil when the page yielded no parsable header row; Rows is
// empty on total extraction failure.
type PageResult struct {
	Rows    []*Row
	Headers []string
}

// Empty reports whether the page produced no usable rows.
func (p *PageResult) Empty() bool {
	return p == nil || len(p.Rows) == 0
}

// StopReason records why a pagination walk ended.
type StopReason string

const (
	StopCancelled     StopReason = "cancelled"       // cancellation observed at a page boundary
	StopBudget        StopReason = "budget_exceeded" // wall-clock budget exhausted
	StopMaxPages      StopReason = "max_pages"       // page cap reached
	StopExtractFailed StopReason = "extract_failed"  // page yielded no table/headers
	StopNoRows        StopReason = "no_rows"         // table present but no further rows
	StopPagerEnded    StopReason = "pager_ended"     // next control absent, disabled, or failed
)

// Dataset is the full ordered row sequence accumulated across one run.
type Dataset struct {
	Rows    []*Row
	Headers []string // schema committed from the first page with headers; nil if none
	Pages   int      // pages that produced rows
	Stop    StopReason
}

// RunOutcome is the terminal artifact of one scrape cycle.
type RunOutcome struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	RowCount  int    `json:"row_count"`
	NewData   bool   `json:"new_data"`
	Timestamp string `json:"timestamp"`
}
