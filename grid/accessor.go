package grid

import "context"

// PageAccessor exposes the handful of DOM reads the engine needs from the
// current results page. The browser package provides a rod-backed
// implementation; tests run against fakes.
//
// Implementations classify node-invalidation races into
// models.ErrCodeStaleElement so the stale-read guard can tell transient
// failures from structural ones.
type PageAccessor interface {
	// TableHTML locates the results table — structural path first, first
	// <table> in the document as fallback — and returns its outer HTML.
	// Failure of both paths yields a models.ErrCodeTableNotFound error.
	TableHTML(ctx context.Context) (string, error)

	// RowsHTML enumerates the table's live body rows and returns each
	// row's outer HTML. Rows that go stale individually are skipped;
	// staleness of the enumeration itself is reported as an error.
	RowsHTML(ctx context.Context) ([]string, error)

	// Pager locates the "next page" control.
	Pager(ctx context.Context) (Pager, error)
}

// Pager is a handle on the results grid's "next page" control.
type Pager interface {
	// Enabled reports whether the control can still advance.
	Enabled() bool

	// Advance triggers the control. The caller owns the settle delay
	// afterwards.
	Advance(ctx context.Context) error
}
