package store

import (
	"encoding/csv"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/use-agent/brightscrape/models"
)

// CSVSink appends scraped rows to a durable CSV file, one batch per page.
//
// The header line is written exactly once, derived from the first appended
// row's own column order; batches appended later are projected onto that
// header so the file's column set stays consistent even when pages yield
// heterogeneous key sets. The file is append-only and grows monotonically
// across runs; it is never rewritten or deduplicated here.
type CSVSink struct {
	path   string
	header []string
}

// NewCSVSink creates a sink writing to path. The file may or may not exist
// yet; an existing file's header is honored.
func NewCSVSink(path string) *CSVSink {
	return &CSVSink{path: path}
}

// Append stamps every row with the capture timestamp and writes the batch.
// Failures are recoverable: the caller may keep appending later batches.
func (s *CSVSink) Append(rows []*models.Row, stamp time.Time) error {
	if len(rows) == 0 {
		return nil
	}
	for _, row := range rows {
		row.Set(models.ColTimestamp, stamp.Format(models.TimeLayout))
	}

	writeHeader, err := s.ensureHeader(rows[0])
	if err != nil {
		return err
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return models.NewScrapeError(models.ErrCodePersistence, "row store is not writable", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(s.header); err != nil {
			return models.NewScrapeError(models.ErrCodePersistence, "failed to write header", err)
		}
	}
	record := make([]string, len(s.header))
	for _, row := range rows {
		for i, col := range s.header {
			record[i] = row.Get(col)
		}
		if err := w.Write(record); err != nil {
			return models.NewScrapeError(models.ErrCodePersistence, "failed to write row", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return models.NewScrapeError(models.ErrCodePersistence, "failed to flush rows", err)
	}
	return nil
}

// ensureHeader resolves the sink's header schema — from a previous Append,
// from the first line of a pre-existing file, or from the first row of this
// batch — and reports whether the header line still needs to be written.
func (s *CSVSink) ensureHeader(first *models.Row) (bool, error) {
	if s.header != nil {
		return false, nil
	}

	f, err := os.Open(s.path)
	switch {
	case err == nil:
		defer f.Close()
		r := csv.NewReader(f)
		if header, readErr := r.Read(); readErr == nil && len(header) > 0 {
			s.header = header
			return false, nil
		}
		// Existing but empty file: treat like a fresh destination.
		s.header = append([]string(nil), first.Columns...)
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		s.header = append([]string(nil), first.Columns...)
		return true, nil
	default:
		return false, models.NewScrapeError(models.ErrCodePersistence, "row store is not readable", err)
	}
}
