package store

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/use-agent/brightscrape/models"
)

// Fingerprint computes a deterministic digest over the snapshot's rows.
// Identical row sequences always hash identically and any single cell
// change produces a different digest. The capture Timestamp column is
// excluded so re-scraping unchanged listings compares equal across runs.
func Fingerprint(rows []*models.Row) string {
	h := sha256.New()
	for _, row := range rows {
		for _, col := range row.Columns {
			if col == models.ColTimestamp {
				continue
			}
			h.Write([]byte(col))
			h.Write([]byte{'='})
			h.Write([]byte(row.Values[col]))
			h.Write([]byte{'|'})
		}
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ChangeDetector compares each run's fingerprint against the single value
// recorded by the previous run. The record is one opaque string in one
// file; only the most recent fingerprint survives.
type ChangeDetector struct {
	path string
}

// NewChangeDetector creates a detector over the record at path.
func NewChangeDetector(path string) *ChangeDetector {
	return &ChangeDetector{path: path}
}

// Check reports whether the snapshot differs from the previous run and,
// when it does, overwrites the record with the new fingerprint. A missing
// record reads as "differs": the first run always reports new data.
func (d *ChangeDetector) Check(rows []*models.Row) (bool, error) {
	current := Fingerprint(rows)
	previous, err := d.load()
	if err != nil {
		return false, err
	}
	if current == previous {
		return false, nil
	}
	return true, d.save(current)
}

func (d *ChangeDetector) load() (string, error) {
	b, err := os.ReadFile(d.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", models.NewScrapeError(models.ErrCodePersistence, "fingerprint record is not readable", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func (d *ChangeDetector) save(fp string) error {
	if err := os.WriteFile(d.path, []byte(fp), 0o644); err != nil {
		return models.NewScrapeError(models.ErrCodePersistence, "failed to record fingerprint", err)
	}
	return nil
}
