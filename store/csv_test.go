package store

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/use-agent/brightscrape/models"
)

func makeRow(pairs ...string) *models.Row {
	row := models.NewRow()
	for i := 0; i+1 < len(pairs); i += 2 {
		row.Set(pairs[i], pairs[i+1])
	}
	return row
}

func readAll(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("read store: %v", err)
	}
	return records
}

func TestCSVSink_HeaderWrittenOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.csv")
	sink := NewCSVSink(path)
	stamp := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	batch1 := []*models.Row{makeRow("MLS #", "PACT100", "Price", "519,000")}
	batch2 := []*models.Row{makeRow("MLS #", "PACT101", "Price", "640,000")}

	if err := sink.Append(batch1, stamp); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := sink.Append(batch2, stamp); err != nil {
		t.Fatalf("second append: %v", err)
	}

	records := readAll(t, path)
	if len(records) != 3 {
		t.Fatalf("got %d lines, want 3 (header + 2 rows)", len(records))
	}
	if records[0][0] != "MLS #" {
		t.Errorf("header = %v, want first column MLS #", records[0])
	}
	if records[1][0] != "PACT100" || records[2][0] != "PACT101" {
		t.Errorf("rows out of order: %v", records[1:])
	}
}

func TestCSVSink_TimestampStamped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.csv")
	sink := NewCSVSink(path)
	stamp := time.Date(2026, 8, 28, 9, 30, 15, 0, time.UTC)

	if err := sink.Append([]*models.Row{makeRow("Price", "519,000")}, stamp); err != nil {
		t.Fatalf("append: %v", err)
	}

	records := readAll(t, path)
	header, row := records[0], records[1]
	tsIdx := -1
	for i, col := range header {
		if col == models.ColTimestamp {
			tsIdx = i
		}
	}
	if tsIdx == -1 {
		t.Fatalf("header %v has no %s column", header, models.ColTimestamp)
	}
	if row[tsIdx] != "2026-08-28 09:30:15" {
		t.Errorf("timestamp = %q, want %q", row[tsIdx], "2026-08-28 09:30:15")
	}
}

func TestCSVSink_ExistingFileHeaderRecovered(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.csv")
	stamp := time.Now()

	if err := NewCSVSink(path).Append([]*models.Row{makeRow("A", "1", "B", "2")}, stamp); err != nil {
		t.Fatalf("seed append: %v", err)
	}

	// A fresh sink (new run, same file) must honor the existing header,
	// not write a second one.
	later := []*models.Row{makeRow("B", "20", "A", "10", "C", "30")}
	if err := NewCSVSink(path).Append(later, stamp); err != nil {
		t.Fatalf("second run append: %v", err)
	}

	records := readAll(t, path)
	if len(records) != 3 {
		t.Fatalf("got %d lines, want 3", len(records))
	}
	for _, rec := range records[1:] {
		if rec[0] == "A" {
			t.Fatal("header line written twice")
		}
	}
	// The later batch is projected onto the original header order; column
	// C has no home and is dropped.
	if records[2][0] != "10" || len(records[2]) != len(records[0]) {
		t.Errorf("projected row = %v against header %v", records[2], records[0])
	}
}

func TestCSVSink_HeterogeneousBatchProjected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.csv")
	sink := NewCSVSink(path)

	batch := []*models.Row{
		makeRow("A", "1", "B", "2"),
		makeRow("A", "3"), // missing B
	}
	if err := sink.Append(batch, time.Now()); err != nil {
		t.Fatalf("append: %v", err)
	}

	records := readAll(t, path)
	if len(records[2]) != len(records[0]) {
		t.Fatalf("short row not padded: %v vs header %v", records[2], records[0])
	}
	if records[2][1] != "" {
		t.Errorf("missing cell = %q, want empty", records[2][1])
	}
}

func TestCSVSink_EmptyBatchIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.csv")
	if err := NewCSVSink(path).Append(nil, time.Now()); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("empty batch should not create the store file")
	}
}
