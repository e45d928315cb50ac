package handler

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/use-agent/brightscrape/models"
)

// readRecords loads the durable row store, header line included.
// A missing file is an ErrCodeDatasetEmpty failure: nothing has been
// scraped yet.
func readRecords(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeDatasetEmpty, "no scraped data available yet", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	// Appended batches may carry differing column counts.
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodePersistence, "row store is unreadable", err)
	}
	if len(records) == 0 {
		return nil, models.NewScrapeError(models.ErrCodeDatasetEmpty, "no scraped data available yet", nil)
	}
	return records, nil
}

// datasetStamp identifies the current revision of the row store so cached
// answers are invalidated when new data lands.
func datasetStamp(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "absent"
	}
	return fmt.Sprintf("%d-%d", info.ModTime().UnixNano(), info.Size())
}

// renderCSV serializes records back to CSV text for the LLM context.
// maxRows bounds the data rows included; <= 0 means all.
func renderCSV(records [][]string, maxRows int) string {
	if maxRows > 0 && len(records) > maxRows+1 {
		records = records[:maxRows+1]
	}
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	_ = w.WriteAll(records)
	return sb.String()
}
