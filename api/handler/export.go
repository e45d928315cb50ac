package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/brightscrape/config"
	"github.com/use-agent/brightscrape/models"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Listings"

// Export returns a handler for GET /api/v1/dataset/export.
//
// Streams the durable row store as an XLSX workbook, header row included.
func Export(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		records, err := readRecords(cfg.Storage.CSVPath)
		if err != nil {
			respondQueryError(c, err)
			return
		}

		f := excelize.NewFile()
		defer f.Close()
		f.SetSheetName("Sheet1", exportSheet)

		for i, record := range records {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				respondQueryError(c, models.NewScrapeError(models.ErrCodeInternal, "failed to build workbook", err))
				return
			}
			row := make([]interface{}, len(record))
			for j, v := range record {
				row[j] = v
			}
			if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
				respondQueryError(c, models.NewScrapeError(models.ErrCodeInternal, "failed to build workbook", err))
				return
			}
		}

		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", `attachment; filename="brightmls_data.xlsx"`)
		if err := f.Write(c.Writer); err != nil {
			// Headers are already out; all we can do is log.
			slog.Error("workbook write failed", "error", err)
		}
	}
}
