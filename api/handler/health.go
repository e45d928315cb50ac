package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/brightscrape/config"
	"github.com/use-agent/brightscrape/models"
	"github.com/use-agent/brightscrape/runner"
)

// Health returns a handler for GET /api/v1/health.
//
// Status is "scraping" while a cycle is active, "healthy" otherwise.
func Health(run *runner.Runner, cfg *config.Config, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		active := run.Running()
		if active {
			status = "scraping"
		}

		storeRows := 0
		if records, err := readRecords(cfg.Storage.CSVPath); err == nil {
			storeRows = len(records) - 1
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:    status,
			Uptime:    time.Since(startTime).Round(time.Second).String(),
			RunActive: active,
			StoreRows: storeRows,
			Version:   "0.1.0",
		})
	}
}
