package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/brightscrape/models"
	"github.com/use-agent/brightscrape/runner"
)

// Scrape returns a handler for POST /api/v1/scrape.
//
// The scrape cycle runs synchronously inside the request: the response
// carries the full run outcome. A second request while a cycle is active
// is rejected with 409 rather than queued.
func Scrape(run *runner.Runner) gin.HandlerFunc {
	return func(c *gin.Context) {
		if run.Running() {
			c.JSON(http.StatusConflict, models.RunResponse{
				Status:  "error",
				Message: "scraping is already in progress",
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeRunActive,
					Message: "a scrape cycle is already running",
				},
			})
			return
		}

		outcome := run.Run(c.Request.Context())

		status := "success"
		if !outcome.Success {
			status = "error"
		}
		// The run itself completing is a 200 either way; Status carries
		// whether data was collected.
		c.JSON(http.StatusOK, models.RunResponse{
			Status:    status,
			Message:   outcome.Message,
			RowCount:  outcome.RowCount,
			NewData:   outcome.NewData,
			Timestamp: outcome.Timestamp,
		})
	}
}

// Stop returns a handler for POST /api/v1/stop.
//
// Cancellation is cooperative: the active cycle stops at its next page
// boundary, keeping everything already persisted.
func Stop(run *runner.Runner) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !run.Stop() {
			c.JSON(http.StatusConflict, models.RunResponse{
				Status:  "error",
				Message: "no scrape is currently running",
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeNoRun,
					Message: "no active scrape cycle to stop",
				},
			})
			return
		}
		c.JSON(http.StatusOK, models.RunResponse{
			Status:  "stopping",
			Message: "stop requested; the run will end at the next page boundary",
		})
	}
}
