package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/brightscrape/cache"
	"github.com/use-agent/brightscrape/config"
	"github.com/use-agent/brightscrape/llm"
	"github.com/use-agent/brightscrape/models"
)

// Query returns a handler for POST /api/v1/query.
//
// Flow:
//  1. Parse & validate request, apply defaults.
//  2. Load the row store and render it as CSV context.
//  3. Cache lookup keyed on question, model, and dataset revision.
//  4. LLM round trip, cache the answer, return 200.
func Query(llmClient *llm.Client, cc *cache.Cache, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.QueryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.QueryResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		req.Defaults()

		if cfg.LLM.APIKey == "" {
			c.JSON(http.StatusServiceUnavailable, models.QueryResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeLLMAuthFailure,
					Message: "no LLM API key configured",
				},
			})
			return
		}

		records, err := readRecords(cfg.Storage.CSVPath)
		if err != nil {
			respondQueryError(c, err)
			return
		}
		rowCount := len(records) - 1

		// The sample bound also bounds the LLM context; full-dataset
		// context is opt-out via include_sample=false.
		contextRows := 0
		if req.IncludeSample {
			contextRows = req.MaxRows
		}
		csvContext := renderCSV(records, contextRows)

		stamp := datasetStamp(cfg.Storage.CSVPath)
		cacheKey := cache.Key(req.Message, cfg.LLM.Model, stamp)
		if cached, hit := cc.Get(cacheKey); hit {
			cached.CacheStatus = "hit"
			c.JSON(http.StatusOK, cached)
			return
		}

		result, err := llmClient.Answer(c.Request.Context(), req.Message, csvContext, llm.QueryParams{
			APIKey:    cfg.LLM.APIKey,
			Model:     cfg.LLM.Model,
			BaseURL:   cfg.LLM.BaseURL,
			MaxTokens: cfg.LLM.MaxTokens,
		})
		if err != nil {
			respondQueryError(c, err)
			return
		}

		resp := &models.QueryResponse{
			Response:    result.Answer,
			RowCount:    rowCount,
			CacheStatus: "miss",
			Usage:       result.Usage,
		}
		if req.IncludeSample {
			resp.Sample = csvContext
		}
		cc.Set(cacheKey, resp)

		c.JSON(http.StatusOK, resp)
	}
}

// respondQueryError maps a ScrapeError to the correct HTTP status code and
// writes a structured JSON error response.
func respondQueryError(c *gin.Context, err error) {
	var scrapeErr *models.ScrapeError
	if !errors.As(err, &scrapeErr) {
		scrapeErr = models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
	}
	c.JSON(mapErrorToStatus(scrapeErr), models.QueryResponse{
		Error: scrapeErr.ToDetail(),
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeDatasetEmpty:
		return http.StatusNotFound // 404
	case models.ErrCodeRateLimited, models.ErrCodeLLMRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeLLMAuthFailure:
		return http.StatusServiceUnavailable // 503
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeLLMFailure:
		return http.StatusBadGateway // 502
	default:
		return http.StatusInternalServerError // 500
	}
}
