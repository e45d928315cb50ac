package models

// RunResponse is the response for POST /api/v1/scrape and POST /api/v1/stop.
type RunResponse struct {
	// Status is "success", "error", or "stopping".
	Status string `json:"status"`

	Message   string `json:"message,omitempty"`
	RowCount  int    `json:"row_count"`
	NewData   bool   `json:"new_data"`
	Timestamp string `json:"timestamp,omitempty"`

	// Error is populated only on failures.
	Error *ErrorDetail `json:"error,omitempty"`
}

// QueryRequest is the payload for POST /api/v1/query.
type QueryRequest struct {
	// Message is the natural-language question about the collected dataset.
	Message string `json:"message" binding:"required"`

	// IncludeSample truncates the dataset context to the first MaxRows rows
	// and echoes that sample back in the response.
	IncludeSample bool `json:"include_sample,omitempty"`

	// MaxRows bounds the sample size. Default: 10.
	MaxRows int `json:"max_rows,omitempty" binding:"omitempty,min=1"`
}

// Defaults applies default values to unset fields.
func (r *QueryRequest) Defaults() {
	if r.MaxRows == 0 {
		r.MaxRows = 10
	}
}

// QueryResponse is the response for POST /api/v1/query.
type QueryResponse struct {
	Response string `json:"response"`

	// Sample is the CSV sample sent as context, when IncludeSample was set.
	Sample string `json:"sample,omitempty"`

	// RowCount is the number of data rows in the durable store.
	RowCount int `json:"row_count"`

	// CacheStatus indicates whether the answer was served from cache.
	// Values: "hit", "miss", or empty (caching disabled).
	CacheStatus string `json:"cache_status,omitempty"`

	Usage *LLMUsage `json:"usage,omitempty"`

	// Error is populated only on failures.
	Error *ErrorDetail `json:"error,omitempty"`
}

// LLMUsage reports token consumption of a query.
type LLMUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ErrorResponse is the generic envelope for requests rejected before
// reaching a handler (auth failures, rate limiting, bad payloads).
type ErrorResponse struct {
	Error *ErrorDetail `json:"error"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status    string `json:"status"` // "healthy" or "scraping"
	Uptime    string `json:"uptime"`
	RunActive bool   `json:"run_active"`
	StoreRows int    `json:"store_rows"`
	Version   string `json:"version"`
}
