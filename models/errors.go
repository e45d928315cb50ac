package models

import (
	"errors"
	"fmt"
)

// Error codes used in API responses and internal error handling.
const (
	ErrCodeTimeout       = "SCRAPE_TIMEOUT"
	ErrCodeNavigation    = "NAVIGATION_FAILED"
	ErrCodeStaleElement  = "STALE_ELEMENT"
	ErrCodeTableNotFound = "TABLE_NOT_FOUND"
	ErrCodePagerNotFound = "PAGER_NOT_FOUND"
	ErrCodeAuthFailed    = "AUTH_FAILED"
	ErrCodeSearchFailed  = "SEARCH_FAILED"
	ErrCodePersistence   = "PERSISTENCE_FAILED"
	ErrCodeBrowserCrash  = "BROWSER_CRASH"
	ErrCodeRunActive     = "RUN_ACTIVE"
	ErrCodeNoRun         = "NO_ACTIVE_RUN"
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeRateLimited   = "RATE_LIMITED"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeInternal      = "INTERNAL_ERROR"
	ErrCodeDatasetEmpty  = "DATASET_EMPTY"

	// LLM-related error codes for /api/v1/query.
	ErrCodeLLMFailure     = "LLM_FAILURE"
	ErrCodeLLMAuthFailure = "LLM_AUTH_FAILURE"
	ErrCodeLLMRateLimited = "LLM_RATE_LIMITED"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *ScrapeError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}

// ErrorCode extracts the ScrapeError code from err, or ErrCodeInternal
// when err carries no code.
func ErrorCode(err error) string {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Code
	}
	return ErrCodeInternal
}

// IsStale reports whether err was classified as a stale-element failure:
// a DOM reference invalidated by a re-render between locating and reading it.
func IsStale(err error) bool {
	return err != nil && ErrorCode(err) == ErrCodeStaleElement
}
