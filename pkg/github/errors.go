package github

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/go-github/v68/github"
)

// ErrorDetail is one entry of the "errors" array in a GitHub error response.
type ErrorDetail struct {
	Resource string `json:"resource"`
	Field    string `json:"field"`
	Code     string `json:"code"`
	Message  string `json:"message,omitempty"`
}

// APIError is a rejected GitHub API request.
type APIError struct {
	StatusCode int
	Message    string
	Errors     []ErrorDetail
	RateLimit  *RateLimitInfo
	Err        error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("GitHub API error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("GitHub API error (status %d): %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsRateLimitError reports a 429, or a 403 sent with an exhausted rate limit.
func IsRateLimitError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return apiErr.StatusCode == http.StatusForbidden && apiErr.RateLimit.Exhausted()
}

// IsNotFoundError reports a 404.
func IsNotFoundError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsAuthenticationError reports a 401, or a 403 that is not rate limiting.
func IsAuthenticationError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.StatusCode {
	case http.StatusUnauthorized:
		return true
	case http.StatusForbidden:
		return !apiErr.RateLimit.Exhausted()
	default:
		return false
	}
}

// parseErrorResponse builds an APIError from a raw response body, accepting
// both GitHub's JSON error shape and plain text.
func parseErrorResponse(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}

	var payload struct {
		Message string        `json:"message"`
		Errors  []ErrorDetail `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Message = payload.Message
		apiErr.Errors = payload.Errors
		return apiErr
	}

	apiErr.Message = strings.TrimSpace(string(body))
	return apiErr
}

// wrapError converts go-github errors into *APIError and adds the operation.
// Transport errors are wrapped unchanged.
func wrapError(op string, err error) error {
	var (
		rateErr  *github.RateLimitError
		abuseErr *github.AbuseRateLimitError
		respErr  *github.ErrorResponse
	)

	var apiErr *APIError
	switch {
	case errors.As(err, &rateErr):
		apiErr = &APIError{
			Message: rateErr.Message,
			RateLimit: &RateLimitInfo{
				Limit:     rateErr.Rate.Limit,
				Remaining: rateErr.Rate.Remaining,
				Reset:     rateErr.Rate.Reset.Unix(),
			},
			Err: err,
		}
		apiErr.StatusCode = http.StatusForbidden
		if rateErr.Response != nil {
			apiErr.StatusCode = rateErr.Response.StatusCode
		}
	case errors.As(err, &abuseErr):
		apiErr = &APIError{StatusCode: http.StatusForbidden, Message: abuseErr.Message, Err: err}
		if abuseErr.Response != nil {
			apiErr.StatusCode = abuseErr.Response.StatusCode
			apiErr.RateLimit = rateLimitFromHeader(abuseErr.Response.Header)
		}
	case errors.As(err, &respErr) && respErr.Response != nil:
		apiErr = &APIError{StatusCode: respErr.Response.StatusCode, Message: respErr.Message, Err: err}
		for _, e := range respErr.Errors {
			apiErr.Errors = append(apiErr.Errors, ErrorDetail{Resource: e.Resource, Field: e.Field, Code: e.Code, Message: e.Message})
		}
		apiErr.RateLimit = rateLimitFromHeader(respErr.Response.Header)
		if apiErr.Message == "" && respErr.Response.Body != nil {
			if body, readErr := io.ReadAll(respErr.Response.Body); readErr == nil {
				apiErr.Message = parseErrorResponse(apiErr.StatusCode, body).Message
			}
		}
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}

	return fmt.Errorf("failed to %s: %w", op, apiErr)
}
