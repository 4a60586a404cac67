package github

import (
	"net/http"
	"strconv"
	"time"
)

// RateLimitInfo is the rate limit state reported with an API error.
type RateLimitInfo struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	Reset     int64 `json:"reset"`
	Used      int   `json:"used"`
}

// ResetTime returns Reset as a time.
func (r *RateLimitInfo) ResetTime() time.Time {
	return time.Unix(r.Reset, 0)
}

// Exhausted reports whether no requests remain in the window.
func (r *RateLimitInfo) Exhausted() bool {
	return r != nil && r.Remaining == 0
}

// rateLimitFromHeader parses the X-RateLimit-* headers. It returns nil when
// the response carries no rate limit headers.
func rateLimitFromHeader(h http.Header) *RateLimitInfo {
	if h == nil || h.Get("X-RateLimit-Limit") == "" {
		return nil
	}

	info := &RateLimitInfo{}
	if val, err := strconv.Atoi(h.Get("X-RateLimit-Limit")); err == nil {
		info.Limit = val
	}
	if val, err := strconv.Atoi(h.Get("X-RateLimit-Remaining")); err == nil {
		info.Remaining = val
	}
	if val, err := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64); err == nil {
		info.Reset = val
	}
	if val, err := strconv.Atoi(h.Get("X-RateLimit-Used")); err == nil {
		info.Used = val
	}
	return info
}
