package github

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestRateLimitFromHeader(t *testing.T) {
	h := make(http.Header)
	h.Add("X-RateLimit-Limit", "5000")
	h.Add("X-RateLimit-Remaining", "4999")
	h.Add("X-RateLimit-Used", "1")
	h.Add("X-RateLimit-Reset", "1234567890")

	got := rateLimitFromHeader(h)
	want := &RateLimitInfo{Limit: 5000, Remaining: 4999, Reset: 1234567890, Used: 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rateLimitFromHeader() mismatch (-want +got):\n%s", diff)
	}
	if !got.ResetTime().Equal(time.Unix(1234567890, 0)) {
		t.Errorf("ResetTime() = %v", got.ResetTime())
	}
	if got.Exhausted() {
		t.Error("Exhausted() = true with requests remaining")
	}
}

func TestRateLimitFromHeaderMissing(t *testing.T) {
	if got := rateLimitFromHeader(http.Header{}); got != nil {
		t.Errorf("rateLimitFromHeader() = %+v, want nil", got)
	}
	if got := rateLimitFromHeader(nil); got != nil {
		t.Errorf("rateLimitFromHeader(nil) = %+v, want nil", got)
	}
}

func TestRateLimitExhausted(t *testing.T) {
	var nilInfo *RateLimitInfo
	if nilInfo.Exhausted() {
		t.Error("nil info should not be exhausted")
	}
	if !(&RateLimitInfo{Limit: 60, Remaining: 0}).Exhausted() {
		t.Error("zero remaining should be exhausted")
	}
}
