package notion

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// retryTransport retries rate-limited responses with exponential backoff,
// honoring Retry-After. Transport errors and 5xx responses are retried only
// for requests that are safe to repeat. When endpoint is set, requests are sent to
// its scheme and host instead of the API default.
type retryTransport struct {
	next       http.RoundTripper
	endpoint   *url.URL
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.endpoint != nil {
		req = req.Clone(req.Context())
		req.URL.Scheme = t.endpoint.Scheme
		req.URL.Host = t.endpoint.Host
		req.Host = t.endpoint.Host
		if p := strings.TrimRight(t.endpoint.Path, "/"); p != "" {
			req.URL.Path = p + req.URL.Path
		}
	}

	for attempt := 0; ; attempt++ {
		if attempt > 0 && req.Body != nil {
			if req.GetBody == nil {
				return nil, errNotReplayable
			}
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			req.Body = body
		}

		resp, err := t.next.RoundTrip(req)
		retryable := err == nil && resp.StatusCode == http.StatusTooManyRequests
		if repeatable(req) {
			retryable = err != nil || resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		}
		if !retryable || attempt >= t.maxRetries {
			return resp, err
		}

		retryAfter := ""
		if resp != nil {
			retryAfter = resp.Header.Get("Retry-After")
			io.Copy(io.Discard, resp.Body) //nolint:errcheck
			resp.Body.Close()
		}
		if err := sleepContext(req.Context(), t.delay(attempt+1, retryAfter)); err != nil {
			return nil, err
		}
	}
}

// repeatable reports whether sending req twice has the effect of sending it
// once. A failed create or append may still have been applied remotely.
func repeatable(req *http.Request) bool {
	switch req.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	case http.MethodPost:
		return strings.HasSuffix(strings.TrimRight(req.URL.Path, "/"), "/search")
	}
	return false
}

func (t *retryTransport) delay(attempt int, retryAfter string) time.Duration {
	if s, err := strconv.Atoi(strings.TrimSpace(retryAfter)); err == nil && s > 0 {
		return min(time.Duration(s)*time.Second, t.maxDelay)
	}
	d := t.baseDelay
	for i := 1; i < attempt && d < t.maxDelay; i++ {
		d *= 2
	}
	return min(d, t.maxDelay)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
