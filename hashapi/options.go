package hashapi

import (
	"net/http"
	"time"
)

const (
	// DefaultAPIVersion is the path segment placed before every GET endpoint
	DefaultAPIVersion = "v2"
	// DefaultTimeout bounds a single HTTP attempt
	DefaultTimeout = 60 * time.Second
	// DefaultMaxRetries gives four GET attempts in total
	DefaultMaxRetries = 3
	// DefaultRetryWaitMin is the first backoff interval; each retry doubles it
	DefaultRetryWaitMin = 200 * time.Millisecond
	// DefaultRetryWaitMax caps the backoff interval
	DefaultRetryWaitMax = 800 * time.Millisecond
)

// Option configures a Client.
type Option func(*clientOptions)

// clientOptions holds configuration options for the Client.
type clientOptions struct {
	timeout      time.Duration
	maxRetries   int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
	apiVersion   string
	userAgent    string
	httpClient   *http.Client
	now          func() time.Time
}

func defaultOptions() clientOptions {
	return clientOptions{
		timeout:      DefaultTimeout,
		maxRetries:   DefaultMaxRetries,
		retryWaitMin: DefaultRetryWaitMin,
		retryWaitMax: DefaultRetryWaitMax,
		apiVersion:   DefaultAPIVersion,
		userAgent:    "hashsharing-go",
		now:          time.Now,
	}
}

// WithTimeout sets the per-attempt HTTP timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithMaxRetries sets how many times a GET is retried after the first attempt.
func WithMaxRetries(retries int) Option {
	return func(o *clientOptions) {
		if retries >= 0 {
			o.maxRetries = retries
		}
	}
}

// WithRetryWait sets the backoff bounds between GET attempts.
func WithRetryWait(minWait, maxWait time.Duration) Option {
	return func(o *clientOptions) {
		if minWait > 0 && maxWait >= minWait {
			o.retryWaitMin = minWait
			o.retryWaitMax = maxWait
		}
	}
}

// WithAPIVersion overrides the version path segment.
func WithAPIVersion(version string) Option {
	return func(o *clientOptions) {
		if version != "" {
			o.apiVersion = version
		}
	}
}

// WithUserAgent sets a custom user agent string.
func WithUserAgent(userAgent string) Option {
	return func(o *clientOptions) {
		o.userAgent = userAgent
	}
}

// WithHTTPClient replaces the underlying http.Client. Its Timeout is left as is.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = client
	}
}

// WithClock replaces the time source used for the "to" parameter and the
// fallback page timestamp.
func WithClock(now func() time.Time) Option {
	return func(o *clientOptions) {
		if now != nil {
			o.now = now
		}
	}
}
