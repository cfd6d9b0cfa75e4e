package hashapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/s0up4200/hashsharing/xmlnode"
)

// transport performs authenticated requests. Idempotent methods go through the
// retrying client; everything else is sent exactly once.
type transport struct {
	username  string
	password  string
	userAgent string
	retrying  *retryablehttp.Client
	plain     *http.Client
	logger    zerolog.Logger
}

func newTransport(username, password string, opts clientOptions, logger zerolog.Logger) *transport {
	httpClient := opts.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.timeout}
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = httpClient
	rc.RetryMax = opts.maxRetries
	rc.RetryWaitMin = opts.retryWaitMin
	rc.RetryWaitMax = opts.retryWaitMax
	rc.Backoff = retryablehttp.DefaultBackoff
	rc.CheckRetry = checkRetry
	// Keep the final response so its status and body reach TransportError
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = leveledLogger{logger: logger}
	rc.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		httpAttemptsTotal.WithLabelValues(req.Method).Inc()
		if attempt > 0 {
			logger.Debug().
				Str("method", req.Method).
				Str("url", req.URL.Redacted()).
				Int("retry", attempt).
				Msg("Retrying hash sharing request")
		}
	}

	return &transport{
		username:  username,
		password:  password,
		userAgent: opts.userAgent,
		retrying:  rc,
		plain:     httpClient,
		logger:    logger,
	}
}

// retryableStatus lists the statuses retried for idempotent requests
func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		// Connection-level failures; the default policy rejects TLS and redirect errors
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	return retryableStatus(resp.StatusCode), nil
}

func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

// get issues a GET and returns the parsed, namespace-free document
func (t *transport) get(ctx context.Context, rawURL string, params url.Values) (*xmlnode.Node, error) {
	if len(params) > 0 {
		rawURL += "?" + params.Encode()
	}
	body, err := t.do(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	return parseDocument(body)
}

// post sends body once and returns the raw response body
func (t *transport) post(ctx context.Context, rawURL string, body []byte) ([]byte, error) {
	return t.do(ctx, http.MethodPost, rawURL, body)
}

func (t *transport) do(ctx context.Context, method, rawURL string, body []byte) ([]byte, error) {
	requestID := uuid.NewString()

	var (
		resp *http.Response
		err  error
	)
	if isIdempotent(method) {
		var rawBody interface{}
		if body != nil {
			rawBody = body
		}
		var req *retryablehttp.Request
		req, err = retryablehttp.NewRequestWithContext(ctx, method, rawURL, rawBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		t.decorate(req.Request, requestID)
		resp, err = t.retrying.Do(req)
	} else {
		var req *http.Request
		req, err = http.NewRequestWithContext(ctx, method, rawURL, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		t.decorate(req, requestID)
		req.Header.Set("Content-Type", "application/xml")
		httpAttemptsTotal.WithLabelValues(method).Inc()
		resp, err = t.plain.Do(req)
	}

	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		httpResponsesTotal.WithLabelValues(method, "0").Inc()
		return nil, &TransportError{Method: method, URL: rawURL, Err: err}
	}
	defer resp.Body.Close()
	httpResponsesTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: method, URL: rawURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	t.logger.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("url", rawURL).
		Int("status", resp.StatusCode).
		Bytes("body", respBody).
		Msg("Hash sharing response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{
			Method:     method,
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	return respBody, nil
}

func (t *transport) decorate(req *http.Request, requestID string) {
	req.SetBasicAuth(t.username, t.password)
	req.Header.Set("Accept", "application/xml")
	req.Header.Set("X-Request-Id", requestID)
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
}

// parseDocument parses an XML body and drops every namespace prefix, since the
// service's namespaces carry no meaning for lookups.
func parseDocument(body []byte) (*xmlnode.Node, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, &xmlnode.MalformedError{Reason: "response is not valid XML", Err: err}
	}
	root := doc.Root()
	if root == nil {
		return nil, &xmlnode.MalformedError{Reason: "response has no root element"}
	}
	stripNamespaces(root)
	return xmlnode.Wrap(root), nil
}

func stripNamespaces(el *etree.Element) {
	el.Space = ""
	for _, child := range el.ChildElements() {
		stripNamespaces(child)
	}
}

// leveledLogger routes go-retryablehttp's logging into zerolog
type leveledLogger struct {
	logger zerolog.Logger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(keysAndValues).Msg(msg)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Trace().Fields(keysAndValues).Msg(msg)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(keysAndValues).Msg(msg)
}
