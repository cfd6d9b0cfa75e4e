package hashapi

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Endpoint names relative to the versioned base URL
const (
	EndpointStatus  = "status"
	EndpointEntries = "entries"
)

// Client represents a hash sharing API client
type Client struct {
	baseURL    string
	apiVersion string
	transport  *transport
	now        func() time.Time
	logger     zerolog.Logger
}

// NewClient creates a new hash sharing client. It does not contact the service;
// call Status to verify the credentials.
func NewClient(baseURL, username, password string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: base URL is required", ErrInvalidConfig)
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("%w: invalid base URL: %v", ErrInvalidConfig, err)
	}
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidConfig)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidConfig)
	}

	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiVersion: options.apiVersion,
		transport:  newTransport(username, password, options, logger),
		now:        options.now,
		logger:     logger,
	}, nil
}

// NewClientForEnvironment creates a client for one of the known environments
func NewClientForEnvironment(env Environment, username, password string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	baseURL, err := env.BaseURL()
	if err != nil {
		return nil, err
	}
	return NewClient(baseURL, username, password, logger.With().Str("environment", string(env)).Logger(), opts...)
}

// BaseURL returns the service root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) endpointURL(endpoint string) string {
	return c.baseURL + "/" + c.apiVersion + "/" + endpoint
}

// Status queries the status endpoint, which reports who the caller is
func (c *Client) Status(ctx context.Context) (*StatusResult, error) {
	root, err := c.transport.get(ctx, c.endpointURL(EndpointStatus), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}

	status, err := DecodeStatus(root)
	if err != nil {
		return nil, fmt.Errorf("failed to decode status: %w", err)
	}

	c.logger.Debug().
		Int64("esp_id", status.ESPID).
		Str("esp_name", status.ESPName).
		Msg("Retrieved hash sharing status")

	return status, nil
}

// GetEntries fetches one page of updates. With an empty cursor the page starts
// at startTimestamp; otherwise the cursor URL is requested verbatim and
// startTimestamp is ignored.
func (c *Client) GetEntries(ctx context.Context, startTimestamp int64, cursor string) (*EntriesPage, error) {
	var (
		requestURL string
		params     url.Values
	)
	if cursor != "" {
		requestURL = c.baseURL + cursor
	} else {
		requestURL = c.endpointURL(EndpointEntries)
		params = url.Values{}
		params.Set("from", FormatTimestamp(startTimestamp))
		params.Set("to", FormatTimestamp(c.now().Unix()))
	}

	root, err := c.transport.get(ctx, requestURL, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get entries: %w", err)
	}

	page, err := DecodeEntriesPage(root, c.now().Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to decode entries: %w", err)
	}

	pagesFetchedTotal.Inc()
	for _, u := range page.Updates {
		updatesDecodedTotal.WithLabelValues(u.EntryType.String(), strconv.FormatBool(u.Deleted)).Inc()
	}

	c.logger.Debug().
		Int("count", len(page.Updates)).
		Int64("max_timestamp", page.MaxTimestamp).
		Bool("has_more", page.HasMore()).
		Msg("Retrieved entries page")

	return page, nil
}

// GetEntriesIter fetches pages one after another until the server stops issuing
// a cursor. On failure it yields the error once and stops. Breaking out of the
// loop stops fetching.
func (c *Client) GetEntriesIter(ctx context.Context, startTimestamp int64) iter.Seq2[*EntriesPage, error] {
	return func(yield func(*EntriesPage, error) bool) {
		cursor := ""
		for n := 1; ; n++ {
			page, err := c.GetEntries(ctx, startTimestamp, cursor)
			if err != nil {
				yield(nil, fmt.Errorf("page %d: %w", n, err))
				return
			}
			if !yield(page, nil) {
				return
			}
			if !page.HasMore() {
				return
			}
			cursor = page.Next
		}
	}
}

// Post submits body to endpoint once and returns the raw response body.
// Submissions are never retried.
func (c *Client) Post(ctx context.Context, endpoint string, body []byte) ([]byte, error) {
	requestURL := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	resp, err := c.transport.post(ctx, requestURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to post to %s: %w", endpoint, err)
	}
	return resp, nil
}
