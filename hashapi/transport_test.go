package hashapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithRetryWait(time.Millisecond, 5*time.Millisecond)}, opts...)
	client, err := NewClient(baseURL, "user", "secret", zerolog.Nop(), opts...)
	require.NoError(t, err)
	return client
}

func TestTransportRetriesIdempotentRequests(t *testing.T) {
	t.Run("gives up after max attempts", func(t *testing.T) {
		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("maintenance"))
		}))
		defer server.Close()

		before := testutil.ToFloat64(httpAttemptsTotal.WithLabelValues(http.MethodGet))

		client := newTestClient(t, server.URL)
		_, err := client.Status(context.Background())
		require.Error(t, err)

		assert.Equal(t, int32(DefaultMaxRetries+1), attempts.Load())
		assert.Equal(t, float64(DefaultMaxRetries+1), testutil.ToFloat64(httpAttemptsTotal.WithLabelValues(http.MethodGet))-before)

		var terr *TransportError
		require.True(t, errors.As(err, &terr))
		assert.Equal(t, http.StatusServiceUnavailable, terr.StatusCode)
		assert.Equal(t, "maintenance", terr.Body)
		assert.True(t, terr.IsRetryable())
		assert.ErrorIs(t, err, ErrTransport)
	})

	t.Run("recovers after transient failures", func(t *testing.T) {
		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch attempts.Add(1) {
			case 1:
				w.WriteHeader(http.StatusTooManyRequests)
			case 2:
				w.WriteHeader(http.StatusBadGateway)
			default:
				_, _ = w.Write([]byte(`<status><member id="1">ESP</member></status>`))
			}
		}))
		defer server.Close()

		status, err := newTestClient(t, server.URL).Status(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "ESP", status.ESPName)
		assert.Equal(t, int32(3), attempts.Load())
	})

	t.Run("respects configured retries", func(t *testing.T) {
		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts.Add(1)
			w.WriteHeader(http.StatusGatewayTimeout)
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL, WithMaxRetries(1)).Status(context.Background())
		require.ErrorIs(t, err, ErrTransport)
		assert.Equal(t, int32(2), attempts.Load())
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL).Status(context.Background())
		var terr *TransportError
		require.True(t, errors.As(err, &terr))
		assert.True(t, terr.IsUnauthorized())
		assert.False(t, terr.IsRetryable())
		assert.Equal(t, int32(1), attempts.Load())
	})

	t.Run("connection failures are retried then surfaced", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		before := testutil.ToFloat64(httpAttemptsTotal.WithLabelValues(http.MethodGet))

		_, err := newTestClient(t, url, WithMaxRetries(2)).Status(context.Background())
		var terr *TransportError
		require.True(t, errors.As(err, &terr))
		assert.Equal(t, 0, terr.StatusCode)
		assert.Error(t, terr.Err)
		assert.Equal(t, float64(3), testutil.ToFloat64(httpAttemptsTotal.WithLabelValues(http.MethodGet))-before)
	})
}

func TestTransportPostIsNotRetried(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).Post(context.Background(), "submit", []byte("<report/>"))
	require.Error(t, err)

	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, http.MethodPost, terr.Method)
	assert.Equal(t, http.StatusInternalServerError, terr.StatusCode)
	assert.Equal(t, "boom", terr.Body)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestTransportCountsResponseWhenBodyReadFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Declared length exceeds what is written, so the client sees an unexpected EOF
		w.Header().Set("Content-Length", "100")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<sta"))
	}))
	defer server.Close()

	before := testutil.ToFloat64(httpResponsesTotal.WithLabelValues(http.MethodGet, "200"))

	_, err := newTestClient(t, server.URL).Status(context.Background())
	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, http.StatusOK, terr.StatusCode)
	assert.Contains(t, terr.Error(), "failed to read response body")

	assert.Equal(t, float64(1), testutil.ToFloat64(httpResponsesTotal.WithLabelValues(http.MethodGet, "200"))-before)
}

func TestTransportRequestHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "user", user)
		assert.Equal(t, "secret", pass)
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))
		assert.Equal(t, "application/xml", r.Header.Get("Accept"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))

		if r.Method == http.MethodPost {
			assert.Equal(t, "application/xml", r.Header.Get("Content-Type"))
			body, err := io.ReadAll(r.Body)
			assert.NoError(t, err)
			_, _ = w.Write(append([]byte("echo:"), body...))
			return
		}
		_, _ = w.Write([]byte(`<status><member id="1">ESP</member></status>`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, WithUserAgent("test-agent"))

	_, err := client.Status(context.Background())
	require.NoError(t, err)

	resp, err := client.Post(context.Background(), "/submit", []byte("<report/>"))
	require.NoError(t, err)
	assert.Equal(t, "echo:<report/>", string(resp))
}

func TestParseDocumentStripsNamespaces(t *testing.T) {
	root, err := parseDocument([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<ns2:status xmlns:ns2="https://hashsharing.example/v2" xmlns:x="urn:x">
  <ns2:member id="11">Namespaced</ns2:member>
  <x:paging><x:next>/v2/entries?next=1</x:next></x:paging>
</ns2:status>`))
	require.NoError(t, err)
	assert.Equal(t, "status", root.Tag())
	assert.Empty(t, root.Element().Space)

	status, err := DecodeStatus(root)
	require.NoError(t, err)
	assert.Equal(t, int64(11), status.ESPID)

	next, ok := root.Maybe("paging", "next").OptionalText()
	assert.True(t, ok)
	assert.Equal(t, "/v2/entries?next=1", next)
}

func TestParseDocumentRejectsGarbage(t *testing.T) {
	for name, body := range map[string]string{
		"not xml": "this is not xml <",
		"empty":   "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := parseDocument([]byte(body))
			require.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestCheckRetry(t *testing.T) {
	ctx := context.Background()
	for code, want := range map[int]bool{
		http.StatusOK:                  false,
		http.StatusBadRequest:          false,
		http.StatusNotFound:            false,
		http.StatusNotImplemented:      false,
		http.StatusTooManyRequests:     true,
		http.StatusInternalServerError: true,
		http.StatusBadGateway:          true,
		http.StatusServiceUnavailable:  true,
		http.StatusGatewayTimeout:      true,
	} {
		retry, err := checkRetry(ctx, &http.Response{StatusCode: code}, nil)
		require.NoError(t, err)
		assert.Equal(t, want, retry, "status %d", code)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	retry, err := checkRetry(cancelled, &http.Response{StatusCode: http.StatusServiceUnavailable}, nil)
	assert.False(t, retry)
	assert.ErrorIs(t, err, context.Canceled)
}
