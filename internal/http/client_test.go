package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apiplay/internal/logging"
)

func TestClient_Send(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/test", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message": "hello", "count": 3}`))
	}))
	defer server.Close()

	client := NewClient()
	resp, err := client.Send(context.Background(), "GET", server.URL+"/test", nil, "")

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "OK", resp.StatusText)
	assert.True(t, resp.OK())
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])

	body, ok := resp.JSON().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "hello", body["message"])
	assert.Equal(t, json.Number("3"), body["count"])
}

func TestClient_SendBodyAndHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "abc", r.Header.Get("X-Trace"))
		assert.Equal(t, "custom", r.Header.Get("User-Agent"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"name":"test"}`, string(body))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(WithDefaultHeader("User-Agent", "custom"))
	resp, err := client.Send(context.Background(), "POST", server.URL, map[string]string{"X-Trace": "abc"}, `{"name":"test"}`)

	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, "Created", resp.StatusText)
	assert.Nil(t, resp.JSON())
}

func TestClient_NonJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	resp, err := NewClient().Send(context.Background(), "GET", server.URL, nil, "")

	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Equal(t, "Not Found", resp.StatusText)
	assert.Nil(t, resp.JSON())
}

func TestClient_CancelledContext(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewClient().Send(ctx, "GET", server.URL, nil, "")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCancelled))
}

func TestClient_TransportError(t *testing.T) {
	_, err := NewClient().Send(context.Background(), "GET", "ftp://example.com/file", nil, "")

	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrCancelled))
	assert.Contains(t, err.Error(), "unsupported protocol scheme")
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestClient_WithTransport(t *testing.T) {
	called := false
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		called = true
		rec := httptest.NewRecorder()
		rec.WriteHeader(http.StatusTeapot)
		return rec.Result(), nil
	})

	resp, err := NewClient(WithTransport(rt)).Send(context.Background(), "GET", "http://nowhere.invalid/x", nil, "")

	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.Equal(t, "I'm a teapot", resp.StatusText)
}

func TestClient_TruncatesOversizedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.URL.Query().Get("body")))
	}))
	defer server.Close()

	var logs bytes.Buffer
	logger, err := logging.New(&logs, logging.Options{Level: "warn"})
	require.NoError(t, err)
	client := NewClient(WithMaxResponseSize(8), WithLogger(logger))

	resp, err := client.Send(context.Background(), "GET", server.URL+"/?body=0123456789", nil, "")
	require.NoError(t, err)
	assert.True(t, resp.Truncated)
	assert.Equal(t, "01234567", string(resp.Body))
	assert.Contains(t, logs.String(), "response body truncated")

	logs.Reset()
	resp, err = client.Send(context.Background(), "GET", server.URL+"/?body=01234567", nil, "")
	require.NoError(t, err)
	assert.False(t, resp.Truncated)
	assert.Equal(t, "01234567", string(resp.Body))
	assert.Empty(t, logs.String())
}

func TestClient_DefaultResponseLimit(t *testing.T) {
	client := NewClient()
	assert.Equal(t, int64(MaxResponseSize), client.maxBody)
}
