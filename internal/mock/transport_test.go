package mock

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransport_AnswersMockRoutes(t *testing.T) {
	client := &http.Client{Transport: NewTransport(newTestHandler(t), nil)}

	resp, err := client.Post("http://any-host.example/api/users", "application/json",
		strings.NewReader(`{"firstName":"X","lastName":"Y"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "201 Created", resp.Status)
	assert.JSONEq(t, `{"id":3,"firstName":"X","lastName":"Y"}`, string(body))
}

func TestTransport_GetWithoutBody(t *testing.T) {
	client := &http.Client{Transport: NewTransport(newTestHandler(t), nil)}

	resp, err := client.Get("https://host/api/users")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTransport_PassesThroughUnmatched(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := &http.Client{Transport: NewTransport(newTestHandler(t), nil)}

	resp, err := client.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestTransport_CancelledDuringDelay(t *testing.T) {
	h := NewHandler(NewMemoryStore(DefaultUsers()))
	client := &http.Client{Transport: NewTransport(h, nil)}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", "http://host/api/slow", nil)
	require.NoError(t, err)

	start := time.Now()
	_, err = client.Do(req)

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 2*time.Second)
}
