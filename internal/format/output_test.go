package format

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"apiplay/internal/model"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func TestSanitizeOutput(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"line\nbreak\ttab", "line\nbreak\ttab"},
		{"\x1b[31mred", "\\x1b[31mred"},
		{"bell\x07", "bell\\x07"},
		{"del\x7f", "del\\x7f"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeOutput(tt.in))
	}
}

func TestRenderPanel_IdleWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	RenderPanel(&buf, model.Snapshot{State: model.StateIdle})
	assert.Empty(t, buf.String())
}

func TestRenderPanel_InFlightShowsHint(t *testing.T) {
	for _, state := range []model.State{model.StateSending, model.StateWaiting} {
		var buf bytes.Buffer
		RenderPanel(&buf, model.Snapshot{State: state})

		assert.Contains(t, buf.String(), StateLabel(state))
		assert.Contains(t, buf.String(), CancelHint)
	}
}

func TestRenderPanel_Success(t *testing.T) {
	var body any
	_ = json.Unmarshal([]byte(`{"id":3,"firstName":"X"}`), &body)

	var buf bytes.Buffer
	RenderPanel(&buf, model.Snapshot{
		State: model.StateSuccess,
		Result: &model.Result{
			HTTPStatus:    201,
			StatusText:    "Created",
			Body:          body,
			ExecutionTime: 812 * time.Millisecond,
		},
	})

	out := buf.String()
	assert.Contains(t, out, "Success\n")
	assert.Contains(t, out, "Status: 201 Created")
	assert.Contains(t, out, "Execution time: 812 ms")
	assert.Contains(t, out, "\"firstName\": \"X\"")
	assert.NotContains(t, out, CancelHint)
	assert.NotContains(t, out, TruncatedNotice)
}

func TestRenderPanel_TruncatedBody(t *testing.T) {
	var buf bytes.Buffer
	RenderPanel(&buf, model.Snapshot{
		State:  model.StateSuccess,
		Result: &model.Result{HTTPStatus: 200, StatusText: "OK", Truncated: true},
	})

	assert.Contains(t, buf.String(), TruncatedNotice)
}

func TestRenderPanel_HTTPError(t *testing.T) {
	var buf bytes.Buffer
	RenderPanel(&buf, model.Snapshot{
		State: model.StateError,
		Result: &model.Result{
			HTTPStatus:    404,
			ErrorMessage:  "Not Found",
			ExecutionTime: 2500 * time.Millisecond,
		},
	})

	assert.Equal(t, "Error\nStatus: 404 Not Found\nExecution time: 2500 ms\n", buf.String())
}

func TestRenderPanel_Cancelled(t *testing.T) {
	var buf bytes.Buffer
	RenderPanel(&buf, model.Snapshot{
		State:  model.StateError,
		Result: &model.Result{ErrorMessage: "Request cancelled/timeout", ExecutionTime: time.Second},
	})

	assert.Equal(t, "Error\nRequest cancelled/timeout\nExecution time: 1000 ms\n", buf.String())
}

func TestRenderFieldErrors(t *testing.T) {
	var buf bytes.Buffer
	RenderFieldErrors(&buf, model.Snapshot{URLError: "URL is required!", TimeoutError: "Timeout value must be between 1 and 15"})

	assert.Equal(t, "url: URL is required!\ntimeout: Timeout value must be between 1 and 15\n", buf.String())
}

func TestSelect(t *testing.T) {
	var body any
	_ = json.Unmarshal([]byte(`[{"id":1,"firstName":"John"},{"id":2,"firstName":"Jane"}]`), &body)

	got, ok := Select(body, "1.firstName")
	assert.True(t, ok)
	assert.Equal(t, "Jane", got)

	got, ok = Select(body, "#.id")
	assert.True(t, ok)
	assert.Equal(t, "[\n  1,\n  2\n]", got)

	_, ok = Select(body, "5.firstName")
	assert.False(t, ok)
}
