package model

import (
	"fmt"
	"strings"
	"time"
)

// Method is one of the HTTP methods the playground can send
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
)

// Methods lists the selectable methods in display order
var Methods = []Method{MethodGet, MethodPost, MethodPut, MethodDelete}

// ParseMethod parses a method name case-insensitively
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Methods {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unsupported method: %q", s)
}

// HasBody reports whether requests with this method carry a body
func (m Method) HasBody() bool {
	return m == MethodPost || m == MethodPut
}

// Draft is the request being composed by the user
type Draft struct {
	Method         Method `json:"method"`
	URL            string `json:"url"`
	Body           string `json:"body"`
	TimeoutSeconds *int   `json:"timeout_seconds,omitempty"` // nil means no timeout
}

// State is the lifecycle phase of the current submission
type State int

const (
	StateIdle State = iota
	StateSending
	StateWaiting
	StateSuccess
	StateError
)

var stateNames = [...]string{"idle", "sending", "waiting", "success", "error"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// InFlight reports whether a request is being sent or awaited
func (s State) InFlight() bool {
	return s == StateSending || s == StateWaiting
}

// Result is the outcome of one submission. Zero values stand for "absent".
type Result struct {
	HTTPStatus    int           `json:"http_status,omitempty"`
	StatusText    string        `json:"status_text,omitempty"`
	Body          any           `json:"body,omitempty"`
	ErrorMessage  string        `json:"error_message,omitempty"`
	ExecutionTime time.Duration `json:"execution_time,omitempty"`
	Truncated     bool          `json:"truncated,omitempty"`
}

// ExecutionTimeMs returns the execution time in milliseconds
func (r *Result) ExecutionTimeMs() float64 {
	return float64(r.ExecutionTime) / float64(time.Millisecond)
}

// Snapshot is a copy of everything observable about a controller
type Snapshot struct {
	Version      uint64  `json:"version"`
	SubmissionID string  `json:"submission_id,omitempty"`
	Draft        Draft   `json:"draft"`
	State        State   `json:"state"`
	Result       *Result `json:"result,omitempty"`
	URLError     string  `json:"url_error,omitempty"`
	TimeoutError string  `json:"timeout_error,omitempty"`
}

// User is a record served by the mock API
type User struct {
	ID        int    `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}
