package mock

import (
	"net/http"
	"net/http/httptest"
)

// Transport answers requests that match a mock route in-process and hands
// everything else to Next.
type Transport struct {
	Handler *Handler
	Next    http.RoundTripper // defaults to http.DefaultTransport
}

// NewTransport wraps handler as an http.RoundTripper
func NewTransport(handler *Handler, next http.RoundTripper) *Transport {
	return &Transport{Handler: handler, Next: next}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.Handler.Match(req.Method, req.URL.Path) {
		next := t.Next
		if next == nil {
			next = http.DefaultTransport
		}
		return next.RoundTrip(req)
	}

	if req.Body != nil {
		defer req.Body.Close()
	}

	inbound := req.Clone(req.Context())
	if inbound.Body == nil {
		inbound.Body = http.NoBody
	}
	inbound.RequestURI = req.URL.RequestURI()
	inbound.RemoteAddr = "mock"

	rec := httptest.NewRecorder()
	t.Handler.ServeHTTP(rec, inbound)

	// A cancelled request gets no response even if the handler wrote one
	if err := req.Context().Err(); err != nil {
		return nil, err
	}

	resp := rec.Result()
	resp.Request = req
	return resp, nil
}
