// Package mock serves a canned user CRUD API, either over a real listener or
// in-process through Transport.
package mock

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tidwall/gjson"

	"apiplay/internal/logging"
	"apiplay/internal/model"
)

// Route describes one mock endpoint
type Route struct {
	Method   string
	Pattern  string
	Delay    time.Duration
	Behavior string
}

type route struct {
	Route
	handle http.HandlerFunc
}

// Handler is the mock API. Any path prefix before /api/ is ignored.
type Handler struct {
	router chi.Router
	routes []route
	store  Store
	scale  float64
	logger logging.Logger
}

// Option configures a Handler
type Option func(*Handler)

// WithDelayScale multiplies every route delay by scale (0 disables delays)
func WithDelayScale(scale float64) Option {
	return func(h *Handler) {
		h.scale = scale
	}
}

// WithLogger sets the request logger
func WithLogger(logger logging.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// NewHandler builds the mock API on top of store
func NewHandler(store Store, opts ...Option) *Handler {
	h := &Handler{
		store:  store,
		scale:  1,
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With(logging.F("component", "mock"))

	h.routes = []route{
		{Route{http.MethodGet, "/api/users", 600 * time.Millisecond, "200, full record set"}, h.listUsers},
		{Route{http.MethodGet, "/api/users/{id}", 600 * time.Millisecond, "200 + record, or 404"}, h.getUser},
		{Route{http.MethodPost, "/api/users", 700 * time.Millisecond, "201, creates record with id = count + 1"}, h.createUser},
		{Route{http.MethodPut, "/api/users/{id}", 800 * time.Millisecond, "200 + updated record, or 404"}, h.updateUser},
		{Route{http.MethodDelete, "/api/users/{id}", 500 * time.Millisecond, "204 empty body, or 404"}, h.deleteUser},
		{Route{http.MethodGet, "/api/error", 2500 * time.Millisecond, "404 empty body"}, h.alwaysError},
		{Route{http.MethodGet, "/api/slow", 10 * time.Second, `200 {"message":"Success"}`}, h.slow},
	}

	r := chi.NewRouter()
	for _, rt := range h.routes {
		r.Method(rt.Method, rt.Pattern, h.delayed(rt.Delay, rt.handle))
	}
	h.router = r

	return h
}

// Routes returns the route table
func (h *Handler) Routes() []Route {
	out := make([]Route, len(h.routes))
	for i, rt := range h.routes {
		out[i] = rt.Route
	}
	return out
}

// Match reports whether method and path hit one of the mock routes
func (h *Handler) Match(method, path string) bool {
	_, ok := h.resolve(method, path)
	return ok
}

// resolve finds the /api/... suffix of path that a route answers to
func (h *Handler) resolve(method, path string) (string, bool) {
	for i := strings.Index(path, "/api/"); i >= 0; {
		candidate := path[i:]
		if h.router.Match(chi.NewRouteContext(), method, candidate) {
			return candidate, true
		}
		next := strings.Index(path[i+1:], "/api/")
		if next < 0 {
			break
		}
		i += next + 1
	}
	return "", false
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if p, ok := h.resolve(r.Method, r.URL.Path); ok && p != r.URL.Path {
		u := *r.URL
		u.Path = p
		u.RawPath = ""
		r2 := new(http.Request)
		*r2 = *r
		r2.URL = &u
		r = r2
	}

	sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
	h.router.ServeHTTP(sw, r)

	h.logger.Debug("mock request",
		logging.F("method", r.Method),
		logging.F("path", r.URL.Path),
		logging.F("status", sw.status),
		logging.F("duration", time.Since(start).String()))
}

// delayed waits out the route delay before calling next. A request cancelled
// during the wait never reaches the store.
func (h *Handler) delayed(d time.Duration, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wait := time.Duration(float64(d) * h.scale)
		if wait > 0 {
			t := time.NewTimer(wait)
			defer t.Stop()
			select {
			case <-t.C:
			case <-r.Context().Done():
				return
			}
		}
		if r.Context().Err() != nil {
			return
		}
		next(w, r)
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func notFound(w http.ResponseWriter) {
	writeMessage(w, http.StatusNotFound, "User not found")
}

// userID parses the {id} param; anything non-numeric matches no record
func userID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	return id, err == nil
}

// readNames parses the JSON body and extracts the name fields. Missing fields
// become empty strings.
func readNames(r *http.Request) (string, string, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil || !gjson.ValidBytes(body) {
		return "", "", false
	}
	parsed := gjson.ParseBytes(body)
	return parsed.Get("firstName").String(), parsed.Get("lastName").String(), true
}

// --- route handlers ---

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.List(r.Context())
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		notFound(w)
		return
	}

	user, found, err := h.store.Get(r.Context(), id)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	first, last, ok := readNames(r)
	if !ok {
		writeMessage(w, http.StatusInternalServerError, "request body is not valid JSON")
		return
	}

	user, err := h.store.Create(r.Context(), first, last)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	// The body is parsed before the lookup, so bad JSON wins over a missing id
	first, last, ok := readNames(r)
	if !ok {
		writeMessage(w, http.StatusInternalServerError, "request body is not valid JSON")
		return
	}

	id, ok := userID(r)
	if !ok {
		notFound(w)
		return
	}

	user, found, err := h.store.Update(r.Context(), model.User{ID: id, FirstName: first, LastName: last})
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		notFound(w)
		return
	}

	found, err := h.store.Delete(r.Context(), id)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		notFound(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) alwaysError(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNotFound)
}

func (h *Handler) slow(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusOK, "Success")
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
