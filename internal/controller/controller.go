// Package controller owns the request draft and drives one cancellable,
// timeout-bound submission at a time through Idle, Sending, Waiting, Success
// and Error.
package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	httpclient "apiplay/internal/http"
	"apiplay/internal/keys"
	"apiplay/internal/logging"
	"apiplay/internal/model"
)

// DefaultGraceDelay is the pause between entering Sending and dispatching,
// giving the UI a chance to paint the Sending state.
const DefaultGraceDelay = 200 * time.Millisecond

// CancelledMessage is shown for both explicit cancels and expired timeouts.
const CancelledMessage = "Request cancelled/timeout"

// ErrClosed is returned by Submit once Close has been called
var ErrClosed = errors.New("controller is closed")

// Sender issues one request bound to ctx. Cancellation errors must satisfy
// errors.Is(err, httpclient.ErrCancelled) or context.Canceled.
type Sender interface {
	Send(ctx context.Context, method, url string, headers map[string]string, body string) (*httpclient.Response, error)
}

// Controller is safe for concurrent use.
type Controller struct {
	sender  Sender
	grace   time.Duration
	now     func() time.Time
	logger  logging.Logger
	headers map[string]string

	mu           sync.Mutex
	draft        model.Draft
	state        model.State
	result       *model.Result
	urlErr       error
	timeoutErr   error
	version      uint64
	generation   uint64
	submissionID string
	cancel       context.CancelFunc

	listenersMu sync.Mutex
	listeners   map[int]func(model.Snapshot)
	nextID      int

	unmount  func()
	closed   bool
	closing  context.Context
	closeAll context.CancelFunc
	wg       sync.WaitGroup
}

// Option configures a Controller
type Option func(*Controller)

// WithGraceDelay overrides DefaultGraceDelay
func WithGraceDelay(d time.Duration) Option {
	return func(c *Controller) {
		c.grace = d
	}
}

// WithLogger sets the logger
func WithLogger(logger logging.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithClock replaces time.Now for execution time measurement
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithHeaders adds extra headers to every dispatched request
func WithHeaders(headers map[string]string) Option {
	return func(c *Controller) {
		for k, v := range headers {
			c.headers[k] = v
		}
	}
}

// New creates an Idle controller with an empty GET draft
func New(sender Sender, opts ...Option) *Controller {
	c := &Controller{
		sender:    sender,
		grace:     DefaultGraceDelay,
		now:       time.Now,
		logger:    logging.Nop(),
		headers:   map[string]string{"Content-Type": httpclient.ContentTypeJSON},
		draft:     model.Draft{Method: model.MethodGet},
		listeners: make(map[int]func(model.Snapshot)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(logging.F("component", "controller"))
	c.closing, c.closeAll = context.WithCancel(context.Background())
	return c
}

// Mount subscribes the controller to global key presses: Escape cancels the
// in-flight request. Close releases the subscription.
func (c *Controller) Mount(bus *keys.Bus) {
	unsubscribe := bus.Subscribe(func(k keys.Key) {
		if k == keys.Escape {
			c.Cancel()
		}
	})

	c.mu.Lock()
	prev := c.unmount
	c.unmount = unsubscribe
	c.mu.Unlock()

	if prev != nil {
		prev()
	}
}

// Close releases the key subscription, aborts every request still running
// (superseded ones included) and waits for them to settle. Submit returns
// ErrClosed afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	unmount := c.unmount
	c.unmount = nil
	c.closed = true
	c.mu.Unlock()

	if unmount != nil {
		unmount()
	}
	c.closeAll()
	c.wg.Wait()
}

// OnChange registers fn to receive a snapshot after every change. Snapshots
// may arrive out of order from different goroutines; Version orders them.
func (c *Controller) OnChange(fn func(model.Snapshot)) (unsubscribe func()) {
	c.listenersMu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.listenersMu.Unlock()

	return func() {
		c.listenersMu.Lock()
		delete(c.listeners, id)
		c.listenersMu.Unlock()
	}
}

// Snapshot returns the current observable state
func (c *Controller) Snapshot() model.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() model.Snapshot {
	s := model.Snapshot{
		Version:      c.version,
		SubmissionID: c.submissionID,
		Draft:        c.draft,
		State:        c.state,
	}
	if c.draft.TimeoutSeconds != nil {
		v := *c.draft.TimeoutSeconds
		s.Draft.TimeoutSeconds = &v
	}
	if c.result != nil {
		r := *c.result
		s.Result = &r
	}
	if c.urlErr != nil {
		s.URLError = c.urlErr.Error()
	}
	if c.timeoutErr != nil {
		s.TimeoutError = c.timeoutErr.Error()
	}
	return s
}

// changedLocked bumps the version and returns the snapshot to publish once
// the lock is released.
func (c *Controller) changedLocked() model.Snapshot {
	c.version++
	return c.snapshotLocked()
}

func (c *Controller) publish(s model.Snapshot) {
	c.listenersMu.Lock()
	fns := make([]func(model.Snapshot), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.listenersMu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

// SetMethod changes the method. A real change resets the lifecycle to Idle
// and clears the body.
func (c *Controller) SetMethod(m model.Method) {
	c.mu.Lock()
	if c.draft.Method == m {
		c.mu.Unlock()
		return
	}
	c.draft.Method = m
	c.resetLocked()
	s := c.changedLocked()
	c.mu.Unlock()

	c.publish(s)
}

// SetURL changes the URL. A real change resets the lifecycle to Idle, clears
// the body and clears the URL validation message.
func (c *Controller) SetURL(u string) {
	c.mu.Lock()
	if c.draft.URL == u {
		c.mu.Unlock()
		return
	}
	c.draft.URL = u
	c.urlErr = nil
	c.resetLocked()
	s := c.changedLocked()
	c.mu.Unlock()

	c.publish(s)
}

// SetBody changes the request body
func (c *Controller) SetBody(body string) {
	c.mu.Lock()
	if c.draft.Body == body {
		c.mu.Unlock()
		return
	}
	c.draft.Body = body
	s := c.changedLocked()
	c.mu.Unlock()

	c.publish(s)
}

// SetTimeout sets the timeout in seconds; nil means no timeout. It clears the
// timeout validation message.
func (c *Controller) SetTimeout(seconds *int) {
	c.mu.Lock()
	if seconds != nil {
		v := *seconds
		seconds = &v
	}
	c.draft.TimeoutSeconds = seconds
	c.timeoutErr = nil
	s := c.changedLocked()
	c.mu.Unlock()

	c.publish(s)
}

// resetLocked returns to Idle after a draft change. Any in-flight submission
// is superseded: it keeps running but its outcome is dropped.
func (c *Controller) resetLocked() {
	c.draft.Body = ""
	c.state = model.StateIdle
	c.result = nil
	c.generation++
}

// Cancel aborts the current request. It does nothing when no request is in
// flight.
func (c *Controller) Cancel() {
	c.mu.Lock()
	cancel := c.cancel
	inFlight := c.state.InFlight()
	c.mu.Unlock()

	if cancel != nil && inFlight {
		c.logger.Debug("cancel requested")
		cancel()
	}
}

// Submission tracks one dispatched request
type Submission struct {
	ID   string
	done chan struct{}
}

// Done is closed once the submission has settled
func (s *Submission) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the submission settles or ctx ends
func (s *Submission) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit validates the draft and, if it passes, starts a new submission in the
// background. Validation failures are returned as *ValidationError and leave
// the state Idle.
func (c *Controller) Submit(ctx context.Context) (*Submission, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}

	if verr := validate(c.draft.URL, c.draft.TimeoutSeconds); verr != nil {
		c.urlErr, c.timeoutErr = verr.URL, verr.Timeout
		c.state = model.StateIdle
		c.result = nil
		c.generation++
		s := c.changedLocked()
		c.mu.Unlock()

		c.publish(s)
		return nil, verr
	}
	c.urlErr, c.timeoutErr = nil, nil

	c.result = nil
	c.generation++
	gen := c.generation

	// The previous token is dropped, not aborted.
	reqCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	stopOnClose := context.AfterFunc(c.closing, cancel)

	var timer *time.Timer
	if t := c.draft.TimeoutSeconds; t != nil {
		timer = time.AfterFunc(time.Duration(*t)*time.Second, cancel)
	}

	start := c.now()
	c.submissionID = uuid.New().String()[:8]
	c.state = model.StateSending
	draft := c.draft
	sub := &Submission{ID: c.submissionID, done: make(chan struct{})}
	s := c.changedLocked()
	c.wg.Add(1)
	c.mu.Unlock()

	c.logger.Info("submitting request",
		logging.F("submission", sub.ID),
		logging.F("method", string(draft.Method)),
		logging.F("url", draft.URL))
	c.publish(s)

	go func() {
		defer c.wg.Done()
		defer close(sub.done)
		defer cancel()
		defer stopOnClose()
		if timer != nil {
			defer timer.Stop()
		}
		c.run(reqCtx, gen, draft, start)
	}()

	return sub, nil
}

func (c *Controller) run(ctx context.Context, gen uint64, draft model.Draft, start time.Time) {
	grace := time.NewTimer(c.grace)
	defer grace.Stop()
	select {
	case <-grace.C:
	case <-ctx.Done():
		c.settle(ctx, gen, nil, ctx.Err(), start)
		return
	}

	if !c.transition(gen, model.StateWaiting) {
		return
	}

	var body string
	if draft.Method.HasBody() {
		body = draft.Body
	}

	resp, err := c.sender.Send(ctx, string(draft.Method), draft.URL, c.headers, body)
	c.settle(ctx, gen, resp, err, start)
}

// transition moves an in-flight generation to state. It reports false when
// the generation has been superseded.
func (c *Controller) transition(gen uint64, state model.State) bool {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return false
	}
	c.state = state
	s := c.changedLocked()
	c.mu.Unlock()

	c.publish(s)
	return true
}

// settle commits the terminal outcome of generation gen. A token that was
// cancelled before this point always yields the cancellation error, even if a
// response had already arrived.
func (c *Controller) settle(ctx context.Context, gen uint64, resp *httpclient.Response, err error, start time.Time) {
	var parsed any
	if err == nil && resp != nil {
		parsed = resp.JSON()
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.logger.Debug("dropping superseded outcome", logging.F("generation", gen))
		return
	}

	result := &model.Result{ExecutionTime: c.now().Sub(start)}
	switch {
	case ctx.Err() != nil || isCancelled(err):
		c.state = model.StateError
		result.ErrorMessage = CancelledMessage
	case err != nil:
		c.state = model.StateError
		result.ErrorMessage = err.Error()
	case resp == nil:
		c.state = model.StateError
		result.ErrorMessage = "no response"
	case !resp.OK():
		c.state = model.StateError
		result.HTTPStatus = resp.StatusCode
		result.ErrorMessage = resp.StatusText
		result.Body = parsed
		result.Truncated = resp.Truncated
	default:
		c.state = model.StateSuccess
		result.HTTPStatus = resp.StatusCode
		result.StatusText = resp.StatusText
		result.Body = parsed
		result.Truncated = resp.Truncated
	}
	c.result = result
	id := c.submissionID
	state := c.state
	s := c.changedLocked()
	c.mu.Unlock()

	c.logger.Info("request settled",
		logging.F("submission", id),
		logging.F("state", state.String()),
		logging.F("status", result.HTTPStatus),
		logging.F("elapsed_ms", result.ExecutionTime.Milliseconds()),
		logging.F("truncated", result.Truncated))
	c.publish(s)
}

func isCancelled(err error) bool {
	return errors.Is(err, httpclient.ErrCancelled) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
