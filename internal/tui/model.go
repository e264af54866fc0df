// Package tui is the interactive playground: a form for the draft and a
// result panel that follows the controller's lifecycle.
package tui

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"apiplay/internal/controller"
	"apiplay/internal/keys"
	"apiplay/internal/model"
)

// Field is a focusable form element.
type Field int

const (
	FieldMethod Field = iota
	FieldURL
	FieldTimeout
	FieldBody
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const tickInterval = 100 * time.Millisecond

// snapshotMsg carries a controller change into the update loop.
type snapshotMsg model.Snapshot

type tickMsg struct{}

// latest keeps only the newest snapshot so a slow UI never blocks the
// controller.
type latest struct {
	mu     sync.Mutex
	snap   model.Snapshot
	signal chan struct{}
	done   chan struct{}
}

func newLatest() *latest {
	return &latest{signal: make(chan struct{}, 1), done: make(chan struct{})}
}

func (l *latest) put(s model.Snapshot) {
	l.mu.Lock()
	if s.Version >= l.snap.Version {
		l.snap = s
	}
	l.mu.Unlock()

	select {
	case l.signal <- struct{}{}:
	default:
	}
}

func (l *latest) wait() tea.Msg {
	select {
	case <-l.signal:
	case <-l.done:
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return snapshotMsg(l.snap)
}

// Model is the bubbletea model of the playground.
type Model struct {
	ctrl *controller.Controller
	bus  *keys.Bus

	snap        model.Snapshot
	focus       Field
	timeoutText string
	frame       int
	width       int

	updates   *latest
	stopWatch func()
	closeOnce sync.Once
}

// New wires a model to ctrl. The controller is mounted on bus when the
// program starts and closed by Close.
func New(ctrl *controller.Controller, bus *keys.Bus) *Model {
	m := &Model{
		ctrl:    ctrl,
		bus:     bus,
		snap:    ctrl.Snapshot(),
		focus:   FieldURL,
		updates: newLatest(),
	}
	if t := m.snap.Draft.TimeoutSeconds; t != nil {
		m.timeoutText = strconv.Itoa(*t)
	}
	m.stopWatch = ctrl.OnChange(m.updates.put)
	return m
}

// Init mounts the controller and starts listening for changes.
func (m *Model) Init() tea.Cmd {
	m.ctrl.Mount(m.bus)
	return tea.Batch(m.updates.wait, tick())
}

// Close stops listening and closes the controller, aborting anything in
// flight.
func (m *Model) Close() {
	m.closeOnce.Do(func() {
		m.stopWatch()
		close(m.updates.done)
		m.ctrl.Close()
	})
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

// Snapshot returns the state the model last rendered from.
func (m *Model) Snapshot() model.Snapshot { return m.snap }

// Focus returns the focused field.
func (m *Model) Focus() Field { return m.focus }

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case snapshotMsg:
		if msg.Version >= m.snap.Version {
			m.snap = model.Snapshot(msg)
		}
		return m, m.updates.wait

	case tickMsg:
		if m.snap.State.InFlight() {
			m.frame = (m.frame + 1) % len(spinnerFrames)
		}
		return m, tick()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.bus.Publish(keys.Escape)
		return m, nil
	case tea.KeyTab:
		m.moveFocus(1)
		return m, nil
	case tea.KeyShiftTab:
		m.moveFocus(-1)
		return m, nil
	case tea.KeyCtrlS:
		m.submit()
		return m, nil
	case tea.KeyEnter:
		if m.focus == FieldBody {
			m.editBody(func(s string) string { return s + "\n" })
		} else {
			m.submit()
		}
		return m, nil
	}

	switch m.focus {
	case FieldMethod:
		switch msg.Type {
		case tea.KeyLeft:
			m.cycleMethod(-1)
		case tea.KeyRight:
			m.cycleMethod(1)
		}
	case FieldURL:
		if s, ok := edit(m.snap.Draft.URL, msg); ok {
			m.ctrl.SetURL(s)
			m.refresh()
		}
	case FieldTimeout:
		m.editTimeout(msg)
	case FieldBody:
		m.editBody(func(s string) string {
			out, _ := edit(s, msg)
			return out
		})
	}
	return m, nil
}

// edit applies a text editing key to s.
func edit(s string, msg tea.KeyMsg) (string, bool) {
	switch msg.Type {
	case tea.KeyRunes:
		return s + string(msg.Runes), true
	case tea.KeySpace:
		return s + " ", true
	case tea.KeyBackspace:
		if s == "" {
			return s, false
		}
		r := []rune(s)
		return string(r[:len(r)-1]), true
	}
	return s, false
}

func (m *Model) visibleFields() []Field {
	fields := []Field{FieldMethod, FieldURL, FieldTimeout}
	if m.snap.Draft.Method.HasBody() {
		fields = append(fields, FieldBody)
	}
	return fields
}

func (m *Model) moveFocus(delta int) {
	fields := m.visibleFields()
	idx := 0
	for i, f := range fields {
		if f == m.focus {
			idx = i
		}
	}
	m.focus = fields[(idx+delta+len(fields))%len(fields)]
}

func (m *Model) cycleMethod(delta int) {
	idx := 0
	for i, method := range model.Methods {
		if method == m.snap.Draft.Method {
			idx = i
		}
	}
	next := model.Methods[(idx+delta+len(model.Methods))%len(model.Methods)]
	m.ctrl.SetMethod(next)
	m.refresh()
}

func (m *Model) editTimeout(msg tea.KeyMsg) {
	text := m.timeoutText
	switch msg.Type {
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			if r < '0' || r > '9' {
				return
			}
		}
		text += string(msg.Runes)
	case tea.KeyBackspace:
		if text == "" {
			return
		}
		text = text[:len(text)-1]
	default:
		return
	}

	// text that overflows int is dropped so the field never disagrees with the draft
	var timeout *int
	if text != "" {
		v, err := strconv.Atoi(text)
		if err != nil {
			return
		}
		timeout = &v
	}
	m.timeoutText = text
	m.ctrl.SetTimeout(timeout)
	m.refresh()
}

func (m *Model) editBody(fn func(string) string) {
	if !m.snap.Draft.Method.HasBody() {
		return
	}
	m.ctrl.SetBody(fn(m.snap.Draft.Body))
	m.refresh()
}

func (m *Model) submit() {
	if m.snap.State.InFlight() {
		return
	}
	// validation failures surface through the snapshot
	_, _ = m.ctrl.Submit(context.Background())
	m.refresh()
}

func (m *Model) refresh() {
	s := m.ctrl.Snapshot()
	if s.Version >= m.snap.Version {
		m.snap = s
	}
	if !m.snap.Draft.Method.HasBody() && m.focus == FieldBody {
		m.focus = FieldTimeout
	}
}

// Run starts the playground and blocks until the user quits.
func Run(ctrl *controller.Controller, bus *keys.Bus, opts ...tea.ProgramOption) error {
	m := New(ctrl, bus)
	defer m.Close()

	_, err := tea.NewProgram(m, opts...).Run()
	return err
}

func bodyLines(body string) []string {
	if body == "" {
		return []string{""}
	}
	return strings.Split(body, "\n")
}
