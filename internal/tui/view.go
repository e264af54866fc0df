package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"apiplay/internal/format"
	"apiplay/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	labelStyle   = lipgloss.NewStyle().Width(9).Foreground(lipgloss.Color("252"))
	focusedLabel = labelStyle.Copy().Foreground(lipgloss.Color("212")).Bold(true)

	selectedMethod = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57")).
			Padding(0, 1)
	otherMethod = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Padding(0, 1)

	fieldErrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)
)

// View renders the component.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("API Playground"))
	b.WriteString("\n\n")

	b.WriteString(m.label(FieldMethod, "Method"))
	for _, method := range model.Methods {
		if method == m.snap.Draft.Method {
			b.WriteString(selectedMethod.Render(string(method)))
		} else {
			b.WriteString(otherMethod.Render(string(method)))
		}
	}
	b.WriteString("\n")

	b.WriteString(m.label(FieldURL, "URL"))
	b.WriteString(m.input(FieldURL, m.snap.Draft.URL))
	b.WriteString("\n")
	if m.snap.URLError != "" {
		b.WriteString(fieldErrStyle.Render(strings.Repeat(" ", 9) + m.snap.URLError))
		b.WriteString("\n")
	}

	b.WriteString(m.label(FieldTimeout, "Timeout"))
	b.WriteString(m.input(FieldTimeout, m.timeoutText))
	b.WriteString(hintStyle.Render(" seconds (1-15, empty for none)"))
	b.WriteString("\n")
	if m.snap.TimeoutError != "" {
		b.WriteString(fieldErrStyle.Render(strings.Repeat(" ", 9) + m.snap.TimeoutError))
		b.WriteString("\n")
	}

	if m.snap.Draft.Method.HasBody() {
		b.WriteString(m.label(FieldBody, "Body"))
		lines := bodyLines(m.snap.Draft.Body)
		for i, line := range lines {
			if i > 0 {
				b.WriteString(strings.Repeat(" ", 9))
			}
			if i == len(lines)-1 {
				line = m.input(FieldBody, line)
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.submitHint())
	b.WriteString("\n")

	if panel := m.panel(); panel != "" {
		b.WriteString("\n")
		b.WriteString(panelStyle.Render(panel))
		b.WriteString("\n")
	}

	return b.String()
}

func (m *Model) label(f Field, text string) string {
	if m.focus == f {
		return focusedLabel.Render(text)
	}
	return labelStyle.Render(text)
}

func (m *Model) input(f Field, value string) string {
	if m.focus == f {
		return value + "█"
	}
	return value
}

func (m *Model) submitHint() string {
	if m.snap.State.InFlight() {
		return hintStyle.Render("[ Submit ] disabled while a request is in flight · esc cancel · ctrl+c quit")
	}
	submit := "enter"
	if m.focus == FieldBody {
		submit = "ctrl+s"
	}
	return hintStyle.Render("[ Submit ] " + submit + " · tab next field · ←/→ method · ctrl+c quit")
}

func (m *Model) panel() string {
	var b strings.Builder
	format.RenderPanel(&b, m.snap)
	out := strings.TrimRight(b.String(), "\n")
	if out == "" {
		return ""
	}
	if m.snap.State.InFlight() {
		out = spinnerFrames[m.frame] + " " + out
	}
	return out
}
