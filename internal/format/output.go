package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"unicode"

	"github.com/fatih/color"
	"github.com/tidwall/gjson"

	"apiplay/internal/model"
)

// sanitizeOutput removes or escapes potentially dangerous control characters
// that could manipulate terminal display or execute commands
func sanitizeOutput(s string) string {
	var result bytes.Buffer
	result.Grow(len(s))

	for _, r := range s {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			result.WriteRune(r)
		case r == '\x1b':
			// keep escape sequences visible instead of interpreted
			result.WriteString("\\x1b")
		case unicode.IsControl(r) && r < 0x20:
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		case r == 0x7F:
			result.WriteString("\\x7f")
		default:
			result.WriteRune(r)
		}
	}

	return result.String()
}

var (
	successColor  = color.New(color.FgGreen, color.Bold)
	errorColor    = color.New(color.FgRed, color.Bold)
	sendingColor  = color.New(color.FgYellow, color.Bold)
	waitingColor  = color.New(color.FgCyan, color.Bold)
	fieldErrColor = color.New(color.FgRed)
	labelColor    = color.New(color.FgMagenta, color.Bold)
	urlColor      = color.New(color.FgBlue)
	dimColor      = color.New(color.Faint)
)

// CancelHint is shown while a request can still be cancelled
const CancelHint = "Press Esc to cancel"

// TruncatedNotice is shown when the response body hit the size limit
const TruncatedNotice = "Response body truncated at the size limit"

func stateColor(s model.State) *color.Color {
	switch s {
	case model.StateSuccess:
		return successColor
	case model.StateError:
		return errorColor
	case model.StateSending:
		return sendingColor
	default:
		return waitingColor
	}
}

// StateLabel is the human readable label of a lifecycle state
func StateLabel(s model.State) string {
	switch s {
	case model.StateSending:
		return "Sending..."
	case model.StateWaiting:
		return "Waiting for response..."
	case model.StateSuccess:
		return "Success"
	case model.StateError:
		return "Error"
	default:
		return "Idle"
	}
}

// RenderPanel writes the result panel for snap. Nothing is written while Idle.
func RenderPanel(w io.Writer, snap model.Snapshot) {
	if snap.State == model.StateIdle {
		return
	}

	stateColor(snap.State).Fprintln(w, StateLabel(snap.State))
	if snap.State.InFlight() {
		dimColor.Fprintln(w, CancelHint)
		return
	}

	r := snap.Result
	if r == nil {
		return
	}

	if r.HTTPStatus != 0 {
		labelColor.Fprint(w, "Status: ")
		text := r.StatusText
		if text == "" {
			text = r.ErrorMessage
		}
		stateColor(snap.State).Fprintln(w, sanitizeOutput(fmt.Sprintf("%d %s", r.HTTPStatus, text)))
	} else if r.ErrorMessage != "" {
		errorColor.Fprintln(w, sanitizeOutput(r.ErrorMessage))
	}

	dimColor.Fprintf(w, "Execution time: %d ms\n", r.ExecutionTime.Milliseconds())
	if r.Truncated {
		sendingColor.Fprintln(w, TruncatedNotice)
	}

	if r.Body != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, sanitizeOutput(PrettyBody(r.Body)))
	}
}

// RenderFieldErrors writes the inline validation messages of snap
func RenderFieldErrors(w io.Writer, snap model.Snapshot) {
	if snap.URLError != "" {
		fieldErrColor.Fprintf(w, "url: %s\n", snap.URLError)
	}
	if snap.TimeoutError != "" {
		fieldErrColor.Fprintf(w, "timeout: %s\n", snap.TimeoutError)
	}
}

// RenderRequestLine writes "METHOD url"
func RenderRequestLine(w io.Writer, d model.Draft) {
	labelColor.Fprintf(w, "%s ", d.Method)
	urlColor.Fprintln(w, sanitizeOutput(d.URL))
}

// PrettyBody renders a decoded JSON body indented by two spaces
func PrettyBody(body any) string {
	b, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return fmt.Sprint(body)
	}
	return string(b)
}

func prettyJSON(s string) string {
	var out bytes.Buffer
	if err := json.Indent(&out, []byte(s), "", "  "); err != nil {
		return s
	}
	return out.String()
}

// Select extracts a gjson path from a decoded body. The boolean reports
// whether the path exists.
func Select(body any, path string) (string, bool) {
	b, err := json.Marshal(body)
	if err != nil {
		return "", false
	}
	res := gjson.GetBytes(b, path)
	if !res.Exists() {
		return "", false
	}
	if res.IsObject() || res.IsArray() {
		return prettyJSON(res.Raw), true
	}
	return res.String(), true
}

// PrintSuccess prints a success message
func PrintSuccess(msg string) {
	successColor.Printf("✓ %s\n", msg)
}

// PrintError prints an error message to stderr
func PrintError(msg string) {
	errorColor.Fprintf(os.Stderr, "✗ %s\n", sanitizeOutput(msg))
}
