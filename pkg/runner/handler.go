package runner

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/homeview/pkg/domain"
)

// Frame is one redraw of the screen.
type Frame struct {
	Screen  string             `json:"screen"`
	State   domain.ActionState `json:"state"`
	Phase   string             `json:"cards_phase"`
	Cards   []domain.Card      `json:"cards,omitempty"`
	Error   string             `json:"error,omitempty"`
	Notice  string             `json:"notice,omitempty"`
	Content string             `json:"-"`
}

// Screens.
const (
	ScreenHome    = "home"
	ScreenSection = "section"
)

// OutputHandler writes frames.
type OutputHandler interface {
	Output(f Frame) error
}

// TextHandler writes the rendered screen followed by a prompt.
type TextHandler struct {
	Writer io.Writer
	// Clear erases the terminal before each frame.
	Clear bool
}

// NewTextHandler creates a handler for standard text output.
func NewTextHandler(w io.Writer, clear bool) *TextHandler {
	return &TextHandler{Writer: w, Clear: clear}
}

func (h *TextHandler) Output(f Frame) error {
	var sb strings.Builder
	if h.Clear {
		sb.WriteString("\x1b[H\x1b[2J")
	} else {
		sb.WriteString("\n")
	}
	sb.WriteString(strings.TrimRight(f.Content, "\n"))
	sb.WriteString("\n")
	if f.Notice != "" {
		sb.WriteString("\n")
		sb.WriteString(f.Notice)
		sb.WriteString("\n")
	}
	sb.WriteString("> ")
	_, err := fmt.Fprint(h.Writer, sb.String())
	return err
}

// JSONHandler writes each frame as a single JSON line.
type JSONHandler struct {
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON-Lines output.
func NewJSONHandler(w io.Writer) *JSONHandler {
	return &JSONHandler{Encoder: json.NewEncoder(w)}
}

func (h *JSONHandler) Output(f Frame) error {
	return h.Encoder.Encode(f)
}
