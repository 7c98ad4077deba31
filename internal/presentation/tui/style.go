package tui

import (
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Palette of the home screen.
const (
	ColorTitle  = "#3c4560"
	ColorSubtle = "#b8bece"
	ColorAccent = "#4775f2"
)

// DefaultWidth is used when the output is not a terminal.
const DefaultWidth = 80

// Style carries the colour profile and geometry used to draw screens.
type Style struct {
	out     *termenv.Output
	width   int
	mdStyle string
}

// StyleOption configures a Style.
type StyleOption func(*Style)

// WithProfile forces a colour profile (termenv.Ascii disables all escape codes).
func WithProfile(p termenv.Profile) StyleOption {
	return func(s *Style) {
		s.out = termenv.NewOutput(s.out.Writer(), termenv.WithProfile(p))
	}
}

// WithWidth overrides the detected width.
func WithWidth(w int) StyleOption {
	return func(s *Style) {
		if w > 0 {
			s.width = w
		}
	}
}

// WithMarkdownStyle selects a glamour standard style ("dark", "light", "notty", ...).
// The default "auto" detects the terminal background.
func WithMarkdownStyle(name string) StyleOption {
	return func(s *Style) {
		s.mdStyle = name
	}
}

// NewStyle builds a Style for w, detecting the profile and width when w is a terminal.
func NewStyle(w io.Writer, opts ...StyleOption) *Style {
	s := &Style{
		out:     termenv.NewOutput(w),
		width:   TerminalWidth(w, DefaultWidth),
		mdStyle: "auto",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Width returns the drawing width in columns.
func (s *Style) Width() int {
	return s.width
}

// Writer returns the underlying writer.
func (s *Style) Writer() io.Writer {
	return s.out.Writer()
}

func (s *Style) title(str string) string {
	return s.out.String(str).Foreground(s.out.Color(ColorTitle)).Bold().String()
}

func (s *Style) subtle(str string) string {
	return s.out.String(str).Foreground(s.out.Color(ColorSubtle)).String()
}

func (s *Style) accent(str string) string {
	return s.out.String(str).Foreground(s.out.Color(ColorAccent)).Bold().String()
}

func (s *Style) faint(str string) string {
	return s.out.String(str).Faint().String()
}

func (s *Style) markdown() (*glamour.TermRenderer, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(s.width - 4)}
	if s.mdStyle == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(s.mdStyle))
	}
	return glamour.NewTermRenderer(opts...)
}

// TerminalWidth returns the column count of w when it is a terminal, or fallback.
func TerminalWidth(w io.Writer, fallback int) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return fallback
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return fallback
	}
	return width
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
