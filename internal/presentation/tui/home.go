package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/homeview/pkg/domain"
)

// Section headings.
const (
	Greeting       = "Welcome back,"
	ContinueTitle  = "CONTINUE LEARNING"
	PopularTitle   = "POPULAR COURSES"
	MenuCloseLabel = "close"
)

// HomeModel is everything the home screen shows.
type HomeModel struct {
	State   domain.ActionState
	Profile domain.Profile
	Catalog domain.Catalog
	// Cards is the current view of the cards binding.
	Cards string
	Menu  []string
}

// Home draws the home screen. While the menu is open the body is dimmed and
// the menu panel is drawn above it.
func Home(s *Style, m HomeModel) string {
	var body strings.Builder

	body.WriteString(titleBar(s, m))
	body.WriteString("\n\n")

	if len(m.Catalog.Logos) > 0 {
		texts := make([]string, len(m.Catalog.Logos))
		for i, l := range m.Catalog.Logos {
			texts[i] = l.Text
		}
		body.WriteString(s.subtle(strings.Join(texts, "  ·  ")))
		body.WriteString("\n\n")
	}

	body.WriteString(s.subtle(ContinueTitle))
	body.WriteString("\n")
	if m.Cards != "" {
		body.WriteString(m.Cards)
		body.WriteString("\n")
	}
	body.WriteString("\n")

	body.WriteString(s.subtle(PopularTitle))
	body.WriteString("\n")
	for _, c := range m.Catalog.Courses {
		body.WriteString(course(s, c))
	}

	if !m.State.MenuOpen() {
		return body.String()
	}

	var screen strings.Builder
	screen.WriteString(menuPanel(s, m.Menu))
	screen.WriteString("\n")
	for _, line := range strings.Split(strings.TrimRight(body.String(), "\n"), "\n") {
		screen.WriteString(s.faint(line))
		screen.WriteString("\n")
	}
	return screen.String()
}

func titleBar(s *Style, m HomeModel) string {
	name := m.State.Name
	if name == "" {
		name = m.Profile.Name
	}
	bar := s.subtle(Greeting) + "\n" + s.title(name)
	if m.Profile.Photo != "" {
		bar += "  " + s.faint("("+m.Profile.Photo+")")
	}
	return bar
}

func course(s *Style, c domain.Course) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "  %s\n", s.title(c.Title))
	if line := joinNonEmpty(" · ", c.Subtitle, c.Caption); line != "" {
		fmt.Fprintf(&sb, "    %s\n", s.subtle(line))
	}
	if c.Author != "" {
		fmt.Fprintf(&sb, "    %s\n", s.faint("by "+c.Author))
	}
	return sb.String()
}

func menuPanel(s *Style, items []string) string {
	width := 0
	for _, it := range append([]string{MenuCloseLabel}, items...) {
		if len(it) > width {
			width = len(it)
		}
	}
	border := "+" + strings.Repeat("-", width+2) + "+"

	var sb strings.Builder
	sb.WriteString(s.accent(border))
	sb.WriteString("\n")
	for _, it := range items {
		fmt.Fprintf(&sb, "%s %-*s %s\n", s.accent("|"), width, it, s.accent("|"))
	}
	fmt.Fprintf(&sb, "%s %-*s %s\n", s.accent("|"), width, MenuCloseLabel, s.accent("|"))
	sb.WriteString(s.accent(border))
	sb.WriteString("\n")
	return sb.String()
}
