package tui

import (
	"fmt"
	"io"
)

// PrintBanner writes the homeview wordmark.
func PrintBanner(w io.Writer, s *Style) {
	lines := []struct {
		text  string
		color string
	}{
		{" _                                 _               ", "#818cf8"},
		{"| |__   ___  _ __ ___   _____   __(_) _____      __", "#a78bfa"},
		{"| '_ \\ / _ \\| '_ ` _ \\ / _ \\ \\ / /| |/ _ \\ \\ /\\ / /", "#c084fc"},
		{"| | | | (_) | | | | | |  __/\\ V / | |  __/\\ V  V / ", "#e879f9"},
		{"|_| |_|\\___/|_| |_| |_|\\___| \\_/  |_|\\___| \\_/\\_/  ", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, s.out.String(l.text).Foreground(s.out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
