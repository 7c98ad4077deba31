package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/homeview/pkg/domain"
	"github.com/aretw0/homeview/pkg/query"
)

// Messages shown while the cards query is outstanding or has failed.
const (
	LoadingMessage = "Loading..."
	ErrorMessage   = "Error..."
)

// CardsSection returns the render callback for the cards binding.
// Pending shows LoadingMessage, Failed shows ErrorMessage, Resolved lists the cards
// with their 1-based position (the index used by "open <n>").
func CardsSection(s *Style) query.RenderFunc[domain.CardsPayload] {
	return func(l query.Lifecycle[domain.CardsPayload]) string {
		return query.Fold(l,
			func() string { return s.subtle(LoadingMessage) },
			func(p domain.CardsPayload) string { return cardsRow(s, p.Items) },
			func(error) string { return s.subtle(ErrorMessage) },
		)
	}
}

func cardsRow(s *Style, cards []domain.Card) string {
	var sb strings.Builder
	for i, c := range cards {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s %s\n", s.accent(fmt.Sprintf("[%d]", i+1)), s.title(c.Title))
		fmt.Fprintf(&sb, "    %s", s.subtle(joinNonEmpty(" · ", c.Caption, c.Subtitle)))
	}
	return sb.String()
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
