package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/homeview/pkg/domain"
)

// Section draws the detail screen of one card. The card content is markdown.
func Section(s *Style, card domain.Card) (string, error) {
	var sb strings.Builder
	sb.WriteString(s.title(card.Title))
	sb.WriteString("\n")
	if line := joinNonEmpty(" · ", card.Subtitle, card.Caption); line != "" {
		sb.WriteString(s.subtle(line))
		sb.WriteString("\n")
	}
	if card.Image.URL != "" {
		sb.WriteString(s.faint(card.Image.URL))
		sb.WriteString("\n")
	}

	if strings.TrimSpace(card.Content) == "" {
		return sb.String(), nil
	}

	r, err := s.markdown()
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	rendered, err := r.Render(card.Content)
	if err != nil {
		return "", fmt.Errorf("failed to render section content: %w", err)
	}
	sb.WriteString(rendered)
	return sb.String(), nil
}
