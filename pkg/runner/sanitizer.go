package runner

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxNameSize is the largest display name accepted, in bytes, before cleaning.
const MaxNameSize = 256

var (
	ErrNameTooLarge = errors.New("name exceeds maximum allowed size")
	ErrInvalidUTF8  = errors.New("name contains invalid UTF-8 sequences")
)

// SanitizeName cleans a display name arriving from outside the process
// (a typed command, an HTTP body, an MCP tool call). Oversized or invalid
// UTF-8 names are rejected, never truncated. Line breaks and tabs separate
// words, other control runes (ESC, NUL, BEL) are dropped so the greeting
// cannot carry terminal escapes, and runs of whitespace fold to one space.
func SanitizeName(name string) (string, error) {
	if len(name) > MaxNameSize {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrNameTooLarge, len(name), MaxNameSize)
	}
	if !utf8.ValidString(name) {
		return "", ErrInvalidUTF8
	}

	visible := strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, name)
	return strings.Join(strings.Fields(visible), " "), nil
}
