package runner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Plain", "Ada Lovelace", "Ada Lovelace"},
		{"Folds Whitespace", "  Ada   Lovelace ", "Ada Lovelace"},
		{"Line Breaks Separate Words", "Ada\r\nLovelace\tKing", "Ada Lovelace King"},
		{"Escape Codes Dropped", "\x1b[31mGrace\x1b[0m", "[31mGrace[0m"},
		{"Null And Bell Dropped", "Gr\x00ace\x07", "Grace"},
		{"Unicode Kept", "Zoë Ünal", "Zoë Ünal"},
		{"Only Controls", "\x1b\x00", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeName(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeName_SizeLimit(t *testing.T) {
	_, err := SanitizeName(strings.Repeat("a", MaxNameSize))
	assert.NoError(t, err)

	_, err = SanitizeName(strings.Repeat("a", MaxNameSize+1))
	assert.ErrorIs(t, err, ErrNameTooLarge)
}

func TestSanitizeName_InvalidUTF8(t *testing.T) {
	_, err := SanitizeName("\xbd\xb2\x3d\xbc")
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}
