package text

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestCap(t *testing.T) {
	assert.Equal(t, "abc", Cap("abc", 5))
	assert.Equal(t, "abc", Cap("abcdef", 3))
	assert.Equal(t, "", Cap("abc", 0))
	assert.Equal(t, "", Cap("abc", -1))

	// Multibyte input cuts on rune boundaries, never mid-character.
	assert.Equal(t, "日本", Cap("日本語", 2))
	assert.Equal(t, "日本語", Cap("日本語", 3))
	assert.True(t, utf8.ValidString(Cap("日本語abc", 4)))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "abc...", Truncate("abcdef", 3))
	assert.Equal(t, "abc", Truncate("abc", 0))
}
