package orderbuild

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestDeriveComment(t *testing.T) {
	t.Run("appends account suffix", func(t *testing.T) {
		got := deriveComment("breakout", "123456")
		assert.Equal(t, "breakout by 123456", got)
	})

	t.Run("truncates long comments to fit the suffix", func(t *testing.T) {
		got := deriveComment("a very long strategy comment", "123456")
		assert.Equal(t, "a very long str by 123456", got)
		assert.LessOrEqual(t, len(got), 25)
		assert.True(t, strings.HasSuffix(got, " by 123456"))
	})

	t.Run("collapses when the suffix fills the field", func(t *testing.T) {
		account := strings.Repeat("9", 22) // " by " + 22 digits > 25
		got := deriveComment("anything", account)
		assert.Equal(t, "TSS_"+account[:21], got)
		assert.Len(t, got, 25)
	})

	t.Run("never exceeds the broker limit", func(t *testing.T) {
		comments := []string{"", "x", strings.Repeat("y", 200), strings.Repeat("日", 40)}
		accounts := []string{"1", "123456", strings.Repeat("8", 30)}
		for _, c := range comments {
			for _, a := range accounts {
				got := deriveComment(c, a)
				assert.LessOrEqual(t, utf8.RuneCountInString(got), 25, "comment=%q account=%q", c, a)
			}
		}
	})

	t.Run("multibyte comments cut on rune boundaries", func(t *testing.T) {
		got := deriveComment("ブレイクアウト戦略のコメントです", "123456")
		assert.True(t, utf8.ValidString(got))
		assert.True(t, strings.HasSuffix(got, " by 123456"))
		assert.LessOrEqual(t, utf8.RuneCountInString(got), 25)
	})

	t.Run("empty comment still gets the suffix", func(t *testing.T) {
		assert.Equal(t, " by 123456", deriveComment("", "123456"))
	})
}
