package text

import "unicode/utf8"

// Cap hard-truncates s to at most max characters. Unlike display
// truncation there is no ellipsis: broker comment fields reject anything
// over the limit, so the bound must be exact. Cuts land on rune
// boundaries so a multibyte comment never ships as invalid UTF-8.
func Cap(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "..."
}
