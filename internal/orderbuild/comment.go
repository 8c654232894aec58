package orderbuild

import (
	"tss/internal/pkg/text"
)

// maxCommentLen is the broker-side limit on order comments.
const maxCommentLen = 25

// deriveComment produces the broker-visible comment: the intent comment
// truncated to leave room for a " by <login>" suffix. When the suffix
// alone would fill the field, the comment collapses to "TSS_<login>"
// capped at the limit. The result never exceeds maxCommentLen characters
// for any input.
func deriveComment(raw, account string) string {
	suffix := " by " + account
	room := maxCommentLen - len(suffix)
	if room < 1 {
		return text.Cap("TSS_"+account, maxCommentLen)
	}
	return text.Cap(raw, room) + suffix
}
