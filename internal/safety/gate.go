// Package safety holds the global kill switch gate. The default posture
// is "do not trade": any ambiguity or outage of the shared-state backend
// reads as blocked.
package safety

import (
	"context"

	"tss/internal/logger"
)

// StatusOff is the only value that opens the gate. Everything else,
// including a missing record or a failed read, blocks.
const StatusOff = "OFF"

// StatusReader reads the raw kill switch status from shared state.
type StatusReader interface {
	KillSwitchStatus(ctx context.Context) (string, error)
}

// Gate wraps a StatusReader with fail-closed semantics. The closed
// interpretation lives here and nowhere else; callers never inspect the
// raw status.
type Gate struct {
	reader StatusReader
}

func NewGate(reader StatusReader) *Gate {
	return &Gate{reader: reader}
}

// IsBlocked reports whether new order submissions are suppressed.
func (g *Gate) IsBlocked(ctx context.Context) bool {
	if g == nil || g.reader == nil {
		return true
	}
	status, err := g.reader.KillSwitchStatus(ctx)
	if err != nil {
		logger.Warnf("kill switch read failed, failing closed: %v", err)
		return true
	}
	return status != StatusOff
}
