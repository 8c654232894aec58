package safety

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubReader struct {
	status string
	err    error
}

func (s stubReader) KillSwitchStatus(context.Context) (string, error) {
	return s.status, s.err
}

func TestGate_FailsClosed(t *testing.T) {
	ctx := context.Background()

	t.Run("OFF opens the gate", func(t *testing.T) {
		g := NewGate(stubReader{status: "OFF"})
		assert.False(t, g.IsBlocked(ctx))
	})

	t.Run("ON blocks", func(t *testing.T) {
		g := NewGate(stubReader{status: "ON"})
		assert.True(t, g.IsBlocked(ctx))
	})

	t.Run("unrecognized status blocks", func(t *testing.T) {
		for _, status := range []string{"", "off", "Off", "DISABLED", "0"} {
			g := NewGate(stubReader{status: status})
			assert.True(t, g.IsBlocked(ctx), "status=%q", status)
		}
	})

	t.Run("read failure blocks", func(t *testing.T) {
		g := NewGate(stubReader{err: errors.New("backend down")})
		assert.True(t, g.IsBlocked(ctx))
	})

	t.Run("missing reader blocks", func(t *testing.T) {
		g := NewGate(nil)
		assert.True(t, g.IsBlocked(ctx))
	})
}
