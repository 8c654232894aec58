// Package notifier pushes operational alerts to humans. The dispatcher
// only uses it for reconciliation items: a broker order that stands but
// whose record write failed must reach an operator.
package notifier

// Notifier delivers a plain-text alert. Implementations must be safe to
// call from the dispatcher loop; failures are logged, never fatal.
type Notifier interface {
	SendText(text string) error
}

// Noop discards all alerts. Used when no channel is configured.
type Noop struct{}

func (Noop) SendText(string) error { return nil }
