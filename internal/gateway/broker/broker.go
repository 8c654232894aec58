// Package broker defines a common abstraction for the trading terminal.
// This allows the pipeline to work with different broker backends (an MT5
// bridge today, FIX or a REST broker later) without changing the core
// execution state machine.
package broker

import "context"

// Gateway is the capability surface the execution core depends on. A
// session is acquired and torn down once per message; implementations do
// not need to support concurrent calls.
type Gateway interface {
	Connect(ctx context.Context, creds Credentials) error

	// GetQuote returns the current quote, or ErrNoQuote when the broker
	// has no price for the symbol.
	GetQuote(ctx context.Context, symbol string) (*Quote, error)

	SubmitOrder(ctx context.Context, req OrderRequest) (*SubmitResult, error)

	CloseOrder(ctx context.Context, ticket int64, lots float64) (*CloseResult, error)

	Disconnect(ctx context.Context)
}
