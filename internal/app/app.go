// Package app is application-level orchestration for the dispatcher
// daemon: config in, wired dependencies out, one Run loop.
package app

import (
	"context"
	"errors"
	"fmt"

	"tss/internal/config"
	"tss/internal/dispatcher"
	"tss/internal/logger"
	"tss/internal/queue"
	"tss/internal/store/records"

	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg      *config.Config
	disp     *dispatcher.Dispatcher
	consumer *queue.Consumer
	store    *records.Store
}

// NewApp builds the application object from configuration (does not
// start anything).
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(context.Background(), cfg)
}

// Run drives the dispatcher until the context ends, then closes the
// queue session and the store.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.disp == nil {
		return fmt.Errorf("app not initialized")
	}
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		defer a.consumer.Close()
		return a.disp.Run(ctx)
	})
	err := group.Wait()
	if cerr := a.store.Close(); cerr != nil {
		logger.Warnf("closing store failed: %v", cerr)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
