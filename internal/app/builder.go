package app

import (
	"context"
	"fmt"

	"tss/internal/config"
	"tss/internal/dispatcher"
	"tss/internal/gateway/broker"
	"tss/internal/gateway/broker/mt5"
	"tss/internal/notifier"
	"tss/internal/orderbuild"
	"tss/internal/queue"
	"tss/internal/safety"
	"tss/internal/store/records"
)

// AppBuilder assembles the dispatcher daemon. Constructor funcs are
// fields so tests can swap a fake gateway or store in.
type AppBuilder struct {
	cfg *config.Config

	storeFn   func(config.StoreConfig) (*records.Store, error)
	gatewayFn func(config.BrokerConfig) (broker.Gateway, error)

	notifierOverride notifier.Notifier
}

type AppBuilderOption func(*AppBuilder)

func WithNotifier(n notifier.Notifier) AppBuilderOption {
	return func(b *AppBuilder) { b.notifierOverride = n }
}

func NewAppBuilder(cfg *config.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:       cfg,
		storeFn:   buildStore,
		gatewayFn: buildGateway,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *AppBuilder) Build(_ context.Context) (*App, error) {
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	st, err := b.storeFn(b.cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("building record store failed: %w", err)
	}
	gw, err := b.gatewayFn(b.cfg.Broker)
	if err != nil {
		return nil, fmt.Errorf("building broker gateway failed: %w", err)
	}

	gate := safety.NewGate(st)
	builder := orderbuild.NewBuilder(orderbuild.NewSideRuleValidator(), b.cfg.Broker.Magic)
	consumer := queue.NewConsumer(b.cfg.Queue)
	creds := broker.Credentials{
		Login:    b.cfg.Broker.Login,
		Password: b.cfg.Broker.Password,
		Server:   b.cfg.Broker.Server,
	}

	notify := b.notifierOverride
	if notify == nil {
		if tg := b.cfg.Notify.Telegram; tg.Enabled {
			notify = notifier.NewTelegram(tg.BotToken, tg.ChatID)
		} else {
			notify = notifier.Noop{}
		}
	}

	disp := dispatcher.New(consumer, gate, builder, gw, st, notify, creds, b.cfg.Dispatcher)
	return &App{
		cfg:      b.cfg,
		disp:     disp,
		consumer: consumer,
		store:    st,
	}, nil
}

func buildStore(cfg config.StoreConfig) (*records.Store, error) {
	return records.NewStore(cfg.Path)
}

func buildGateway(cfg config.BrokerConfig) (broker.Gateway, error) {
	return mt5.NewClient(cfg)
}
