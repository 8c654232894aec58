// Package dispatcher is the single-threaded execution loop: pull one
// intent, run it through gate, builder, broker and store, then ack or
// requeue. No two messages are ever in flight at once.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"tss/internal/config"
	"tss/internal/gateway/broker"
	"tss/internal/intent"
	"tss/internal/logger"
	"tss/internal/notifier"
	"tss/internal/orderbuild"
	"tss/internal/queue"
)

// SafetyGate is the global kill switch check, injected rather than read
// inline so fail-closed semantics stay in one place.
type SafetyGate interface {
	IsBlocked(ctx context.Context) bool
}

// OrderStore persists execution outcomes.
type OrderStore interface {
	SaveOrder(ctx context.Context, res *broker.SubmitResult, in *intent.Intent, accountLogin int64) error
	MarkClosed(ctx context.Context, ticket int64, closingPrice, profit float64) error
}

// Receiver yields queue messages; satisfied by *queue.Consumer.
type Receiver interface {
	Receive(ctx context.Context) (*queue.Message, error)
}

type Dispatcher struct {
	consumer Receiver
	gate     SafetyGate
	builder  *orderbuild.Builder
	gateway  broker.Gateway
	store    OrderStore
	notify   notifier.Notifier
	creds    broker.Credentials

	messageTimeout time.Duration
	cooldown       time.Duration
}

func New(consumer Receiver, gate SafetyGate, builder *orderbuild.Builder, gateway broker.Gateway,
	store OrderStore, notify notifier.Notifier, creds broker.Credentials, cfg config.DispatcherConfig) *Dispatcher {
	if notify == nil {
		notify = notifier.Noop{}
	}
	return &Dispatcher{
		consumer:       consumer,
		gate:           gate,
		builder:        builder,
		gateway:        gateway,
		store:          store,
		notify:         notify,
		creds:          creds,
		messageTimeout: time.Duration(cfg.MessageTimeoutSeconds) * time.Second,
		cooldown:       time.Duration(cfg.CooldownSeconds) * time.Second,
	}
}

// Run polls until ctx ends. A fatal error in the polling itself (a dead
// consumer channel, for instance) pauses for the cooldown and resumes
// rather than terminating the process.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		msg, err := d.consumer.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Errorf("queue receive failed, pausing %s: %v", d.cooldown, err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d.cooldown):
			}
			continue
		}
		d.dispatch(ctx, msg)
	}
}

// dispatch processes one delivery and applies the terminal outcome to
// the queue.
func (d *Dispatcher) dispatch(ctx context.Context, msg *queue.Message) {
	outcome := d.Process(ctx, msg.Body)
	switch outcome {
	case OutcomeAck:
		if err := msg.Ack(); err != nil {
			logger.Errorf("ack failed (message=%s): %v", msg.ID, err)
		}
	case OutcomeRetry:
		if err := msg.Requeue(); err != nil {
			logger.Errorf("requeue failed (message=%s): %v", msg.ID, err)
		}
	}
	logger.Infof("message %s -> %s", msg.ID, outcome)
}

// Process runs the full per-message pipeline under the processing
// timeout and returns the ack/retry decision. A panic anywhere inside
// counts as an unknown outcome and retries.
func (d *Dispatcher) Process(ctx context.Context, body []byte) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("panic while processing message: %v\n%s", r, debug.Stack())
			outcome = OutcomeRetry
		}
	}()
	ctx, cancel := context.WithTimeout(ctx, d.messageTimeout)
	defer cancel()

	err := d.handle(ctx, body)
	if err != nil {
		logger.Warnf("message processing ended with error: %v", err)
	}
	return classify(err)
}

func (d *Dispatcher) handle(ctx context.Context, body []byte) error {
	if d.gate.IsBlocked(ctx) {
		logger.Infof("kill switch active, skipping intent")
		return nil
	}

	in, err := intent.Decode(body)
	if err != nil {
		return err
	}

	if err := d.gateway.Connect(ctx, d.creds); err != nil {
		return err
	}
	defer d.gateway.Disconnect(context.WithoutCancel(ctx))

	if in.Action == intent.ActionClose {
		return d.handleClose(ctx, in)
	}
	return d.handleOpen(ctx, in)
}

func (d *Dispatcher) handleOpen(ctx context.Context, in *intent.Intent) error {
	quote, err := d.gateway.GetQuote(ctx, in.Symbol)
	if errors.Is(err, broker.ErrNoQuote) {
		// No price for the symbol; let the builder produce the
		// precise validation failure for the order kind.
		quote, err = nil, nil
	}
	if err != nil {
		return err
	}

	req, err := d.builder.Build(in, quote, d.creds)
	if err != nil {
		return err
	}

	res, err := d.gateway.SubmitOrder(ctx, *req)
	if err != nil {
		return err
	}
	placement := "market"
	if req.Type.Pending() {
		placement = "pending"
	}
	logger.Infof("%s order placed: ticket=%d type=%s price=%v volume=%v retcode=%d",
		placement, res.Ticket, req.Type, res.ExecutedPrice, res.ExecutedVolume, res.ReturnCode)

	if err := d.store.SaveOrder(ctx, res, in, d.creds.Login); err != nil {
		d.reportReconciliation(res.Ticket, err)
		return err
	}
	return nil
}

func (d *Dispatcher) handleClose(ctx context.Context, in *intent.Intent) error {
	res, err := d.gateway.CloseOrder(ctx, in.Ticket, in.LotSize)
	if err != nil {
		return err
	}
	logger.Infof("position closed: ticket=%d price=%v profit=%v", res.Ticket, res.ClosingPrice, res.Profit)

	if err := d.store.MarkClosed(ctx, in.Ticket, res.ClosingPrice, res.Profit); err != nil {
		d.reportReconciliation(in.Ticket, err)
		return err
	}
	return nil
}

// reportReconciliation escalates a record write that failed after the
// broker already acted. The broker is the source of truth; the order
// stands and an operator has to reconcile the store by hand.
func (d *Dispatcher) reportReconciliation(ticket int64, err error) {
	logger.Errorf("RECONCILIATION REQUIRED: broker order stands but record write failed (ticket=%d): %v", ticket, err)
	text := fmt.Sprintf("⚠️ TSS reconciliation required\nticket: %d\nerror: %v", ticket, err)
	if nerr := d.notify.SendText(text); nerr != nil {
		logger.Warnf("reconciliation alert delivery failed: %v", nerr)
	}
}
