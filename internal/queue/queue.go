// Package queue is the AMQP transport between signal producers and the
// dispatcher. Delivery semantics are at-least-once: the consumer acks
// only after the dispatcher has classified the outcome, and a nack with
// requeue puts the message back for redelivery.
package queue

import (
	"context"
	"fmt"

	"tss/internal/config"
	"tss/internal/logger"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

// Message is one queue delivery. Ack removes it; Requeue leaves it for
// redelivery. Exactly one of the two must be called per delivery.
type Message struct {
	ID   string
	Body []byte

	delivery amqp.Delivery
}

func (m *Message) Ack() error {
	return m.delivery.Ack(false)
}

func (m *Message) Requeue() error {
	return m.delivery.Nack(false, true)
}

// Consumer pulls intents off the queue one at a time (prefetch bounds
// the in-flight count; the dispatcher runs with prefetch 1).
type Consumer struct {
	cfg        config.QueueConfig
	conn       *amqp.Connection
	channel    *amqp.Channel
	deliveries <-chan amqp.Delivery
}

func NewConsumer(cfg config.QueueConfig) *Consumer {
	return &Consumer{cfg: cfg}
}

// Connect dials the broker, declares the queue and opens a consuming
// channel with manual acknowledgement.
func (c *Consumer) Connect() error {
	conn, err := amqp.Dial(c.cfg.URL)
	if err != nil {
		return fmt.Errorf("dialing amqp failed: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("opening amqp channel failed: %w", err)
	}
	if err := channel.Qos(c.cfg.PrefetchCount, 0, false); err != nil {
		conn.Close()
		return fmt.Errorf("setting amqp qos failed: %w", err)
	}
	if _, err := channel.QueueDeclare(c.cfg.Queue, c.cfg.Durable, false, false, false, nil); err != nil {
		conn.Close()
		return fmt.Errorf("declaring queue %s failed: %w", c.cfg.Queue, err)
	}
	deliveries, err := channel.Consume(c.cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		conn.Close()
		return fmt.Errorf("consuming queue %s failed: %w", c.cfg.Queue, err)
	}
	c.conn = conn
	c.channel = channel
	c.deliveries = deliveries
	logger.Infof("consuming queue %s (prefetch=%d)", c.cfg.Queue, c.cfg.PrefetchCount)
	return nil
}

// Receive blocks until the next delivery or the context ends. It
// connects lazily, so after a broken channel the next call (typically
// following the dispatcher's cooldown) re-establishes the session.
func (c *Consumer) Receive(ctx context.Context) (*Message, error) {
	if c.deliveries == nil {
		if err := c.Connect(); err != nil {
			return nil, err
		}
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case d, ok := <-c.deliveries:
		if !ok {
			c.Close()
			return nil, fmt.Errorf("amqp delivery channel closed")
		}
		return &Message{ID: d.MessageId, Body: d.Body, delivery: d}, nil
	}
}

func (c *Consumer) Close() {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.conn, c.channel, c.deliveries = nil, nil, nil
}

// Publisher pushes intent payloads onto the queue. Used by the ingress.
type Publisher struct {
	cfg     config.QueueConfig
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewPublisher(cfg config.QueueConfig) (*Publisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dialing amqp failed: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening amqp channel failed: %w", err)
	}
	if _, err := channel.QueueDeclare(cfg.Queue, cfg.Durable, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declaring queue %s failed: %w", cfg.Queue, err)
	}
	return &Publisher{cfg: cfg, conn: conn, channel: channel}, nil
}

// Publish enqueues a payload and returns the generated message id.
func (p *Publisher) Publish(body []byte) (string, error) {
	id := uuid.NewString()
	err := p.channel.Publish("", p.cfg.Queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    id,
		Body:         body,
	})
	if err != nil {
		return "", fmt.Errorf("publishing to queue %s failed: %w", p.cfg.Queue, err)
	}
	return id, nil
}

func (p *Publisher) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
