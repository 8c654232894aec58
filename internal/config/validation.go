package config

import (
	"fmt"
	"strings"
)

func validate(c *Config) error {
	if err := c.Queue.validate(); err != nil {
		return err
	}
	if err := c.Broker.validate(); err != nil {
		return err
	}
	if err := c.Notify.validate(); err != nil {
		return err
	}
	return nil
}

func (q *QueueConfig) validate() error {
	if strings.TrimSpace(q.URL) == "" {
		return fmt.Errorf("queue.url cannot be empty")
	}
	if !strings.HasPrefix(q.URL, "amqp://") && !strings.HasPrefix(q.URL, "amqps://") {
		return fmt.Errorf("queue.url must be an amqp:// or amqps:// URL")
	}
	return nil
}

func (b *BrokerConfig) validate() error {
	if strings.TrimSpace(b.BridgeURL) == "" {
		return fmt.Errorf("broker.bridge_url cannot be empty")
	}
	if b.Login <= 0 {
		return fmt.Errorf("broker.login must be a positive account id")
	}
	return nil
}

func (n *NotifyConfig) validate() error {
	if !n.Telegram.Enabled {
		return nil
	}
	if strings.TrimSpace(n.Telegram.BotToken) == "" {
		return fmt.Errorf("notify.telegram.bot_token required when telegram enabled")
	}
	if strings.TrimSpace(n.Telegram.ChatID) == "" {
		return fmt.Errorf("notify.telegram.chat_id required when telegram enabled")
	}
	return nil
}
