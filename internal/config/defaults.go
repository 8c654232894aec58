package config

const (
	defaultAppEnv              = "dev"
	defaultAppLogLevel         = "info"
	defaultAppLogPath          = "/data/logs/tss-dispatcher.log"
	defaultQueueQueue          = "tss-order-intents"
	defaultQueuePrefetch       = 1
	defaultBrokerTimeout       = 30
	defaultBrokerMagic         = 775001
	defaultBrokerCircuitThresh = 3
	defaultBrokerCircuitCool   = 60
	defaultStorePath           = "/data/db/tss-orders.db"
	defaultDispatcherTimeout   = 90
	defaultDispatcherCooldown  = 60
	defaultIngressAddr         = ":8080"
)

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = defaultAppEnv
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = defaultAppLogLevel
	}
	if c.App.LogPath == "" {
		c.App.LogPath = defaultAppLogPath
	}
	if c.Queue.Queue == "" {
		c.Queue.Queue = defaultQueueQueue
	}
	if c.Queue.PrefetchCount <= 0 {
		c.Queue.PrefetchCount = defaultQueuePrefetch
	}
	if c.Broker.Magic <= 0 {
		c.Broker.Magic = defaultBrokerMagic
	}
	if c.Broker.TimeoutSeconds <= 0 {
		c.Broker.TimeoutSeconds = defaultBrokerTimeout
	}
	if c.Broker.CircuitThreshold <= 0 {
		c.Broker.CircuitThreshold = defaultBrokerCircuitThresh
	}
	if c.Broker.CircuitCooldownSec <= 0 {
		c.Broker.CircuitCooldownSec = defaultBrokerCircuitCool
	}
	if c.Store.Path == "" {
		c.Store.Path = defaultStorePath
	}
	if c.Dispatcher.MessageTimeoutSeconds <= 0 {
		c.Dispatcher.MessageTimeoutSeconds = defaultDispatcherTimeout
	}
	if c.Dispatcher.CooldownSeconds <= 0 {
		c.Dispatcher.CooldownSeconds = defaultDispatcherCooldown
	}
	if c.Ingress.Addr == "" {
		c.Ingress.Addr = defaultIngressAddr
	}
}
