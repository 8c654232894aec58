package config

// Config is the top-level configuration carrier for TSS.
type Config struct {
	App        AppConfig        `toml:"app"`
	Queue      QueueConfig      `toml:"queue"`
	Broker     BrokerConfig     `toml:"broker"`
	Store      StoreConfig      `toml:"store"`
	Dispatcher DispatcherConfig `toml:"dispatcher"`
	Ingress    IngressConfig    `toml:"ingress"`
	Notify     NotifyConfig     `toml:"notify"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	LogPath  string `toml:"log_path"`
}

// QueueConfig describes the AMQP transport both the dispatcher (consumer)
// and the ingress (publisher) attach to.
type QueueConfig struct {
	URL           string `toml:"url"`
	Queue         string `toml:"queue"`
	Durable       bool   `toml:"durable"`
	PrefetchCount int    `toml:"prefetch_count"`
}

// BrokerConfig points at the MT5 bridge service and carries the account
// identity stamped on every order comment.
type BrokerConfig struct {
	BridgeURL          string `toml:"bridge_url"`
	APIToken           string `toml:"api_token"`
	Login              int64  `toml:"login"`
	Password           string `toml:"password"`
	Server             string `toml:"server"`
	Magic              int64  `toml:"magic"`
	TimeoutSeconds     int    `toml:"timeout_seconds"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify"`
	CircuitThreshold   int    `toml:"circuit_threshold"`
	CircuitCooldownSec int    `toml:"circuit_cooldown_seconds"`
}

type StoreConfig struct {
	Path string `toml:"path"`
}

type DispatcherConfig struct {
	MessageTimeoutSeconds int `toml:"message_timeout_seconds"`
	CooldownSeconds       int `toml:"cooldown_seconds"`
}

type IngressConfig struct {
	Addr   string `toml:"addr"`
	Secret string `toml:"secret"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `toml:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
}
