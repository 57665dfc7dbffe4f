package config

import "time"

// StreamerConfig is the root configuration for a streamer instance.
type StreamerConfig struct {
	Instance     InstanceConfig     `yaml:"instance"`
	Exchange     ExchangeConfig     `yaml:"exchange"`
	Subscription SubscriptionConfig `yaml:"subscription"`
	Feed         FeedConfig         `yaml:"feed"`
	ClickHouse   ClickHouseConfig   `yaml:"clickhouse"`
	Writer       WriterConfig       `yaml:"writer"`
	Alerts       AlertsConfig       `yaml:"alerts"`
	Health       HealthConfig       `yaml:"health"`
}

// InstanceConfig identifies this streamer.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// ExchangeConfig holds Bybit endpoint settings.
type ExchangeConfig struct {
	RestURL   string   `yaml:"rest_url"`
	WSURL     string   `yaml:"ws_url"`
	QuoteCoin string   `yaml:"quote_coin"`
	Segments  []string `yaml:"segments"`
}

// SubscriptionConfig controls how the symbol set is split into
// subscribe requests.
type SubscriptionConfig struct {
	MaxRequestBytes   int           `yaml:"max_request_bytes"`
	SeparatorOverhead int           `yaml:"separator_overhead"`
	PaceDelay         time.Duration `yaml:"pace_delay"`
}

// FeedConfig holds websocket session settings.
type FeedConfig struct {
	DialTimeout        time.Duration `yaml:"dial_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
	PingInterval       time.Duration `yaml:"ping_interval"`
	IdleTimeout        time.Duration `yaml:"idle_timeout"`
	ReconnectBaseDelay time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMaxDelay  time.Duration `yaml:"reconnect_max_delay"`
	RediscoverDelay    time.Duration `yaml:"rediscover_delay"`
}

// ClickHouseConfig holds the analytical store connection profiles.
// Profiles are tried in order at startup; the first that connects wins.
type ClickHouseConfig struct {
	Profiles []ClickHouseProfile `yaml:"profiles"`
}

// ClickHouseProfile is a single candidate connection.
type ClickHouseProfile struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Secure   bool   `yaml:"secure"`
}

// WriterConfig holds ingest sink settings.
type WriterConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
}

// AlertsConfig holds alert emitter settings.
type AlertsConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig holds the admin alert channel. An empty token disables
// Telegram delivery.
type TelegramConfig struct {
	Token   string  `yaml:"token"`
	ChatIDs []int64 `yaml:"chat_ids"`
}

// HealthConfig holds the health endpoint settings.
type HealthConfig struct {
	Port int `yaml:"port"`
}
