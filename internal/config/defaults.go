package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultRestURL            = "https://api.bybit.com"
	DefaultWSURL              = "wss://stream.bybit.com"
	DefaultQuoteCoin          = "USDT"
	DefaultMaxRequestBytes    = 21000
	DefaultSeparatorOverhead  = 1
	DefaultPaceDelay          = 300 * time.Millisecond
	DefaultDialTimeout        = 10 * time.Second
	DefaultWriteTimeout       = 5 * time.Second
	DefaultPingInterval       = 20 * time.Second
	DefaultIdleTimeout        = 60 * time.Second
	DefaultReconnectBaseDelay = 1 * time.Second
	DefaultReconnectMaxDelay  = 60 * time.Second
	DefaultRediscoverDelay    = 30 * time.Second
	DefaultCHPort             = 9000
	DefaultBatchSize          = 200
	DefaultFlushInterval      = 1 * time.Second
	DefaultStoreWriteTimeout  = 10 * time.Second
	DefaultHealthPort         = 8080
)

func (c *StreamerConfig) applyDefaults() {
	// Exchange defaults
	if c.Exchange.RestURL == "" {
		c.Exchange.RestURL = DefaultRestURL
	}
	if c.Exchange.WSURL == "" {
		c.Exchange.WSURL = DefaultWSURL
	}
	if c.Exchange.QuoteCoin == "" {
		c.Exchange.QuoteCoin = DefaultQuoteCoin
	}
	if len(c.Exchange.Segments) == 0 {
		c.Exchange.Segments = []string{"spot", "linear"}
	}

	// Subscription defaults
	if c.Subscription.MaxRequestBytes == 0 {
		c.Subscription.MaxRequestBytes = DefaultMaxRequestBytes
	}
	if c.Subscription.SeparatorOverhead == 0 {
		c.Subscription.SeparatorOverhead = DefaultSeparatorOverhead
	}
	if c.Subscription.PaceDelay == 0 {
		c.Subscription.PaceDelay = DefaultPaceDelay
	}

	// Feed defaults
	if c.Feed.DialTimeout == 0 {
		c.Feed.DialTimeout = DefaultDialTimeout
	}
	if c.Feed.WriteTimeout == 0 {
		c.Feed.WriteTimeout = DefaultWriteTimeout
	}
	if c.Feed.PingInterval == 0 {
		c.Feed.PingInterval = DefaultPingInterval
	}
	if c.Feed.IdleTimeout == 0 {
		c.Feed.IdleTimeout = DefaultIdleTimeout
	}
	if c.Feed.ReconnectBaseDelay == 0 {
		c.Feed.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Feed.ReconnectMaxDelay == 0 {
		c.Feed.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	if c.Feed.RediscoverDelay == 0 {
		c.Feed.RediscoverDelay = DefaultRediscoverDelay
	}

	// ClickHouse defaults
	for i := range c.ClickHouse.Profiles {
		if c.ClickHouse.Profiles[i].Port == 0 {
			c.ClickHouse.Profiles[i].Port = DefaultCHPort
		}
	}

	// Writer defaults
	if c.Writer.BatchSize == 0 {
		c.Writer.BatchSize = DefaultBatchSize
	}
	if c.Writer.FlushInterval == 0 {
		c.Writer.FlushInterval = DefaultFlushInterval
	}
	if c.Writer.WriteTimeout == 0 {
		c.Writer.WriteTimeout = DefaultStoreWriteTimeout
	}

	// Health defaults
	if c.Health.Port == 0 {
		c.Health.Port = DefaultHealthPort
	}
}
