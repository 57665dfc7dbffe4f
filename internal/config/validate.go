package config

import (
	"errors"
	"fmt"

	"github.com/airbureau/bybit-data/internal/model"
)

// Validate checks that all required fields are set and values are valid.
func (c *StreamerConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if len(c.Exchange.Segments) == 0 {
		return errors.New("exchange.segments must list at least one segment")
	}
	for _, s := range c.Exchange.Segments {
		if _, err := model.ParseSegment(s); err != nil {
			return fmt.Errorf("exchange.segments: %w", err)
		}
	}

	if c.Subscription.MaxRequestBytes < 1 {
		return errors.New("subscription.max_request_bytes must be >= 1")
	}
	if c.Subscription.SeparatorOverhead < 0 {
		return errors.New("subscription.separator_overhead must be >= 0")
	}

	if len(c.ClickHouse.Profiles) == 0 {
		return errors.New("clickhouse.profiles must list at least one profile")
	}
	for i, p := range c.ClickHouse.Profiles {
		if err := p.validate(fmt.Sprintf("clickhouse.profiles[%d]", i)); err != nil {
			return err
		}
	}

	if c.Writer.BatchSize < 1 {
		return errors.New("writer.batch_size must be >= 1")
	}
	if c.Writer.FlushInterval <= 0 {
		return errors.New("writer.flush_interval must be > 0")
	}
	if c.Writer.WriteTimeout <= 0 {
		return errors.New("writer.write_timeout must be > 0")
	}

	if c.Alerts.Telegram.Token != "" && len(c.Alerts.Telegram.ChatIDs) == 0 {
		return errors.New("alerts.telegram.chat_ids is required when a token is set")
	}

	if c.Health.Port < 1 || c.Health.Port > 65535 {
		return fmt.Errorf("health.port must be between 1 and 65535, got %d", c.Health.Port)
	}

	return nil
}

func (p *ClickHouseProfile) validate(prefix string) error {
	if p.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if p.Port < 1 || p.Port > 65535 {
		return fmt.Errorf("%s.port must be between 1 and 65535, got %d", prefix, p.Port)
	}
	if p.Database == "" {
		return fmt.Errorf("%s.database is required", prefix)
	}
	if p.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	return nil
}
