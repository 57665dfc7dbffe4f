package store

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/airbureau/bybit-data/internal/config"
	"github.com/airbureau/bybit-data/internal/record"
)

// Client wraps a ClickHouse connection.
type Client struct {
	conn   driver.Conn
	logger *slog.Logger
}

// Options builds driver options from a connection profile.
func Options(p config.ClickHouseProfile) *clickhouse.Options {
	opts := &clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", p.Host, p.Port)},
		Auth: clickhouse.Auth{
			Database: p.Database,
			Username: p.User,
			Password: p.Password,
		},
		DialTimeout: 10 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	}
	if p.Secure {
		opts.TLS = &tls.Config{}
	}
	return opts
}

// Connect tries each profile in order and returns a client on the first that
// connects and answers a ping. If all candidates fail, the last failure is
// surfaced.
func Connect(ctx context.Context, profiles []config.ClickHouseProfile, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var lastErr error
	for i, p := range profiles {
		conn, err := open(ctx, p)
		if err != nil {
			logger.Warn("clickhouse profile failed",
				"profile", i,
				"host", p.Host,
				"port", p.Port,
				"error", err,
			)
			lastErr = err
			continue
		}

		logger.Info("clickhouse connected",
			"profile", i,
			"host", p.Host,
			"database", p.Database,
		)
		return &Client{conn: conn, logger: logger}, nil
	}

	return nil, fmt.Errorf("all %d clickhouse profiles failed: %w", len(profiles), lastErr)
}

func open(ctx context.Context, p config.ClickHouseProfile) (driver.Conn, error) {
	conn, err := clickhouse.Open(Options(p))
	if err != nil {
		return nil, fmt.Errorf("open connection: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return conn, nil
}

// Ping verifies the connection is healthy.
func (c *Client) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

// Exec runs a statement without results.
func (c *Client) Exec(ctx context.Context, query string) error {
	return c.conn.Exec(ctx, query)
}

// EnsureTable creates the schema's table if it does not exist.
func (c *Client) EnsureTable(ctx context.Context, schema record.Schema) error {
	if err := c.conn.Exec(ctx, schema.DDL()); err != nil {
		return fmt.Errorf("ensure table %s: %w", schema.Table, err)
	}
	c.logger.Info("table ready", "table", schema.Table)
	return nil
}

// InsertBatch appends rows to a table in one write. Rows must match the
// column list in order and width.
func (c *Client) InsertBatch(ctx context.Context, table string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s)", table, strings.Join(columns, ", "))
	batch, err := c.conn.PrepareBatch(ctx, stmt)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, row := range rows {
		if err := batch.Append(row...); err != nil {
			batch.Abort()
			return fmt.Errorf("append row: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
