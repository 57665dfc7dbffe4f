package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/airbureau/bybit-data/internal/alert"
	"github.com/airbureau/bybit-data/internal/config"
	"github.com/airbureau/bybit-data/internal/feed"
	"github.com/airbureau/bybit-data/internal/model"
	"github.com/airbureau/bybit-data/internal/record"
	"github.com/airbureau/bybit-data/internal/store"
	"github.com/airbureau/bybit-data/internal/subscribe"
)

// SymbolSource resolves the tradable symbol set for a segment.
type SymbolSource interface {
	ListTradableSymbols(ctx context.Context, segment model.Segment) ([]string, error)
}

// Store is the subset of the store client the pipeline needs.
type Store interface {
	EnsureTable(ctx context.Context, schema record.Schema) error
	InsertBatch(ctx context.Context, table string, columns []string, rows [][]any) error
}

// Config holds one segment pipeline's settings.
type Config struct {
	Segment model.Segment

	WSURL             string
	MaxRequestBytes   int
	SeparatorOverhead int
	PaceDelay         time.Duration

	DialTimeout  time.Duration
	WriteTimeout time.Duration
	PingInterval time.Duration
	IdleTimeout  time.Duration

	Sink store.SinkConfig

	ReconnectBaseDelay time.Duration
	ReconnectMaxDelay  time.Duration
	RediscoverDelay    time.Duration
}

// FromStreamerConfig derives a pipeline config for one segment.
func FromStreamerConfig(cfg *config.StreamerConfig, segment model.Segment) Config {
	return Config{
		Segment:            segment,
		WSURL:              cfg.Exchange.WSURL,
		MaxRequestBytes:    cfg.Subscription.MaxRequestBytes,
		SeparatorOverhead:  cfg.Subscription.SeparatorOverhead,
		PaceDelay:          cfg.Subscription.PaceDelay,
		DialTimeout:        cfg.Feed.DialTimeout,
		WriteTimeout:       cfg.Feed.WriteTimeout,
		PingInterval:       cfg.Feed.PingInterval,
		IdleTimeout:        cfg.Feed.IdleTimeout,
		Sink: store.SinkConfig{
			BatchSize:     cfg.Writer.BatchSize,
			FlushInterval: cfg.Writer.FlushInterval,
			WriteTimeout:  cfg.Writer.WriteTimeout,
		},
		ReconnectBaseDelay: cfg.Feed.ReconnectBaseDelay,
		ReconnectMaxDelay:  cfg.Feed.ReconnectMaxDelay,
		RediscoverDelay:    cfg.Feed.RediscoverDelay,
	}
}

// Stats are a pipeline's diagnostic counters.
type Stats struct {
	Segment   string            `json:"segment"`
	State     feed.State        `json:"state"`
	Received  int64             `json:"received"`
	Malformed int64             `json:"malformed"`
	Dropped   int64             `json:"dropped"`
	Sink      store.SinkMetrics `json:"sink"`
}

// Pipeline runs one segment's ingestion end to end.
type Pipeline struct {
	cfg     Config
	symbols SymbolSource
	store   Store
	alerts  alert.Emitter
	logger  *slog.Logger

	mu        sync.Mutex
	session   *feed.Session
	sink      *store.Sink
	received  int64
	malformed int64
	dropped   int64
}

// New creates a pipeline for one segment. All collaborators are injected.
func New(cfg Config, symbols SymbolSource, st Store, alerts alert.Emitter, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if alerts == nil {
		alerts = alert.Nop{}
	}
	return &Pipeline{
		cfg:     cfg,
		symbols: symbols,
		store:   st,
		alerts:  alerts,
		logger:  logger.With("segment", cfg.Segment.String()),
	}
}

// Run supervises the pipeline until ctx is cancelled. It returns nil on
// operator stop. Only startup failures (table creation) return an error;
// everything after that is contained and retried.
func (p *Pipeline) Run(ctx context.Context) error {
	schema := record.SchemaFor(p.cfg.Segment)
	if err := p.store.EnsureTable(ctx, schema); err != nil {
		return fmt.Errorf("pipeline %s: %w", p.cfg.Segment, err)
	}

	backoff := p.cfg.ReconnectBaseDelay

	for {
		if ctx.Err() != nil {
			p.logger.Info("pipeline stopped by operator")
			return nil
		}

		symbols, err := p.symbols.ListTradableSymbols(ctx, p.cfg.Segment)
		if err != nil {
			if ctx.Err() != nil {
				p.logger.Info("pipeline stopped by operator")
				return nil
			}
			p.logger.Error("symbol discovery failed", "error", err)
			p.alerts.Notify("discovery", err.Error())
			if !p.idle(ctx, p.cfg.RediscoverDelay) {
				return nil
			}
			continue
		}

		if len(symbols) == 0 {
			p.logger.Warn("no tradable symbols, pipeline idle")
			if !p.idle(ctx, p.cfg.RediscoverDelay) {
				return nil
			}
			continue
		}

		groups := subscribe.Partition(symbols, p.cfg.MaxRequestBytes, p.cfg.SeparatorOverhead)
		p.logger.Info("subscription plan",
			"symbols", len(symbols),
			"groups", len(groups),
		)

		sink := store.NewSink(p.cfg.Sink, p.store, schema, p.alerts, p.logger)
		session := feed.NewSession(feed.SessionConfig{
			URL:          p.cfg.WSURL + p.cfg.Segment.StreamPath(),
			PaceDelay:    p.cfg.PaceDelay,
			DialTimeout:  p.cfg.DialTimeout,
			WriteTimeout: p.cfg.WriteTimeout,
			PingInterval: p.cfg.PingInterval,
			IdleTimeout:  p.cfg.IdleTimeout,
		}, groups, feed.HandlerFunc(func(data []byte, receivedAt time.Time) {
			p.handleMessage(ctx, sink, data, receivedAt)
		}), p.logger)

		p.mu.Lock()
		p.session = session
		p.sink = sink
		p.mu.Unlock()

		started := time.Now()
		err = session.Run(ctx)

		// Final flush outlives the cancelled context.
		closeCtx, cancel := context.WithTimeout(context.Background(), p.cfg.Sink.WriteTimeout)
		sink.Close(closeCtx)
		cancel()

		if err == nil {
			p.logger.Info("pipeline stopped by operator")
			return nil
		}

		p.logger.Error("feed session failed", "error", err)
		p.alerts.Notify("feed", fmt.Sprintf("%s feed lost: %v; re-subscribing from scratch", p.cfg.Segment, err))

		// A session that streamed for a while earns a fresh backoff.
		if time.Since(started) > p.cfg.ReconnectMaxDelay {
			backoff = p.cfg.ReconnectBaseDelay
		}
		if !p.idle(ctx, backoff) {
			return nil
		}
		backoff *= 2
		if backoff > p.cfg.ReconnectMaxDelay {
			backoff = p.cfg.ReconnectMaxDelay
		}
	}
}

// handleMessage is the synchronous per-message chain: parse, normalize,
// ingest. Per-record failures are contained here; nothing stops the stream.
func (p *Pipeline) handleMessage(ctx context.Context, sink *store.Sink, data []byte, receivedAt time.Time) {
	p.mu.Lock()
	p.received++
	p.mu.Unlock()

	raw, ok := record.ParseTicker(data)
	if !ok {
		p.mu.Lock()
		p.malformed++
		p.mu.Unlock()
		return
	}

	rec, err := record.Normalize(raw, p.cfg.Segment, receivedAt)
	if err != nil {
		p.logger.Warn("record dropped", "error", err)
		p.alerts.Notify("normalize", err.Error())
		p.mu.Lock()
		p.dropped++
		p.mu.Unlock()
		return
	}

	sink.Ingest(ctx, rec)
}

// idle waits d or until cancellation; false means the pipeline should exit.
func (p *Pipeline) idle(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		p.logger.Info("pipeline stopped by operator")
		return false
	case <-time.After(d):
		return true
	}
}

// Stats returns current counters for the health endpoint.
func (p *Pipeline) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := Stats{
		Segment:   p.cfg.Segment.String(),
		State:     feed.StateDisconnected,
		Received:  p.received,
		Malformed: p.malformed,
		Dropped:   p.dropped,
	}
	if p.session != nil {
		st.State = p.session.State()
	}
	if p.sink != nil {
		st.Sink = p.sink.Stats()
	}
	return st
}
