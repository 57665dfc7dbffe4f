package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/airbureau/bybit-data/internal/alert"
	"github.com/airbureau/bybit-data/internal/record"
)

// Inserter is the subset of the store client the sink writes through.
type Inserter interface {
	InsertBatch(ctx context.Context, table string, columns []string, rows [][]any) error
}

// SinkConfig contains batching settings for the ingest sink.
type SinkConfig struct {
	// BatchSize is the number of rows that forces a flush.
	BatchSize int

	// FlushInterval is the maximum age of a batch before the next ingest
	// flushes it regardless of size.
	FlushInterval time.Duration

	// WriteTimeout bounds a single store write so an unresponsive store
	// cannot wedge the read loop.
	WriteTimeout time.Duration
}

// DefaultSinkConfig returns sensible defaults.
func DefaultSinkConfig() SinkConfig {
	return SinkConfig{
		BatchSize:     200,
		FlushInterval: time.Second,
		WriteTimeout:  10 * time.Second,
	}
}

// SinkMetrics are monotonic diagnostic counters.
type SinkMetrics struct {
	Ingested    int64 // Rows accepted into a batch
	Flushes     int64 // Successful store writes
	WriteErrors int64 // Failed store writes
	RowsLost    int64 // Rows dropped with failed batches
}

// Sink batches normalized records and writes them to one table. All calls
// run on the feed dispatch goroutine: a flush blocks the read loop by design,
// and a failed write never halts the stream — the batch is logged, alerted,
// and dropped.
type Sink struct {
	cfg      SinkConfig
	inserter Inserter
	alerts   alert.Emitter
	schema   record.Schema
	logger   *slog.Logger

	batch     [][]any
	lastFlush time.Time

	// Stats() is read from the health endpoint goroutine.
	metricsMu sync.Mutex
	metrics   SinkMetrics
}

// NewSink creates a sink for one segment table.
func NewSink(cfg SinkConfig, inserter Inserter, schema record.Schema, alerts alert.Emitter, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	if alerts == nil {
		alerts = alert.Nop{}
	}
	return &Sink{
		cfg:       cfg,
		inserter:  inserter,
		alerts:    alerts,
		schema:    schema,
		logger:    logger,
		batch:     make([][]any, 0, cfg.BatchSize),
		lastFlush: time.Now(),
	}
}

// Ingest appends a record to the current batch and flushes when the batch is
// full or stale.
func (s *Sink) Ingest(ctx context.Context, rec record.Record) {
	s.batch = append(s.batch, rec.Values)

	s.metricsMu.Lock()
	s.metrics.Ingested++
	s.metricsMu.Unlock()

	if len(s.batch) >= s.cfg.BatchSize || time.Since(s.lastFlush) >= s.cfg.FlushInterval {
		s.Flush(ctx)
	}
}

// Flush writes the current batch as one insert. The batch is the unit of
// failure: on error every row in it is lost and the pipeline continues.
func (s *Sink) Flush(ctx context.Context) {
	if len(s.batch) == 0 {
		return
	}

	rows := s.batch
	s.batch = make([][]any, 0, s.cfg.BatchSize)
	s.lastFlush = time.Now()

	wctx, cancel := context.WithTimeout(ctx, s.cfg.WriteTimeout)
	defer cancel()

	start := time.Now()
	err := s.inserter.InsertBatch(wctx, s.schema.Table, s.schema.ColumnNames(), rows)
	if err != nil {
		s.logger.Error("batch insert failed",
			"table", s.schema.Table,
			"rows", len(rows),
			"error", err,
		)
		s.alerts.Notify("ingest", fmt.Sprintf("insert into %s failed (%d rows lost): %v", s.schema.Table, len(rows), err))

		s.metricsMu.Lock()
		s.metrics.WriteErrors++
		s.metrics.RowsLost += int64(len(rows))
		s.metricsMu.Unlock()
		return
	}

	s.metricsMu.Lock()
	s.metrics.Flushes++
	s.metricsMu.Unlock()

	s.logger.Debug("flushed tickers",
		"table", s.schema.Table,
		"rows", len(rows),
		"duration", time.Since(start),
	)
}

// Close flushes whatever is left in the batch.
func (s *Sink) Close(ctx context.Context) {
	s.Flush(ctx)
}

// Stats returns current metrics.
func (s *Sink) Stats() SinkMetrics {
	s.metricsMu.Lock()
	defer s.metricsMu.Unlock()
	return s.metrics
}
