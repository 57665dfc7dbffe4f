// Package store provides the ClickHouse client and the batching ingest sink.
//
// The client connects through an explicit ordered list of candidate profiles
// (primary first, then alternates) and surfaces the last failure when all
// candidates fail. Writes are plain appends: MergeTree has no upserts, and a
// failed batch is logged, alerted, and dropped rather than retried — an
// accepted tradeoff for an analytics feed.
package store
