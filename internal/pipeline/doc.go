// Package pipeline wires discovery, partitioning, the feed session, the
// normalizer, and the ingest sink into one per-segment ingestion pipeline,
// and supervises the feed session's lifecycle.
//
// On transport failure the pipeline is recreated from scratch (fresh
// discovery, fresh subscriptions) with bounded backoff. Discovery failures
// and empty symbol sets idle the pipeline instead of crashing it. An
// operator stop exits cleanly, distinct from the error path.
package pipeline
