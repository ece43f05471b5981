// Package observability provides the structured event log and the metrics
// derived from it. Events are stored as JSON Lines (JSONL) and metrics are
// computed on demand by replaying the log.
package observability
