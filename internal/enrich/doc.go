// Package enrich implements the concurrent bookmark enrichment
// pipeline: deduplication against the ledger and document store,
// bounded-concurrency fetching with retries, summary and body-text
// extraction, and fan-out of results to the downstream sinks.
package enrich
