// Package sink writes enrichment records and failure entries to
// append-only JSONL files, one compact JSON object per line.
package sink
