// Package main hosts the bookmarkd entrypoint.
//
// Architecture overview:
//   - CLI: cmd wires cobra subcommands. 'enrich' runs one batch over a
//     browser export; 'serve' runs the HTTP enrichment service.
//   - Pipeline: internal/enrich filters candidates against the ledger
//     and the document store, fans work out to a bounded pool, and
//     routes results to the store, the ledger, and the JSONL logs.
//   - Persistence: the document store backend is chosen by
//     store.driver (badger, postgres, or memory); the processed-URL
//     ledger is a JSON file rewritten atomically on each update.
//   - Observability: zap provides structured logging; run and record
//     lifecycle events flow through the progress hub to log and
//     Prometheus sinks.
package main

import "github.com/droidnext/bookmark-geni-mcp/cmd"

func main() {
	cmd.Execute()
}
