// Package metrics defines Prometheus metrics for mailqueue runs, covering
// sent and deferred messages, paused runs and queue depth. A short-lived
// CLI has no scrape endpoint, so the values are written to a textfile.
package metrics
