// Package timeouts defines shared timeout constants used across TeamFund
// binaries.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// Outbound caps a single call to a third-party API (place search, mail,
// payments).
const Outbound = 30 * time.Second

// Scrape caps a synchronous scraper actor run including dataset reads.
const Scrape = 5 * time.Minute

// Generation caps LLM and image generation calls.
const Generation = 2 * time.Minute
