package config

import "time"

// Default runtime limits and guardrails for the crewlens analytics server.
// These values are conservative and can be overridden by future configuration
// mechanisms (env, CLI, or files). They are referenced by internal/runtime.

const (
	// Concurrency
	DefaultMaxConcurrentRequests = 10
	DefaultMaxOpenDatasets       = 8

	// Payload and row limits
	DefaultMaxPayloadBytes = 128 * 1024 // 128KB
	DefaultMaxCellsPerOp   = 100_000
	DefaultPreviewRowLimit = 10
	DefaultRowPageSize     = 500 // page size for persistent row retrieval
	DefaultSampleRows      = 100 // column classification sample cap
)

const (
	// Timeouts
	DefaultOperationTimeout      = 30 * time.Second
	DefaultAcquireRequestTimeout = 2 * time.Second

	// Dataset handle lifecycle
	DefaultDatasetIdleTTL       = 30 * time.Minute
	DefaultDatasetCleanupPeriod = 1 * time.Minute
)
