package llm

import "time"

// Shared HTTP-call settings for the raw provider clients.
const (
	defaultTimeout    = 120 * time.Second
	maxRetries        = 3
	initialRetryDelay = 2 * time.Second
)
