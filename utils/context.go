package utils

import (
	"context"
	"time"
)

const (
	// DefaultTimeout is the default timeout for store operations
	DefaultTimeout = 10 * time.Second

	// ShortTimeout is for quick checks (pings)
	ShortTimeout = 2 * time.Second
)

// WithTimeout creates a context with default timeout
func WithTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DefaultTimeout)
}

// WithGenerationTimeout leaves room for one generation call plus the store
// writes that follow it.
func WithGenerationTimeout(parent context.Context, generation time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, generation+DefaultTimeout)
}
