package ai

import (
	"context"
	"errors"
)

// TextGenerator turns a prompt into free text. Replies are untrusted: run them
// through one of the Parse* functions before use.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

var (
	// ErrUpstream means the generation call failed, timed out, was blocked, or
	// the circuit breaker is open.
	ErrUpstream = errors.New("text generation service failed")

	// ErrMalformedExtraction means a keyword extraction reply had no usable
	// (keyword, weight) list.
	ErrMalformedExtraction = errors.New("malformed keyword extraction reply")

	// ErrMalformedRender means a rendering reply had no usable text.
	ErrMalformedRender = errors.New("malformed render reply")
)
