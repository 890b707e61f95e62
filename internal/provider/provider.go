// Package provider defines the downstream language-model boundary. The core
// pipeline blocks only here; retries, rate limits, and timeouts are the
// caller's responsibility.
package provider

import "context"

// Request carries the redacted message and detection context for generation.
type Request struct {
	SessionID string
	Message   string   // already PII-redacted
	Topics    []string // detected topic names, declaration order
}

// Provider produces answer text for a redacted message. Implementations must
// respect ctx cancellation; the core never retries a failed call.
type Provider interface {
	Generate(ctx context.Context, req Request) (string, error)
}
