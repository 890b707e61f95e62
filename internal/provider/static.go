package provider

import (
	"context"
	"fmt"
)

// previewLen caps how much of the message the static provider echoes back.
const previewLen = 50

// StaticProvider is the local fallback when no downstream endpoint is
// configured. It returns a deterministic placeholder so the pipeline stays
// exercisable in development and tests.
type StaticProvider struct{}

// NewStaticProvider returns a StaticProvider.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{}
}

// Generate returns a placeholder derived from the request.
func (p *StaticProvider) Generate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	preview := req.Message
	if runes := []rune(preview); len(runes) > previewLen {
		preview = string(runes[:previewLen])
	}
	return fmt.Sprintf("[generated response for: %s...]", preview), nil
}
