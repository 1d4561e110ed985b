// Package inference wraps the hosted model providers behind a single
// capability interface. One synchronous call per request; transport and
// provider failures are wrapped as *InvocationError and propagated without
// retry.
package inference

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
)

// Default sampling settings shared by every provider.
const (
	DefaultTemperature     = 0.3
	DefaultMaxOutputTokens = 20000
)

// Inferencer sends a composed system prompt plus user input to a hosted
// model and returns the raw text reply.
type Inferencer interface {
	Invoke(ctx context.Context, params *openai.ChatCompletionNewParams, system, user string) (string, error)
	Name() string
}

// InvocationError wraps any transport, authentication, or provider-side
// failure from a model call.
type InvocationError struct {
	Provider string
	Err      error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("%s invocation error: %v", e.Provider, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }
