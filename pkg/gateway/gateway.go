// Package gateway wraps the single outbound call to the Claude Messages API.
package gateway

import (
	"context"

	"github.com/papercomputeco/claudeapi/pkg/llm"
)

// Call is one completion request. Turns must end with a user turn.
type Call struct {
	Model        string
	Turns        []llm.Turn
	SystemPrompt string // sent out of band, never as a turn
	Temperature  float64
	MaxTokens    int
}

// Gateway performs completion calls. Implementations never retry and never
// touch conversation state.
type Gateway interface {
	Complete(ctx context.Context, call Call) (*llm.GenerationResult, error)
}

// Error is a failed completion call: transport, authentication, rate limit,
// timeout or an unusable response.
type Error struct {
	Err error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
