package llm

// Defaults applied to a query when the caller leaves a field unset.
const (
	DefaultConversationID = "default"
	DefaultTemperature    = 0.7
	DefaultMaxTokens      = 4096
)

// Bounds for generation parameters. Values outside are rejected, never clamped.
const (
	MinTemperature = 0.0
	MaxTemperature = 1.0
	MinMaxTokens   = 1
	MaxMaxTokens   = 100000
)

// GenerationRequest is a fully resolved query against a conversation.
type GenerationRequest struct {
	Prompt         string
	ConversationID string
	SystemPrompt   string // empty means no system instruction
	Model          string // empty means the catalog default
	Temperature    float64
	MaxTokens      int
}

// Validate checks the request against the declared parameter bounds.
func (r GenerationRequest) Validate() error {
	if r.Prompt == "" {
		return &ValidationError{Field: "prompt", Message: "prompt is required"}
	}
	if r.Temperature < MinTemperature || r.Temperature > MaxTemperature {
		return &ValidationError{
			Field:   "temperature",
			Message: "temperature must be between 0.0 and 1.0",
		}
	}
	if r.MaxTokens < MinMaxTokens || r.MaxTokens > MaxMaxTokens {
		return &ValidationError{
			Field:   "max_tokens",
			Message: "max_tokens must be between 1 and 100000",
		}
	}
	return nil
}
