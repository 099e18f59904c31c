package llm

import (
	"bytes"
	"encoding/json"
)

// QueryInput is the caller-facing shape of a query, shared by the HTTP body
// and the query_claude tool. Optional fields are pointers so an explicit zero
// (e.g. temperature 0) can be told apart from an omitted value.
type QueryInput struct {
	Prompt         string   `json:"prompt" jsonschema:"The user's query"`
	ConversationID string   `json:"conversation_id,omitempty" jsonschema:"Unique identifier for the conversation (default: default)"`
	SystemPrompt   *string  `json:"system_prompt,omitempty" jsonschema:"Optional system prompt to guide Claude's behavior"`
	Model          string   `json:"model,omitempty" jsonschema:"Claude model to use (unknown models fall back to the default)"`
	Temperature    *float64 `json:"temperature,omitempty" jsonschema:"Temperature for response generation (0.0-1.0, default 0.7)"`
	MaxTokens      *int     `json:"max_tokens,omitempty" jsonschema:"Maximum tokens to generate (1-100000, default 4096)"`
}

// nonNullable are the optional fields that may be omitted but not sent as null.
var nonNullable = []string{"temperature", "max_tokens"}

// UnmarshalJSON decodes the input and rejects an explicit null for a
// non-nullable field with a *ValidationError.
func (in *QueryInput) UnmarshalJSON(data []byte) error {
	type plain QueryInput
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for _, name := range nonNullable {
		if raw, ok := fields[name]; ok && bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return &ValidationError{Field: name, Message: "must not be null"}
		}
	}

	*in = QueryInput(p)
	return nil
}

// Request fills unset fields with their defaults. It does not validate.
func (in QueryInput) Request() GenerationRequest {
	req := GenerationRequest{
		Prompt:         in.Prompt,
		ConversationID: in.ConversationID,
		Model:          in.Model,
		Temperature:    DefaultTemperature,
		MaxTokens:      DefaultMaxTokens,
	}
	if req.ConversationID == "" {
		req.ConversationID = DefaultConversationID
	}
	if in.SystemPrompt != nil {
		req.SystemPrompt = *in.SystemPrompt
	}
	if in.Temperature != nil {
		req.Temperature = *in.Temperature
	}
	if in.MaxTokens != nil {
		req.MaxTokens = *in.MaxTokens
	}
	return req
}
