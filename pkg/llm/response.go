package llm

// Usage holds the token counters reported by the completion service.
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// GenerationResult is the outcome of a single successful completion call.
type GenerationResult struct {
	Text      string `json:"response"`
	ModelUsed string `json:"model"`
	Usage     Usage  `json:"usage"`
}

// QueryResponse is returned to callers of a query, echoing the conversation.
type QueryResponse struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversation_id"`
	Model          string `json:"model"`
	Usage          Usage  `json:"usage"`
}
