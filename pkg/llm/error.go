// Package llm provides the conversation data model shared by the completion
// gateway, the conversation store and both front ends.
package llm

import "fmt"

// ErrorResponse is the JSON body of a failed HTTP request.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// ValidationError reports a request parameter that is missing or out of bounds.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
