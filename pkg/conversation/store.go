// Package conversation keeps the per-conversation turn log.
package conversation

import (
	"context"

	"github.com/papercomputeco/claudeapi/pkg/llm"
)

// Store holds an append-only sequence of turns per conversation id.
// Conversations are created implicitly by the first append; reads and
// clears never create them.
type Store interface {
	// Append adds turns to the end of a conversation, creating it if absent.
	// All turns of one call land contiguously and in order.
	Append(ctx context.Context, conversationID string, turns ...llm.Turn) error

	// Get returns the turns of a conversation in insertion order. The bool is
	// false if the conversation has never been created, in which case the
	// returned slice is empty.
	Get(ctx context.Context, conversationID string) ([]llm.Turn, bool, error)

	// Clear resets an existing conversation to zero turns and reports whether
	// it existed. Unknown ids are left uncreated.
	Clear(ctx context.Context, conversationID string) (bool, error)

	// List returns every known conversation id in creation order.
	List(ctx context.Context) ([]string, error)
}
