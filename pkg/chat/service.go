// Package chat orchestrates a query: it resolves the model, reads the
// conversation history, calls the completion gateway and records the
// exchange. Both the HTTP and the tool front ends are thin adapters over
// Service.
package chat

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/papercomputeco/claudeapi/pkg/conversation"
	"github.com/papercomputeco/claudeapi/pkg/gateway"
	"github.com/papercomputeco/claudeapi/pkg/llm"
	"github.com/papercomputeco/claudeapi/pkg/metrics"
	"github.com/papercomputeco/claudeapi/pkg/models"
)

// Service is safe for concurrent use. Queries on the same conversation run
// one at a time; queries on different conversations run in parallel.
type Service struct {
	store   conversation.Store
	catalog *models.Catalog
	gateway gateway.Gateway
	logger  *zap.Logger
	metrics *metrics.Metrics
	locks   *keyedMutex
}

// NewService wires a Service. m may be nil.
func NewService(
	store conversation.Store,
	catalog *models.Catalog,
	gw gateway.Gateway,
	logger *zap.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		store:   store,
		catalog: catalog,
		gateway: gw,
		logger:  logger,
		metrics: m,
		locks:   newKeyedMutex(),
	}
}

// Query validates req, sends the conversation plus the new prompt to the
// gateway, and on success records the user and assistant turns together.
// A failed call records nothing.
//
// Errors are *llm.ValidationError for bad parameters and *gateway.Error for
// failed completion calls.
func (s *Service) Query(ctx context.Context, req llm.GenerationRequest) (*llm.QueryResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	model, fellBack := s.catalog.Resolve(req.Model)
	if fellBack {
		s.logger.Warn("model not found, using default model",
			zap.String("requested", req.Model),
			zap.String("model", model),
		)
		s.metrics.ObserveFallback()
	}

	s.logger.Info("querying Claude API",
		zap.String("model", model),
		zap.String("conversation_id", req.ConversationID),
	)

	unlock := s.locks.Lock(req.ConversationID)
	defer unlock()

	history, _, err := s.store.Get(ctx, req.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("could not load conversation %s: %w", req.ConversationID, err)
	}

	userTurn := llm.UserTurn(req.Prompt)
	result, err := s.gateway.Complete(ctx, gateway.Call{
		Model:        model,
		Turns:        append(history, userTurn),
		SystemPrompt: req.SystemPrompt,
		Temperature:  req.Temperature,
		MaxTokens:    req.MaxTokens,
	})
	if err != nil {
		var gwErr *gateway.Error
		if !errors.As(err, &gwErr) {
			err = &gateway.Error{Err: err}
		}
		return nil, err
	}

	if err := s.store.Append(ctx, req.ConversationID, userTurn, llm.AssistantTurn(result.Text)); err != nil {
		return nil, fmt.Errorf("could not record conversation %s: %w", req.ConversationID, err)
	}

	return &llm.QueryResponse{
		Response:       result.Text,
		ConversationID: req.ConversationID,
		Model:          result.ModelUsed,
		Usage:          result.Usage,
	}, nil
}

// History returns the turns of a conversation. found is false if the
// conversation has never been created.
func (s *Service) History(ctx context.Context, conversationID string) (turns []llm.Turn, found bool, err error) {
	return s.store.Get(ctx, conversationID)
}

// Clear empties a conversation and reports whether it existed.
func (s *Service) Clear(ctx context.Context, conversationID string) (bool, error) {
	unlock := s.locks.Lock(conversationID)
	defer unlock()

	return s.store.Clear(ctx, conversationID)
}

// Conversations lists all known conversation ids.
func (s *Service) Conversations(ctx context.Context) ([]string, error) {
	return s.store.List(ctx)
}

// Models returns the model catalog as id to display name.
func (s *Service) Models() map[string]string {
	return s.catalog.List()
}

// DefaultModel returns the model used when a query names none.
func (s *Service) DefaultModel() string {
	return s.catalog.Default()
}
