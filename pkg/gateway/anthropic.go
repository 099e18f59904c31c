package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/papercomputeco/claudeapi/pkg/llm"
	"github.com/papercomputeco/claudeapi/pkg/metrics"
)

// DefaultTimeout bounds a completion call when Config.Timeout is zero.
const DefaultTimeout = 2 * time.Minute

// Config configures an AnthropicGateway.
type Config struct {
	// APIKey is the Anthropic credential.
	APIKey string

	// BaseURL overrides the API endpoint, mostly for tests. Empty uses the SDK default.
	BaseURL string

	// Timeout bounds each call. Zero means DefaultTimeout.
	Timeout time.Duration
}

// AnthropicGateway is a Gateway backed by the official Anthropic SDK.
type AnthropicGateway struct {
	client  anthropic.Client
	timeout time.Duration
	logger  *zap.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// NewAnthropicGateway creates a gateway. SDK retries are disabled. A nil
// metrics value is allowed.
func NewAnthropicGateway(config Config, logger *zap.Logger, m *metrics.Metrics) *AnthropicGateway {
	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithMaxRetries(0),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &AnthropicGateway{
		client:  anthropic.NewClient(opts...),
		timeout: timeout,
		logger:  logger,
		metrics: m,
		tracer:  otel.Tracer("claudeapi.pkg.gateway"),
	}
}

// Complete sends the turns to the Messages API and returns the first content
// block of the reply. Every failure is returned as *Error.
func (g *AnthropicGateway) Complete(ctx context.Context, call Call) (*llm.GenerationResult, error) {
	ctx, span := g.tracer.Start(ctx, "gateway.complete", trace.WithAttributes(
		attribute.String("model", call.Model),
		attribute.Int("turns", len(call.Turns)),
	))
	defer span.End()

	params, err := buildParams(call)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, &Error{Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	msg, err := g.client.Messages.New(ctx, params)
	elapsed := time.Since(start)

	if err == nil {
		var result *llm.GenerationResult
		result, err = toResult(call.Model, msg)
		if err == nil {
			g.metrics.ObserveRequest(call.Model, true, elapsed.Seconds())
			g.metrics.ObserveUsage(call.Model, result.Usage.InputTokens, result.Usage.OutputTokens)
			span.SetAttributes(
				attribute.Int64("usage.input_tokens", result.Usage.InputTokens),
				attribute.Int64("usage.output_tokens", result.Usage.OutputTokens),
			)
			g.logger.Debug("completion call succeeded",
				zap.String("model", call.Model),
				zap.Int64("input_tokens", result.Usage.InputTokens),
				zap.Int64("output_tokens", result.Usage.OutputTokens),
				zap.Duration("duration", elapsed),
			)
			return result, nil
		}
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("request timed out after %s: %w", g.timeout, err)
	}

	g.metrics.ObserveRequest(call.Model, false, elapsed.Seconds())
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	g.logger.Error("completion call failed",
		zap.String("model", call.Model),
		zap.Duration("duration", elapsed),
		zap.Error(err),
	)
	return nil, &Error{Err: err}
}

func buildParams(call Call) (anthropic.MessageNewParams, error) {
	if len(call.Turns) == 0 {
		return anthropic.MessageNewParams{}, errors.New("no turns to send")
	}
	if last := call.Turns[len(call.Turns)-1]; last.Role != llm.RoleUser {
		return anthropic.MessageNewParams{}, fmt.Errorf("last turn must be from the user, got %q", last.Role)
	}

	messages := make([]anthropic.MessageParam, 0, len(call.Turns))
	for _, turn := range call.Turns {
		block := anthropic.NewTextBlock(turn.Content)
		switch turn.Role {
		case llm.RoleUser:
			messages = append(messages, anthropic.NewUserMessage(block))
		case llm.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(block))
		default:
			return anthropic.MessageNewParams{}, fmt.Errorf("unsupported turn role %q", turn.Role)
		}
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(call.Model),
		MaxTokens:   int64(call.MaxTokens),
		Temperature: anthropic.Float(call.Temperature),
		Messages:    messages,
	}
	if call.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: call.SystemPrompt}}
	}

	return params, nil
}

func toResult(model string, msg *anthropic.Message) (*llm.GenerationResult, error) {
	if msg == nil || len(msg.Content) == 0 {
		return nil, errors.New("malformed response: no content blocks")
	}

	first := msg.Content[0]
	if first.Type != "text" {
		return nil, fmt.Errorf("malformed response: first content block is %q, not text", first.Type)
	}

	return &llm.GenerationResult{
		Text:      first.Text,
		ModelUsed: model,
		Usage: llm.Usage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
	}, nil
}
