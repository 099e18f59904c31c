// Package toolserver exposes the conversation service as Model Context
// Protocol tools. Tool calls never fail at the protocol level: every error,
// including malformed arguments, is returned to the host as text.
package toolserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/papercomputeco/claudeapi/pkg/chat"
	"github.com/papercomputeco/claudeapi/pkg/llm"
)

// Name is the implementation name announced to hosts.
const Name = "ClaudeAPI"

// Server registers the tools on an MCP server.
type Server struct {
	chat   *chat.Service
	logger *zap.Logger
	server *mcp.Server
}

// ConversationArgs selects a conversation.
type ConversationArgs struct {
	ConversationID string `json:"conversation_id,omitempty" jsonschema:"Unique identifier for the conversation (default: default)"`
}

func (a ConversationArgs) id() string {
	if a.ConversationID == "" {
		return llm.DefaultConversationID
	}
	return a.ConversationID
}

// NoArgs is the input of tools without parameters.
type NoArgs struct{}

// New creates a Server with all tools registered.
func New(service *chat.Service, version string, logger *zap.Logger) *Server {
	s := &Server{
		chat:   service,
		logger: logger,
		server: mcp.NewServer(&mcp.Implementation{Name: Name, Version: version}, nil),
	}

	addTool(s, &mcp.Tool{
		Name: "query_claude",
		Description: "Query Claude API with a prompt and optional system prompt. " +
			"The exchange is added to the conversation history.",
	}, "Error querying Claude API", s.queryClaude)

	addTool(s, &mcp.Tool{
		Name:        "clear_conversation",
		Description: "Clear a specific conversation history",
	}, "Error clearing conversation", s.clearConversation)

	addTool(s, &mcp.Tool{
		Name:        "get_conversation_history",
		Description: "Get the conversation history for a specific ID",
	}, "Error retrieving conversation history", s.getConversationHistory)

	addTool(s, &mcp.Tool{
		Name:        "list_conversations",
		Description: "List all available conversation IDs",
	}, "Error listing conversations", s.listConversations)

	addTool(s, &mcp.Tool{
		Name:        "list_available_models",
		Description: "List all available Claude models",
	}, "Error listing models", s.listAvailableModels)

	return s
}

// Run serves the tools over stdin/stdout until ctx is done or the host disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting MCP server")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Connect serves the tools over an arbitrary transport.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, t, nil)
}

// toolResult is what a tool produces: text, flagged as an error or not.
type toolResult struct {
	text    string
	isError bool
}

func ok(text string) toolResult {
	return toolResult{text: text}
}

func failed(format string, args ...any) toolResult {
	return toolResult{text: fmt.Sprintf(format, args...), isError: true}
}

// addTool registers fn with an input schema inferred from In. The schema is
// advertised to hosts but not enforced by the SDK: guard decodes the arguments
// so that bad input comes back as text prefixed with failText.
func addTool[In any](s *Server, tool *mcp.Tool, failText string, fn func(context.Context, In) toolResult) {
	schema, err := jsonschema.For[In](nil)
	if err != nil {
		panic(fmt.Sprintf("could not infer input schema for tool %s: %v", tool.Name, err))
	}
	tool.InputSchema = schema
	s.server.AddTool(tool, guard(s, tool.Name, failText, fn))
}

// guard decodes the tool arguments into In and turns decode errors and panics
// into text results.
func guard[In any](s *Server, name, failText string, fn func(context.Context, In) toolResult) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (result *mcp.CallToolResult, _ error) {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("tool panicked", zap.String("tool", name), zap.Any("panic", r))
				result = textResult(failed("Error running %s: %v", name, r))
			}
		}()

		var in In
		if req.Params != nil && len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &in); err != nil {
				s.logger.Warn("invalid tool arguments", zap.String("tool", name), zap.Error(err))
				return textResult(failed("%s: %s", failText, err)), nil
			}
		}

		return textResult(fn(ctx, in)), nil
	}
}

func textResult(r toolResult) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: r.text}},
		IsError: r.isError,
	}
}

func (s *Server) queryClaude(ctx context.Context, in llm.QueryInput) toolResult {
	req := in.Request()
	resp, err := s.chat.Query(ctx, req)
	if err != nil {
		s.logger.Error("error querying Claude API",
			zap.String("conversation_id", req.ConversationID),
			zap.Error(err),
		)
		return failed("Error querying Claude API: %s", err)
	}
	return ok(resp.Response)
}

func (s *Server) clearConversation(ctx context.Context, args ConversationArgs) toolResult {
	id := args.id()
	s.logger.Info("clearing conversation", zap.String("conversation_id", id))

	cleared, err := s.chat.Clear(ctx, id)
	if err != nil {
		return failed("Error clearing conversation: %s", err)
	}
	if !cleared {
		return ok(fmt.Sprintf("Conversation %s not found", id))
	}
	return ok(fmt.Sprintf("Conversation %s cleared successfully", id))
}

func (s *Server) getConversationHistory(ctx context.Context, args ConversationArgs) toolResult {
	id := args.id()
	s.logger.Info("retrieving conversation history", zap.String("conversation_id", id))

	turns, _, err := s.chat.History(ctx, id)
	if err != nil {
		return failed("Error retrieving conversation history: %s", err)
	}
	text, err := indentJSON(turns)
	if err != nil {
		return failed("Error retrieving conversation history: %s", err)
	}
	return ok(text)
}

func (s *Server) listConversations(ctx context.Context, _ NoArgs) toolResult {
	s.logger.Info("listing all conversations")

	ids, err := s.chat.Conversations(ctx)
	if err != nil {
		return failed("Error listing conversations: %s", err)
	}
	if len(ids) == 0 {
		return ok("No conversations found")
	}
	text, err := indentJSON(ids)
	if err != nil {
		return failed("Error listing conversations: %s", err)
	}
	return ok(text)
}

func (s *Server) listAvailableModels(_ context.Context, _ NoArgs) toolResult {
	s.logger.Info("listing available models")

	text, err := indentJSON(s.chat.Models())
	if err != nil {
		return failed("Error listing models: %s", err)
	}
	return ok(text)
}

func indentJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
