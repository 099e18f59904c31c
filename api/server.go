// Package api exposes the conversation service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/papercomputeco/claudeapi/pkg/chat"
	"github.com/papercomputeco/claudeapi/pkg/llm"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// RequestIDHeader carries the per-request id, generated when the client sends none.
const RequestIDHeader = "X-Request-ID"

// Server is the HTTP front end over a chat.Service.
type Server struct {
	config Config
	chat   *chat.Service
	logger *zap.Logger
	server *fiber.App
}

// NewServer creates a Server. When gatherer is non-nil its metrics are served
// on /metrics.
func NewServer(config Config, service *chat.Service, gatherer prometheus.Gatherer, logger *zap.Logger) (*Server, error) {
	if service == nil {
		return nil, errors.New("chat service is required")
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
		// Conversation ids may contain escaped characters
		UnescapePath: true,
	})

	s := &Server{
		config: config,
		chat:   service,
		logger: logger,
		server: app,
	}

	app.Use(s.requestLogger)

	app.Get("/", s.handleRoot)
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})
	if gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	app.Post("/api/query", s.handleQuery)
	app.Get("/api/conversation/:id", s.handleGetConversation)
	app.Delete("/api/conversation/:id", s.handleClearConversation)
	app.Get("/api/conversations", s.handleListConversations)
	app.Get("/api/models", s.handleListModels)

	return s, nil
}

// Run starts the server on the configured listening address.
func (s *Server) Run() error {
	s.logger.Info("starting API server", zap.String("listen", s.config.ListenAddr))
	return s.server.Listen(s.config.ListenAddr)
}

// Serve accepts connections on ln until the server is shut down.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("starting API server", zap.String("listen", ln.Addr().String()))
	return s.server.Listener(ln)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.ShutdownWithContext(ctx)
}

// requestLogger tags each request with an id and logs its outcome.
func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()

	requestID := c.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(RequestIDHeader, requestID)

	err := c.Next()

	s.logger.Debug("handled request",
		zap.String("request_id", requestID),
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", c.Response().StatusCode()),
		zap.Duration("duration", time.Since(start)),
	)
	return err
}

func (s *Server) handleRoot(c *fiber.Ctx) error {
	return c.JSON(map[string]string{
		"message": "Claude API Server is running",
		"version": Version,
	})
}

// handleQuery runs a query against a conversation and returns the reply.
func (s *Server) handleQuery(c *fiber.Ctx) error {
	var in llm.QueryInput
	if err := json.Unmarshal(c.Body(), &in); err != nil {
		var validationErr *llm.ValidationError
		if errors.As(err, &validationErr) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(llm.ErrorResponse{Detail: validationErr.Error()})
		}
		s.logger.Debug("failed to parse request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Detail: "invalid request body"})
	}

	resp, err := s.chat.Query(c.UserContext(), in.Request())
	if err != nil {
		var validationErr *llm.ValidationError
		if errors.As(err, &validationErr) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(llm.ErrorResponse{Detail: validationErr.Error()})
		}

		s.logger.Error("error querying Claude API", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{
			Detail: fmt.Sprintf("Error querying Claude API: %s", err),
		})
	}

	return c.JSON(resp)
}

// ConversationResponse is the body of GET /api/conversation/:id.
type ConversationResponse struct {
	Conversation []llm.Turn `json:"conversation"`
}

func (s *Server) handleGetConversation(c *fiber.Ctx) error {
	id := c.Params("id")

	turns, found, err := s.chat.History(c.UserContext(), id)
	if err != nil {
		s.logger.Error("failed to load conversation", zap.String("conversation_id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Detail: "failed to load conversation"})
	}
	if !found {
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Detail: fmt.Sprintf("Conversation %s not found", id)})
	}

	return c.JSON(ConversationResponse{Conversation: turns})
}

func (s *Server) handleClearConversation(c *fiber.Ctx) error {
	id := c.Params("id")

	cleared, err := s.chat.Clear(c.UserContext(), id)
	if err != nil {
		s.logger.Error("failed to clear conversation", zap.String("conversation_id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Detail: "failed to clear conversation"})
	}
	if !cleared {
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Detail: fmt.Sprintf("Conversation %s not found", id)})
	}

	s.logger.Info("conversation cleared", zap.String("conversation_id", id))
	return c.JSON(map[string]string{
		"message": fmt.Sprintf("Conversation %s cleared successfully", id),
	})
}

// ConversationListResponse is the body of GET /api/conversations.
type ConversationListResponse struct {
	Conversations []string `json:"conversations"`
}

func (s *Server) handleListConversations(c *fiber.Ctx) error {
	ids, err := s.chat.Conversations(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Detail: "failed to list conversations"})
	}
	return c.JSON(ConversationListResponse{Conversations: ids})
}

// ModelsResponse is the body of GET /api/models.
type ModelsResponse struct {
	Models map[string]string `json:"models"`
}

func (s *Server) handleListModels(c *fiber.Ctx) error {
	return c.JSON(ModelsResponse{Models: s.chat.Models()})
}
