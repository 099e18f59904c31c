// Package bootstrap wires the conversation service from configuration.
package bootstrap

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/papercomputeco/claudeapi/pkg/chat"
	"github.com/papercomputeco/claudeapi/pkg/config"
	"github.com/papercomputeco/claudeapi/pkg/conversation"
	"github.com/papercomputeco/claudeapi/pkg/gateway"
	"github.com/papercomputeco/claudeapi/pkg/metrics"
)

// NewService builds a chat.Service over a fresh in-memory store. Metrics are
// registered with reg; a nil reg disables them.
func NewService(cfg *config.Config, logger *zap.Logger, reg prometheus.Registerer) (*chat.Service, error) {
	catalog, err := cfg.Catalog()
	if err != nil {
		return nil, fmt.Errorf("could not build model catalog: %w", err)
	}

	var m *metrics.Metrics
	if reg != nil {
		m = metrics.New(reg)
	}

	gw := gateway.NewAnthropicGateway(cfg.Gateway(), logger, m)

	service := chat.NewService(conversation.NewMemoryStore(), catalog, gw, logger, m)
	logger.Info("conversation service ready",
		zap.String("default_model", service.DefaultModel()),
		zap.Int("models", len(service.Models())),
		zap.Duration("request_timeout", cfg.RequestTimeout),
	)

	return service, nil
}
