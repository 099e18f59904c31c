package mcpcmder

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/claudeapi/api"
	"github.com/papercomputeco/claudeapi/cmd/claudeapi/bootstrap"
	"github.com/papercomputeco/claudeapi/pkg/config"
	"github.com/papercomputeco/claudeapi/pkg/logger"
	"github.com/papercomputeco/claudeapi/toolserver"
)

const mcpLongDesc string = `Run the Model Context Protocol tool server on stdin/stdout.

Exposes query_claude, clear_conversation, get_conversation_history,
list_conversations and list_available_models to an MCP host.
Logs are written to stderr.

Examples:
  claudeapi mcp
  claudeapi mcp --config ./claudeapi.toml`

const mcpShortDesc string = "Run the MCP tool server over stdio"

func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: mcpShortDesc,
		Long:  mcpLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd)
		},
	}

	return cmd
}

func run(ctx context.Context, cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.New(debug, os.Stderr)
	defer log.Sync()

	service, err := bootstrap.NewService(cfg, log, nil)
	if err != nil {
		return err
	}

	return toolserver.New(service, api.Version, log).Run(ctx)
}
