package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	historycmder "github.com/papercomputeco/claudeapi/cmd/claudeapi/history"
	mcpcmder "github.com/papercomputeco/claudeapi/cmd/claudeapi/mcp"
	servecmder "github.com/papercomputeco/claudeapi/cmd/claudeapi/serve"
)

const rootLongDesc string = `claudeapi exposes the Claude Messages API through an HTTP server
and a Model Context Protocol tool server that share one in-memory
conversation store.`

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "claudeapi",
		Short:         "Claude API front ends with conversation history",
		Long:          rootLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", os.Getenv("CLAUDEAPI_CONFIG"), "Path to a TOML config file")
	cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(mcpcmder.NewMCPCmd())
	cmd.AddCommand(historycmder.NewHistoryCmd())

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
