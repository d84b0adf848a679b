package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"leadctl/internal/config"
	"leadctl/internal/server"
	"leadctl/internal/storage"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve lead tools over MCP (stdio transport)",
	Long: `Serve lead tools over MCP (stdio transport).

Exposes list_leads, get_lead, create_lead, update_lead_status and
delete_lead against the local lead database, for use by MCP clients.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		store, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer store.Close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		mcpSrv := server.NewMCPServer(server.MCPDeps{Store: store})
		stdioSrv := mcpserver.NewStdioServer(mcpSrv)
		printStep("Serving lead tools over stdio")
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}
