package main

import (
	"github.com/spf13/cobra"

	"github.com/vadimtrunov/CineShelf/internal/config"
	mcpserver "github.com/vadimtrunov/CineShelf/internal/mcp"
)

// newMCPServeCmd returns the "mcp-serve" subcommand.
// It starts an MCP server over stdin/stdout exposing catalog and watchlist tools.
func newMCPServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-serve",
		Short: "Start MCP server over stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			logger := config.SetupLogger(cfg.App.LogLevel)

			svc, err := initServices(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			srv := mcpserver.NewServer(mcpserver.Deps{
				Movies:    svc.movies,
				Watchlist: svc.store,
				Details:   detailsConfig(cfg),
			}, logger)
			return srv.ServeStdio(cmd.Context())
		},
	}
}
