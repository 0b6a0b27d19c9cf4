package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/comigor/bodi-go/internal/config"
	"github.com/comigor/bodi-go/internal/logger"
)

var version = "dev"

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "bodi",
	Short:         "BODI housing assistant: API server, terminal chat and MCP tools",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			if err := os.Setenv("CONFIG_PATH", configPath); err != nil {
				return err
			}
		}
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		logger.SetLevel(cfg.Log.Level)
		logger.SetOutput(logWriter(cmd), cfg.Log.Format)
		return nil
	},
}

// logWriter keeps stdout clean for commands that own it.
func logWriter(cmd *cobra.Command) *os.File {
	switch cmd.Name() {
	case "mcp", "chat":
		return os.Stderr
	}
	return os.Stdout
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (overrides CONFIG_PATH)")
	rootCmd.AddCommand(serveCmd, chatCmd, mcpCmd, bridgeCmd, seedCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		logger.L.Error("command failed", "error", err)
		os.Exit(1)
	}
}
