// HMS Console - hospital admin console server and CLI
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ashureev/hms-console/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "console",
	Short: "Hospital admin console",
	Long: `Hospital admin console.

Serves the console API and live updates to the browser, or runs the same
views and status updates from the terminal.

Configuration is read from the environment (and .env if present):
  BACKEND_URL           hospital backend base URL
  SESSION_TOKEN         operator session token sent as the session cookie
  SESSION_COOKIE_NAME   cookie name (default adminToken)
  AUDIT_DB_PATH         sqlite audit journal path (default ./data/audit.db)`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := godotenv.Load(); err != nil {
			slog.Debug("No .env file found, using environment variables")
		}

		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded

		// The server logs to stdout; terminal commands keep stdout for output.
		out := os.Stderr
		if cmd.Name() == "serve" {
			out = os.Stdout
		}
		slog.SetDefault(slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
			Level: parseLevel(cfg.LogLevel),
		})))
		return nil
	},
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
