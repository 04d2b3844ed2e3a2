// Command plannerctl is an operator tool for the office planner: it scores
// ad-hoc observations, resolves addresses to offices and runs suggestions.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tardus/office-planner/internal/config"
	"github.com/tardus/office-planner/internal/observability"
)

var rootCmd = &cobra.Command{
	Use:           "plannerctl",
	Short:         "Office event planner operator CLI",
	Long:          "plannerctl scores weather observations, resolves addresses to the nearest office and suggests event locations from live weather.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cliLogger logs to stderr so stdout stays machine readable.
func cliLogger() *slog.Logger {
	return observability.NewLogger(&config.Config{
		LogLevel:  sharedcfg.EnvOrDefault("LOG_LEVEL", "warn"),
		LogFormat: sharedcfg.EnvOrDefault("LOG_FORMAT", "text"),
	})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
