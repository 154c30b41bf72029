// Package cmd wires the orbis CLI: the HTTP API server plus the offline
// ingestion and chunking pipelines that feed it.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/orbis-edu/orbis/internal/log"
)

var debugLogs bool

var rootCmd = &cobra.Command{
	Use:   "orbis",
	Short: "Orbis university course and regulation API",
	Long: `Orbis serves semantic course search, regulation Q&A, and the staff
directory over HTTP, and ships the pipelines that keep the underlying
pgvector store populated: document ingestion and chunking.

Run "orbis serve" to start the API server.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugLogs, "debug", false, "enable debug logging")
}

// newLogger builds the process logger from the persistent flags.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if debugLogs {
		level = slog.LevelDebug
	}
	return log.NewWithWriter(os.Stderr, log.Config{Level: level, JSON: true})
}
