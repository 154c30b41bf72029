package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/orbis-edu/orbis/internal/app"
	"github.com/orbis-edu/orbis/internal/config"
	"github.com/orbis-edu/orbis/internal/ingest"
)

var ingestFile string

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch and store regulation documents",
	Long: `Fetch and store regulation documents.

Reads document metadata (source URL, title, summary, keywords) from a JSON
file, or uses the built-in Bilgi University regulation list when no file is
given. Documents whose source URL is already stored are skipped, so the
command is safe to re-run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest()
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestFile, "file", "", "JSON metadata file (default: built-in document list)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err = cfg.ValidateServe(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	metas := ingest.DefaultMetadata
	if ingestFile != "" {
		metas, err = ingest.LoadMetadata(ingestFile)
		if err != nil {
			return err
		}
	}
	if len(metas) == 0 {
		return fmt.Errorf("no documents to ingest")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := newLogger()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	report, err := a.Ingestor.Run(ctx, metas)
	if err != nil {
		return fmt.Errorf("ingesting documents: %w", err)
	}

	fmt.Printf("Run %s: %d ingested, %d skipped, %d failed\n",
		report.RunID, report.Ingested, report.Skipped, report.Failed)
	return nil
}
