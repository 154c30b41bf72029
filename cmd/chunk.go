package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/orbis-edu/orbis/internal/app"
	"github.com/orbis-edu/orbis/internal/config"
)

var (
	chunkSize    int
	chunkOverlap int
)

var chunkCmd = &cobra.Command{
	Use:   "chunk [document-id]",
	Short: "Split stored documents into embedded chunks",
	Long: `Split stored documents into embedded chunks.

With a document ID, rechunks that document. Without arguments, rechunks
every stored document. Existing chunks are replaced, so the command is
safe to re-run after changing the chunk size or overlap.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChunk(args)
	},
}

func init() {
	chunkCmd.Flags().IntVar(&chunkSize, "size", 0, "chunk size in words, overrides config")
	chunkCmd.Flags().IntVar(&chunkOverlap, "overlap", -1, "word overlap between chunks, overrides config")
	rootCmd.AddCommand(chunkCmd)
}

func runChunk(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err = cfg.ValidateServe(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	size := cfg.ChunkSize
	if chunkSize > 0 {
		size = chunkSize
	}
	overlap := cfg.ChunkOverlap
	if chunkOverlap >= 0 {
		overlap = chunkOverlap
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

	ids, err := chunkTargets(ctx, a, args)
	if err != nil {
		return err
	}

	total := 0
	for _, id := range ids {
		count, err := a.Regulation.ChunkDocument(ctx, id, size, overlap)
		if err != nil {
			return fmt.Errorf("chunking document %d: %w", id, err)
		}
		fmt.Printf("Document %d: %d chunks\n", id, count)
		total += count
	}
	fmt.Printf("Done: %d chunks across %d documents\n", total, len(ids))
	return nil
}

// chunkTargets resolves the document IDs to process: the single argument
// when given, otherwise every stored document.
func chunkTargets(ctx context.Context, a *app.App, args []string) ([]int64, error) {
	if len(args) == 1 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id < 1 {
			return nil, fmt.Errorf("invalid document ID %q", args[0])
		}
		return []int64{id}, nil
	}

	docs, err := a.Regulation.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no documents stored, run ingest first")
	}

	ids := make([]int64, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	return ids, nil
}
