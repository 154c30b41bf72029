package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/orbis-edu/orbis/internal/ai"
	"github.com/orbis-edu/orbis/internal/regulation"
)

// minContentLength rejects pages whose extracted text is too short to be a
// real regulation document (error pages, redirects, stubs).
const minContentLength = 100

// ContentFetcher downloads and extracts a document's plain text.
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// DocumentStore is the store surface the ingestor needs.
type DocumentStore interface {
	ExistsBySourceURL(ctx context.Context, sourceURL string) (bool, error)
	InsertDocument(ctx context.Context, d regulation.Document, keywordEmbedding []float32) (int64, error)
}

// Report summarizes one ingest run.
type Report struct {
	RunID    string `json:"run_id"`
	Ingested int    `json:"ingested"`
	Skipped  int    `json:"skipped"`
	Failed   int    `json:"failed"`
}

// Ingestor pulls curated regulation documents into the store. Failures are
// per-document: one bad source never aborts the run.
type Ingestor struct {
	fetcher  ContentFetcher
	store    DocumentStore
	embedder ai.Embedder
	logger   *slog.Logger
}

// NewIngestor creates an ingestor.
func NewIngestor(fetcher ContentFetcher, store DocumentStore, embedder ai.Embedder, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{fetcher: fetcher, store: store, embedder: embedder, logger: logger}
}

// Run ingests each document in metas: sources already present are skipped,
// content is fetched and length-checked, and the title/summary/keywords are
// embedded as the document's keyword embedding.
func (ing *Ingestor) Run(ctx context.Context, metas []DocumentMeta) (Report, error) {
	report := Report{RunID: uuid.NewString()}
	logger := ing.logger.With("run_id", report.RunID)

	for _, meta := range metas {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}

		exists, err := ing.store.ExistsBySourceURL(ctx, meta.SourceURL)
		if err != nil {
			return report, err
		}
		if exists {
			logger.Info("document already ingested, skipping", "source_url", meta.SourceURL)
			report.Skipped++
			continue
		}

		content, err := ing.fetcher.Fetch(ctx, meta.SourceURL)
		if err != nil {
			logger.Warn("fetch failed, skipping document",
				"source_url", meta.SourceURL, "error", err)
			report.Failed++
			continue
		}
		if len(strings.TrimSpace(content)) < minContentLength {
			logger.Warn("content too short, skipping document",
				"source_url", meta.SourceURL, "length", len(content))
			report.Skipped++
			continue
		}

		embedText := fmt.Sprintf("%s. %s. Keywords: %s", meta.Title, meta.Summary, meta.Keywords)
		vec, err := ing.embedder.Embed(ctx, embedText, ai.TaskDocument)
		if err != nil {
			logger.Warn("embedding failed, skipping document",
				"source_url", meta.SourceURL, "error", err)
			report.Failed++
			continue
		}

		id, err := ing.store.InsertDocument(ctx, regulation.Document{
			SourceURL:  meta.SourceURL,
			Title:      meta.Title,
			RawContent: content,
			Summary:    meta.Summary,
			Keywords:   meta.Keywords,
		}, vec)
		if err != nil {
			logger.Warn("insert failed, skipping document",
				"source_url", meta.SourceURL, "error", err)
			report.Failed++
			continue
		}

		logger.Info("ingested document",
			"id", id, "title", meta.Title, "chars", len(content))
		report.Ingested++
	}

	logger.Info("ingest run finished",
		"ingested", report.Ingested, "skipped", report.Skipped, "failed", report.Failed)
	return report, nil
}
