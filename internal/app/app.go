// Package app provides application initialization and dependency wiring.
//
// App is the container that holds every long-lived component: the database
// pool, the Gemini client, the embedder, the LLM fallback service, and the
// domain services built on top of them.
package app

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orbis-edu/orbis/internal/ai"
	"github.com/orbis-edu/orbis/internal/catalog"
	"github.com/orbis-edu/orbis/internal/config"
	"github.com/orbis-edu/orbis/internal/directory"
	"github.com/orbis-edu/orbis/internal/ingest"
	"github.com/orbis-edu/orbis/internal/regulation"
)

// App is the core application container.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	DBPool   *pgxpool.Pool
	Embedder ai.Embedder
	LLM      *ai.Service

	Catalog    *catalog.Service
	Regulation *regulation.Service
	Directory  *directory.Service
	Ingestor   *ingest.Ingestor

	// Cleanup hooks, run in reverse order by Close.
	cleanups []func()
}

// Close releases all resources in reverse initialization order.
func (a *App) Close() error {
	a.Logger.Info("shutting down application")

	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i]()
	}
	a.cleanups = nil

	return nil
}

func (a *App) addCleanup(fn func()) {
	a.cleanups = append(a.cleanups, fn)
}
