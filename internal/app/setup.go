package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvector "github.com/pgvector/pgvector-go/pgx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/genai"

	"github.com/orbis-edu/orbis/db"
	"github.com/orbis-edu/orbis/internal/ai"
	"github.com/orbis-edu/orbis/internal/catalog"
	"github.com/orbis-edu/orbis/internal/config"
	"github.com/orbis-edu/orbis/internal/directory"
	"github.com/orbis-edu/orbis/internal/ingest"
	"github.com/orbis-edu/orbis/internal/regulation"
)

// Setup creates and initializes the application.
// Returns an App with embedded cleanup — call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	// On error, clean up everything already initialized.
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	a.addCleanup(provideOtelShutdown(ctx, cfg, logger))

	pool, err := provideDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.DBPool = pool
	a.addCleanup(func() {
		pool.Close()
		logger.Info("database pool closed")
	})

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.GeminiAPIKey})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	a.Embedder = ai.NewGeminiEmbedder(client, cfg.EmbedderModel)
	a.LLM = provideLLM(client, cfg, logger)

	courseStore, err := catalog.NewStore(pool, logger)
	if err != nil {
		return nil, err
	}
	a.Catalog = catalog.NewService(courseStore, a.Embedder, a.LLM, logger)

	docStore, err := regulation.NewStore(pool, logger)
	if err != nil {
		return nil, err
	}
	a.Regulation = regulation.NewService(docStore, a.Embedder, a.LLM, logger)

	dirStore, err := directory.NewStore(pool, logger)
	if err != nil {
		return nil, err
	}
	a.Directory = directory.NewService(dirStore, logger)

	a.Ingestor = ingest.NewIngestor(ingest.NewFetcher(), docStore, a.Embedder, logger)

	return a, nil
}

// provideOtelShutdown configures OTLP HTTP trace export. Tracing is
// optional: a missing endpoint disables it and exporter errors only warn.
func provideOtelShutdown(ctx context.Context, cfg *config.Config, logger *slog.Logger) func() {
	if cfg.Otel.Endpoint == "" {
		return func() {}
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.Otel.Endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		logger.Warn("creating trace exporter, tracing disabled", "error", err)
		return func() {}
	}

	serviceName := cfg.Otel.ServiceName
	if serviceName == "" {
		serviceName = "orbis"
	}

	res, err := sdkresource.Merge(sdkresource.Default(), sdkresource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.DeploymentEnvironment(cfg.Otel.Environment),
	))
	if err != nil {
		logger.Warn("building trace resource, tracing disabled", "error", err)
		return func() {}
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	logger.Debug("tracing enabled",
		"endpoint", cfg.Otel.Endpoint,
		"service", serviceName,
		"environment", cfg.Otel.Environment,
	)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutting down tracer provider", "error", err)
		}
	}
}

// provideDBPool runs migrations and opens the shared connection pool with
// pgvector types registered on every connection.
func provideDBPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

// provideLLM builds the generation fallback chain: Gemini primary, OpenAI
// secondary when a key is configured. Provider construction problems are
// collected rather than fatal so a broken fallback never blocks startup.
func provideLLM(client *genai.Client, cfg *config.Config, logger *slog.Logger) *ai.Service {
	var providers []ai.Provider
	var initErrors []error

	providers = append(providers, ai.NewGeminiProvider(client, cfg.GeminiModel))

	if cfg.OpenAIAPIKey != "" {
		providers = append(providers, ai.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel))
	} else {
		initErrors = append(initErrors, fmt.Errorf("openai fallback disabled: no API key configured"))
	}

	return ai.NewService(providers, initErrors, logger)
}
