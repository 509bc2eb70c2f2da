package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/Harshitk-cp/veritas/internal/api/handlers"
	mw "github.com/Harshitk-cp/veritas/internal/api/middleware"
	"github.com/Harshitk-cp/veritas/internal/config"
	"github.com/Harshitk-cp/veritas/internal/domain"
	"github.com/Harshitk-cp/veritas/internal/embedding"
	"github.com/Harshitk-cp/veritas/internal/gather"
	"github.com/Harshitk-cp/veritas/internal/llm"
	"github.com/Harshitk-cp/veritas/internal/service"
	"github.com/Harshitk-cp/veritas/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// App holds the router and request metrics for lifecycle management.
type App struct {
	Router    *chi.Mux
	startTime time.Time
	metrics   *mw.MetricsCollector
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) *App {
	// Stores
	relationalStore := store.NewRelationalStore(db)
	graphStore := store.NewGraphStore(db)
	patternStore := store.NewPatternStore(db)

	// External clients via provider factory
	var embeddingClient domain.EmbeddingClient
	var generator domain.Generator

	var err error
	generator, err = llm.NewClient(config.LLMProvider(), config.LLMAPIKey())
	if err != nil {
		logger.Warn("LLM client initialization failed",
			zap.String("provider", config.LLMProvider()), zap.Error(err))
		generator = nil
	} else {
		logger.Info("LLM client initialized", zap.String("provider", config.LLMProvider()))
	}

	embeddingClient, err = embedding.NewClient(config.EmbeddingProvider(), config.EmbeddingAPIKey(), config.EmbeddingModel())
	if err != nil {
		logger.Warn("embedding client initialization failed",
			zap.String("provider", config.EmbeddingProvider()), zap.Error(err))
		embeddingClient = embedding.NewMockClient()
	} else {
		logger.Info("embedding client initialized", zap.String("provider", config.EmbeddingProvider()))
	}

	vectorStore := store.NewVectorStore(db, embeddingClient)

	// Gatherers, one per truth type
	registry := gather.NewRegistry(
		gather.NewRealityGatherer(relationalStore, patternStore, generator, logger),
		gather.NewIntentGatherer(vectorStore, logger),
		gather.NewConfigurationGatherer(logger),
		gather.NewReferenceGatherer(vectorStore, logger),
		gather.NewRegulatoryGatherer(vectorStore, logger),
		gather.NewComplianceGatherer(vectorStore, logger),
	)

	assembler := gather.NewAssembler(registry, graphStore, config.GatherTimeout(), logger)
	detector := service.NewGapDetector()
	synth := service.NewSynthesizer(generator, config.OverlayTimeout(), logger)
	resolver := service.NewResolver(assembler, detector, synth, logger)

	// Handlers
	resolveHandler := handlers.NewResolveHandler(resolver)
	graphHandler := handlers.NewGraphHandler(graphStore)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		startTime: time.Now(),
		metrics:   mw.NewMetricsCollector(),
	}

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(app.metrics.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	r.Get("/health", healthHandler(db))
	r.Get("/metrics", app.metricsHandler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/resolve", resolveHandler.Resolve)
		r.Get("/projects/{id}/graph", graphHandler.Get)
	})

	return app
}

// NewRouter returns just the chi.Mux.
func NewRouter(db *pgxpool.Pool, logger *zap.Logger) *chi.Mux {
	return NewApp(db, logger).Router
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.metrics.Requests(),
			"error_count":    app.metrics.Errors(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.SQLExecutor      = (*store.RelationalStore)(nil)
	_ domain.SemanticSearcher = (*store.VectorStore)(nil)
	_ domain.GraphProvider    = (*store.GraphStore)(nil)
	_ domain.PatternCache     = (*store.PatternStore)(nil)
	_ domain.EmbeddingClient  = (*embedding.OpenAIClient)(nil)
	_ domain.EmbeddingClient  = (*embedding.MockClient)(nil)
	_ domain.Generator        = (*llm.OpenAIClient)(nil)
	_ domain.Generator        = (*llm.AnthropicClient)(nil)
	_ domain.Generator        = (*llm.GeminiClient)(nil)
	_ domain.Generator        = (*llm.CerebrasClient)(nil)
	_ domain.Generator        = (*llm.MockClient)(nil)
)
