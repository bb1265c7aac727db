package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/brightclass/answerhub/internal/config"
	"github.com/brightclass/answerhub/internal/db"
	dbRedis "github.com/brightclass/answerhub/internal/db/redis"
	"github.com/brightclass/answerhub/internal/domain"
	logpkg "github.com/brightclass/answerhub/internal/logger"
	"github.com/brightclass/answerhub/internal/metrics"
	"github.com/brightclass/answerhub/internal/repository/embcache"
	graphrepo "github.com/brightclass/answerhub/internal/repository/graph"
	vectorrepo "github.com/brightclass/answerhub/internal/repository/vector"
	chiTransport "github.com/brightclass/answerhub/internal/transport/chi"
	"github.com/brightclass/answerhub/internal/transport/coordinator"
	openaiEmb "github.com/brightclass/answerhub/internal/transport/openai"
	accessuc "github.com/brightclass/answerhub/internal/usecase/access"
	askuc "github.com/brightclass/answerhub/internal/usecase/ask"
	healthuc "github.com/brightclass/answerhub/internal/usecase/health"
	kgraphuc "github.com/brightclass/answerhub/internal/usecase/kgraph"
	mergeuc "github.com/brightclass/answerhub/internal/usecase/merge"
	retrievaluc "github.com/brightclass/answerhub/internal/usecase/retrieval"
	"github.com/brightclass/answerhub/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting answerhub API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterPipelineMetrics()
	metrics.RegisterCoordinatorMetrics()

	embedder := buildEmbedder(cfg.Embedding, store, logger)
	logger.Info("Embedder created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("cache", cfg.Embedding.CacheOn()),
	)

	// Repositories (domain-native, no adapters)
	vectorRepo := vectorrepo.New(store, cfg.Embedding.Dimensions)
	if err := vectorRepo.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure embedding index", zap.Error(err))
	}
	graphRepo := graphrepo.New(store)

	// Pipeline stage services
	retriever := retrievaluc.New(vectorRepo, retrievaluc.Config{
		Threshold:         cfg.Pipeline.SearchThreshold,
		WidenedThreshold:  cfg.Pipeline.WidenedThreshold,
		WidenedMultiplier: cfg.Pipeline.WidenedMultiplier,
	})
	expander := kgraphuc.New(graphRepo, vectorRepo, kgraphuc.Config{
		MaxDepth:      cfg.Pipeline.GraphMaxDepth,
		MinEdgeWeight: cfg.Pipeline.GraphMinEdgeWeight,
	}, logger)
	rule := accessuc.NewRule(cfg.Pipeline.RestrictedTypes, cfg.Pipeline.PrivilegedRoles)
	merger := mergeuc.New(logger)
	classifier := askuc.NewClassifier(cfg.Pipeline.DomainKeywords)

	askSvc := askuc.New(
		embedder, retriever, expander, rule, merger,
		buildRouter(cfg.Coordinator, logger), classifier,
		askuc.Config{
			SearchLimit:        cfg.Pipeline.SearchLimit,
			GraphMaxDepth:      cfg.Pipeline.GraphMaxDepth,
			MinInternalSources: cfg.Pipeline.MinInternalSources,
			EmbedTimeout:       time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
			VectorTimeout:      time.Duration(cfg.Pipeline.VectorTimeoutSec) * time.Second,
			GraphTimeout:       time.Duration(cfg.Pipeline.GraphTimeoutSec) * time.Second,
			CoordinatorTimeout: time.Duration(cfg.Coordinator.TimeoutSec) * time.Second,
		},
		logger,
	)

	healthSvc := healthuc.New(store, newEmbeddingHealthChecker(embedder))

	server := chiTransport.NewServer(askSvc, healthSvc, chiTransport.NewTenantResolver(nil), logger)
	r := server.Routes(cfg.Auth.APIKeys)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached.
func buildEmbedder(cfg config.EmbeddingConfig, store db.Store, logger *zap.Logger) domain.Embedder {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   "openai",
		Logger:     logger,
	})

	if !cfg.CacheOn() {
		return base
	}
	return embcache.New(
		base, store, cfg.Model,
		time.Duration(cfg.CacheTTLSec)*time.Second,
		metrics.EmbeddingCacheTotal, logger,
	)
}

// buildRouter creates the Coordinator fallback client, or nil when the
// Coordinator is not configured or its signing key cannot be loaded. A nil
// router means queries resolve on internal evidence only.
func buildRouter(cfg config.CoordinatorConfig, logger *zap.Logger) askuc.Router {
	if cfg.Target == "" {
		logger.Info("Coordinator not configured, fallback disabled")
		return nil
	}

	signer, err := coordinator.LoadSigner(cfg.ServiceIdentity, cfg.SigningKey, cfg.SigningKeyFile)
	if err != nil {
		logger.Warn("Coordinator signing key unavailable, fallback disabled", zap.Error(err))
		return nil
	}

	return coordinator.NewClient(coordinator.Config{
		Target:        cfg.Target,
		Timeout:       time.Duration(cfg.TimeoutSec) * time.Second,
		SyncPageLimit: cfg.SyncPageLimit,
		MaxSyncPages:  cfg.MaxSyncPages,
	}, signer, nil, logger)
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}
