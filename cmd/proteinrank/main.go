package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/config"
	"github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/db"
	dbRedis "github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/db/redis"
	"github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/domain"
	logpkg "github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/logger"
	"github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/metrics"
	"github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/repository/embcache"
	"github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/repository/foldcache"
	chiTransport "github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/transport/chi"
	esmEmb "github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/transport/esm"
	foldTransport "github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/transport/fold"
	openaiEmb "github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/transport/openai"
	rankuc "github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/usecase/rank"
	"github.com/paulogallotti/sample-protein-engineering-with-genai-on-aws/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting proteinrank API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.Strings("cache_addrs", cfg.Cache.Addrs),
	)

	// Optional inference cache. Empty addrs runs without caching.
	var store db.Store
	if len(cfg.Cache.Addrs) > 0 {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer store.Close()

		ctx := context.Background()
		readiness := time.Duration(cfg.Cache.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, readiness); err != nil {
			logger.Fatal("Cache not ready", zap.Error(err))
		}
		logger.Info("Connected to cache")
	}

	// Register inference metrics explicitly (no init())
	metrics.RegisterInferenceMetrics()

	vectors := buildVectorProvider(cfg, store, logger)
	logger.Info("Embedding provider created", zap.String("provider", cfg.Embedding.Provider))

	rankSvc := rankuc.New(vectors)
	if cfg.Folding.Endpoint != "" {
		rankSvc = rankSvc.WithFolder(buildFolder(cfg, store, logger))
		logger.Info("Folding provider created", zap.String("endpoint", cfg.Folding.Endpoint))
	}

	server := chiTransport.NewServer(rankSvc, chiTransport.Limits{
		DefaultTopK:   cfg.Ranking.DefaultTopK,
		MaxTopK:       cfg.Ranking.MaxTopK,
		MaxCandidates: cfg.Ranking.MaxCandidates,
	}, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.RegisterRoutes(r)

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

// buildVectorProvider assembles the embedding chain for the configured
// provider. The ESM path is per-residue: base client -> cache -> mean pooling.
// The OpenAI path returns pooled vectors directly.
func buildVectorProvider(cfg config.Config, store db.Store, logger *zap.Logger) rankuc.VectorProvider {
	switch cfg.Embedding.Provider {
	case "openai":
		return openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.Embedding.OpenAI.APIKey,
			BaseURL:    cfg.Embedding.OpenAI.BaseURL,
			Model:      cfg.Embedding.OpenAI.Model,
			Dimensions: cfg.Embedding.OpenAI.Dimensions,
			Logger:     logger,
		})
	default: // "esm", enforced by config.Validate
		var embedder domain.ResidueEmbedder = esmEmb.NewEmbedder(&esmEmb.Config{
			Endpoint: cfg.Embedding.ESM.Endpoint,
			APIKey:   cfg.Embedding.ESM.APIKey,
			Timeout:  time.Duration(cfg.Embedding.ESM.TimeoutSec) * time.Second,
			Logger:   logger,
		})
		if store != nil {
			embedder = embcache.New(embedder, store, cfg.Cache.KeyPrefix, metrics.InferenceCacheTotal, logger)
		}
		return rankuc.NewMeanPooledProvider(embedder)
	}
}

// buildFolder assembles the folding chain: base client -> cache.
func buildFolder(cfg config.Config, store db.Store, logger *zap.Logger) rankuc.Folder {
	var folder domain.Folder = foldTransport.NewClient(&foldTransport.Config{
		Endpoint:     cfg.Folding.Endpoint,
		APIKey:       cfg.Folding.APIKey,
		PollInterval: time.Duration(cfg.Folding.PollIntervalSec) * time.Second,
		Timeout:      time.Duration(cfg.Folding.TimeoutSec) * time.Second,
		Logger:       logger,
	})
	if store != nil {
		ttl := time.Duration(cfg.Cache.StructureTTLSec) * time.Second
		folder = foldcache.New(folder, store, cfg.Cache.KeyPrefix, ttl, metrics.InferenceCacheTotal, logger)
	}
	return folder
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
