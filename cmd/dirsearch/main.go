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
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/dirsearch/internal/config"
	dbRedis "github.com/kailas-cloud/dirsearch/internal/db/redis"
	"github.com/kailas-cloud/dirsearch/internal/domain/search/mode"
	logpkg "github.com/kailas-cloud/dirsearch/internal/logger"
	"github.com/kailas-cloud/dirsearch/internal/metrics"
	"github.com/kailas-cloud/dirsearch/internal/registry"
	entryrepo "github.com/kailas-cloud/dirsearch/internal/repository/entry"
	listrepo "github.com/kailas-cloud/dirsearch/internal/repository/list"
	searchrepo "github.com/kailas-cloud/dirsearch/internal/repository/search"
	"github.com/kailas-cloud/dirsearch/internal/tool"
	chiTransport "github.com/kailas-cloud/dirsearch/internal/transport/chi"
	mcpTransport "github.com/kailas-cloud/dirsearch/internal/transport/mcp"
	directoryuc "github.com/kailas-cloud/dirsearch/internal/usecase/directory"
	guidanceuc "github.com/kailas-cloud/dirsearch/internal/usecase/guidance"
	healthuc "github.com/kailas-cloud/dirsearch/internal/usecase/health"
	importeruc "github.com/kailas-cloud/dirsearch/internal/usecase/importer"
	searchuc "github.com/kailas-cloud/dirsearch/internal/usecase/search"
	"github.com/kailas-cloud/dirsearch/internal/version"
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

	logger.Info("Starting dirsearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("schema_path", cfg.Schema.Path),
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

	// Register directory metrics explicitly (no init())
	metrics.RegisterDirectoryMetrics()

	// Schema registry — a broken schema file is fatal at startup
	schemas := registry.New(cfg.Schema.Path, logger)
	if err := schemas.Load(); err != nil {
		logger.Fatal("Failed to load schemas", zap.Error(err))
	}
	logger.Info("Schemas loaded", zap.Strings("entry_types", schemas.Types()))

	// Repositories
	listRepo := listrepo.New(store)
	entryRepo := entryrepo.New(store)
	searchRepo := searchrepo.New(store)

	// Use case services
	recorder := metrics.Recorder{}
	mappers := importeruc.NewMapperRegistry()
	importSvc := importeruc.New(schemas, listRepo, entryRepo, mappers, recorder, cfg.Import.MinRows, logger)
	searchSvc := searchuc.New(searchRepo, listRepo, schemas, recorder, cfg.Search.MaxScan, logger)
	guidanceSvc := guidanceuc.New(schemas)
	directorySvc := directoryuc.New(listRepo, logger)
	healthSvc := healthuc.New(store, schemas)

	// Tool adapter
	adapter := tool.New(searchSvc, tool.Options{
		Mode:       mode.Mode(cfg.Tool.Mode),
		MaxResults: cfg.Tool.MaxResults,
	}, logger)

	// Chi server
	server := chiTransport.NewServer(
		importSvc, searchSvc, guidanceSvc, directorySvc, healthSvc, schemas, logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

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

	mcpCtx, mcpCancel := context.WithCancel(ctx)
	defer mcpCancel()
	if cfg.MCP.Enabled {
		startMCP(mcpCtx, cfg, adapter, guidanceSvc, logger)
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")
	mcpCancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// startMCP runs a stdio MCP server acting as the configured caller.
func startMCP(
	ctx context.Context,
	cfg config.Config,
	adapter *tool.Adapter,
	guidance *guidanceuc.Service,
	logger *zap.Logger,
) {
	callerCfg, ok := cfg.Caller(cfg.MCP.Caller)
	if !ok {
		logger.Fatal("MCP caller not found in tool.callers", zap.String("caller", cfg.MCP.Caller))
	}

	guidanceText := ""
	if cfg.MCP.EntryType != "" {
		text, err := guidance.For(cfg.MCP.EntryType)
		if err != nil {
			logger.Fatal("Failed to render MCP guidance",
				zap.String("entry_type", cfg.MCP.EntryType), zap.Error(err))
		}
		guidanceText = text
	}

	mcpServer := mcpTransport.NewServer(adapter, tool.Caller{
		Name:   callerCfg.Name,
		Tenant: callerCfg.Tenant,
		Lists:  callerCfg.Lists,
	}, guidanceText, logger)

	go func() {
		if err := mcpServer.Run(ctx, &mcpsdk.StdioTransport{}); err != nil && ctx.Err() == nil {
			logger.Error("MCP server stopped", zap.Error(err))
		}
	}()
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
