package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	apihttp "vessel-ingestor/internal/api/http"
	"vessel-ingestor/internal/audit"
	"vessel-ingestor/internal/auth"
	"vessel-ingestor/internal/observability/metrics"
	"vessel-ingestor/internal/telemetry/application"
	telemetry "vessel-ingestor/internal/telemetry/domain"
	telemetryfile "vessel-ingestor/internal/telemetry/infrastructure/file"
	telemetrypostgres "vessel-ingestor/internal/telemetry/infrastructure/postgres"
	telemetryhttp "vessel-ingestor/internal/telemetry/interfaces/http"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)
	cfg, err := loadConfig()
	if err != nil {
		logger.Fatalf("config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.DBMaxConns)

	if err := db.PingContext(ctx); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)

	source, err := registrySource(cfg, db, logger)
	if err != nil {
		logger.Fatalf("signal registry source error: %v", err)
	}
	registry, err := telemetry.LoadRegistry(ctx, source)
	if err != nil {
		logger.Fatalf("signal registry error: %v", err)
	}
	metrics.SetRegistrySize(registry.Len())
	logger.Printf("signal registry loaded: signals=%d", registry.Len())

	ingestService, err := application.NewIngestService(
		registry,
		telemetrypostgres.NewVesselRepository(db),
		telemetrypostgres.NewSignalRepository(db),
	)
	if err != nil {
		logger.Fatalf("ingest service error: %v", err)
	}
	ingestHandler, err := telemetryhttp.NewIngestHandler(ingestService, logger, telemetryhttp.WithMaxBodyBytes(cfg.MaxBodyBytes))
	if err != nil {
		logger.Fatalf("ingest handler error: %v", err)
	}

	var exportOpts []telemetryhttp.RejectionExportOption
	if cfg.AuditExports {
		exportOpts = append(exportOpts, telemetryhttp.WithAuditLogger(audit.NewRepository(db)))
	}
	rejectionHandler, err := telemetryhttp.NewRejectionExportHandler(telemetrypostgres.NewRejectionQuery(db), logger, exportOpts...)
	if err != nil {
		logger.Fatalf("rejection export handler error: %v", err)
	}

	var authOpts []auth.MiddlewareOption
	if cfg.JWTSecret != "" {
		authOpts = append(authOpts, auth.WithJWTSecret([]byte(cfg.JWTSecret)))
	}
	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware(cfg.APIToken, policy, authOpts...)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/telemetry", ingestHandler)
	mux.Handle("/api/v1/vessels/", rejectionHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", apihttp.NewHealthHandler(db, logger))

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      loggingMiddleware(authMiddleware.Wrap(mux), logger),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Printf("http listening on %s", cfg.HTTPAddr)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http server error: %v", err)
		}
		return
	case <-ctx.Done():
	}

	logger.Printf("shutdown signal received, draining for up to %s", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Printf("http shutdown error: %v", err)
	}
	logger.Printf("http server stopped")
}

func registrySource(cfg config, db *sql.DB, logger *log.Logger) (telemetry.DefinitionSource, error) {
	if cfg.SignalRegistryFile != "" {
		logger.Printf("signal registry source: file %s", cfg.SignalRegistryFile)
		return telemetryfile.NewRegistryFile(cfg.SignalRegistryFile)
	}
	return telemetrypostgres.NewSignalRegistryRepository(db, logger), nil
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
