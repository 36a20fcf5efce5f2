package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"legaltriad-backend/config"
	"legaltriad-backend/handlers"
	"legaltriad-backend/logger"
	"legaltriad-backend/metrics"
	"legaltriad-backend/models"
	"legaltriad-backend/provider"
	"legaltriad-backend/repository"
	"legaltriad-backend/service"
	"legaltriad-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	envLoaded := config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("invalid configuration", zap.Error(err))
	}

	log := logger.New(cfg.LogFile, cfg.IsProduction())
	defer log.Sync()
	if !envLoaded {
		log.Info("no .env file found, using environment variables")
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	m := metrics.New()

	// Reasoning service. A missing key is not fatal: submissions report it.
	var llm service.Provider
	if cfg.HasAPIKey() {
		llm, err = initProvider(ctx, cfg, log)
		if err != nil {
			log.Fatal("failed to initialize reasoning service", zap.Error(err))
		}
		if closer, ok := llm.(interface{ Close() error }); ok {
			defer closer.Close()
		}
	} else {
		log.Warn("GEMINI_API_KEY not set, submissions will be rejected")
	}

	profile, err := service.LookupPromptProfile(cfg.PromptProfile)
	if err != nil {
		log.Fatal("invalid prompt profile", zap.Error(err))
	}
	composer := service.NewComposer(cfg.GeminiModel, profile)
	validator, err := service.NewValidator(models.AnalysisResultSchema())
	if err != nil {
		log.Fatal("failed to compile result schema", zap.Error(err))
	}

	opts := []service.AnalysisServiceOption{
		service.WithComposer(composer),
		service.WithValidator(validator),
		service.WithProgressEstimator(service.NewProgressEstimator(cfg.ProgressInterval)),
		service.WithRequestTimeout(cfg.RequestTimeout),
		service.WithMetrics(m),
		service.WithLogger(log),
	}
	if llm != nil {
		opts = append(opts, service.WithProvider(llm))
	}

	// Run audit log is optional
	var runLog handlers.RunLog
	if cfg.DatabaseURL != "" {
		db, err := initPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal("failed to initialize Postgres", zap.Error(err))
		}
		defer db.Close()
		runs := repository.NewAnalysisRunRepository(db)
		opts = append(opts, service.WithRunRecorder(runs))
		runLog = runs
		log.Info("run audit log enabled")
	}

	analysis, err := service.NewAnalysisService(opts...)
	if err != nil {
		log.Fatal("failed to initialize analysis service", zap.Error(err))
	}

	exportStore, err := storage.NewStorage(ctx, storage.ConfigFromEnv())
	if err != nil {
		log.Warn("export archive disabled", zap.Error(err))
		exportStore = nil
	}

	templates, err := handlers.Templates()
	if err != nil {
		log.Fatal("failed to parse templates", zap.Error(err))
	}

	session := service.NewSession()
	sessionHandler := handlers.NewSessionHandler(session, analysis, exportStore, runLog, templates, log, cfg.MaxUploadBytes)
	r := handlers.SetupRouter(sessionHandler, m.Registry)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("port", cfg.Port), zap.String("model", cfg.GeminiModel))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// tear down any in-flight submission with the session
	session.Reset()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
	log.Info("server stopped")
}

func initProvider(ctx context.Context, cfg *config.Config, log *zap.Logger) (service.Provider, error) {
	switch cfg.GeminiTransport {
	case config.TransportREST:
		log.Info("using Gemini REST transport", zap.String("base_url", cfg.GeminiBaseURL))
		return provider.NewRESTClient(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.RequestTimeout, log)
	default:
		log.Info("using Gemini SDK transport")
		return provider.NewGeminiClient(ctx, cfg.GeminiAPIKey)
	}
}

func initPostgres(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
