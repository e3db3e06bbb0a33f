package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ccsdpt/hisweb/internal/config"
	"github.com/ccsdpt/hisweb/internal/db"
	"github.com/ccsdpt/hisweb/internal/export"
	"github.com/ccsdpt/hisweb/internal/ingestion"
	"github.com/ccsdpt/hisweb/internal/localstore"
	"github.com/ccsdpt/hisweb/internal/middleware"
	"github.com/ccsdpt/hisweb/internal/repository"

	"github.com/rs/cors"
	"go.uber.org/zap"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	store, err := localstore.New(cfg.UploadDir, logger)
	if err != nil {
		logger.Fatal("failed to prepare upload directory", zap.Error(err))
	}

	// The relational store is optional; without it, archived uploads under
	// the upload directory serve downloads.
	var repo repository.ReportRepository
	if cfg.DatabaseConfigured() {
		conn, err := db.NewConnection(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer conn.Close()

		if err := db.RunMigrations(cfg.Database, "./migrations"); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}

		repo = repository.NewReportRepository(conn, cfg.ShelterColumn, cfg.DateColumn)
		logger.Info("relational store configured",
			zap.String("host", cfg.Database.Host), zap.String("dbname", cfg.Database.DBName))
	} else {
		logger.Info("no relational store configured, using local fallback store",
			zap.String("dir", store.Dir()))
	}

	uploadService := ingestion.NewService(repo, store, cfg.UploadTable, cfg.SheetName, logger)
	exportService := export.NewService(repo, store, cfg.DownloadTable, logger)

	mux := http.NewServeMux()
	mux.Handle("/api/upload-excel", ingestion.NewHTTPHandler(uploadService))
	downloadHandler := export.NewHTTPHandler(exportService, cfg.TemplatePath)
	mux.Handle("/download", downloadHandler)
	mux.Handle("/download-template", downloadHandler)
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))

	var handler http.Handler = middleware.Logging(logger)(mux)
	if cfg.EnableCORS {
		corsHandler := cors.New(cors.Options{
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"*"},
		})
		handler = corsHandler.Handler(handler)
		logger.Info("CORS enabled")
	}

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
