package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/imthatgin/querylib/internal/config"
	"github.com/imthatgin/querylib/internal/db"
	"github.com/imthatgin/querylib/internal/export"
	"github.com/imthatgin/querylib/internal/graph"
	"github.com/imthatgin/querylib/internal/health"
	"github.com/imthatgin/querylib/internal/history"
	"github.com/imthatgin/querylib/internal/logger"
	"github.com/imthatgin/querylib/internal/middleware"
	"github.com/imthatgin/querylib/internal/migration"

	"github.com/rs/cors"
)

func main() {
	// Create context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}

	// Setup database connection
	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		appLogger.LogFatal(err, "Failed to connect to database")
	}
	defer conn.Close()

	// Bootstrap the graph schema
	if err := db.RunMigrations(conn.Pool); err != nil {
		appLogger.LogFatal(err, "Failed to bootstrap graph schema")
	}

	// Create the graph store and migration components
	store := graph.NewPostgresStore(conn)
	linker := migration.NewLinker(store)
	runner := migration.NewRunner(store, linker, appLogger)
	source := migration.NewSource(cfg.Migrations.Dir)

	if cfg.Migrations.AutoApply {
		files, err := source.Load()
		if err != nil {
			appLogger.LogFatal(err, "Failed to load migration files")
		}
		summary, err := runner.Run(ctx, files)
		if err != nil {
			appLogger.LogFatal(err, "Failed to apply migrations")
		}
		appLogger.LogInfo("Applied migrations at boot", map[string]interface{}{
			"scanned": summary.Scanned,
			"applied": summary.Applied,
			"skipped": summary.Skipped,
		})
	}

	// Create services and handlers
	historyService := history.NewService(store, appLogger)
	exportService := export.NewService(historyService)

	historyHandler := history.NewHTTPHandler(historyService, source, runner)
	exportHandler := export.NewHTTPHandler(exportService)
	healthHandler := health.NewHTTPHandler(conn.Pool)

	// Setup CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	logRequests := middleware.LoggingMiddleware(appLogger)
	withLoader := middleware.DataLoaderMiddleware(store)

	migrationsAPI := corsHandler.Handler(logRequests(withLoader(historyHandler)))

	http.Handle("/migrations", migrationsAPI)
	http.Handle("/migrations/", migrationsAPI)
	http.Handle("/migrations/export", corsHandler.Handler(logRequests(exportHandler)))
	http.Handle("/healthz", logRequests(healthHandler))

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		appLogger.LogInfo("Starting migration server", map[string]interface{}{
			"addr":           cfg.Server.Addr,
			"migrations_dir": cfg.Migrations.Dir,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.LogFatal(err, "Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.LogInfo("Shutting down server...", nil)

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.LogFatal(err, "Server forced to shutdown")
	}

	appLogger.LogInfo("Server exited", nil)
}
