package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/casebridge/internal/config"
	"github.com/stwalsh4118/casebridge/internal/database"
	"github.com/stwalsh4118/casebridge/internal/handlers"
	"github.com/stwalsh4118/casebridge/internal/logger"
	"github.com/stwalsh4118/casebridge/internal/middleware"
	"github.com/stwalsh4118/casebridge/internal/repository"
	"github.com/stwalsh4118/casebridge/internal/services"
	"github.com/stwalsh4118/casebridge/internal/taxonomy"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Server.Env, cfg.Server.LogLevel)
	log.Info("Starting casebridge", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
	})

	ctx := context.Background()
	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, map[string]interface{}{
			"host": cfg.Database.Host,
			"port": cfg.Database.Port,
			"name": cfg.Database.Name,
		})
	}
	defer db.Close()

	log.Info("Database connection established", map[string]interface{}{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Name,
		"pool_min": cfg.Database.PoolMin,
		"pool_max": cfg.Database.PoolMax,
	})

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			log.Fatal("Failed to apply migrations", err, nil)
		}
		version, err := db.MigrationVersion(ctx)
		if err != nil {
			log.Warn("Could not read schema version", map[string]interface{}{"error": err.Error()})
		}
		log.Info("Schema up to date", map[string]interface{}{"version": version})
	}

	// Taxonomy is loaded once up front; a failure here is retried lazily on first use.
	taxonomyCache := taxonomy.NewCache(repository.NewTaxonomyRepository(db), cfg.Intake.TaxonomyTTL)
	if err := taxonomyCache.Refresh(ctx); err != nil {
		log.Warn("Issue taxonomy warm-up failed", map[string]interface{}{"error": err.Error()})
	} else {
		log.Info("Issue taxonomy loaded", map[string]interface{}{"ttl": cfg.Intake.TaxonomyTTL.String()})
	}

	if err := handlers.RegisterValidations(); err != nil {
		log.Fatal("Failed to register request validations", err, nil)
	}

	caseRepo := repository.NewCaseRepository(db)
	ingestService := services.NewIngestService(caseRepo, taxonomyCache, services.IngestDefaults{
		State: cfg.Intake.DefaultState,
		Zip:   cfg.Intake.DefaultZip,
	}, log)
	reconstructService := services.NewReconstructService(caseRepo, log)
	editService := services.NewCaseEditService(caseRepo, taxonomyCache, log)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Middleware order: RequestID -> Logger -> Recovery -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS.Origins))

	handlers.RegisterRoutes(router,
		handlers.NewHealthHandler(db, taxonomyCache, cfg.Server.Env),
		handlers.NewCaseHandler(ingestService, reconstructService, editService),
		handlers.NewTaxonomyHandler(taxonomyCache),
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}
