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

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lakeshore-labs/compscout/internal/config"
	"github.com/lakeshore-labs/compscout/internal/explain"
	"github.com/lakeshore-labs/compscout/internal/handler"
	"github.com/lakeshore-labs/compscout/internal/repository"
	"github.com/lakeshore-labs/compscout/internal/service"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := buildLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("compscout starting",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit))

	gin.SetMode(cfg.Server.GinMode)

	repo := repository.NewMLSRepository(&cfg.Catalog, logger)
	explainClient := explain.NewClient(&cfg.Explain, logger)
	if !cfg.Explain.Enabled {
		logger.Warn("explanation service not configured; responses will omit prose explanations")
	}

	interpreter := service.NewInterpreter()
	orchestrator := service.NewOrchestrator(service.NewCatalogRetriever(repo), cfg.Search.PageCap, logger)
	engine := service.NewPricingEngine(repo, cfg.Search.CompPageCap, logger)
	assembler := service.NewAssembler(explainClient, logger)

	searchService := service.NewSearchService(interpreter, orchestrator, explainClient, logger)
	pricingService := service.NewPricingService(engine, assembler, repo, cfg.Search.PageCap, logger)

	searchHandler := handler.NewSearchHandler(searchService, logger)
	pricingHandler := handler.NewPricingHandler(pricingService, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(handler.RequestLogger(logger, cfg.Logging.Verbose))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.AllowedOrigins}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "compscout", "version": Version})
	})
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"version": Version, "build_time": BuildTime, "git_commit": GitCommit})
	})

	router.POST("/search", searchHandler.Search)
	router.POST("/pricing", pricingHandler.Price)
	router.POST("/pricing/subjects", pricingHandler.Subjects)
	router.POST("/nearby", pricingHandler.Nearby)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: router}

	go func() {
		logger.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
	logger.Info("server stopped")
}

func buildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}
