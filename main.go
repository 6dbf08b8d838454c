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

	"emrs-notify-api/src/infrastructure/config"
	"emrs-notify-api/src/infrastructure/di"
	logger "emrs-notify-api/src/infrastructure/logger"
	"emrs-notify-api/src/infrastructure/rest/middlewares"
	"emrs-notify-api/src/infrastructure/rest/routes"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// .env is optional, real deployments set the environment directly
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		panic(fmt.Errorf("error reading .env: %w", err))
	}

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("error loading configuration: %w", err))
	}

	loggerInstance, err := newLogger(cfg.Server)
	if err != nil {
		panic(fmt.Errorf("error initializing logger: %w", err))
	}
	defer func() {
		if err := loggerInstance.Log.Sync(); err != nil {
			loggerInstance.Log.Error("Failed to sync logger", zap.Error(err))
		}
	}()

	loggerInstance.Info("Starting emrs-notify-api application", zap.String("env", cfg.Server.Env))

	appContext, err := di.SetupDependencies(cfg, loggerInstance)
	if err != nil {
		loggerInstance.Fatal("Error initializing application context", zap.Error(err))
	}

	router := setupRouter(appContext, loggerInstance)
	server := setupServer(router, cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		loggerInstance.Info("Server starting", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		loggerInstance.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		loggerInstance.Error("Server stopped with error", zap.Error(err))
		os.Exit(1)
	}
	loggerInstance.Info("Server stopped")
}

func newLogger(cfg config.ServerConfig) (*logger.Logger, error) {
	if cfg.IsDevelopment() {
		return logger.NewDevelopmentLogger()
	}
	return logger.NewLoggerWithLevel(cfg.LogLevel)
}

func setupRouter(appContext *di.ApplicationContext, logger *logger.Logger) *gin.Engine {
	if appContext.Config.Server.IsDevelopment() {
		logger.SetupGinWithZapLoggerInDevelopment()
	} else {
		logger.SetupGinWithZapLogger()
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middlewares.Cors())

	router.Use(middlewares.ErrorHandler())
	router.Use(middlewares.CommonHeaders)
	router.Use(middlewares.PrometheusMetrics)

	router.Use(logger.GinZapLogger())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	routes.ApplicationRouter(router, appContext)
	return router
}

func setupServer(router *gin.Engine, port string) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// a Gmail batch waits a second between recipients
		WriteTimeout:   30 * time.Minute,
		MaxHeaderBytes: 1 << 20,
	}
}
