package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/phenrril/eshop/internal/adapters/health"
	"github.com/phenrril/eshop/internal/app"
	"github.com/phenrril/eshop/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to load configuration")
	}
	setupLogger(cfg)

	gormLog := logger.Default.LogMode(logger.Warn)
	db, err := gorm.Open(postgres.Open(cfg.Postgres.ConnString()), &gorm.Config{Logger: gormLog})
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to connect to database")
	}

	application, err := app.NewApp(db, cfg)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to create app")
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.MigrateAndSeed(ctx); err != nil {
		zlog.Fatal().Err(err).Msg("failed to migrate and seed database")
	}

	go application.Health.Watch(ctx, cfg.HealthInterval)

	grpcLn, err := net.Listen("tcp", ":"+cfg.GRPC.Port)
	if err != nil {
		zlog.Fatal().Err(err).Str("port", cfg.GRPC.Port).Msg("failed to listen for gRPC")
	}
	grpcServer := health.NewGRPCServer(application.Health)
	go func() {
		zlog.Info().Str("port", cfg.GRPC.Port).Msg("gRPC health server started")
		if err := grpcServer.Serve(grpcLn); err != nil {
			zlog.Error().Err(err).Msg("gRPC server stopped")
		}
	}()

	server := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      application.HTTPHandler(),
		ReadTimeout:  cfg.HTTP.TimeoutRead,
		WriteTimeout: cfg.HTTP.TimeoutWrite,
		IdleTimeout:  cfg.HTTP.TimeoutIdle,
	}
	go func() {
		zlog.Info().Str("port", cfg.HTTP.Port).Str("env", cfg.AppEnv).Msg("HTTP server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	zlog.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Err(err).Msg("HTTP shutdown")
	}
	grpcServer.GracefulStop()
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.IsDev() {
		zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	}
}
