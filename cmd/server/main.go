package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/iudanet/gophgram/internal/server"
	"github.com/iudanet/gophgram/internal/server/config"
	"github.com/iudanet/gophgram/internal/server/metrics"
	"github.com/iudanet/gophgram/internal/server/storage/sqlite"
	"github.com/iudanet/gophgram/internal/server/token"
	"github.com/iudanet/gophgram/internal/server/uploads"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" {
			printVersion()
			return
		}
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:], os.Getenv)
	if err != nil {
		return err
	}

	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	// БД закрывается после остановки HTTP сервера
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	files, err := uploads.New(cfg.UploadDir, cfg.UploadMaxSize)
	if err != nil {
		return err
	}

	srv := server.New(server.Deps{
		Logger:  logger,
		Config:  cfg,
		Storage: store,
		Uploads: files,
		Tokens:  token.NewService(cfg.JWTSecret, cfg.TokenTTL),
		Metrics: metrics.New(),
		Version: Version,
	})

	logger.Info("GophGram server starting",
		slog.String("version", Version),
		slog.String("addr", cfg.Addr),
		slog.String("db", cfg.DBPath),
		slog.String("uploads", cfg.UploadDir))

	return srv.Run(ctx)
}

func printVersion() {
	fmt.Printf("GophGram Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
