package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/iudanet/gophgram/internal/client/api"
	"github.com/iudanet/gophgram/internal/client/cli"
	"github.com/iudanet/gophgram/internal/client/iocli"
	"github.com/iudanet/gophgram/internal/client/storage/boltdb"
	"github.com/iudanet/gophgram/internal/client/store"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	showVersion := flag.Bool("version", false, "Show version information")
	serverURL := flag.String("server", envOr("GOPHGRAM_SERVER", "http://localhost:8080"), "Server URL")
	dbPath := flag.String("db", envOr("GOPHGRAM_CLIENT_DB", "gophgram-client.db"), "Path to local session database")
	logLevel := flag.String("log-level", "warn", "Log level: debug, info, warn, error")

	flag.Parse()

	if *showVersion {
		printVersion()
		return 0
	}

	stdio := iocli.NewStdio()

	args := flag.Args()
	if len(args) == 0 {
		cli.PrintUsage(stdio)
		return 1
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(*logLevel))); err != nil {
		level = slog.LevelWarn
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessions, err := boltdb.New(ctx, *dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		return 1
	}
	defer func() {
		if err := sessions.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	st := store.New(logger, api.NewClient(*serverURL), sessions, *serverURL)
	if err := st.Restore(ctx); err != nil {
		logger.Warn("failed to restore session", slog.Any("error", err))
	}

	c := cli.New(stdio, st)
	if err := c.Run(ctx, args[0], args[1:]); err != nil {
		switch {
		case errors.Is(err, cli.ErrReported):
		case errors.Is(err, flag.ErrHelp):
		case errors.Is(err, cli.ErrUnknownCommand):
			fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
			cli.PrintUsage(stdio)
		default:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printVersion() {
	fmt.Printf("GophGram Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
