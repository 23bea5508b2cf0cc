package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/iudanet/traderouter/internal/config"
	"github.com/iudanet/traderouter/internal/crypto"
	"github.com/iudanet/traderouter/internal/esi"
	"github.com/iudanet/traderouter/internal/hubs"
	"github.com/iudanet/traderouter/internal/server"
	"github.com/iudanet/traderouter/internal/server/handlers"
	"github.com/iudanet/traderouter/internal/server/middleware"
	"github.com/iudanet/traderouter/internal/server/storage/sqlite"
	"github.com/iudanet/traderouter/internal/session"
	"github.com/iudanet/traderouter/internal/sso"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	configPath := flag.String("config", "", "Path to YAML config file")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server stopped with error", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	keys, err := crypto.DeriveKeys(cfg.SecretKey)
	if err != nil {
		return fmt.Errorf("derive keys: %w", err)
	}

	store, err := sqlite.New(ctx, cfg.DatabasePath, logger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	registry, err := cfg.Registry()
	if err != nil {
		return fmt.Errorf("hub registry: %w", err)
	}

	// "/" монтирует приложение в корень
	prefix := strings.TrimSuffix(cfg.MountPrefix, "/")

	ssoProvider := sso.NewProvider(sso.Config{
		BaseURL:      cfg.SSOBaseURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		CallbackURL:  cfg.CallbackURL,
		UserAgent:    cfg.UserAgent,
		Scopes:       cfg.Scopes(),
		Timeout:      cfg.HTTPTimeout,
	})
	esiClient := esi.NewClient(cfg.ESIBaseURL, cfg.UserAgent, cfg.HTTPTimeout)
	resolver := session.NewResolver(ssoProvider, esiClient, logger)
	aggregator := hubs.NewAggregator(esiClient, registry, logger)

	secure := strings.HasPrefix(cfg.URL, "https://")
	h := server.Handlers{
		Router: handlers.NewRouterHandler(
			logger,
			handlers.Site{Name: cfg.SiteName, Prefix: prefix},
			ssoProvider,
			resolver,
			esiClient,
			aggregator,
			store,
			handlers.NewFlasher(keys.FlashKey, prefix, secure),
			handlers.NewStateSigner(keys.StateKey),
		),
		API:    handlers.NewAPIHandler(logger, esiClient, esiClient, aggregator, store),
		Health: handlers.NewHealthHandler(logger, store, Version),
	}

	trustedProxies, err := cfg.TrustedProxyPrefixes()
	if err != nil {
		return fmt.Errorf("trusted proxies: %w", err)
	}

	limiter := middleware.NewRateLimiter(cfg.SearchRateLimit, time.Minute, logger).
		WithTrustedProxies(trustedProxies)
	defer limiter.Stop()

	router := server.NewRouter(logger, prefix, h, resolver, limiter)

	logger.Info("TradeRouter starting",
		"version", Version,
		"url", cfg.URL,
		"prefix", prefix,
		"hubs", registry.Len(),
	)

	return server.New(cfg.ListenAddr, router, cfg.HTTPTimeout, logger).Run(ctx)
}

// newLogger создает JSON logger; при LOG_FILE пишет в файл с ротацией
func newLogger(cfg *config.Config) *slog.Logger {
	var w io.Writer = os.Stdout
	if cfg.LogFile != "" {
		w = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    64, // MB
			MaxBackups: 3,
			MaxAge:     14,
			Compress:   true,
		}
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func printVersion() {
	fmt.Printf("TradeRouter Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
