package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Vodeneev/overunder/internal/pkg/browser"
	pkgconfig "github.com/Vodeneev/overunder/internal/pkg/config"
	"github.com/Vodeneev/overunder/internal/pkg/health"
	"github.com/Vodeneev/overunder/internal/pkg/logging"
	"github.com/Vodeneev/overunder/internal/pkg/notify"
	"github.com/Vodeneev/overunder/internal/pkg/runstats"
	"github.com/Vodeneev/overunder/internal/pkg/storage"
	"github.com/Vodeneev/overunder/internal/scraper"
)

const (
	defaultConfigPath = "configs/scraper.yaml"
	serviceName       = "scraper"
)

type config struct {
	configPath string
	once       bool
	dryRun     bool
	weeks      int
	runFor     time.Duration
}

func main() {
	if err := run(); err != nil {
		slog.Error("Scraper failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := parseFlags()
	slog.Info("Loading config", "path", cfg.configPath)

	appConfig, err := pkgconfig.Load(cfg.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.dryRun {
		appConfig.Storage.Kind = storage.KindNone
	}
	if cfg.weeks > 0 {
		appConfig.Scraper.Weeks = cfg.weeks
	}

	_, logCloser, err := logging.Setup(&appConfig.Logging, serviceName)
	if err != nil {
		slog.Warn("Failed to setup logging, continuing with default logger", "error", err)
	} else {
		defer logCloser.Close()
	}

	sink, err := storage.Open(&appConfig.Storage)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			slog.Warn("Failed to close storage", "error", err)
		}
	}()

	runCfg, err := scraper.RunConfigFrom(appConfig.Scraper)
	if err != nil {
		return err
	}

	tracker := runstats.NewTracker()
	launcher := browser.Chrome(browser.Options{
		Headful:   appConfig.Browser.Headful,
		NoSandbox: appConfig.Browser.NoSandbox,
		UserAgent: appConfig.Browser.UserAgent,
		ExecPath:  appConfig.Browser.ExecPath,
		OpTimeout: appConfig.Browser.OpTimeout,
		Debug:     appConfig.Browser.Debug,
	})
	runner := scraper.NewRunner(runCfg, launcher, sink, scraper.WithTracker(tracker))
	job := scraper.NewJob(runner, newNotifier(appConfig.Telegram))

	ctx, cancel := createContext(cfg.runFor)
	defer cancel()
	setupSignalHandler(ctx, cancel)

	if port := appConfig.Health.Port; port > 0 {
		trigger := func() bool { return job.Trigger(ctx) }
		if err := health.Run(ctx, health.AddrFor(port), serviceName, tracker, trigger, appConfig.Health.ReadHeaderTimeout); err != nil {
			return fmt.Errorf("failed to start health server: %w", err)
		}
	}

	if cfg.once || appConfig.Scraper.Schedule == "" {
		slog.Info("Running a single season pass", "weeks", runCfg.Weeks, "url", runCfg.BaseURL)
		_, err := job.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	return scraper.Schedule(ctx, appConfig.Scraper.Schedule, runCfg.Location, job)
}

func parseFlags() config {
	var cfg config

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}

	flag.StringVar(&cfg.configPath, "config", defaultConfig, "Path to config file (can be set via CONFIG_PATH env var)")
	flag.BoolVar(&cfg.once, "once", false, "Run one season pass and exit, ignoring scraper.schedule")
	flag.BoolVar(&cfg.dryRun, "dry-run", false, "Scrape without storing records")
	flag.IntVar(&cfg.weeks, "weeks", 0, "Override scraper.weeks. 0 = use config")
	flag.DurationVar(&cfg.runFor, "run-for", 0, "Auto-stop after duration (e.g. 10m). 0 = run until SIGINT/SIGTERM")
	flag.Parse()
	return cfg
}

func newNotifier(cfg pkgconfig.TelegramConfig) notify.Notifier {
	if !cfg.Enabled {
		return notify.Nop{}
	}
	n, err := notify.NewTelegram(cfg.BotToken, cfg.ChatID)
	if err != nil {
		slog.Warn("Telegram notifications disabled", "error", err)
		return notify.Nop{}
	}
	return n
}

func createContext(runFor time.Duration) (context.Context, context.CancelFunc) {
	if runFor > 0 {
		return context.WithTimeout(context.Background(), runFor)
	}
	return context.WithCancel(context.Background())
}

func setupSignalHandler(ctx context.Context, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("Received shutdown signal, stopping scraper...", "signal", sig.String())
			cancel()
		case <-ctx.Done():
			signal.Stop(sigChan)
		}
	}()
}
