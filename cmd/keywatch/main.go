package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/abelikov/keywatch/internal/accounts"
	"github.com/abelikov/keywatch/internal/config"
	"github.com/abelikov/keywatch/internal/filter"
	"github.com/abelikov/keywatch/internal/monitor"
	"github.com/abelikov/keywatch/internal/notify"
	"github.com/abelikov/keywatch/internal/registry"
	"github.com/abelikov/keywatch/internal/seen"
	"github.com/abelikov/keywatch/internal/status"
	"github.com/abelikov/keywatch/internal/telegram"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to the settings file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config from %s: %v\n", *cfgPath, err)
		os.Exit(1)
	}

	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level %q: %v\n", cfg.LogLevel, err)
		os.Exit(1)
	}
	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = level
	logger, err := logCfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store := accounts.NewStore(cfg.AccountsFile)

	var runErr error
	switch cmd := flag.Arg(0); cmd {
	case "add-account":
		runErr = runAddAccount(ctx, cfg, store, logger)
	case "", "run":
		runErr = runMonitor(ctx, cfg, store, logger)
	default:
		runErr = fmt.Errorf("unknown command %q (expected run or add-account)", cmd)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}
}

func runMonitor(ctx context.Context, cfg *config.Settings, store *accounts.Store, logger *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	accts, err := store.Load()
	if err != nil {
		return err
	}
	if len(accts) == 0 {
		return errors.New("no accounts configured; run keywatch add-account first")
	}

	cache, err := seen.Open(cfg.SeenFile, time.Now())
	if err != nil {
		return err
	}

	presenter := status.NewLog(logger)

	dispatcher := notify.NewDispatcher(notify.Config{
		BaseURL:  cfg.BotAPIURL,
		Token:    cfg.BotToken,
		AdminIDs: cfg.AdminIDs,
	}, logger.Named("notify"))
	dispatcher.SetOnFailure(presenter.NotificationFailed)

	m := monitor.New(
		cfg.APIID,
		cfg.APIHash,
		filter.New(cfg.Keywords, cfg.StopWords, cfg.Watchlist),
		cache,
		registry.New(),
		dispatcher,
		presenter,
		logger.Named("monitor"),
	)
	return m.Run(ctx, accts)
}

func runAddAccount(ctx context.Context, cfg *config.Settings, store *accounts.Store, logger *zap.Logger) error {
	if cfg.APIID == 0 || cfg.APIHash == "" {
		return errors.New("api_id and api_hash must be configured")
	}

	authFlow := telegram.NewTermAuth(os.Stdin, os.Stdout)
	acc, err := telegram.Onboard(ctx, cfg.APIID, cfg.APIHash, authFlow, logger.Named("onboard"))
	if err != nil {
		return fmt.Errorf("add account: %w", err)
	}

	added, err := store.Add(acc)
	if err != nil {
		return err
	}
	if !added {
		fmt.Printf("Account %s is already configured\n", acc.Name)
		return nil
	}
	fmt.Printf("Account %s added\n", acc.Name)
	return nil
}
