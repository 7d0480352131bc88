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

	"github.com/kjannette/bullionaire-backend/internal/api"
	"github.com/kjannette/bullionaire-backend/internal/bot"
	"github.com/kjannette/bullionaire-backend/internal/config"
	"github.com/kjannette/bullionaire-backend/internal/external"
	"github.com/kjannette/bullionaire-backend/internal/logger"
	"github.com/kjannette/bullionaire-backend/internal/market"
	"github.com/kjannette/bullionaire-backend/internal/notifications"
	"github.com/kjannette/bullionaire-backend/internal/oracle"
	"github.com/kjannette/bullionaire-backend/internal/risk"
	"golang.org/x/sync/errgroup"
)

const banner = `
╔══════════════════════════════════════╗
║   BULLIONAIRE XAUUSD Trading Bot     ║
║                                      ║
╚══════════════════════════════════════╝
`

func main() {
	fmt.Print(banner)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	cfg.Print()

	logger.Init(logger.Options{
		Level:      cfg.LogLevel,
		Output:     cfg.LogOutput,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Named("MAIN").Errorf("Fatal: %v", err)
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	log := logger.Named("MAIN")

	// Graceful shutdown context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer store.close()

	decider, err := newOracle(ctx, cfg)
	if err != nil {
		return fmt.Errorf("oracle: %w", err)
	}

	notify := notifications.NewSender(cfg.WebhookURL, cfg.BotName)

	recorder := bot.NewRecorder(store.activity, bot.RecorderOptions{
		WriteTimeout: cfg.WriteTimeout,
		OnError:      bot.FailureReporter(store.activity, notify, cfg.WriteTimeout),
	})
	defer recorder.Close()

	pnl := bot.NewPnL(store.ledger, cfg.TradingDayCutoffHourUTC)
	svc := bot.NewService(bot.Deps{
		Accounts: store.accounts,
		Ledger:   store.ledger,
		Market:   newMarket(cfg),
		Oracle:   decider,
		Guard:    risk.NewGuardian(pnl),
		PnL:      pnl,
		Recorder: recorder,
		Notifier: notify,
	}, bot.Options{
		Symbol:          cfg.MarketSymbol,
		Interval:        cfg.CycleInterval,
		SnapshotTimeout: cfg.SnapshotTimeout,
		OracleTimeout:   cfg.OracleTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		PipMultiplier:   cfg.PipMultiplier,
	})

	srv := api.NewServer(api.Options{
		Port:       cfg.APIPort,
		APIKey:     cfg.APIKey,
		CORSOrigin: cfg.CORSAllowOrigin,
	}, store.api, svc)

	g, gctx := errgroup.WithContext(ctx)

	// 1. API server
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})

	// 2. Decision cycles for accounts left with auto trading on
	g.Go(func() error {
		return svc.Run(gctx)
	})

	// 3. Shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("API shutdown error: %v", err)
		}
		log.Info("API server closed")
		return nil
	})

	log.Info("All services started successfully")
	err = g.Wait()
	log.Info("Shutdown complete")
	return err
}

func newOracle(ctx context.Context, cfg *config.Config) (oracle.Oracle, error) {
	if cfg.OracleProvider == "llm" {
		logger.Named("ORACLE").Infof("Using LLM oracle %s", cfg.LLMModel)
		return oracle.NewLLMOracle(ctx, oracle.LLMOptions{
			BaseURL: cfg.LLMBaseURL,
			APIKey:  cfg.LLMAPIKey,
			Model:   cfg.LLMModel,
		})
	}
	logger.Named("ORACLE").Info("Using rule oracle")
	opts := oracle.DefaultRuleOptions
	opts.PipMultiplier = cfg.PipMultiplier
	return oracle.NewRuleOracle(opts), nil
}

func newMarket(cfg *config.Config) *market.Provider {
	if cfg.FXAPIKey == "" {
		return market.NewProvider(nil, cfg.MarketSymbol, cfg.MarketCandleCount)
	}
	client := external.NewFxAPIClient(external.FxAPIOptions{
		BaseURL:  cfg.FXAPIBaseURL,
		APIKey:   cfg.FXAPIKey,
		Interval: cfg.MarketCandleInterval,
		Timeout:  cfg.SnapshotTimeout,
	})
	return market.NewProvider(client, cfg.MarketSymbol, cfg.MarketCandleCount)
}
