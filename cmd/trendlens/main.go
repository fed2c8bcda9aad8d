package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"TrendLens/internal/alert"
	"TrendLens/internal/collector"
	"TrendLens/internal/config"
	"TrendLens/internal/logging"
	"TrendLens/internal/metrics"
	"TrendLens/internal/notifier"
	"TrendLens/internal/recorder"
	"TrendLens/internal/scheduler"
	"TrendLens/internal/strategy"
)

func main() {
	defaultCfg := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultCfg = v
	}
	cfgPath := flag.String("config", defaultCfg, "path to the YAML config file")
	symbol := flag.String("symbol", "", "analyze one symbol, print the report and exit")
	useMock := flag.Bool("mock", false, "use generated price data instead of a live source")
	runNow := flag.Bool("run-now", os.Getenv("RUN_ON_START") == "true", "run the watchlist analysis once at startup")
	flag.Parse()

	if err := run(*cfgPath, *symbol, *useMock, *runNow); err != nil {
		fmt.Fprintln(os.Stderr, "trendlens:", err)
		os.Exit(1)
	}
}

func run(cfgPath, symbol string, useMock, runNow bool) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	var fetcher collector.Fetcher
	switch {
	case useMock:
		fetcher = &collector.MockFetcher{Price: 100}
	case cfg.DataSource.BaseURL != "":
		fetcher = collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	default:
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	logger.Info("data source selected", zap.String("source", fetcher.Name()))

	m := metrics.New()
	col := collector.NewCollector(fetcher, cfg.Params(), cfg.DataSource.HistoryDays, cfg.DataSource.Interval, m, logger)

	if symbol != "" {
		return oneShot(col, symbol)
	}
	return daemon(cfg, col, m, logger, runNow)
}

func oneShot(col *collector.Collector, symbol string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	a, err := col.Analyze(ctx, symbol)
	if err != nil {
		return err
	}
	fmt.Print(notifier.StripHTML(notifier.FormatAnalysisReport(a, strategy.Advise(a))))
	return nil
}

func daemon(cfg *config.Config, col *collector.Collector, m *metrics.Metrics, logger *zap.Logger, runNow bool) error {
	if err := cfg.RequireTelegram(); err != nil {
		return fmt.Errorf("daemon mode: %w", err)
	}
	logger.Info("TrendLens starting")

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, logger)

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger)
		if err != nil {
			logger.Warn("init sqlite recorder failed, using noop", zap.Error(err))
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	tracker, err := alert.NewTracker(cfg.Alerts.StatePath)
	if err != nil {
		return err
	}

	var ms *metrics.Server
	if cfg.Metrics.Addr != "" {
		ms = metrics.NewServer(cfg.Metrics.Addr, m, logger)
		ms.Start()
	}

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.NewScheduler(ctx, col, tn, rec, tracker,
		cfg.DataSource.Watchlist, cfg.Concurrency, logger)
	if err := sched.Register(cfg.Schedule.AnalysisCron); err != nil {
		return err
	}
	sched.Start()

	go tn.StartPolling(ctx, sched.HandleCommand)
	logger.Info("telegram polling started")

	if runNow {
		logger.Info("running watchlist analysis at startup")
		go sched.RunNow()
	}

	logger.Info("TrendLens is running, press Ctrl+C to stop")
	<-ctx.Done()

	logger.Info("shutdown signal received, stopping")
	sched.Stop()
	if ms != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ms.Stop(shutdownCtx); err != nil {
			logger.Warn("metrics server shutdown", zap.Error(err))
		}
	}
	logger.Info("TrendLens stopped")
	return nil
}
