// Command triarb runs the triangular-arbitrage engine: discover
// triangles over a base currency, ingest top-of-book streams, detect
// profitable cycles, and (unless -dry-run) execute them.
//
// Adapted from AlejandroRuiz99-polybot's cmd/scanner/main.go: same
// flag-parsed config path + verbose/format overrides + slog setup +
// signal.NotifyContext graceful-shutdown shape, rewired from the
// scanner/storage/polymarket wiring to this engine's
// catalog -> triangle -> bbo -> ingest -> detector -> risk -> executor
// -> recovery -> telemetry -> notify pipeline.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/triarb/triarb/config"
	"github.com/triarb/triarb/internal/adapters/binance"
	"github.com/triarb/triarb/internal/adapters/notify"
	"github.com/triarb/triarb/internal/bbo"
	"github.com/triarb/triarb/internal/calc"
	"github.com/triarb/triarb/internal/catalog"
	"github.com/triarb/triarb/internal/detector"
	"github.com/triarb/triarb/internal/domain"
	"github.com/triarb/triarb/internal/executor"
	"github.com/triarb/triarb/internal/ingest"
	"github.com/triarb/triarb/internal/ratelimit"
	"github.com/triarb/triarb/internal/recovery"
	"github.com/triarb/triarb/internal/risk"
	"github.com/triarb/triarb/internal/telemetry"
	"github.com/triarb/triarb/internal/triangle"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	dryRun := flag.Bool("dry-run", false, "simulate executions instead of placing real orders")
	table := flag.Bool("table", false, "print full opportunity table (default: compact 1-line)")
	metricsAddr := flag.String("metrics-addr", ":9090", "address to serve /metrics on")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *dryRun {
		cfg.Execution.DryRun = true
	}
	setupLogger(cfg.Log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("triarb starting",
		"config", *configPath,
		"base_currency", cfg.Arbitrage.BaseCurrency,
		"dry_run", cfg.Execution.DryRun,
	)

	limiter := ratelimit.New(cfg.Exchange.RequestsPerSecond, cfg.Exchange.OrdersPerSecond, cfg.Exchange.WeightPerMinute)
	transport := binance.New(cfg.BinanceAPIKey, cfg.BinanceAPISecret, cfg.Exchange.WSBase, limiter)

	info, err := transport.GetExchangeInfo(ctx)
	if err != nil {
		slog.Error("failed to fetch exchange info", "err", err)
		os.Exit(1)
	}

	cat, err := catalog.New(info)
	if err != nil {
		slog.Error("failed to build symbol catalog", "err", err)
		os.Exit(1)
	}
	slog.Info("catalog built", "symbols", len(cat.All()))

	triangles := triangle.Discover(cat, cfg.Arbitrage.BaseCurrency, cfg.Arbitrage.MaxTriangles)
	slog.Info("triangles discovered", "count", len(triangles.Paths()))

	balance, err := transport.GetBalance(ctx, cfg.Arbitrage.BaseCurrency)
	if err != nil {
		slog.Error("failed to fetch starting balance", "err", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	metrics := telemetry.New(registry)
	go serveMetrics(*metricsAddr, registry)

	cache := bbo.New()
	calculator := calc.New(cfg.Arbitrage.FeeRate)
	det := detector.New(triangles, cache, calculator, cfg.Arbitrage.MinProfitThreshold)

	riskLimits := domain.RiskLimits{
		MaxPositionPct:         cfg.Risk.MaxPositionPct,
		MaxTradeSize:           cfg.Risk.MaxTradeSize,
		MinTradeSize:           cfg.Risk.MinTradeSize,
		DailyLossLimit:         cfg.Risk.DailyLossLimit,
		MaxDailyTrades:         cfg.Risk.MaxDailyTrades,
		MaxConcurrentPositions: cfg.Risk.MaxConcurrentPositions,
		MinTimeBetweenTradesMs: cfg.Risk.MinTimeBetweenTradesMs,
		MaxHoldTimeMs:          cfg.Risk.MaxHoldTimeMs,
	}
	riskMgr := risk.New(balance, riskLimits)

	liquidator := recovery.New(transport, cat, cfg.Arbitrage.BaseCurrency)

	exec := executor.New(executor.Config{
		UseMarketOrders: cfg.Execution.UseMarketOrders,
		SlippageBuffer:  cfg.Execution.SlippageBuffer,
		OrderTimeoutMs:  cfg.Execution.OrderTimeoutMs,
		DryRun:          cfg.Execution.DryRun,
		FeeRate:         cfg.Arbitrage.FeeRate,
	}, transport, cat, riskMgr, liquidator, metrics)

	notifier := notify.NewConsole(*table)

	det.OnOpportunity(func(opp domain.Opportunity) {
		metrics.IncOpportunities(opp.Path.ID)
		if err := notifier.NotifyOpportunities(ctx, []domain.Opportunity{opp}); err != nil {
			slog.Warn("notifier error", "err", err)
		}

		result, err := exec.Execute(ctx, opp)
		if err != nil {
			slog.Warn("execution error", "triangle", opp.Path.ID, "err", err)
			return
		}
		if err := notifier.NotifyExecution(ctx, *result); err != nil {
			slog.Warn("notifier error", "err", err)
		}
	})

	symbols := make([]string, 0, len(cat.All()))
	for _, s := range cat.All() {
		symbols = append(symbols, s.Symbol)
	}

	ingestor := ingest.New(transport, cache, symbols, func(symbol string) { det.OnTick(symbol) })

	slog.Info("triarb running", "symbols", len(symbols))
	ingestor.Run(ctx)

	slog.Info("triarb stopped cleanly")
}

func serveMetrics(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Warn("metrics server stopped", "err", err)
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
