package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"broker-ledger/internal/broker"
	"broker-ledger/internal/broker/brokerobs"
	"broker-ledger/internal/broker/file"
	"broker-ledger/internal/broker/guard"
	"broker-ledger/internal/broker/kite"
	"broker-ledger/internal/interfaces"
	"broker-ledger/internal/journal"
	"broker-ledger/internal/logger"
	"broker-ledger/internal/pnl"
	"broker-ledger/internal/pnl/pnlobs"
	"broker-ledger/internal/recorder"
	"broker-ledger/internal/store"
	"broker-ledger/internal/trace"
	"broker-ledger/internal/types"

	"github.com/joho/godotenv"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// initializeSystem initializes logger and tracer
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

func loadConfig(ctx context.Context, path string) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	if cfg.Mode == "DRY_RUN" {
		logger.Warn(ctx, "Running in DRY_RUN mode - orders will be simulated")
	}
	return cfg, nil
}

// compressOldLogs gzips audit files past the retention window
func compressOldLogs(ctx context.Context, rec *recorder.Recorder, days int) {
	if err := rec.CompressOlder(days); err != nil {
		logger.Warn(ctx, "Failed to compress old audit logs", "error", err, "dir", rec.Dir())
	}
}

// newGateway builds the account's gateway: base broker, then guard, then
// observability on the outside.
func newGateway(ctx context.Context, cfg *store.Config, acct store.Account, reportOverride string) interfaces.Gateway {
	var base interfaces.Gateway
	switch {
	case reportOverride != "":
		base = file.New(reportOverride)
	case cfg.Gateway == "FILE":
		base = file.New(acct.OrderReportFile)
	default:
		base = kite.New(kite.Params{Mode: cfg.Mode, Exchange: cfg.Exchange, Product: cfg.Product})
	}

	cbs := guard.NewManager(guard.Rule{
		Timeout:                 time.Duration(cfg.Guard.BreakerTimeoutSeconds) * time.Second,
		TripConsecutiveFailures: cfg.Guard.BreakerConsecutiveFailures,
	}, nil)
	cbs.OnStateChange(func(method string, from, to gobreaker.State) {
		logger.Warn(ctx, "Gateway circuit breaker changed state",
			"account", acct.Name, "method", method, "from", from.String(), "to", to.String())
	})
	limiter := rate.NewLimiter(rate.Limit(cfg.Guard.RatePerSecond), cfg.Guard.Burst)

	return brokerobs.Wrap(guard.Wrap(base, limiter, cbs), acct.Name)
}

func newEngine(cfg *store.Config, account string) interfaces.LedgerEngine {
	return pnlobs.Wrap(pnl.NewEngine(cfg.PnLConfig()), account)
}

func newJournal(cfg *store.Config) (interfaces.Journal, error) {
	switch cfg.Journal.Type {
	case "csv":
		return journal.NewCSV(cfg.Journal.CSVPath)
	case "sqlite":
		return journal.NewSQLite(cfg.Journal.DBPath)
	default:
		return journal.Nop(), nil
	}
}

func credentialsFor(acct store.Account) types.Credentials {
	return types.Credentials{
		APIKey:      acct.APIKey(),
		APISecret:   acct.APISecret(),
		AccessToken: acct.AccessToken(),
	}
}

// openAccount builds an account and logs it in with the credentials found in
// its env vars.
func openAccount(ctx context.Context, a *app, acct store.Account, reportOverride string) (*broker.Account, error) {
	gw := newGateway(ctx, a.cfg, acct, reportOverride)
	ba := broker.NewAccount(acct.Name, gw, newEngine(a.cfg, acct.Name), a.rec)
	if _, err := ba.Login(ctx, credentialsFor(acct)); err != nil {
		return nil, fmt.Errorf("account %s: %w", acct.Name, err)
	}
	return ba, nil
}
