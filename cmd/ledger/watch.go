package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"broker-ledger/internal/eod"
	"broker-ledger/internal/interfaces"
	"broker-ledger/internal/logger"
	"broker-ledger/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func newWatchCmd(a *app) *cobra.Command {
	var opts computeOpts

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Recompute ledgers on an interval and serve prometheus metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("bot") {
				opts.bot = a.cfg.BotTrade
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			j, err := newJournal(a.cfg)
			if err != nil {
				return err
			}
			defer j.Close()

			metrics.MustRegister()
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			srv := &http.Server{Addr: a.cfg.Watch.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.ErrorWithErr(ctx, "Metrics server stopped", err, "addr", srv.Addr)
				}
			}()
			defer func() {
				shutCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
				defer done()
				_ = srv.Shutdown(shutCtx)
			}()

			sigc := make(chan os.Signal, 1)
			signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigc)

			summ := eod.New(a.cfg.Recorder.Dir)

			tick := time.NewTicker(a.cfg.PollInterval())
			defer tick.Stop()

			logger.Info(ctx, "Watching ledgers", "interval", a.cfg.PollInterval().String(), "metrics_addr", srv.Addr)
			runOnce := func() {
				results, err := computeAll(ctx, a, j, opts)
				if err != nil {
					logger.ErrorWithErr(ctx, "Ledger pass had failures", err, "computed", len(results))
				}
				for _, r := range results {
					_ = printJSON(cmd.OutOrStdout(), r)
					writeEOD(ctx, summ, r)
				}
			}

			runOnce()
			for {
				select {
				case <-tick.C:
					runOnce()
				case <-sigc:
					logger.Info(ctx, "Shutting down...")
					return nil
				case <-ctx.Done():
					return nil
				}
			}
		},
	}

	cmd.Flags().StringSliceVar(&opts.accounts, "account", nil, "accounts to watch (default all)")
	cmd.Flags().BoolVar(&opts.bot, "bot", false, "bot trades: no per-leg brokerage (default from config)")
	return cmd
}

// writeEOD writes the account's day summary from the first pass after close.
func writeEOD(ctx context.Context, summ interfaces.EodSummarizer, r ledgerResult) {
	due, _ := summ.ShouldRunNow(r.Account, r.ComputedAt)
	if !due {
		return
	}
	path, err := summ.SummarizeDay(r.Account, r.ComputedAt, r.Ledger)
	if err != nil {
		logger.ErrorWithErr(ctx, "EOD summary failed", err, "account", r.Account)
		return
	}
	logger.Info(ctx, "EOD summary written", "account", r.Account, "path", path)
}
