package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"broker-ledger/internal/id"
	"broker-ledger/internal/interfaces"
	"broker-ledger/internal/logger"
	"broker-ledger/internal/store"
	"broker-ledger/internal/types"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type ledgerResult struct {
	Account    string       `json:"account"`
	RunID      string       `json:"run_id"`
	BotTrade   bool         `json:"bot_trade"`
	ComputedAt time.Time    `json:"computed_at"`
	Ledger     types.Ledger `json:"ledger"`
}

type computeOpts struct {
	accounts []string
	report   string
	bot      bool
}

func newComputeCmd(a *app) *cobra.Command {
	var opts computeOpts

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute today's realized PnL ledger for each account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("bot") {
				opts.bot = a.cfg.BotTrade
			}
			if opts.report != "" && len(opts.accounts) > 1 {
				return errors.New("--report replays one account, pass at most one --account")
			}
			if opts.report != "" && len(opts.accounts) == 0 {
				opts.accounts = []string{a.cfg.Accounts[0].Name}
			}

			j, err := newJournal(a.cfg)
			if err != nil {
				return err
			}
			defer j.Close()

			results, err := computeAll(cmd.Context(), a, j, opts)
			if perr := printJSON(cmd.OutOrStdout(), results); perr != nil {
				return perr
			}
			return err
		},
	}

	cmd.Flags().StringSliceVar(&opts.accounts, "account", nil, "accounts to compute (default all)")
	cmd.Flags().StringVar(&opts.report, "report", "", "compute from a saved order report JSON instead of the broker")
	cmd.Flags().BoolVar(&opts.bot, "bot", false, "bot trades: no per-leg brokerage (default from config)")
	return cmd
}

func selectAccounts(cfg *store.Config, names []string) ([]store.Account, error) {
	if len(names) == 0 {
		return cfg.Accounts, nil
	}
	out := make([]store.Account, 0, len(names))
	for _, n := range names {
		acct, ok := cfg.Account(n)
		if !ok {
			return nil, fmt.Errorf("unknown account %q", n)
		}
		out = append(out, acct)
	}
	return out, nil
}

// computeAll runs one ledger per account concurrently. A failing account does
// not stop the others; its error is returned alongside the ledgers that did
// compute.
func computeAll(ctx context.Context, a *app, j interfaces.Journal, opts computeOpts) ([]ledgerResult, error) {
	accts, err := selectAccounts(a.cfg, opts.accounts)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		results = make([]ledgerResult, 0, len(accts))
		errs    []error
	)
	var g errgroup.Group
	g.SetLimit(4)
	for _, acct := range accts {
		acct := acct
		g.Go(func() error {
			res, err := computeOne(ctx, a, j, acct, opts)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", acct.Name, err))
				return nil
			}
			results = append(results, res)
			return nil
		})
	}
	_ = g.Wait()
	return results, errors.Join(errs...)
}

func computeOne(ctx context.Context, a *app, j interfaces.Journal, acct store.Account, opts computeOpts) (ledgerResult, error) {
	op := logger.StartOperation(ctx, "ledger.computeAccount", "account", acct.Name)
	ctx = op.GetContext()

	ba, err := openAccount(ctx, a, acct, opts.report)
	if err != nil {
		op.EndWithError(err)
		return ledgerResult{}, err
	}

	l, err := ba.NetPnL(ctx, opts.bot)
	if err != nil {
		op.EndWithError(err)
		return ledgerResult{}, err
	}

	now := time.Now()
	res := ledgerResult{
		Account:    acct.Name,
		RunID:      id.NewRunID(now),
		BotTrade:   opts.bot,
		ComputedAt: now,
		Ledger:     l,
	}
	entry := types.JournalEntry{RunID: res.RunID, Account: acct.Name, BotTrade: opts.bot, ComputedAt: now, Ledger: l}
	if err := j.RecordLedger(ctx, entry); err != nil {
		op.EndWithError(err)
		return ledgerResult{}, fmt.Errorf("journal: %w", err)
	}

	op.End("run_id", res.RunID, "rows", len(l.Rows))
	return res, nil
}
