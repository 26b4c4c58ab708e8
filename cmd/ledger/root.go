package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"broker-ledger/internal/recorder"
	"broker-ledger/internal/store"
	"broker-ledger/internal/trace"

	"github.com/spf13/cobra"
)

// app is what every subcommand shares once the root has loaded config.
type app struct {
	cfgPath string
	cfg     *store.Config
	rec     *recorder.Recorder
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Broker client and realized PnL ledger for Indian F&O accounts",
		Long: `ledger talks to a broker account and reconstructs the day's realized PnL.

Orders are paired per instrument in confirmation order, charged under the NSE
options fee schedule and written to the configured journal.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initializeSystem(); err != nil {
				return err
			}
			cfg, err := loadConfig(cmd.Context(), a.cfgPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.rec = recorder.New(cfg.Recorder.Dir)
			compressOldLogs(cmd.Context(), a.rec, cfg.Recorder.RetentionDays)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return trace.Shutdown(context.Background())
		},
	}

	cmd.PersistentFlags().StringVar(&a.cfgPath, "config", "config.yaml", "path to the YAML config")

	cmd.AddCommand(
		newComputeCmd(a),
		newWatchCmd(a),
		newLoginCmd(a),
		newPositionsCmd(a),
		newFundsCmd(a),
		newOrderCmd(a),
	)
	return cmd
}

// account resolves --account, defaulting to the first configured one.
func (a *app) account(name string) (store.Account, error) {
	if name == "" {
		return a.cfg.Accounts[0], nil
	}
	acct, ok := a.cfg.Account(name)
	if !ok {
		return store.Account{}, fmt.Errorf("unknown account %q", name)
	}
	return acct, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
