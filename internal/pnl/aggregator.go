package pnl

import (
	"errors"
	"fmt"

	"broker-ledger/internal/charges"
	"broker-ledger/internal/types"

	"github.com/shopspring/decimal"
)

var (
	// ErrStructural means the order report could not be read as a list of
	// records at all. Callers may re-fetch and retry.
	ErrStructural = errors.New("order report is structurally malformed")
	// ErrInvariant means a value that upstream stages guarantee was broken.
	// It signals a bug, not bad input.
	ErrInvariant = errors.New("ledger invariant violated")
)

// Config controls one ledger computation.
type Config struct {
	Schedule  charges.Schedule
	Normalize NormalizeOptions
}

func DefaultConfig() Config {
	return Config{Schedule: charges.NSEOptions()}
}

// Aggregate applies the charge schedule to every pair and derives net PnL.
func Aggregate(pairs []types.MatchedTradePair, schedule charges.Schedule, botTrade bool) ([]types.LedgerRow, error) {
	brokerage := schedule.BrokerageFor(botTrade)
	rows := make([]types.LedgerRow, 0, len(pairs))
	for i, p := range pairs {
		c, err := schedule.Compute(p.BuyPrice, p.SellPrice, p.Quantity, brokerage)
		if err != nil {
			return nil, fmt.Errorf("%w: pair %d (%s): %w", ErrInvariant, i, p.Instrument, err)
		}
		rows = append(rows, types.LedgerRow{
			MatchedTradePair: p,
			Charges:          c,
			NetPnL:           p.GrossPnL.Sub(c.Total),
		})
	}
	return rows, nil
}

// ComputeLedger runs normalize, match and aggregate over raw records.
// Malformed records are reported in Ledger.Dropped, never as an error.
func ComputeLedger(raw []types.RawOrderRecord, botTrade bool, cfg Config) (types.Ledger, error) {
	trades, dropped := Normalize(raw, cfg.Normalize)
	pairs, open := Match(trades)
	rows, err := Aggregate(pairs, cfg.Schedule, botTrade)
	if err != nil {
		return types.Ledger{}, err
	}

	l := types.Ledger{
		Rows:         rows,
		OpenLegs:     open,
		Dropped:      dropped,
		GrossPnL:     decimal.Zero,
		TotalCharges: decimal.Zero,
		NetPnL:       decimal.Zero,
	}
	for _, r := range rows {
		l.GrossPnL = l.GrossPnL.Add(r.GrossPnL)
		l.TotalCharges = l.TotalCharges.Add(r.Charges.Total)
		l.NetPnL = l.NetPnL.Add(r.NetPnL)
	}
	return l, nil
}

// ComputeReport is ComputeLedger over a report envelope. A report without a
// record list fails with ErrStructural so the caller can tell it apart from
// a day with no trades.
func ComputeReport(report types.OrderReport, botTrade bool, cfg Config) (types.Ledger, error) {
	if report.Data == nil {
		reason := report.Message
		if reason == "" {
			reason = "missing data field"
		}
		return types.Ledger{}, fmt.Errorf("%w: %s", ErrStructural, reason)
	}
	return ComputeLedger(*report.Data, botTrade, cfg)
}
