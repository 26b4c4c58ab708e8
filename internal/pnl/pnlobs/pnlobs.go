package pnlobs

import (
	"context"
	"errors"
	"time"

	"broker-ledger/internal/interfaces"
	"broker-ledger/internal/logger"
	"broker-ledger/internal/metrics"
	"broker-ledger/internal/pnl"
	"broker-ledger/internal/trace"
	"broker-ledger/internal/types"
)

type observableEngine struct {
	engine  interfaces.LedgerEngine
	account string
}

var _ interfaces.LedgerEngine = (*observableEngine)(nil)

// Wrap adds logging, tracing and metrics around a ledger engine. account
// labels everything it emits.
func Wrap(engine interfaces.LedgerEngine, account string) interfaces.LedgerEngine {
	return &observableEngine{engine: engine, account: account}
}

func (oe *observableEngine) Compute(ctx context.Context, report types.OrderReport, botTrade bool) (types.Ledger, error) {
	ctx, span := trace.StartSpan(ctx, "ledger.Compute")
	defer span.End()

	start := time.Now()
	records := 0
	if report.Data != nil {
		records = len(*report.Data)
	}

	logger.DebugSkip(ctx, 1, "Computing ledger",
		"account", oe.account,
		"records", records,
		"bot_trade", botTrade,
	)

	l, err := oe.engine.Compute(ctx, report, botTrade)
	if err != nil {
		metrics.LedgerRunsTotal.WithLabelValues(oe.account, failureStatus(err)).Inc()
		logger.ErrorWithErrSkip(ctx, 1, "Ledger computation failed", err,
			"account", oe.account,
			"records", records,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return types.Ledger{}, err
	}

	metrics.LedgerRunsTotal.WithLabelValues(oe.account, "ok").Inc()
	metrics.MatchedPairs.WithLabelValues(oe.account).Set(float64(len(l.Rows)))
	metrics.OpenLegs.WithLabelValues(oe.account).Set(float64(len(l.OpenLegs)))
	metrics.NetPnL.WithLabelValues(oe.account).Set(l.NetPnL.InexactFloat64())

	for _, d := range l.Dropped {
		metrics.DroppedRecordsTotal.WithLabelValues(oe.account, string(d.Reason)).Inc()
		logger.WarnSkip(ctx, 1, "Order record dropped",
			"account", oe.account,
			"index", d.Index,
			"reason", d.Reason,
			"value", d.Value,
		)
	}
	for _, o := range l.OpenLegs {
		logger.DebugSkip(ctx, 1, "Open leg left unmatched",
			"account", oe.account,
			"instrument", o.Instrument.String(),
			"side", o.Side,
			"qty", o.Quantity,
		)
	}

	logger.Ledger(ctx, oe.account, len(l.Rows), len(l.OpenLegs), len(l.Dropped), l.NetPnL.String(),
		"gross_pnl", l.GrossPnL.String(),
		"total_charges", l.TotalCharges.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return l, nil
}

func failureStatus(err error) string {
	switch {
	case errors.Is(err, pnl.ErrStructural):
		return "structural"
	case errors.Is(err, pnl.ErrInvariant):
		return "invariant"
	default:
		return "error"
	}
}
