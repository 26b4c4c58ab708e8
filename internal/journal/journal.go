// Package journal persists computed ledgers, one row per matched pair.
package journal

import (
	"context"
	"strconv"
	"time"

	"broker-ledger/internal/interfaces"
	"broker-ledger/internal/types"
)

// Columns is the row layout shared by every journal.
var Columns = []string{
	"run_id", "account", "computed_at", "bot_trade",
	"symbol", "strike", "option_type",
	"buy_time", "sell_time", "buy_price", "sell_price", "qty", "gross_pnl",
	"buy_turnover", "sell_turnover", "brokerage", "stt", "exchange_txn", "sebi_fees", "stamp_duty", "gst",
	"total_charges", "net_pnl",
}

// rowValues flattens one ledger row in Columns order. Money stays in decimal
// text so nothing is lost to floats.
func rowValues(e types.JournalEntry, r types.LedgerRow) []string {
	c := r.Charges
	return []string{
		e.RunID, e.Account, formatTime(e.ComputedAt), strconv.FormatBool(e.BotTrade),
		r.Instrument.Symbol, r.Instrument.Strike, string(r.Instrument.OptionType),
		formatTime(r.BuyTime), formatTime(r.SellTime), r.BuyPrice.String(), r.SellPrice.String(),
		strconv.FormatInt(r.Quantity, 10), r.GrossPnL.String(),
		c.BuyTurnover.String(), c.SellTurnover.String(), c.Brokerage.String(), c.STT.String(),
		c.ExchangeTxn.String(), c.SEBIFees.String(), c.StampDuty.String(), c.GST.String(),
		c.Total.String(), r.NetPnL.String(),
	}
}

// Zero times are unparseable confirmations and are written empty.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

type nop struct{}

// Nop discards every ledger.
func Nop() interfaces.Journal { return nop{} }

func (nop) RecordLedger(context.Context, types.JournalEntry) error { return nil }
func (nop) Close() error                                            { return nil }
