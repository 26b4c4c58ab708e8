// Package eod writes the end-of-day summary of an account's ledger: one CSV
// per account per IST trading day, grouped by instrument, with a TOTAL row.
package eod

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"broker-ledger/internal/types"

	"github.com/shopspring/decimal"
)

var ist = time.FixedZone("IST", 19800)

// Summaries are due once the market has closed, 15:40 IST.
const closeHour, closeMinute = 15, 40

type aggRow struct {
	Instrument types.InstrumentKey
	Pairs      int
	Qty        int64
	Gross      decimal.Decimal
	Charges    decimal.Decimal
	Net        decimal.Decimal
}

type Summarizer struct {
	dir string
}

func New(dir string) *Summarizer {
	if dir == "" {
		dir = "logs"
	}
	return &Summarizer{dir: filepath.Join(dir, "eod")}
}

func (s *Summarizer) csvPath(account string, t time.Time) string {
	return filepath.Join(s.dir, account+"-"+t.In(ist).Format("2006-01-02")+".csv")
}

// ShouldRunNow reports whether the account's summary for now's trading day
// is due and not yet written.
func (s *Summarizer) ShouldRunNow(account string, now time.Time) (bool, string) {
	now = now.In(ist)
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), closeHour, closeMinute, 0, 0, ist)
	outPath := s.csvPath(account, now)
	if now.Before(cutoff) {
		return false, outPath
	}
	if _, err := os.Stat(outPath); errors.Is(err, os.ErrNotExist) {
		return true, outPath
	}
	return false, outPath
}

// SummarizeDay writes l grouped by instrument, in ledger order.
func (s *Summarizer) SummarizeDay(account string, t time.Time, l types.Ledger) (string, error) {
	var (
		order []types.InstrumentKey
		aggs  = map[types.InstrumentKey]*aggRow{}
	)
	for _, r := range l.Rows {
		row := aggs[r.Instrument]
		if row == nil {
			row = &aggRow{Instrument: r.Instrument}
			aggs[r.Instrument] = row
			order = append(order, r.Instrument)
		}
		row.Pairs++
		row.Qty += r.Quantity
		row.Gross = row.Gross.Add(r.GrossPnL)
		row.Charges = row.Charges.Add(r.Charges.Total)
		row.Net = row.Net.Add(r.NetPnL)
	}

	outPath := s.csvPath(account, t)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	headers := []string{"symbol", "strike", "option_type", "pairs", "qty", "gross_pnl", "charges", "net_pnl", "open_legs"}
	if err := w.Write(headers); err != nil {
		return "", err
	}
	for _, k := range order {
		r := aggs[k]
		rec := []string{
			k.Symbol, k.Strike, string(k.OptionType),
			strconv.Itoa(r.Pairs), strconv.FormatInt(r.Qty, 10),
			r.Gross.StringFixed(2), r.Charges.StringFixed(2), r.Net.StringFixed(2), "",
		}
		if err := w.Write(rec); err != nil {
			return "", err
		}
	}
	total := []string{"TOTAL", "", "", strconv.Itoa(len(l.Rows)), "",
		l.GrossPnL.StringFixed(2), l.TotalCharges.StringFixed(2), l.NetPnL.StringFixed(2), strconv.Itoa(len(l.OpenLegs))}
	if err := w.Write(total); err != nil {
		return "", err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return outPath, nil
}
