package pnl

import (
	"strings"
	"time"

	"broker-ledger/internal/types"

	"github.com/shopspring/decimal"
)

// ConfirmLayout is the broker's confirmation timestamp layout, e.g.
// "15-Jan-2024 09:31:05".
const ConfirmLayout = "02-Jan-2006 15:04:05"

// IST is the zone confirmation timestamps are reported in.
var IST = time.FixedZone("IST", 19800)

type NormalizeOptions struct {
	// Statuses, when non-empty, keeps only records whose status matches one
	// of the entries (case-insensitive).
	Statuses []string
	Layout   string
	Location *time.Location
}

func (o NormalizeOptions) withDefaults() NormalizeOptions {
	if o.Layout == "" {
		o.Layout = ConfirmLayout
	}
	if o.Location == nil {
		o.Location = IST
	}
	return o
}

// Normalize converts raw records into typed trades. Records that cannot be
// converted are returned as dropped; a bad timestamp alone does not drop a
// record.
func Normalize(raw []types.RawOrderRecord, opts NormalizeOptions) ([]types.NormalizedTrade, []types.DroppedRecord) {
	opts = opts.withDefaults()
	allowed := make(map[string]struct{}, len(opts.Statuses))
	for _, s := range opts.Statuses {
		allowed[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}

	out := make([]types.NormalizedTrade, 0, len(raw))
	var dropped []types.DroppedRecord
	for i, r := range raw {
		nt, reason, val := normalizeOne(r, opts)
		if reason == "" && len(allowed) > 0 {
			if _, ok := allowed[strings.ToLower(nt.Status)]; !ok {
				reason, val = types.DropStatusFiltered, nt.Status
			}
		}
		if reason != "" {
			dropped = append(dropped, types.DroppedRecord{Index: i, Reason: reason, Value: val})
			continue
		}
		nt.Seq = i
		out = append(out, nt)
	}
	return out, dropped
}

func normalizeOne(r types.RawOrderRecord, opts NormalizeOptions) (types.NormalizedTrade, types.DropReason, string) {
	var nt types.NormalizedTrade

	side, ok := parseSide(r.Side.String())
	if !ok {
		return nt, types.DropBadSide, r.Side.String()
	}
	price, err := decimal.NewFromString(r.AvgPrice.String())
	if err != nil || price.IsNegative() {
		return nt, types.DropBadPrice, r.AvgPrice.String()
	}
	qty, ok := parseQuantity(r.Quantity.String())
	if !ok {
		return nt, types.DropBadQuantity, r.Quantity.String()
	}
	symbol := r.Symbol.String()
	if symbol == "" {
		return nt, types.DropBadSymbol, ""
	}
	strike, ok := parseStrike(r.Strike.String())
	if !ok {
		return nt, types.DropBadStrike, r.Strike.String()
	}
	optType, ok := parseOptionType(r.OptionType.String())
	if !ok {
		return nt, types.DropBadOptionType, r.OptionType.String()
	}

	nt = types.NormalizedTrade{
		Time:       parseTime(r.ConfirmedAt.String(), opts),
		Instrument: types.InstrumentKey{Symbol: symbol, Strike: strike, OptionType: optType},
		Segment:    r.Segment.String(),
		Side:       side,
		Price:      price,
		Quantity:   qty,
		Status:     r.Status.String(),
	}
	return nt, "", ""
}

func parseTime(s string, opts NormalizeOptions) time.Time {
	t, err := time.ParseInLocation(opts.Layout, s, opts.Location)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseSide(s string) (types.Side, bool) {
	switch strings.ToUpper(s) {
	case "B", "BUY":
		return types.SideBuy, true
	case "S", "SELL":
		return types.SideSell, true
	}
	return "", false
}

// parseQuantity accepts integral values only, including "50.0". Values past
// int64 are malformed.
func parseQuantity(s string) (int64, bool) {
	q, err := decimal.NewFromString(s)
	if err != nil || !q.IsInteger() || !q.IsPositive() || !q.BigInt().IsInt64() {
		return 0, false
	}
	return q.IntPart(), true
}

func parseStrike(s string) (string, bool) {
	switch strings.ToUpper(s) {
	case "", "-", "NA":
		return "", true
	}
	v, err := decimal.NewFromString(s)
	if err != nil || v.IsNegative() {
		return "", false
	}
	return v.String(), true
}

func parseOptionType(s string) (types.OptionType, bool) {
	switch strings.ToUpper(s) {
	case "", "XX", "-", "NA":
		return types.OptionNone, true
	case "CE", "CALL", "C":
		return types.OptionCall, true
	case "PE", "PUT", "P":
		return types.OptionPut, true
	}
	return "", false
}
