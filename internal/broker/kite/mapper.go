package kite

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"broker-ledger/internal/pnl"
	"broker-ledger/internal/types"

	"github.com/shopspring/decimal"
	kiteconnect "github.com/zerodha/gokiteconnect/v4"
)

const simPrefix = "SIM-"

var (
	// NIFTY24JAN21500CE
	monthlyOption = regexp.MustCompile(`^([A-Z&-]+\d{2}[A-Z]{3})(\d+(?:\.\d+)?)(CE|PE)$`)
	// BANKNIFTY2411747000PE: year, month digit (or O/N/D), day
	weeklyOption = regexp.MustCompile(`^([A-Z&-]+\d{2}[1-9OND]\d{2})(\d+(?:\.\d+)?)(CE|PE)$`)
)

var segments = map[string]string{
	"NSE": "nse_cm",
	"BSE": "bse_cm",
	"NFO": "nse_fo",
	"BFO": "bse_fo",
	"CDS": "cde_fo",
	"MCX": "mcx_fo",
}

// parseTradingSymbol splits an option trading symbol into the underlying
// with expiry, the strike and CE/PE. Anything else comes back whole with an
// empty strike and option type.
func parseTradingSymbol(ts string) (symbol, strike, optType string) {
	ts = strings.ToUpper(strings.TrimSpace(ts))
	for _, re := range []*regexp.Regexp{monthlyOption, weeklyOption} {
		if m := re.FindStringSubmatch(ts); m != nil {
			return m[1], m[2], m[3]
		}
	}
	return ts, "", ""
}

func segmentFor(exchange string) string {
	if s, ok := segments[strings.ToUpper(exchange)]; ok {
		return s
	}
	return strings.ToLower(exchange)
}

// kiteTime returns the wall clock of a Kite timestamp. Kite sends IST
// without a zone, so the digits are kept as they are.
func kiteTime(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, pnl.IST)
}

// ordersToReport turns the day's order book into a report. Orders with no
// fills never traded and are left out.
func ordersToReport(orders kiteconnect.Orders) types.OrderReport {
	records := make([]types.RawOrderRecord, 0, len(orders))
	for _, o := range orders {
		if int64(o.FilledQuantity) <= 0 {
			continue
		}
		records = append(records, orderToRecord(o))
	}
	return types.NewOrderReport(records)
}

func orderToRecord(o kiteconnect.Order) types.RawOrderRecord {
	ts := o.ExchangeTimestamp.Time
	if ts.IsZero() {
		ts = o.OrderTimestamp.Time
	}
	var confirmed string
	if !ts.IsZero() {
		confirmed = kiteTime(ts).Format(pnl.ConfirmLayout)
	}

	symbol, strike, optType := parseTradingSymbol(o.TradingSymbol)
	return types.RawOrderRecord{
		ConfirmedAt: types.Text(confirmed),
		Segment:     types.Text(segmentFor(o.Exchange)),
		AvgPrice:    types.Text(decimal.NewFromFloat(float64(o.AveragePrice)).String()),
		Quantity:    types.Text(strconv.FormatInt(int64(o.FilledQuantity), 10)),
		Symbol:      types.Text(symbol),
		Strike:      types.Text(strike),
		OptionType:  types.Text(optType),
		Side:        types.Text(o.TransactionType),
		Status:      types.Text(strings.ToLower(o.Status)),
	}
}

func orderToStatus(o kiteconnect.Order) types.OrderStatus {
	return types.OrderStatus{
		OrderID:   o.OrderID,
		Status:    strings.ToUpper(o.Status),
		Symbol:    o.TradingSymbol,
		Side:      types.Side(strings.ToUpper(o.TransactionType)),
		Qty:       int64(o.Quantity),
		FilledQty: int64(o.FilledQuantity),
		AvgPrice:  decimal.NewFromFloat(float64(o.AveragePrice)),
		UpdatedAt: kiteTime(o.ExchangeTimestamp.Time),
	}
}

func tradeToFill(t kiteconnect.Trade) types.Fill {
	return types.Fill{
		TradeID:  t.TradeID,
		OrderID:  t.OrderID,
		AvgPrice: decimal.NewFromFloat(float64(t.AveragePrice)),
		Qty:      int64(t.Quantity),
		FilledAt: kiteTime(t.FillTimestamp.Time),
	}
}

func positionFrom(p kiteconnect.Position) types.Position {
	return types.Position{
		Symbol:   p.Tradingsymbol,
		Segment:  segmentFor(p.Exchange),
		Product:  p.Product,
		NetQty:   int64(p.Quantity),
		BuyQty:   int64(p.BuyQuantity),
		SellQty:  int64(p.SellQuantity),
		AvgPrice: decimal.NewFromFloat(float64(p.AveragePrice)),
		PnL:      decimal.NewFromFloat(float64(p.PnL)),
	}
}

func holdingFrom(h kiteconnect.Holding) types.Holding {
	return types.Holding{
		Symbol:    h.Tradingsymbol,
		Segment:   segmentFor(h.Exchange),
		Qty:       int64(h.Quantity),
		AvgPrice:  decimal.NewFromFloat(float64(h.AveragePrice)),
		LastPrice: decimal.NewFromFloat(float64(h.LastPrice)),
		PnL:       decimal.NewFromFloat(float64(h.PnL)),
	}
}

func limitsFrom(m kiteconnect.AllMargins) types.Limits {
	return types.Limits{
		Net:       decimal.NewFromFloat(float64(m.Equity.Net)),
		Available: decimal.NewFromFloat(float64(m.Equity.Available.Cash)),
		Used:      decimal.NewFromFloat(float64(m.Equity.Used.Debits)),
	}
}

func isSimulated(orderID string) bool { return strings.HasPrefix(orderID, simPrefix) }

// simulatedStatus reports DRY_RUN orders as filled so callers can walk the
// same path they would in LIVE mode.
func simulatedStatus(orderID string) types.OrderStatus {
	return types.OrderStatus{
		OrderID:   orderID,
		Status:    "COMPLETE",
		UpdatedAt: time.Now().In(pnl.IST),
	}
}
