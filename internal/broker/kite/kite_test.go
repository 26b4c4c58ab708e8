package kite

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"broker-ledger/internal/pnl"
	"broker-ledger/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	kiteconnect "github.com/zerodha/gokiteconnect/v4"
)

const ordersPayload = `[
  {"order_id":"1","status":"COMPLETE","exchange":"NFO","tradingsymbol":"NIFTY24JAN21500CE",
   "transaction_type":"BUY","quantity":50,"filled_quantity":50,"average_price":100,
   "exchange_timestamp":"2024-01-15 09:31:05"},
  {"order_id":"2","status":"COMPLETE","exchange":"NFO","tradingsymbol":"NIFTY24JAN21500CE",
   "transaction_type":"SELL","quantity":50,"filled_quantity":50,"average_price":120,
   "exchange_timestamp":"2024-01-15 10:02:41"},
  {"order_id":"3","status":"REJECTED","exchange":"NFO","tradingsymbol":"NIFTY24JAN21500CE",
   "transaction_type":"BUY","quantity":50,"filled_quantity":0,"average_price":0}
]`

func TestParseTradingSymbol(t *testing.T) {
	cases := []struct {
		in                   string
		symbol, strike, kind string
	}{
		{"NIFTY24JAN21500CE", "NIFTY24JAN", "21500", "CE"},
		{"BANKNIFTY2411747000PE", "BANKNIFTY24117", "47000", "PE"},
		{"NIFTY24D0521500.5CE", "NIFTY24D05", "21500.5", "CE"},
		{"NIFTY24JANFUT", "NIFTY24JANFUT", "", ""},
		{"reliance", "RELIANCE", "", ""},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			symbol, strike, kind := parseTradingSymbol(c.in)
			assert.Equal(t, c.symbol, symbol)
			assert.Equal(t, c.strike, strike)
			assert.Equal(t, c.kind, kind)
		})
	}
}

func TestOrdersToReportFeedsLedger(t *testing.T) {
	var orders kiteconnect.Orders
	require.NoError(t, json.Unmarshal([]byte(ordersPayload), &orders))

	report := ordersToReport(orders)
	require.NotNil(t, report.Data)
	recs := *report.Data
	require.Len(t, recs, 2, "unfilled order must be skipped")

	assert.Equal(t, types.Text("15-Jan-2024 09:31:05"), recs[0].ConfirmedAt)
	assert.Equal(t, types.Text("nse_fo"), recs[0].Segment)
	assert.Equal(t, types.Text("NIFTY24JAN"), recs[0].Symbol)
	assert.Equal(t, types.Text("21500"), recs[0].Strike)
	assert.Equal(t, types.Text("CE"), recs[0].OptionType)
	assert.Equal(t, types.Text("50"), recs[0].Quantity)
	assert.Equal(t, types.Text("complete"), recs[0].Status)

	l, err := pnl.ComputeReport(report, false, pnl.DefaultConfig())
	require.NoError(t, err)
	require.Len(t, l.Rows, 1)
	assert.Equal(t, "942.1", l.NetPnL.String())
}

func TestSegmentFor(t *testing.T) {
	assert.Equal(t, "nse_fo", segmentFor("NFO"))
	assert.Equal(t, "bse_cm", segmentFor("bse"))
	assert.Equal(t, "xyz", segmentFor("XYZ"))
}

func TestDryRunOrders(t *testing.T) {
	g := New(Params{Mode: "DRY_RUN"})
	ctx := context.Background()

	resp, err := g.PlaceOrder(ctx, types.Session{}, types.OrderReq{Symbol: "NIFTY24JAN21500CE", Side: types.SideBuy, Qty: 50})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.OrderID, "SIM-"))
	assert.Equal(t, "SIMULATED", resp.Status)

	st, err := g.OrderHistory(ctx, types.Session{}, resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETE", st.Status)

	fills, err := g.OrderTrades(ctx, types.Session{}, resp.OrderID)
	require.NoError(t, err)
	assert.Empty(t, fills)
}

func TestCallsWithoutSession(t *testing.T) {
	g := New(Params{Mode: "LIVE"})
	_, err := g.OrderReport(context.Background(), types.Session{})
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = g.PlaceOrder(context.Background(), types.Session{APIKey: "k"}, types.OrderReq{})
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestLoginWithAccessToken(t *testing.T) {
	g := New(Params{})
	s, err := g.Login(context.Background(), types.Credentials{APIKey: "k", AccessToken: "tok"})
	require.NoError(t, err)
	assert.True(t, s.Valid())
	assert.Equal(t, "kite", s.Broker)

	_, err = g.Login(context.Background(), types.Credentials{APIKey: "k"})
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestOrderReportOverHTTP(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.Equal(t, "/orders", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","data":` + ordersPayload + `}`))
	}))
	defer srv.Close()

	g := New(Params{Mode: "LIVE", BaseURI: srv.URL})
	report, err := g.OrderReport(context.Background(), types.Session{APIKey: "key", AccessToken: "tok"})
	require.NoError(t, err)
	require.NotNil(t, report.Data)
	assert.Len(t, *report.Data, 2)
	assert.Equal(t, "token key:tok", auth)
}
