package broker

import (
	"context"
	"errors"
	"testing"

	"broker-ledger/internal/broker/brokertest"
	"broker-ledger/internal/pnl"
	"broker-ledger/internal/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRecorder struct {
	kinds []string
}

func (m *memRecorder) Record(kind string, payload any) error {
	m.kinds = append(m.kinds, kind)
	return nil
}

func newAccount(t *testing.T) (*Account, *brokertest.Fake, *memRecorder) {
	t.Helper()
	fake := brokertest.New()
	rec := &memRecorder{}
	a := NewAccount("test", fake, pnl.NewEngine(pnl.DefaultConfig()), rec)
	_, err := a.Login(context.Background(), types.Credentials{APIKey: "key"})
	require.NoError(t, err)
	return a, fake, rec
}

func TestPlaceMarketOrderReturnsWeightedFill(t *testing.T) {
	a, fake, rec := newAccount(t)
	fake.Statuses["ORD-1"] = types.OrderStatus{OrderID: "ORD-1", Status: "complete"}
	fake.Fills["ORD-1"] = []types.Fill{
		{TradeID: "T1", OrderID: "ORD-1", AvgPrice: decimal.NewFromInt(100), Qty: 25},
		{TradeID: "T2", OrderID: "ORD-1", AvgPrice: decimal.NewFromInt(102), Qty: 25},
	}

	price, err := a.PlaceMarketOrder(context.Background(), "nse_fo", "NIFTY24JAN21500CE", 50, types.SideBuy)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(101).Equal(price), "price %s", price)

	require.Len(t, fake.Placed, 1)
	assert.Equal(t, "MARKET", fake.Placed[0].OrderType)
	assert.Equal(t, []string{"order", "fill", "fill"}, rec.kinds)
	assert.Equal(t, "tok-key", fake.Sessions[len(fake.Sessions)-1].AccessToken)
}

func TestPlaceMarketOrderFallsBackToStatusPrice(t *testing.T) {
	a, fake, _ := newAccount(t)
	fake.Statuses["ORD-1"] = types.OrderStatus{OrderID: "ORD-1", Status: "COMPLETE", AvgPrice: decimal.RequireFromString("99.5")}

	price, err := a.PlaceMarketOrder(context.Background(), "nse_fo", "NIFTY24JAN21500CE", 50, types.SideSell)
	require.NoError(t, err)
	assert.Equal(t, "99.5", price.String())
}

func TestPlaceMarketOrderNotComplete(t *testing.T) {
	a, fake, rec := newAccount(t)
	fake.Statuses["ORD-1"] = types.OrderStatus{OrderID: "ORD-1", Status: "rejected"}

	_, err := a.PlaceMarketOrder(context.Background(), "nse_fo", "NIFTY24JAN21500CE", 50, types.SideBuy)
	assert.ErrorIs(t, err, ErrOrderNotComplete)
	assert.Equal(t, []string{"order"}, rec.kinds)
	assert.Zero(t, fake.CallCount("OrderTrades"))
}

func TestOrderStatusUnknown(t *testing.T) {
	a, _, _ := newAccount(t)
	_, _, err := a.OrderStatus(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOpenPositions(t *testing.T) {
	a, fake, _ := newAccount(t)
	fake.PosList = []types.Position{
		{Symbol: "NIFTY24JAN21500CE", BuyQty: 50, SellQty: 50},
		{Symbol: "NIFTY24JAN21600PE", BuyQty: 50, SellQty: 0, NetQty: 50},
	}

	in, open, err := a.OpenPositions(context.Background())
	require.NoError(t, err)
	assert.True(t, in)
	require.Len(t, open, 1)
	assert.Equal(t, "NIFTY24JAN21600PE", open[0].Symbol)

	fake.PosList = fake.PosList[:1]
	in, open, err = a.OpenPositions(context.Background())
	require.NoError(t, err)
	assert.False(t, in)
	assert.Empty(t, open)
}

func TestAvailableFunds(t *testing.T) {
	a, fake, _ := newAccount(t)
	fake.Lim = types.Limits{Net: decimal.RequireFromString("125000.50")}

	funds, err := a.AvailableFunds(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "125000.5", funds.String())

	fake.Err = errors.New("down")
	_, err = a.AvailableFunds(context.Background())
	assert.Error(t, err)
}

func TestNetPnL(t *testing.T) {
	a, fake, _ := newAccount(t)
	fake.Report = types.NewOrderReport([]types.RawOrderRecord{
		{ConfirmedAt: "15-Jan-2024 09:31:05", AvgPrice: "100", Quantity: "50", Symbol: "NIFTY", Strike: "21500", OptionType: "CE", Side: "B"},
		{ConfirmedAt: "15-Jan-2024 10:02:41", AvgPrice: "120", Quantity: "50", Symbol: "NIFTY", Strike: "21500", OptionType: "CE", Side: "S"},
	})

	l, err := a.NetPnL(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, "989.3", l.NetPnL.String())

	fake.Report = types.OrderReport{Stat: "Not_Ok"}
	_, err = a.NetPnL(context.Background(), true)
	assert.ErrorIs(t, err, pnl.ErrStructural)
}
