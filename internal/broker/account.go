package broker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"broker-ledger/internal/interfaces"
	"broker-ledger/internal/logger"
	"broker-ledger/internal/types"

	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrOrderNotComplete = errors.New("order not complete")
	ErrNoFills          = errors.New("order complete but no fill price reported")
)

// Account ties one broker login to the operations a trading script needs.
// The session is swapped with SetSession when it is refreshed.
type Account struct {
	Name string

	gw       interfaces.Gateway
	engine   interfaces.LedgerEngine
	recorder interfaces.Recorder

	mu      sync.RWMutex
	session types.Session
}

// NewAccount builds an account. recorder may be nil.
func NewAccount(name string, gw interfaces.Gateway, engine interfaces.LedgerEngine, recorder interfaces.Recorder) *Account {
	return &Account{Name: name, gw: gw, engine: engine, recorder: recorder}
}

func (a *Account) SetSession(s types.Session) {
	a.mu.Lock()
	a.session = s
	a.mu.Unlock()
}

func (a *Account) Session() types.Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session
}

// Login opens a session with creds and keeps it.
func (a *Account) Login(ctx context.Context, creds types.Credentials) (types.Session, error) {
	s, err := a.gw.Login(ctx, creds)
	if err != nil {
		return types.Session{}, err
	}
	a.SetSession(s)
	return s, nil
}

func (a *Account) record(ctx context.Context, kind string, payload any) {
	if a.recorder == nil {
		return
	}
	if err := a.recorder.Record(kind, payload); err != nil {
		logger.ErrorWithErr(ctx, "Failed to record audit entry", err, "account", a.Name, "kind", kind)
	}
}

// PlaceMarketOrder places a market order, confirms it completed and returns
// the average fill price. The order and its fills go to the audit trail.
func (a *Account) PlaceMarketOrder(ctx context.Context, segment, symbol string, qty int, side types.Side) (decimal.Decimal, error) {
	s := a.Session()
	resp, err := a.gw.PlaceOrder(ctx, s, types.OrderReq{
		Segment:   segment,
		Symbol:    symbol,
		Side:      side,
		Qty:       qty,
		OrderType: "MARKET",
		Tag:       "ledger",
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("place %s %s: %w", side, symbol, err)
	}

	complete, st, err := a.OrderStatus(ctx, resp.OrderID)
	if err != nil {
		return decimal.Zero, err
	}
	a.record(ctx, "order", st)
	if !complete {
		return decimal.Zero, fmt.Errorf("%w: %s is %s", ErrOrderNotComplete, resp.OrderID, st.Status)
	}

	fills, err := a.gw.OrderTrades(ctx, s, resp.OrderID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("trades for %s: %w", resp.OrderID, err)
	}
	for _, f := range fills {
		a.record(ctx, "fill", f)
	}

	price, ok := averageFill(fills)
	if !ok {
		if st.AvgPrice.IsZero() {
			return decimal.Zero, fmt.Errorf("%w: %s", ErrNoFills, resp.OrderID)
		}
		price = st.AvgPrice
	}

	logger.Trade(ctx, symbol, string(side), qty, price.String(), resp.OrderID, "account", a.Name)
	return price, nil
}

// averageFill is the quantity-weighted fill price.
func averageFill(fills []types.Fill) (decimal.Decimal, bool) {
	var qty int64
	notional := decimal.Zero
	for _, f := range fills {
		qty += f.Qty
		notional = notional.Add(f.AvgPrice.Mul(decimal.NewFromInt(f.Qty)))
	}
	if qty <= 0 {
		return decimal.Zero, false
	}
	return notional.Div(decimal.NewFromInt(qty)).Round(2), true
}

// OrderStatus reports whether orderID has completed along with its latest
// state.
func (a *Account) OrderStatus(ctx context.Context, orderID string) (bool, types.OrderStatus, error) {
	st, err := a.gw.OrderHistory(ctx, a.Session(), orderID)
	if err != nil {
		return false, types.OrderStatus{}, fmt.Errorf("%w: %s: %w", ErrOrderNotFound, orderID, err)
	}
	return strings.EqualFold(st.Status, "complete"), st, nil
}

func (a *Account) ModifyOrder(ctx context.Context, orderID string, req types.ModifyReq) (types.OrderResp, error) {
	return a.gw.ModifyOrder(ctx, a.Session(), orderID, req)
}

func (a *Account) CancelOrder(ctx context.Context, orderID string) (types.OrderResp, error) {
	return a.gw.CancelOrder(ctx, a.Session(), orderID)
}

// OpenPositions returns the positions whose buy and sell quantities differ.
// inPosition is true when there is at least one.
func (a *Account) OpenPositions(ctx context.Context) (bool, []types.Position, error) {
	all, err := a.gw.Positions(ctx, a.Session())
	if err != nil {
		return false, nil, err
	}
	var open []types.Position
	for _, p := range all {
		if p.Open() {
			open = append(open, p)
		}
	}
	return len(open) > 0, open, nil
}

func (a *Account) Holdings(ctx context.Context) ([]types.Holding, error) {
	return a.gw.Holdings(ctx, a.Session())
}

// AvailableFunds is the net margin available to trade.
func (a *Account) AvailableFunds(ctx context.Context) (decimal.Decimal, error) {
	lim, err := a.gw.Limits(ctx, a.Session())
	if err != nil {
		return decimal.Zero, err
	}
	return lim.Net, nil
}

// NetPnL fetches today's order report and computes the realized ledger.
func (a *Account) NetPnL(ctx context.Context, botTrade bool) (types.Ledger, error) {
	rep, err := a.gw.OrderReport(ctx, a.Session())
	if err != nil {
		return types.Ledger{}, err
	}
	return a.engine.Compute(ctx, rep, botTrade)
}
