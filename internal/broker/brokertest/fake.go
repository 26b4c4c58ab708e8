// Package brokertest provides an in-memory gateway for tests.
package brokertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"broker-ledger/internal/interfaces"
	"broker-ledger/internal/types"
)

// Fake is a scriptable gateway. Set the exported fields before use; Err, when
// non-nil, is returned by every call. Calls counts invocations per method.
type Fake struct {
	mu sync.Mutex

	Report    types.OrderReport
	Statuses  map[string]types.OrderStatus
	Fills     map[string][]types.Fill
	PosList   []types.Position
	HoldList  []types.Holding
	Lim       types.Limits
	Err       error
	Calls     map[string]int
	Placed    []types.OrderReq
	Sessions  []types.Session
	nextOrder int
}

var _ interfaces.Gateway = (*Fake)(nil)

func New() *Fake {
	return &Fake{
		Statuses: make(map[string]types.OrderStatus),
		Fills:    make(map[string][]types.Fill),
		Calls:    make(map[string]int),
	}
}

func (f *Fake) hit(method string, s types.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls[method]++
	f.Sessions = append(f.Sessions, s)
	return f.Err
}

// CallCount is safe to use while other goroutines call the fake.
func (f *Fake) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls[method]
}

func (f *Fake) Login(ctx context.Context, creds types.Credentials) (types.Session, error) {
	if err := f.hit("Login", types.Session{}); err != nil {
		return types.Session{}, err
	}
	return types.Session{Broker: "fake", APIKey: creds.APIKey, AccessToken: "tok-" + creds.APIKey, CreatedAt: time.Now()}, nil
}

func (f *Fake) Logout(ctx context.Context, s types.Session) error {
	return f.hit("Logout", s)
}

func (f *Fake) OrderReport(ctx context.Context, s types.Session) (types.OrderReport, error) {
	if err := f.hit("OrderReport", s); err != nil {
		return types.OrderReport{}, err
	}
	return f.Report, nil
}

func (f *Fake) OrderHistory(ctx context.Context, s types.Session, orderID string) (types.OrderStatus, error) {
	if err := f.hit("OrderHistory", s); err != nil {
		return types.OrderStatus{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.Statuses[orderID]
	if !ok {
		return types.OrderStatus{}, fmt.Errorf("fake: unknown order %s", orderID)
	}
	return st, nil
}

func (f *Fake) OrderTrades(ctx context.Context, s types.Session, orderID string) ([]types.Fill, error) {
	if err := f.hit("OrderTrades", s); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Fills[orderID], nil
}

// PlaceOrder assigns ids ORD-1, ORD-2, ... Scripted statuses and fills for
// those ids are returned by OrderHistory and OrderTrades.
func (f *Fake) PlaceOrder(ctx context.Context, s types.Session, req types.OrderReq) (types.OrderResp, error) {
	if err := f.hit("PlaceOrder", s); err != nil {
		return types.OrderResp{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextOrder++
	f.Placed = append(f.Placed, req)
	return types.OrderResp{OrderID: fmt.Sprintf("ORD-%d", f.nextOrder), Status: "PLACED"}, nil
}

func (f *Fake) ModifyOrder(ctx context.Context, s types.Session, orderID string, req types.ModifyReq) (types.OrderResp, error) {
	if err := f.hit("ModifyOrder", s); err != nil {
		return types.OrderResp{}, err
	}
	return types.OrderResp{OrderID: orderID, Status: "MODIFIED"}, nil
}

func (f *Fake) CancelOrder(ctx context.Context, s types.Session, orderID string) (types.OrderResp, error) {
	if err := f.hit("CancelOrder", s); err != nil {
		return types.OrderResp{}, err
	}
	return types.OrderResp{OrderID: orderID, Status: "CANCELLED"}, nil
}

func (f *Fake) Positions(ctx context.Context, s types.Session) ([]types.Position, error) {
	if err := f.hit("Positions", s); err != nil {
		return nil, err
	}
	return f.PosList, nil
}

func (f *Fake) Holdings(ctx context.Context, s types.Session) ([]types.Holding, error) {
	if err := f.hit("Holdings", s); err != nil {
		return nil, err
	}
	return f.HoldList, nil
}

func (f *Fake) Limits(ctx context.Context, s types.Session) (types.Limits, error) {
	if err := f.hit("Limits", s); err != nil {
		return types.Limits{}, err
	}
	return f.Lim, nil
}
