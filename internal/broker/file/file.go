// Package file replays a saved order report from disk. It lets a ledger be
// computed offline from an export of the broker's order book.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"broker-ledger/internal/interfaces"
	"broker-ledger/internal/pnl"
	"broker-ledger/internal/types"
)

var ErrUnsupported = errors.New("file gateway: operation not supported")

type Gateway struct {
	path string
}

var _ interfaces.Gateway = (*Gateway)(nil)

func New(path string) *Gateway {
	return &Gateway{path: path}
}

// Login accepts any credentials. The session only records the account's key.
func (g *Gateway) Login(ctx context.Context, creds types.Credentials) (types.Session, error) {
	return types.Session{Broker: "file", APIKey: creds.APIKey, AccessToken: "file", CreatedAt: time.Now()}, nil
}

func (g *Gateway) Logout(ctx context.Context, s types.Session) error { return nil }

// OrderReport reads the file on every call so edits show up without a
// restart.
func (g *Gateway) OrderReport(ctx context.Context, s types.Session) (types.OrderReport, error) {
	b, err := os.ReadFile(g.path)
	if err != nil {
		return types.OrderReport{}, fmt.Errorf("file gateway: %w", err)
	}
	return pnl.DecodeReport(b)
}

func (g *Gateway) OrderHistory(ctx context.Context, s types.Session, orderID string) (types.OrderStatus, error) {
	return types.OrderStatus{}, ErrUnsupported
}

func (g *Gateway) OrderTrades(ctx context.Context, s types.Session, orderID string) ([]types.Fill, error) {
	return nil, ErrUnsupported
}

func (g *Gateway) PlaceOrder(ctx context.Context, s types.Session, req types.OrderReq) (types.OrderResp, error) {
	return types.OrderResp{}, ErrUnsupported
}

func (g *Gateway) ModifyOrder(ctx context.Context, s types.Session, orderID string, req types.ModifyReq) (types.OrderResp, error) {
	return types.OrderResp{}, ErrUnsupported
}

func (g *Gateway) CancelOrder(ctx context.Context, s types.Session, orderID string) (types.OrderResp, error) {
	return types.OrderResp{}, ErrUnsupported
}

func (g *Gateway) Positions(ctx context.Context, s types.Session) ([]types.Position, error) {
	return nil, ErrUnsupported
}

func (g *Gateway) Holdings(ctx context.Context, s types.Session) ([]types.Holding, error) {
	return nil, ErrUnsupported
}

func (g *Gateway) Limits(ctx context.Context, s types.Session) (types.Limits, error) {
	return types.Limits{}, ErrUnsupported
}
