package interfaces

import (
	"context"

	"broker-ledger/internal/types"
)

// Gateway is the broker API. Every call takes the session handle returned by
// Login; implementations must not hold on to it.
type Gateway interface {
	Login(ctx context.Context, creds types.Credentials) (types.Session, error)
	Logout(ctx context.Context, s types.Session) error

	OrderReport(ctx context.Context, s types.Session) (types.OrderReport, error)
	OrderHistory(ctx context.Context, s types.Session, orderID string) (types.OrderStatus, error)
	OrderTrades(ctx context.Context, s types.Session, orderID string) ([]types.Fill, error)

	PlaceOrder(ctx context.Context, s types.Session, req types.OrderReq) (types.OrderResp, error)
	ModifyOrder(ctx context.Context, s types.Session, orderID string, req types.ModifyReq) (types.OrderResp, error)
	CancelOrder(ctx context.Context, s types.Session, orderID string) (types.OrderResp, error)

	Positions(ctx context.Context, s types.Session) ([]types.Position, error)
	Holdings(ctx context.Context, s types.Session) ([]types.Holding, error)
	Limits(ctx context.Context, s types.Session) (types.Limits, error)
}
