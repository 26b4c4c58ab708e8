package brokerobs

import (
	"context"

	"broker-ledger/internal/interfaces"
	"broker-ledger/internal/logger"
	"broker-ledger/internal/trace"
	"broker-ledger/internal/types"
)

// observableGateway wraps a Gateway with observability (logging & tracing)
type observableGateway struct {
	gw      interfaces.Gateway
	account string
}

// Compile-time interface check
var _ interfaces.Gateway = (*observableGateway)(nil)

// Wrap wraps a gateway with observability middleware
func Wrap(gw interfaces.Gateway, account string) interfaces.Gateway {
	return &observableGateway{gw: gw, account: account}
}

func (og *observableGateway) Login(ctx context.Context, creds types.Credentials) (types.Session, error) {
	ctx, span := trace.StartSpan(ctx, "broker.Login")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Logging in", "account", og.account, "with_request_token", creds.RequestToken != "")

	s, err := og.gw.Login(ctx, creds)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Login failed", err, "account", og.account)
		return types.Session{}, err
	}

	logger.InfoSkip(ctx, 1, "Logged in", "account", og.account, "broker", s.Broker, "user_id", s.UserID)
	return s, nil
}

func (og *observableGateway) Logout(ctx context.Context, s types.Session) error {
	ctx, span := trace.StartSpan(ctx, "broker.Logout")
	defer span.End()

	if err := og.gw.Logout(ctx, s); err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Logout failed", err, "account", og.account)
		return err
	}
	logger.InfoSkip(ctx, 1, "Logged out", "account", og.account)
	return nil
}

// OrderReport fetches the day's order report with observability
func (og *observableGateway) OrderReport(ctx context.Context, s types.Session) (types.OrderReport, error) {
	ctx, span := trace.StartSpan(ctx, "broker.OrderReport")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching order report", "account", og.account)

	rep, err := og.gw.OrderReport(ctx, s)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch order report", err, "account", og.account)
		return types.OrderReport{}, err
	}

	records := -1
	if rep.Data != nil {
		records = len(*rep.Data)
	}
	logger.DebugSkip(ctx, 1, "Order report fetched", "account", og.account, "stat", rep.Stat, "records", records)
	return rep, nil
}

func (og *observableGateway) OrderHistory(ctx context.Context, s types.Session, orderID string) (types.OrderStatus, error) {
	ctx, span := trace.StartSpan(ctx, "broker.OrderHistory")
	defer span.End()

	st, err := og.gw.OrderHistory(ctx, s, orderID)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch order history", err, "account", og.account, "order_id", orderID)
		return types.OrderStatus{}, err
	}

	logger.DebugSkip(ctx, 1, "Order status fetched", "account", og.account, "order_id", orderID, "status", st.Status)
	return st, nil
}

func (og *observableGateway) OrderTrades(ctx context.Context, s types.Session, orderID string) ([]types.Fill, error) {
	ctx, span := trace.StartSpan(ctx, "broker.OrderTrades")
	defer span.End()

	fills, err := og.gw.OrderTrades(ctx, s, orderID)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch order trades", err, "account", og.account, "order_id", orderID)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Order trades fetched", "account", og.account, "order_id", orderID, "fills", len(fills))
	return fills, nil
}

// PlaceOrder places an order with observability
func (og *observableGateway) PlaceOrder(ctx context.Context, s types.Session, req types.OrderReq) (types.OrderResp, error) {
	ctx, span := trace.StartSpan(ctx, "broker.PlaceOrder")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Placing order",
		"account", og.account,
		"symbol", req.Symbol,
		"side", req.Side,
		"qty", req.Qty,
		"tag", req.Tag,
	)

	resp, err := og.gw.PlaceOrder(ctx, s, req)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to place order", err,
			"account", og.account,
			"symbol", req.Symbol,
			"side", req.Side,
			"qty", req.Qty,
		)
		return types.OrderResp{}, err
	}

	logger.InfoSkip(ctx, 1, "Order placed successfully",
		"account", og.account,
		"symbol", req.Symbol,
		"order_id", resp.OrderID,
		"status", resp.Status,
	)
	return resp, nil
}

func (og *observableGateway) ModifyOrder(ctx context.Context, s types.Session, orderID string, req types.ModifyReq) (types.OrderResp, error) {
	ctx, span := trace.StartSpan(ctx, "broker.ModifyOrder")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Modifying order", "account", og.account, "order_id", orderID, "qty", req.Qty, "price", req.Price.String())

	resp, err := og.gw.ModifyOrder(ctx, s, orderID, req)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to modify order", err, "account", og.account, "order_id", orderID)
		return types.OrderResp{}, err
	}
	return resp, nil
}

func (og *observableGateway) CancelOrder(ctx context.Context, s types.Session, orderID string) (types.OrderResp, error) {
	ctx, span := trace.StartSpan(ctx, "broker.CancelOrder")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Cancelling order", "account", og.account, "order_id", orderID)

	resp, err := og.gw.CancelOrder(ctx, s, orderID)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to cancel order", err, "account", og.account, "order_id", orderID)
		return types.OrderResp{}, err
	}
	return resp, nil
}

func (og *observableGateway) Positions(ctx context.Context, s types.Session) ([]types.Position, error) {
	ctx, span := trace.StartSpan(ctx, "broker.Positions")
	defer span.End()

	pos, err := og.gw.Positions(ctx, s)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch positions", err, "account", og.account)
		return nil, err
	}
	logger.DebugSkip(ctx, 1, "Positions fetched", "account", og.account, "count", len(pos))
	return pos, nil
}

func (og *observableGateway) Holdings(ctx context.Context, s types.Session) ([]types.Holding, error) {
	ctx, span := trace.StartSpan(ctx, "broker.Holdings")
	defer span.End()

	hs, err := og.gw.Holdings(ctx, s)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch holdings", err, "account", og.account)
		return nil, err
	}
	logger.DebugSkip(ctx, 1, "Holdings fetched", "account", og.account, "count", len(hs))
	return hs, nil
}

func (og *observableGateway) Limits(ctx context.Context, s types.Session) (types.Limits, error) {
	ctx, span := trace.StartSpan(ctx, "broker.Limits")
	defer span.End()

	lim, err := og.gw.Limits(ctx, s)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch limits", err, "account", og.account)
		return types.Limits{}, err
	}
	logger.DebugSkip(ctx, 1, "Limits fetched", "account", og.account, "net", lim.Net.String())
	return lim, nil
}
