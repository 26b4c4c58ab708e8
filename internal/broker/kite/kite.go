package kite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"broker-ledger/internal/interfaces"
	"broker-ledger/internal/types"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"
)

const (
	brokerName = "kite"

	varietyRegular = "regular"
	validityDay    = "DAY"
	orderMarket    = "MARKET"
)

var (
	ErrNoSession     = errors.New("kite: session has no access token")
	ErrNoCredentials = errors.New("kite: request token with api secret, or access token, required")
	ErrOrderNotFound = errors.New("kite: order not found")
)

type Params struct {
	Mode     string // LIVE or DRY_RUN
	Exchange string
	Product  string
	BaseURI  string // overrides the API root, used by tests
}

// Gateway talks to Zerodha Kite Connect. A fresh client is built from the
// session on every call so no credentials outlive the request.
type Gateway struct {
	p Params
}

var _ interfaces.Gateway = (*Gateway)(nil)

func New(p Params) *Gateway {
	if p.Exchange == "" {
		p.Exchange = "NFO"
	}
	if p.Product == "" {
		p.Product = "NRML"
	}
	return &Gateway{p: p}
}

func (g *Gateway) dryRun() bool { return g.p.Mode == "DRY_RUN" }

func (g *Gateway) client(s types.Session) (*kiteconnect.Client, error) {
	if !s.Valid() {
		return nil, ErrNoSession
	}
	kc := kiteconnect.New(s.APIKey)
	kc.SetAccessToken(s.AccessToken)
	if g.p.BaseURI != "" {
		kc.SetBaseURI(g.p.BaseURI)
	}
	return kc, nil
}

func (g *Gateway) Login(ctx context.Context, creds types.Credentials) (types.Session, error) {
	if creds.APIKey == "" {
		return types.Session{}, ErrNoCredentials
	}
	s := types.Session{Broker: brokerName, APIKey: creds.APIKey, CreatedAt: time.Now()}

	if creds.RequestToken == "" || creds.APISecret == "" {
		if creds.AccessToken == "" {
			return types.Session{}, ErrNoCredentials
		}
		s.AccessToken = creds.AccessToken
		return s, nil
	}

	kc := kiteconnect.New(creds.APIKey)
	if g.p.BaseURI != "" {
		kc.SetBaseURI(g.p.BaseURI)
	}
	us, err := kc.GenerateSession(creds.RequestToken, creds.APISecret)
	if err != nil {
		return types.Session{}, fmt.Errorf("kite: generate session: %w", err)
	}
	s.AccessToken = us.AccessToken
	s.UserID = us.UserID
	return s, nil
}

func (g *Gateway) Logout(ctx context.Context, s types.Session) error {
	kc, err := g.client(s)
	if err != nil {
		return err
	}
	if _, err := kc.InvalidateAccessToken(); err != nil {
		return fmt.Errorf("kite: invalidate token: %w", err)
	}
	return nil
}

func (g *Gateway) OrderReport(ctx context.Context, s types.Session) (types.OrderReport, error) {
	kc, err := g.client(s)
	if err != nil {
		return types.OrderReport{}, err
	}
	orders, err := kc.GetOrders()
	if err != nil {
		return types.OrderReport{}, fmt.Errorf("kite: get orders: %w", err)
	}
	return ordersToReport(orders), nil
}

func (g *Gateway) OrderHistory(ctx context.Context, s types.Session, orderID string) (types.OrderStatus, error) {
	if g.dryRun() && isSimulated(orderID) {
		return simulatedStatus(orderID), nil
	}
	kc, err := g.client(s)
	if err != nil {
		return types.OrderStatus{}, err
	}
	hist, err := kc.GetOrderHistory(orderID)
	if err != nil {
		return types.OrderStatus{}, fmt.Errorf("kite: order history %s: %w", orderID, err)
	}
	if len(hist) == 0 {
		return types.OrderStatus{}, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	// history is oldest first
	return orderToStatus(hist[len(hist)-1]), nil
}

func (g *Gateway) OrderTrades(ctx context.Context, s types.Session, orderID string) ([]types.Fill, error) {
	if g.dryRun() && isSimulated(orderID) {
		return nil, nil
	}
	kc, err := g.client(s)
	if err != nil {
		return nil, err
	}
	trades, err := kc.GetOrderTrades(orderID)
	if err != nil {
		return nil, fmt.Errorf("kite: order trades %s: %w", orderID, err)
	}
	fills := make([]types.Fill, 0, len(trades))
	for _, t := range trades {
		fills = append(fills, tradeToFill(t))
	}
	return fills, nil
}

func (g *Gateway) PlaceOrder(ctx context.Context, s types.Session, req types.OrderReq) (types.OrderResp, error) {
	if g.dryRun() {
		return types.OrderResp{
			OrderID: fmt.Sprintf("%s%d", simPrefix, time.Now().UnixNano()),
			Status:  "SIMULATED",
			Message: "dry-run",
		}, nil
	}

	kc, err := g.client(s)
	if err != nil {
		return types.OrderResp{}, err
	}
	resp, err := kc.PlaceOrder(varietyRegular, g.orderParams(req))
	if err != nil {
		return types.OrderResp{}, fmt.Errorf("kite: place order %s: %w", req.Symbol, err)
	}
	return types.OrderResp{OrderID: resp.OrderID, Status: "PLACED", Message: "ok"}, nil
}

func (g *Gateway) ModifyOrder(ctx context.Context, s types.Session, orderID string, req types.ModifyReq) (types.OrderResp, error) {
	if g.dryRun() {
		return types.OrderResp{OrderID: orderID, Status: "SIMULATED", Message: "dry-run"}, nil
	}

	kc, err := g.client(s)
	if err != nil {
		return types.OrderResp{}, err
	}
	params := kiteconnect.OrderParams{
		Quantity:     req.Qty,
		Price:        req.Price.InexactFloat64(),
		TriggerPrice: req.TriggerPrice.InexactFloat64(),
		OrderType:    req.OrderType,
		Validity:     req.Validity,
	}
	resp, err := kc.ModifyOrder(varietyRegular, orderID, params)
	if err != nil {
		return types.OrderResp{}, fmt.Errorf("kite: modify order %s: %w", orderID, err)
	}
	return types.OrderResp{OrderID: resp.OrderID, Status: "MODIFIED", Message: "ok"}, nil
}

func (g *Gateway) CancelOrder(ctx context.Context, s types.Session, orderID string) (types.OrderResp, error) {
	if g.dryRun() {
		return types.OrderResp{OrderID: orderID, Status: "SIMULATED", Message: "dry-run"}, nil
	}

	kc, err := g.client(s)
	if err != nil {
		return types.OrderResp{}, err
	}
	resp, err := kc.CancelOrder(varietyRegular, orderID, nil)
	if err != nil {
		return types.OrderResp{}, fmt.Errorf("kite: cancel order %s: %w", orderID, err)
	}
	return types.OrderResp{OrderID: resp.OrderID, Status: "CANCELLED", Message: "ok"}, nil
}

func (g *Gateway) Positions(ctx context.Context, s types.Session) ([]types.Position, error) {
	kc, err := g.client(s)
	if err != nil {
		return nil, err
	}
	pos, err := kc.GetPositions()
	if err != nil {
		return nil, fmt.Errorf("kite: get positions: %w", err)
	}
	out := make([]types.Position, 0, len(pos.Net))
	for _, p := range pos.Net {
		out = append(out, positionFrom(p))
	}
	return out, nil
}

func (g *Gateway) Holdings(ctx context.Context, s types.Session) ([]types.Holding, error) {
	kc, err := g.client(s)
	if err != nil {
		return nil, err
	}
	hs, err := kc.GetHoldings()
	if err != nil {
		return nil, fmt.Errorf("kite: get holdings: %w", err)
	}
	out := make([]types.Holding, 0, len(hs))
	for _, h := range hs {
		out = append(out, holdingFrom(h))
	}
	return out, nil
}

func (g *Gateway) Limits(ctx context.Context, s types.Session) (types.Limits, error) {
	kc, err := g.client(s)
	if err != nil {
		return types.Limits{}, err
	}
	m, err := kc.GetUserMargins()
	if err != nil {
		return types.Limits{}, fmt.Errorf("kite: get margins: %w", err)
	}
	return limitsFrom(m), nil
}

func (g *Gateway) orderParams(req types.OrderReq) kiteconnect.OrderParams {
	exchange := req.Segment
	if exchange == "" {
		exchange = g.p.Exchange
	}
	product := req.Product
	if product == "" {
		product = g.p.Product
	}
	orderType := req.OrderType
	if orderType == "" {
		orderType = orderMarket
	}
	params := kiteconnect.OrderParams{
		Exchange:        exchange,
		Tradingsymbol:   req.Symbol,
		Validity:        validityDay,
		Product:         product,
		OrderType:       orderType,
		TransactionType: string(req.Side),
		Quantity:        req.Qty,
		Tag:             req.Tag,
	}
	if orderType != orderMarket {
		params.Price = req.Price.InexactFloat64()
	}
	return params
}
