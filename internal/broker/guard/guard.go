// Package guard protects a broker gateway with a shared rate limit and a
// circuit breaker per method.
package guard

import (
	"context"
	"errors"
	"fmt"

	"broker-ledger/internal/interfaces"
	"broker-ledger/internal/metrics"
	"broker-ledger/internal/types"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// ErrBreakerOpen is returned without calling the broker while a method's
// breaker is open or its half-open probes are used up.
var ErrBreakerOpen = errors.New("guard: circuit breaker open")

type guarded struct {
	next    interfaces.Gateway
	limiter *rate.Limiter
	cbs     *Manager
}

var _ interfaces.Gateway = (*guarded)(nil)

// Wrap guards next. A nil limiter disables rate limiting.
func Wrap(next interfaces.Gateway, limiter *rate.Limiter, cbs *Manager) interfaces.Gateway {
	return &guarded{next: next, limiter: limiter, cbs: cbs}
}

func call[T any](ctx context.Context, g *guarded, method string, fn func() (T, error)) (T, error) {
	var zero T
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			metrics.GatewayRejectsTotal.WithLabelValues(method, "rate_limited").Inc()
			return zero, fmt.Errorf("guard: %s: %w", method, err)
		}
	}

	var out T
	_, err := g.cbs.Get(method).Execute(func() (struct{}, error) {
		v, err := fn()
		out = v
		return struct{}{}, err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.GatewayRejectsTotal.WithLabelValues(method, "breaker_open").Inc()
		return zero, fmt.Errorf("%w: %s", ErrBreakerOpen, method)
	}
	if err != nil {
		return zero, err
	}
	return out, nil
}

func (g *guarded) Login(ctx context.Context, creds types.Credentials) (types.Session, error) {
	return call(ctx, g, "Login", func() (types.Session, error) { return g.next.Login(ctx, creds) })
}

func (g *guarded) Logout(ctx context.Context, s types.Session) error {
	_, err := call(ctx, g, "Logout", func() (struct{}, error) { return struct{}{}, g.next.Logout(ctx, s) })
	return err
}

func (g *guarded) OrderReport(ctx context.Context, s types.Session) (types.OrderReport, error) {
	return call(ctx, g, "OrderReport", func() (types.OrderReport, error) { return g.next.OrderReport(ctx, s) })
}

func (g *guarded) OrderHistory(ctx context.Context, s types.Session, orderID string) (types.OrderStatus, error) {
	return call(ctx, g, "OrderHistory", func() (types.OrderStatus, error) { return g.next.OrderHistory(ctx, s, orderID) })
}

func (g *guarded) OrderTrades(ctx context.Context, s types.Session, orderID string) ([]types.Fill, error) {
	return call(ctx, g, "OrderTrades", func() ([]types.Fill, error) { return g.next.OrderTrades(ctx, s, orderID) })
}

func (g *guarded) PlaceOrder(ctx context.Context, s types.Session, req types.OrderReq) (types.OrderResp, error) {
	return call(ctx, g, "PlaceOrder", func() (types.OrderResp, error) { return g.next.PlaceOrder(ctx, s, req) })
}

func (g *guarded) ModifyOrder(ctx context.Context, s types.Session, orderID string, req types.ModifyReq) (types.OrderResp, error) {
	return call(ctx, g, "ModifyOrder", func() (types.OrderResp, error) { return g.next.ModifyOrder(ctx, s, orderID, req) })
}

func (g *guarded) CancelOrder(ctx context.Context, s types.Session, orderID string) (types.OrderResp, error) {
	return call(ctx, g, "CancelOrder", func() (types.OrderResp, error) { return g.next.CancelOrder(ctx, s, orderID) })
}

func (g *guarded) Positions(ctx context.Context, s types.Session) ([]types.Position, error) {
	return call(ctx, g, "Positions", func() ([]types.Position, error) { return g.next.Positions(ctx, s) })
}

func (g *guarded) Holdings(ctx context.Context, s types.Session) ([]types.Holding, error) {
	return call(ctx, g, "Holdings", func() ([]types.Holding, error) { return g.next.Holdings(ctx, s) })
}

func (g *guarded) Limits(ctx context.Context, s types.Session) (types.Limits, error) {
	return call(ctx, g, "Limits", func() (types.Limits, error) { return g.next.Limits(ctx, s) })
}
