package guard

import (
	"context"
	"errors"
	"testing"
	"time"

	"broker-ledger/internal/broker/brokertest"
	"broker-ledger/internal/types"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestBreakerOpensPerMethod(t *testing.T) {
	fake := brokertest.New()
	fake.Err = errors.New("502 bad gateway")

	var transitions []gobreaker.State
	mgr := NewManager(Rule{TripConsecutiveFailures: 3, Timeout: time.Hour}, nil)
	mgr.OnStateChange(func(method string, from, to gobreaker.State) {
		if method == "OrderReport" {
			transitions = append(transitions, to)
		}
	})
	g := Wrap(fake, nil, mgr)
	ctx := context.Background()
	s := types.Session{APIKey: "k", AccessToken: "t"}

	for i := 0; i < 3; i++ {
		_, err := g.OrderReport(ctx, s)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrBreakerOpen)
	}

	_, err := g.OrderReport(ctx, s)
	assert.ErrorIs(t, err, ErrBreakerOpen)
	assert.Equal(t, 3, fake.CallCount("OrderReport"), "open breaker must not reach the broker")
	assert.Equal(t, []gobreaker.State{gobreaker.StateOpen}, transitions)

	// Other methods keep their own breaker
	fake.Err = nil
	_, err = g.Limits(ctx, s)
	assert.NoError(t, err)
}

func TestCanceledCallsDoNotTrip(t *testing.T) {
	fake := brokertest.New()
	fake.Err = context.Canceled
	g := Wrap(fake, nil, NewManager(Rule{TripConsecutiveFailures: 1}, nil))

	for i := 0; i < 3; i++ {
		_, err := g.Positions(context.Background(), types.Session{})
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, 3, fake.CallCount("Positions"))
}

func TestRateLimitHonoursContext(t *testing.T) {
	fake := brokertest.New()
	g := Wrap(fake, rate.NewLimiter(rate.Every(time.Hour), 1), NewManager(Rule{}, nil))

	_, err := g.Limits(context.Background(), types.Session{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = g.Limits(ctx, types.Session{})
	assert.Error(t, err)
	assert.Equal(t, 1, fake.CallCount("Limits"))
}

func TestResultsPassThrough(t *testing.T) {
	fake := brokertest.New()
	fake.Report = types.NewOrderReport([]types.RawOrderRecord{{Symbol: "NIFTY"}})
	g := Wrap(fake, rate.NewLimiter(rate.Inf, 1), NewManager(Rule{}, nil))

	rep, err := g.OrderReport(context.Background(), types.Session{})
	require.NoError(t, err)
	require.NotNil(t, rep.Data)
	assert.Len(t, *rep.Data, 1)

	resp, err := g.PlaceOrder(context.Background(), types.Session{}, types.OrderReq{Symbol: "NIFTY"})
	require.NoError(t, err)
	assert.Equal(t, "ORD-1", resp.OrderID)
}
