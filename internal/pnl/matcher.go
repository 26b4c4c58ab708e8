package pnl

import (
	"slices"

	"broker-ledger/internal/types"

	"github.com/shopspring/decimal"
)

type group struct {
	key   types.InstrumentKey
	buys  []types.NormalizedTrade
	sells []types.NormalizedTrade
}

// Match pairs buys with sells FIFO inside each instrument group. Trades are
// ordered by time first; trades without a parseable time go last in input
// order. Groups are emitted in the order their key was first seen, pairs in
// index order. Legs beyond min(buys, sells) come back as open legs.
func Match(trades []types.NormalizedTrade) ([]types.MatchedTradePair, []types.OpenLeg) {
	sorted := slices.Clone(trades)
	slices.SortStableFunc(sorted, compareTrades)

	var order []*group
	groups := make(map[types.InstrumentKey]*group)
	for _, t := range sorted {
		g, ok := groups[t.Instrument]
		if !ok {
			g = &group{key: t.Instrument}
			groups[t.Instrument] = g
			order = append(order, g)
		}
		if t.Side == types.SideBuy {
			g.buys = append(g.buys, t)
		} else {
			g.sells = append(g.sells, t)
		}
	}

	var (
		pairs []types.MatchedTradePair
		open  []types.OpenLeg
	)
	for _, g := range order {
		n := min(len(g.buys), len(g.sells))
		for i := 0; i < n; i++ {
			pairs = append(pairs, pair(g.key, g.buys[i], g.sells[i]))
		}
		for _, t := range g.buys[n:] {
			open = append(open, openLeg(t))
		}
		for _, t := range g.sells[n:] {
			open = append(open, openLeg(t))
		}
	}
	return pairs, open
}

func compareTrades(a, b types.NormalizedTrade) int {
	az, bz := a.Time.IsZero(), b.Time.IsZero()
	switch {
	case az && bz:
		return a.Seq - b.Seq
	case az:
		return 1
	case bz:
		return -1
	}
	if c := a.Time.Compare(b.Time); c != 0 {
		return c
	}
	return a.Seq - b.Seq
}

// pair sizes the round trip by the buy leg.
func pair(key types.InstrumentKey, buy, sell types.NormalizedTrade) types.MatchedTradePair {
	qty := buy.Quantity
	return types.MatchedTradePair{
		Instrument: key,
		BuyTime:    buy.Time,
		SellTime:   sell.Time,
		BuyPrice:   buy.Price,
		SellPrice:  sell.Price,
		Quantity:   qty,
		GrossPnL:   sell.Price.Sub(buy.Price).Mul(decimal.NewFromInt(qty)),
	}
}

func openLeg(t types.NormalizedTrade) types.OpenLeg {
	return types.OpenLeg{
		Instrument: t.Instrument,
		Side:       t.Side,
		Time:       t.Time,
		Price:      t.Price,
		Quantity:   t.Quantity,
	}
}
