// Package charges computes the transaction costs of a round-tripped trade
// under an exchange fee schedule. Everything here is pure.
package charges

import (
	"errors"
	"fmt"

	"broker-ledger/internal/types"

	"github.com/shopspring/decimal"
)

var (
	// ErrZeroQuantity means a pair with no quantity reached the charge model.
	// Upstream validation should have rejected it.
	ErrZeroQuantity  = errors.New("charges: quantity must be positive")
	ErrNegativePrice = errors.New("charges: price must not be negative")
)

// Schedule is a fee schedule expressed as rates on turnover.
type Schedule struct {
	BrokeragePerLeg  decimal.Decimal // flat fee per executed leg for manual trades
	STTSellRate      decimal.Decimal // securities transaction tax, sell side
	ExchangeTxnRate  decimal.Decimal // exchange transaction charge, both sides
	SEBIFeeRate      decimal.Decimal // regulator turnover fee, both sides
	StampDutyBuyRate decimal.Decimal // stamp duty, buy side
	GSTRate          decimal.Decimal // on brokerage + exchange + SEBI
	Places           int32           // rounding of each component
}

// NSEOptions is the NSE index options schedule for a discount broker.
func NSEOptions() Schedule {
	return Schedule{
		BrokeragePerLeg:  decimal.NewFromInt(20),
		STTSellRate:      decimal.RequireFromString("0.001"),
		ExchangeTxnRate:  decimal.RequireFromString("0.0003503"),
		SEBIFeeRate:      decimal.RequireFromString("0.000001"),
		StampDutyBuyRate: decimal.RequireFromString("0.00003"),
		GSTRate:          decimal.RequireFromString("0.18"),
		Places:           2,
	}
}

func (s Schedule) Validate() error {
	rates := map[string]decimal.Decimal{
		"brokerage_per_leg":   s.BrokeragePerLeg,
		"stt_sell_rate":       s.STTSellRate,
		"exchange_txn_rate":   s.ExchangeTxnRate,
		"sebi_fee_rate":       s.SEBIFeeRate,
		"stamp_duty_buy_rate": s.StampDutyBuyRate,
		"gst_rate":            s.GSTRate,
	}
	for name, v := range rates {
		if v.IsNegative() {
			return fmt.Errorf("charges.%s must not be negative, got %s", name, v)
		}
	}
	if s.Places < 0 {
		return fmt.Errorf("charges.round_places must not be negative, got %d", s.Places)
	}
	return nil
}

// BrokerageFor returns the per-leg brokerage tier. Bot trades pay none.
func (s Schedule) BrokerageFor(botTrade bool) decimal.Decimal {
	if botTrade {
		return decimal.Zero
	}
	return s.BrokeragePerLeg
}

// Compute returns the charges for one buy leg and one sell leg of quantity
// units each.
func (s Schedule) Compute(buyPrice, sellPrice decimal.Decimal, quantity int64, brokeragePerLeg decimal.Decimal) (types.ChargeBreakdown, error) {
	if quantity <= 0 {
		return types.ChargeBreakdown{}, fmt.Errorf("%w: got %d", ErrZeroQuantity, quantity)
	}
	if buyPrice.IsNegative() || sellPrice.IsNegative() {
		return types.ChargeBreakdown{}, fmt.Errorf("%w: buy %s sell %s", ErrNegativePrice, buyPrice, sellPrice)
	}

	qty := decimal.NewFromInt(quantity)
	buyTO := buyPrice.Mul(qty)
	sellTO := sellPrice.Mul(qty)
	turnover := buyTO.Add(sellTO)

	b := types.ChargeBreakdown{
		BuyTurnover:  buyTO,
		SellTurnover: sellTO,
		Brokerage:    s.round(brokeragePerLeg.Mul(decimal.NewFromInt(2))),
		STT:          s.round(sellTO.Mul(s.STTSellRate)),
		ExchangeTxn:  s.round(turnover.Mul(s.ExchangeTxnRate)),
		SEBIFees:     s.round(turnover.Mul(s.SEBIFeeRate)),
		StampDuty:    s.round(buyTO.Mul(s.StampDutyBuyRate)),
	}
	b.GST = s.round(b.Brokerage.Add(b.ExchangeTxn).Add(b.SEBIFees).Mul(s.GSTRate))
	b.Total = decimal.Sum(b.Brokerage, b.STT, b.ExchangeTxn, b.SEBIFees, b.StampDuty, b.GST)
	return b, nil
}

func (s Schedule) round(d decimal.Decimal) decimal.Decimal {
	return d.Round(s.Places)
}
