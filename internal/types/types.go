package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Text is a loosely typed JSON scalar. Broker payloads send the same field as
// a string on one endpoint and a number on another; Text keeps the literal so
// the normalizer decides what it means.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
	case '{', '[':
		return fmt.Errorf("expected scalar, got %s", b)
	default:
		// numbers and booleans keep their literal form
		*t = Text(b)
	}
	return nil
}

func (t Text) String() string { return strings.TrimSpace(string(t)) }

// RawOrderRecord is one row of the broker order report, as delivered.
type RawOrderRecord struct {
	ConfirmedAt Text `json:"exCfmTm"`
	Segment     Text `json:"exSeg"`
	AvgPrice    Text `json:"avgPrc"`
	Quantity    Text `json:"qty"`
	Symbol      Text `json:"sym"`
	Strike      Text `json:"stkPrc"`
	OptionType  Text `json:"optTp"`
	Side        Text `json:"trnsTp"`
	Status      Text `json:"stat"`
}

// OrderReport is the envelope returned by the order report endpoint.
// A nil Data means the envelope did not carry the record list at all.
type OrderReport struct {
	Stat    string            `json:"stat,omitempty"`
	Message string            `json:"emsg,omitempty"`
	Data    *[]RawOrderRecord `json:"data"`
}

// NewOrderReport wraps records in a well-formed envelope.
func NewOrderReport(records []RawOrderRecord) OrderReport {
	if records == nil {
		records = []RawOrderRecord{}
	}
	return OrderReport{Stat: "Ok", Data: &records}
}

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

type OptionType string

const (
	OptionNone OptionType = ""
	OptionCall OptionType = "CALL"
	OptionPut  OptionType = "PUT"
)

// InstrumentKey identifies a matching group. Strike holds the canonical
// decimal text of the strike, or "" when the instrument has none; an empty
// strike or option type only equals another empty one.
type InstrumentKey struct {
	Symbol     string     `json:"symbol"`
	Strike     string     `json:"strike,omitempty"`
	OptionType OptionType `json:"option_type,omitempty"`
}

func (k InstrumentKey) HasStrike() bool { return k.Strike != "" }

func (k InstrumentKey) String() string {
	s := k.Symbol
	if k.HasStrike() {
		s += " " + k.Strike
	}
	if k.OptionType != OptionNone {
		s += " " + string(k.OptionType)
	}
	return s
}

// NormalizedTrade is a validated order record. A zero Time marks a
// confirmation timestamp that could not be parsed.
type NormalizedTrade struct {
	Seq        int
	Time       time.Time
	Instrument InstrumentKey
	Segment    string
	Side       Side
	Price      decimal.Decimal
	Quantity   int64
	Status     string
}

type MatchedTradePair struct {
	Instrument InstrumentKey   `json:"instrument"`
	BuyTime    time.Time       `json:"buy_time"`
	SellTime   time.Time       `json:"sell_time"`
	BuyPrice   decimal.Decimal `json:"buy_price"`
	SellPrice  decimal.Decimal `json:"sell_price"`
	Quantity   int64           `json:"qty"`
	GrossPnL   decimal.Decimal `json:"pnl"`
}

type ChargeBreakdown struct {
	BuyTurnover  decimal.Decimal `json:"buy_turnover"`
	SellTurnover decimal.Decimal `json:"sell_turnover"`
	Brokerage    decimal.Decimal `json:"brokerage"`
	STT          decimal.Decimal `json:"stt"`
	ExchangeTxn  decimal.Decimal `json:"exchange_txn"`
	SEBIFees     decimal.Decimal `json:"sebi_fees"`
	StampDuty    decimal.Decimal `json:"stamp_duty"`
	GST          decimal.Decimal `json:"gst"`
	Total        decimal.Decimal `json:"total_charges"`
}

type LedgerRow struct {
	MatchedTradePair
	Charges ChargeBreakdown `json:"charges"`
	NetPnL  decimal.Decimal `json:"net"`
}

// OpenLeg is a buy or sell that found no counterpart in its group.
type OpenLeg struct {
	Instrument InstrumentKey   `json:"instrument"`
	Side       Side            `json:"side"`
	Time       time.Time       `json:"time"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int64           `json:"qty"`
}

type DropReason string

const (
	DropBadPrice       DropReason = "bad_price"
	DropBadQuantity    DropReason = "bad_quantity"
	DropBadSide        DropReason = "bad_side"
	DropBadSymbol      DropReason = "bad_symbol"
	DropBadStrike      DropReason = "bad_strike"
	DropBadOptionType  DropReason = "bad_option_type"
	DropStatusFiltered DropReason = "status_filtered"
)

type DroppedRecord struct {
	Index  int        `json:"index"`
	Reason DropReason `json:"reason"`
	Value  string     `json:"value,omitempty"`
}

// Ledger is the result of one reconstruction. Rows follow group first-seen
// order, then FIFO index within the group.
type Ledger struct {
	Rows         []LedgerRow     `json:"rows"`
	OpenLegs     []OpenLeg       `json:"open_legs,omitempty"`
	Dropped      []DroppedRecord `json:"dropped,omitempty"`
	GrossPnL     decimal.Decimal `json:"gross_pnl"`
	TotalCharges decimal.Decimal `json:"total_charges"`
	NetPnL       decimal.Decimal `json:"net_pnl"`
}
