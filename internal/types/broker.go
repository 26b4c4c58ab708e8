package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Credentials are what a gateway needs to open a session. Either a request
// token + secret pair or an already issued access token.
type Credentials struct {
	APIKey       string
	APISecret    string
	RequestToken string
	AccessToken  string
}

// Session is the caller-owned handle returned by Login and passed into every
// gateway call. Gateways keep no copy of it.
type Session struct {
	Broker      string    `json:"broker"`
	APIKey      string    `json:"api_key"`
	AccessToken string    `json:"-"`
	UserID      string    `json:"user_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s Session) Valid() bool { return s.APIKey != "" && s.AccessToken != "" }

type OrderReq struct {
	Segment   string
	Symbol    string
	Side      Side
	Qty       int
	OrderType string // MARKET or LIMIT
	Product   string
	Price     decimal.Decimal
	Tag       string
}

type ModifyReq struct {
	Qty          int
	Price        decimal.Decimal
	TriggerPrice decimal.Decimal
	OrderType    string
	Validity     string
}

type OrderResp struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// OrderStatus is the latest state of a single order.
type OrderStatus struct {
	OrderID   string          `json:"order_id"`
	Status    string          `json:"status"`
	Symbol    string          `json:"symbol"`
	Side      Side            `json:"side"`
	Qty       int64           `json:"qty"`
	FilledQty int64           `json:"filled_qty"`
	AvgPrice  decimal.Decimal `json:"avg_price"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Fill is one exchange trade against an order.
type Fill struct {
	TradeID  string          `json:"trade_id"`
	OrderID  string          `json:"order_id"`
	AvgPrice decimal.Decimal `json:"avg_price"`
	Qty      int64           `json:"qty"`
	FilledAt time.Time       `json:"filled_at"`
}

type Position struct {
	Symbol   string          `json:"symbol"`
	Segment  string          `json:"segment"`
	Product  string          `json:"product"`
	NetQty   int64           `json:"net_qty"`
	BuyQty   int64           `json:"buy_qty"`
	SellQty  int64           `json:"sell_qty"`
	AvgPrice decimal.Decimal `json:"avg_price"`
	PnL      decimal.Decimal `json:"pnl"`
}

// Open reports whether the buy and sell quantities differ.
func (p Position) Open() bool { return p.BuyQty != p.SellQty }

type Holding struct {
	Symbol    string          `json:"symbol"`
	Segment   string          `json:"segment"`
	Qty       int64           `json:"qty"`
	AvgPrice  decimal.Decimal `json:"avg_price"`
	LastPrice decimal.Decimal `json:"last_price"`
	PnL       decimal.Decimal `json:"pnl"`
}

type Limits struct {
	Net       decimal.Decimal `json:"net"`
	Available decimal.Decimal `json:"available"`
	Used      decimal.Decimal `json:"used"`
}
