package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// AccountID is the exchange-assigned identifier of a trading account.
type AccountID string

// OrderID is the exchange-assigned identifier of an order.
type OrderID string

// ProductID identifies a trading pair (e.g., "BTC-USD").
type ProductID string

// enumName returns names[i], or "UNKNOWN" when i is out of range.
func enumName(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return "UNKNOWN"
	}
	return names[i]
}

// unmarshalEnum decodes a JSON string with parse. A JSON null leaves dst unchanged.
func unmarshalEnum[T any](data []byte, parse func(string) (T, error), dst *T) error {
	if string(data) == "null" {
		return nil
	}
	v, err := parse(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// OrderSide represents the direction of an order (buy or sell).
type OrderSide int

// Order side constants define the direction of a trade.
const (
	// SideBuy indicates an order to purchase an asset.
	SideBuy OrderSide = iota
	// SideSell indicates an order to sell an asset.
	SideSell
)

// String returns the string representation of the order side ("BUY" or "SELL").
func (s OrderSide) String() string {
	return enumName([]string{"BUY", "SELL"}, int(s))
}

// MarshalJSON implements json.Marshaler for OrderSide.
func (s OrderSide) MarshalJSON() ([]byte, error) {
	return []byte(`"` + strings.ToLower(s.String()) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for OrderSide.
// It accepts both uppercase and lowercase formats.
func (s *OrderSide) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, ParseOrderSide, s)
}

// ParseOrderSide parses a side in any letter case.
func ParseOrderSide(s string) (OrderSide, error) {
	switch strings.ToUpper(s) {
	case "BUY":
		return SideBuy, nil
	case "SELL":
		return SideSell, nil
	}
	return 0, fmt.Errorf("unknown order side %q", s)
}

// OrderType represents the type of order to place on an exchange.
type OrderType int

// Order type constants define how an order is executed.
const (
	// TypeLimit executes at a specified price or better.
	TypeLimit OrderType = iota
	// TypeMarket executes immediately at the best available price.
	TypeMarket
)

// String returns the string representation of the order type.
func (t OrderType) String() string {
	return enumName([]string{"LIMIT", "MARKET"}, int(t))
}

// MarshalJSON implements json.Marshaler for OrderType.
func (t OrderType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + strings.ToLower(t.String()) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for OrderType.
func (t *OrderType) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, ParseOrderType, t)
}

// ParseOrderType parses an order type in any letter case.
func ParseOrderType(s string) (OrderType, error) {
	switch strings.ToUpper(s) {
	case "LIMIT":
		return TypeLimit, nil
	case "MARKET":
		return TypeMarket, nil
	}
	return 0, fmt.Errorf("unknown order type %q", s)
}

// OrderStatus represents the lifecycle state of an order.
// StatusAll is only meaningful as a list filter.
type OrderStatus int

// Order status constants.
const (
	// StatusOpen indicates the order is resting on the book.
	StatusOpen OrderStatus = iota
	// StatusPending indicates the order has been received but not yet processed.
	StatusPending
	// StatusActive indicates a stop order that has been triggered.
	StatusActive
	// StatusDone indicates the order is filled or canceled.
	StatusDone
	// StatusAll matches every status when filtering.
	StatusAll
)

// String returns the string representation of the order status.
func (s OrderStatus) String() string {
	return enumName([]string{"OPEN", "PENDING", "ACTIVE", "DONE", "ALL"}, int(s))
}

// IsTerminal returns true if no further changes to the order are possible.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDone
}

// MarshalJSON implements json.Marshaler for OrderStatus.
func (s OrderStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + strings.ToLower(s.String()) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for OrderStatus.
func (s *OrderStatus) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, ParseOrderStatus, s)
}

// ParseOrderStatus parses a status in any letter case.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch strings.ToUpper(s) {
	case "OPEN":
		return StatusOpen, nil
	case "PENDING":
		return StatusPending, nil
	case "ACTIVE":
		return StatusActive, nil
	case "DONE":
		return StatusDone, nil
	case "ALL":
		return StatusAll, nil
	}
	return 0, fmt.Errorf("unknown order status %q", s)
}

// TimeInForce defines how long an order remains active.
type TimeInForce int

// Time in force constants define order lifetime behavior.
const (
	// GTC (Good Till Canceled) keeps the order active until filled or canceled.
	GTC TimeInForce = iota
	// GTT (Good Till Time) cancels the order after its CancelAfter window.
	GTT
	// IOC (Immediate Or Cancel) requires immediate execution; unfilled portion is canceled.
	IOC
	// FOK (Fill Or Kill) requires complete immediate execution or cancellation.
	FOK
)

// String returns the string representation of time in force.
func (t TimeInForce) String() string {
	return enumName([]string{"GTC", "GTT", "IOC", "FOK"}, int(t))
}

// MarshalJSON implements json.Marshaler for TimeInForce.
func (t TimeInForce) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for TimeInForce.
func (t *TimeInForce) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, ParseTimeInForce, t)
}

// ParseTimeInForce parses a time in force in any letter case.
func ParseTimeInForce(s string) (TimeInForce, error) {
	switch strings.ToUpper(s) {
	case "GTC":
		return GTC, nil
	case "GTT":
		return GTT, nil
	case "IOC":
		return IOC, nil
	case "FOK":
		return FOK, nil
	}
	return 0, fmt.Errorf("unknown time in force %q", s)
}

// CancelAfter is the lifetime window of a GTT order.
type CancelAfter int

const (
	CancelAfterMin CancelAfter = iota
	CancelAfterHour
	CancelAfterDay
)

// String returns the string representation of the window.
func (c CancelAfter) String() string {
	return enumName([]string{"MIN", "HOUR", "DAY"}, int(c))
}

// MarshalJSON implements json.Marshaler for CancelAfter.
func (c CancelAfter) MarshalJSON() ([]byte, error) {
	return []byte(`"` + strings.ToLower(c.String()) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for CancelAfter.
func (c *CancelAfter) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, ParseCancelAfter, c)
}

// ParseCancelAfter parses a window name in any letter case.
func ParseCancelAfter(s string) (CancelAfter, error) {
	switch strings.ToUpper(s) {
	case "MIN":
		return CancelAfterMin, nil
	case "HOUR":
		return CancelAfterHour, nil
	case "DAY":
		return CancelAfterDay, nil
	}
	return 0, fmt.Errorf("unknown cancel after %q", s)
}

// SelfTradePrevention is the policy applied when an order would match
// another order from the same user.
type SelfTradePrevention int

// Self-trade prevention policies.
const (
	// STPDecrementAndCancel decrements the larger order and cancels the smaller one.
	STPDecrementAndCancel SelfTradePrevention = iota
	// STPCancelOldest cancels the resting order.
	STPCancelOldest
	// STPCancelNewest cancels the incoming order.
	STPCancelNewest
	// STPCancelBoth cancels both orders.
	STPCancelBoth
)

// String returns the short code of the policy ("DC", "CO", "CN" or "CB").
func (s SelfTradePrevention) String() string {
	return enumName([]string{"DC", "CO", "CN", "CB"}, int(s))
}

// MarshalJSON implements json.Marshaler for SelfTradePrevention.
func (s SelfTradePrevention) MarshalJSON() ([]byte, error) {
	return []byte(`"` + strings.ToLower(s.String()) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for SelfTradePrevention.
func (s *SelfTradePrevention) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, ParseSelfTradePrevention, s)
}

// ParseSelfTradePrevention parses a policy code in any letter case.
func ParseSelfTradePrevention(s string) (SelfTradePrevention, error) {
	switch strings.ToUpper(s) {
	case "DC":
		return STPDecrementAndCancel, nil
	case "CO":
		return STPCancelOldest, nil
	case "CN":
		return STPCancelNewest, nil
	case "CB":
		return STPCancelBoth, nil
	}
	return 0, fmt.Errorf("unknown self-trade prevention %q", s)
}

// Liquidity tells whether a fill added or removed liquidity.
type Liquidity int

const (
	LiquidityMaker Liquidity = iota
	LiquidityTaker
)

// String returns "M" for maker and "T" for taker.
func (l Liquidity) String() string {
	return enumName([]string{"M", "T"}, int(l))
}

// MarshalJSON implements json.Marshaler for Liquidity.
func (l Liquidity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + l.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for Liquidity.
func (l *Liquidity) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, ParseLiquidity, l)
}

// ParseLiquidity parses "M" or "T" in any letter case.
func ParseLiquidity(s string) (Liquidity, error) {
	switch strings.ToUpper(s) {
	case "M":
		return LiquidityMaker, nil
	case "T":
		return LiquidityTaker, nil
	}
	return 0, fmt.Errorf("unknown liquidity %q", s)
}

// Account represents the balance of a single currency in a trading profile.
type Account struct {
	// ID is the exchange-assigned account identifier.
	ID AccountID `json:"id"`
	// Currency is the currency symbol (e.g., "BTC", "USD").
	Currency string `json:"currency"`
	// Balance is the total funds in the account.
	Balance apd.Decimal `json:"balance"`
	// Available is the balance free for trading.
	Available apd.Decimal `json:"available"`
	// Hold is the amount reserved by open orders.
	Hold apd.Decimal `json:"hold"`
	// ProfileID is the owning profile.
	ProfileID string `json:"profile_id"`
	// TradingEnabled reports whether the account may trade.
	TradingEnabled bool `json:"trading_enabled"`
}

// Order represents an exchange order with all its details.
type Order struct {
	ID            OrderID             `json:"id"`
	ProductID     ProductID           `json:"product_id"`
	Side          OrderSide           `json:"side"`
	Type          OrderType           `json:"type"`
	Price         apd.Decimal         `json:"price"`
	Size          apd.Decimal         `json:"size"`
	Funds         apd.Decimal         `json:"funds"`
	STP           SelfTradePrevention `json:"stp"`
	TimeInForce   TimeInForce         `json:"time_in_force"`
	PostOnly      bool                `json:"post_only"`
	Status        OrderStatus         `json:"status"`
	Settled       bool                `json:"settled"`
	FillFees      apd.Decimal         `json:"fill_fees"`
	FilledSize    apd.Decimal         `json:"filled_size"`
	ExecutedValue apd.Decimal         `json:"executed_value"`
	DoneReason    string              `json:"done_reason,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	DoneAt        time.Time           `json:"done_at,omitzero"`
}

// Fill represents a single (possibly partial) execution of an order.
type Fill struct {
	// TradeID is the exchange-assigned trade identifier.
	TradeID int64 `json:"trade_id"`
	// ProductID is the trading pair of the execution.
	ProductID ProductID `json:"product_id"`
	// OrderID links this fill to its parent order.
	OrderID OrderID `json:"order_id"`
	// Price is the execution price.
	Price apd.Decimal `json:"price"`
	// Size is the executed amount.
	Size apd.Decimal `json:"size"`
	// Fee is the trading fee charged.
	Fee apd.Decimal `json:"fee"`
	// Side is the side of the parent order.
	Side OrderSide `json:"side"`
	// Liquidity tells whether the fill was maker or taker.
	Liquidity Liquidity `json:"liquidity"`
	// Settled reports whether funds have settled.
	Settled bool `json:"settled"`
	// CreatedAt is when the trade was executed.
	CreatedAt time.Time `json:"created_at"`
}
