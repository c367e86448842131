package coinbase

import (
	"fmt"
	"time"

	"github.com/cockroachdb/apd/v3"

	"cbpro/pkg/core"
)

// cbAccount is the raw account object.
type cbAccount struct {
	ID             string `json:"id"`
	Currency       string `json:"currency"`
	Balance        string `json:"balance"`
	Available      string `json:"available"`
	Hold           string `json:"hold"`
	ProfileID      string `json:"profile_id"`
	TradingEnabled bool   `json:"trading_enabled"`
}

// cbOrder is the raw order object. Market orders carry funds instead of
// price and may omit time_in_force.
type cbOrder struct {
	ID            string `json:"id"`
	ProductID     string `json:"product_id"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	Price         string `json:"price"`
	Size          string `json:"size"`
	Funds         string `json:"funds"`
	STP           string `json:"stp"`
	TimeInForce   string `json:"time_in_force"`
	PostOnly      bool   `json:"post_only"`
	Status        string `json:"status"`
	Settled       bool   `json:"settled"`
	FillFees      string `json:"fill_fees"`
	FilledSize    string `json:"filled_size"`
	ExecutedValue string `json:"executed_value"`
	DoneReason    string `json:"done_reason"`
	CreatedAt     string `json:"created_at"`
	DoneAt        string `json:"done_at"`
}

type cbFill struct {
	TradeID   int64  `json:"trade_id"`
	ProductID string `json:"product_id"`
	OrderID   string `json:"order_id"`
	Price     string `json:"price"`
	Size      string `json:"size"`
	Fee       string `json:"fee"`
	Side      string `json:"side"`
	Liquidity string `json:"liquidity"`
	Settled   bool   `json:"settled"`
	CreatedAt string `json:"created_at"`
}

// Normalizer converts raw API objects into core types.
type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

func (n *Normalizer) NormalizeAccount(data *cbAccount) (*core.Account, error) {
	account := &core.Account{
		ID:             core.AccountID(data.ID),
		Currency:       data.Currency,
		ProfileID:      data.ProfileID,
		TradingEnabled: data.TradingEnabled,
	}

	if err := parseDecimals(
		decimalField{"balance", &account.Balance, data.Balance},
		decimalField{"available", &account.Available, data.Available},
		decimalField{"hold", &account.Hold, data.Hold},
	); err != nil {
		return nil, err
	}

	return account, nil
}

func (n *Normalizer) NormalizeAccounts(data []cbAccount) ([]core.Account, error) {
	accounts := make([]core.Account, 0, len(data))
	for i := range data {
		account, err := n.NormalizeAccount(&data[i])
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", data[i].ID, err)
		}
		accounts = append(accounts, *account)
	}
	return accounts, nil
}

// NormalizeOrder converts a raw order. Missing enum fields take the
// exchange defaults: limit, gtc, dc.
func (n *Normalizer) NormalizeOrder(data *cbOrder) (*core.Order, error) {
	order := &core.Order{
		ID:         core.OrderID(data.ID),
		ProductID:  core.ProductID(data.ProductID),
		PostOnly:   data.PostOnly,
		Settled:    data.Settled,
		DoneReason: data.DoneReason,
	}

	var err error
	if order.Side, err = core.ParseOrderSide(data.Side); err != nil {
		return nil, fmt.Errorf("parse side: %w", err)
	}
	if data.Type != "" {
		if order.Type, err = core.ParseOrderType(data.Type); err != nil {
			return nil, fmt.Errorf("parse type: %w", err)
		}
	}
	if data.TimeInForce != "" {
		if order.TimeInForce, err = core.ParseTimeInForce(data.TimeInForce); err != nil {
			return nil, fmt.Errorf("parse time_in_force: %w", err)
		}
	}
	if data.STP != "" {
		if order.STP, err = core.ParseSelfTradePrevention(data.STP); err != nil {
			return nil, fmt.Errorf("parse stp: %w", err)
		}
	}
	if order.Status, err = core.ParseOrderStatus(data.Status); err != nil {
		return nil, fmt.Errorf("parse status: %w", err)
	}

	if err := parseDecimals(
		decimalField{"price", &order.Price, data.Price},
		decimalField{"size", &order.Size, data.Size},
		decimalField{"funds", &order.Funds, data.Funds},
		decimalField{"fill_fees", &order.FillFees, data.FillFees},
		decimalField{"filled_size", &order.FilledSize, data.FilledSize},
		decimalField{"executed_value", &order.ExecutedValue, data.ExecutedValue},
	); err != nil {
		return nil, err
	}

	if order.CreatedAt, err = parseTime(data.CreatedAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if order.DoneAt, err = parseTime(data.DoneAt); err != nil {
		return nil, fmt.Errorf("parse done_at: %w", err)
	}

	return order, nil
}

func (n *Normalizer) NormalizeOrders(data []cbOrder) ([]core.Order, error) {
	orders := make([]core.Order, 0, len(data))
	for i := range data {
		order, err := n.NormalizeOrder(&data[i])
		if err != nil {
			return nil, fmt.Errorf("order %s: %w", data[i].ID, err)
		}
		orders = append(orders, *order)
	}
	return orders, nil
}

func (n *Normalizer) NormalizeFill(data *cbFill) (*core.Fill, error) {
	fill := &core.Fill{
		TradeID:   data.TradeID,
		ProductID: core.ProductID(data.ProductID),
		OrderID:   core.OrderID(data.OrderID),
		Settled:   data.Settled,
	}

	var err error
	if fill.Side, err = core.ParseOrderSide(data.Side); err != nil {
		return nil, fmt.Errorf("parse side: %w", err)
	}
	if fill.Liquidity, err = core.ParseLiquidity(data.Liquidity); err != nil {
		return nil, fmt.Errorf("parse liquidity: %w", err)
	}

	if err := parseDecimals(
		decimalField{"price", &fill.Price, data.Price},
		decimalField{"size", &fill.Size, data.Size},
		decimalField{"fee", &fill.Fee, data.Fee},
	); err != nil {
		return nil, err
	}

	if fill.CreatedAt, err = parseTime(data.CreatedAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	return fill, nil
}

func (n *Normalizer) NormalizeFills(data []cbFill) ([]core.Fill, error) {
	fills := make([]core.Fill, 0, len(data))
	for i := range data {
		fill, err := n.NormalizeFill(&data[i])
		if err != nil {
			return nil, fmt.Errorf("fill %d: %w", data[i].TradeID, err)
		}
		fills = append(fills, *fill)
	}
	return fills, nil
}

type decimalField struct {
	name string
	dest *apd.Decimal
	raw  string
}

func parseDecimals(fields ...decimalField) error {
	for _, f := range fields {
		if err := parseDecimal(f.dest, f.raw); err != nil {
			return fmt.Errorf("parse %s: %w", f.name, err)
		}
	}
	return nil
}

func parseDecimal(dest *apd.Decimal, s string) error {
	if s == "" {
		*dest = apd.Decimal{}
		return nil
	}

	_, _, err := apd.BaseContext.SetString(dest, s)
	if err != nil {
		return fmt.Errorf("set decimal from string: %w", err)
	}

	return nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
