package exchange

import (
	"context"

	"github.com/cockroachdb/apd/v3"

	"cbpro/pkg/core"
)

// Exchange is the authenticated trading surface of an exchange profile:
// accounts, orders and fills.
type Exchange interface {
	Name() string

	Accounts(ctx context.Context) ([]core.Account, error)
	Account(ctx context.Context, id core.AccountID) (*core.Account, error)

	ListOrders(ctx context.Context, opts ...Option) ([]core.Order, error)
	PlaceOrder(ctx context.Context, req *OrderRequest) (*core.Order, error)
	CancelOrder(ctx context.Context, id core.OrderID) error
	CancelAll(ctx context.Context, opts ...Option) ([]core.OrderID, error)

	Fills(ctx context.Context, opts ...Option) ([]core.Fill, error)

	Close() error
}

// OrderRequest contains the parameters of a new order. Nil optional fields
// are left out of the request so the exchange applies its defaults.
type OrderRequest struct {
	ProductID core.ProductID `validate:"required"`
	Side      core.OrderSide
	Size      apd.Decimal
	Price     apd.Decimal
	PostOnly  bool

	Type        *core.OrderType
	STP         *core.SelfTradePrevention
	TimeInForce *core.TimeInForce
	CancelAfter *core.CancelAfter
	ClientOID   string `validate:"omitempty,uuid"`
}
