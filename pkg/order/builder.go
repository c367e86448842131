package order

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/apd/v3"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"cbpro/pkg/core"
	"cbpro/pkg/exchange"
)

// Builder provides a fluent interface for constructing order requests.
// The first parse error is kept and reported by Build.
//
// Example:
//
//	req, err := order.NewBuilder("BTC-USD").
//	    Buy().
//	    Limit().
//	    Price("30000").
//	    Size("0.001").
//	    PostOnly().
//	    Build()
type Builder struct {
	req *exchange.OrderRequest
	err error
}

var validate = validator.New()

func NewBuilder(product core.ProductID) *Builder {
	return &Builder{
		req: &exchange.OrderRequest{ProductID: product},
	}
}

func (b *Builder) Side(side core.OrderSide) *Builder {
	b.req.Side = side
	return b
}

func (b *Builder) Buy() *Builder {
	return b.Side(core.SideBuy)
}

func (b *Builder) Sell() *Builder {
	return b.Side(core.SideSell)
}

func (b *Builder) Type(t core.OrderType) *Builder {
	b.req.Type = &t
	return b
}

func (b *Builder) Limit() *Builder {
	return b.Type(core.TypeLimit)
}

func (b *Builder) Market() *Builder {
	return b.Type(core.TypeMarket)
}

// Price sets the limit price from its decimal string form.
func (b *Builder) Price(price string) *Builder {
	if b.err != nil {
		return b
	}
	if _, _, err := b.req.Price.SetString(price); err != nil {
		b.err = fmt.Errorf("parse price: %w", err)
	}
	return b
}

func (b *Builder) PriceDecimal(price apd.Decimal) *Builder {
	b.req.Price.Set(&price)
	return b
}

// Size sets the order size from its decimal string form.
func (b *Builder) Size(size string) *Builder {
	if b.err != nil {
		return b
	}
	if _, _, err := b.req.Size.SetString(size); err != nil {
		b.err = fmt.Errorf("parse size: %w", err)
	}
	return b
}

func (b *Builder) SizeDecimal(size apd.Decimal) *Builder {
	b.req.Size.Set(&size)
	return b
}

// PostOnly makes the order maker-only: it is rejected instead of matching.
func (b *Builder) PostOnly() *Builder {
	b.req.PostOnly = true
	return b
}

func (b *Builder) TimeInForce(tif core.TimeInForce) *Builder {
	b.req.TimeInForce = &tif
	return b
}

func (b *Builder) GTC() *Builder {
	return b.TimeInForce(core.GTC)
}

func (b *Builder) IOC() *Builder {
	return b.TimeInForce(core.IOC)
}

func (b *Builder) FOK() *Builder {
	return b.TimeInForce(core.FOK)
}

// GTT keeps the order on the book for the given window.
func (b *Builder) GTT(after core.CancelAfter) *Builder {
	b.req.CancelAfter = &after
	return b.TimeInForce(core.GTT)
}

func (b *Builder) STP(stp core.SelfTradePrevention) *Builder {
	b.req.STP = &stp
	return b
}

// ClientOID sets the client order id. It must be a UUID.
func (b *Builder) ClientOID(id string) *Builder {
	b.req.ClientOID = id
	return b
}

// NewClientOID assigns a random client order id.
func (b *Builder) NewClientOID() *Builder {
	return b.ClientOID(uuid.NewString())
}

// Build validates and returns the order request.
func (b *Builder) Build() (*exchange.OrderRequest, error) {
	if b.err != nil {
		return nil, b.err
	}

	if err := Validate(b.req); err != nil {
		return nil, err
	}

	return b.req, nil
}

var (
	ErrProductRequired  = errors.New("product id is required")
	ErrSizeNotPositive  = errors.New("size must be positive")
	ErrPriceNotPositive = errors.New("price must be positive for limit orders")
	ErrPostOnlyTaker    = errors.New("post only is not allowed with IOC or FOK")
	ErrCancelAfterNoGTT = errors.New("cancel after requires GTT time in force")
)

// Validate checks req against the exchange's order rules. An order without
// a type is a limit order.
func Validate(req *exchange.OrderRequest) error {
	if req.ProductID == "" {
		return ErrProductRequired
	}

	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("invalid order request: %w", err)
	}

	if req.Size.IsZero() || req.Size.Negative {
		return ErrSizeNotPositive
	}

	if req.Type == nil || *req.Type == core.TypeLimit {
		if req.Price.IsZero() || req.Price.Negative {
			return ErrPriceNotPositive
		}
	}

	if req.PostOnly && req.TimeInForce != nil && (*req.TimeInForce == core.IOC || *req.TimeInForce == core.FOK) {
		return ErrPostOnlyTaker
	}

	if req.CancelAfter != nil && (req.TimeInForce == nil || *req.TimeInForce != core.GTT) {
		return ErrCancelAfterNoGTT
	}

	return nil
}
