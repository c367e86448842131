package exchange

import (
	"cbpro/pkg/core"
)

type Option func(*Options)

// Options holds the optional filters of list and cancel calls. Zero values
// mean "not set".
type Options struct {
	Statuses  []core.OrderStatus
	ProductID core.ProductID
	OrderID   core.OrderID
}

// WithStatuses filters orders by status. Repeated calls accumulate.
func WithStatuses(statuses ...core.OrderStatus) Option {
	return func(o *Options) {
		o.Statuses = append(o.Statuses, statuses...)
	}
}

func WithProductID(id core.ProductID) Option {
	return func(o *Options) {
		o.ProductID = id
	}
}

func WithOrderID(id core.OrderID) Option {
	return func(o *Options) {
		o.OrderID = id
	}
}

func ApplyOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
