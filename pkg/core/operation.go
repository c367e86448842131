package core

// Operation represents a type of action that can be performed on an exchange.
type Operation int

// Operation constants define all supported exchange operations.
const (
	// OpListAccounts lists every account of the profile.
	OpListAccounts Operation = iota
	// OpGetAccount retrieves a single account by id.
	OpGetAccount
	// OpListOrders lists orders filtered by status and product.
	OpListOrders
	// OpPlaceOrder submits a new order to the exchange.
	OpPlaceOrder
	// OpCancelOrder cancels a single order by id.
	OpCancelOrder
	// OpCancelAll cancels every open order, optionally for one product.
	OpCancelAll
	// OpListFills lists recent fills by product or order.
	OpListFills
)

// String returns the string representation of the operation, or "UNKNOWN"
// for a value outside the declared set.
func (o Operation) String() string {
	return enumName([]string{
		"LIST_ACCOUNTS",
		"GET_ACCOUNT",
		"LIST_ORDERS",
		"PLACE_ORDER",
		"CANCEL_ORDER",
		"CANCEL_ALL",
		"LIST_FILLS",
	}, int(o))
}

// IsTrading reports whether the operation mutates the order book.
func (o Operation) IsTrading() bool {
	return o == OpPlaceOrder || o == OpCancelOrder || o == OpCancelAll
}
