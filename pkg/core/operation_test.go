package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperation_String(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
		want string
	}{
		{"list_accounts", OpListAccounts, "LIST_ACCOUNTS"},
		{"get_account", OpGetAccount, "GET_ACCOUNT"},
		{"list_orders", OpListOrders, "LIST_ORDERS"},
		{"place_order", OpPlaceOrder, "PLACE_ORDER"},
		{"cancel_order", OpCancelOrder, "CANCEL_ORDER"},
		{"cancel_all", OpCancelAll, "CANCEL_ALL"},
		{"list_fills", OpListFills, "LIST_FILLS"},
		{"out of range", Operation(99), "UNKNOWN"},
		{"negative", Operation(-1), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.op.String())
		})
	}
}

func TestOperation_IsTrading(t *testing.T) {
	tests := []struct {
		op   Operation
		want bool
	}{
		{OpListAccounts, false},
		{OpGetAccount, false},
		{OpListOrders, false},
		{OpPlaceOrder, true},
		{OpCancelOrder, true},
		{OpCancelAll, true},
		{OpListFills, false},
	}

	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.op.IsTrading())
		})
	}
}
