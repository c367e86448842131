package coinbase

import (
	"context"
	"net/http"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cbpro/pkg/core"
)

func TestProtocol_Name(t *testing.T) {
	p := NewProtocol()
	assert.Equal(t, "coinbase", p.Name())
}

func TestProtocol_BaseURL(t *testing.T) {
	p := NewProtocol()
	assert.Equal(t, "https://api.pro.coinbase.com", p.BaseURL(false))
	assert.Equal(t, "https://api-public.sandbox.pro.coinbase.com", p.BaseURL(true))
}

func TestProtocol_SupportedOperations(t *testing.T) {
	p := NewProtocol()

	expectedOps := []core.Operation{
		core.OpListAccounts,
		core.OpGetAccount,
		core.OpListOrders,
		core.OpPlaceOrder,
		core.OpCancelOrder,
		core.OpCancelAll,
		core.OpListFills,
	}

	assert.ElementsMatch(t, expectedOps, p.SupportedOperations())
}

func TestProtocol_RateLimits(t *testing.T) {
	limits := NewProtocol().RateLimits()

	assert.Equal(t, 5, limits.RequestsPerSecond)
	assert.Equal(t, 10, limits.Burst)
}

func TestProtocol_BuildRequest_Unsupported(t *testing.T) {
	_, err := NewProtocol().BuildRequest(context.Background(), core.Operation(99), nil)
	require.Error(t, err)
	assert.EqualError(t, err, "unsupported operation: UNKNOWN")
}

func TestProtocol_BuildRequest_Accounts(t *testing.T) {
	p := NewProtocol()

	req, err := p.BuildRequest(context.Background(), core.OpListAccounts, core.Params{})
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/accounts", req.Path)
	assert.Empty(t, req.QueryString())
	assert.Nil(t, req.Body)
	assert.True(t, req.RequireAuth)
	assert.Equal(t, BucketPrivate, req.Bucket)

	req, err = p.BuildRequest(context.Background(), core.OpGetAccount, core.Params{"account_id": "acc-1"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/accounts/acc-1", req.Path)
	assert.Empty(t, req.QueryString())
}

func TestProtocol_BuildRequest_GetAccountMissingID(t *testing.T) {
	_, err := NewProtocol().BuildRequest(context.Background(), core.OpGetAccount, core.Params{})
	assert.EqualError(t, err, "missing required parameter: account_id")
}

func TestProtocol_BuildRequest_ListOrders(t *testing.T) {
	tests := []struct {
		name      string
		params    core.Params
		wantQuery string
	}{
		{
			name:      "no filters defaults to all",
			params:    core.Params{},
			wantQuery: "status=all",
		},
		{
			name:      "empty statuses defaults to all",
			params:    core.Params{"statuses": []core.OrderStatus{}},
			wantQuery: "status=all",
		},
		{
			name: "duplicates removed and product appended",
			params: core.Params{
				"statuses":   []core.OrderStatus{core.StatusDone, core.StatusOpen, core.StatusDone},
				"product_id": "BTC-USD",
			},
			wantQuery: "product_id=BTC-USD&status=open&status=done",
		},
		{
			name:      "single status",
			params:    core.Params{"statuses": []core.OrderStatus{core.StatusPending}},
			wantQuery: "status=pending",
		},
		{
			name:      "product only",
			params:    core.Params{"product_id": "ETH-USD"},
			wantQuery: "product_id=ETH-USD&status=all",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := NewProtocol().BuildRequest(context.Background(), core.OpListOrders, tt.params)
			require.NoError(t, err)

			assert.Equal(t, http.MethodGet, req.Method)
			assert.Equal(t, "/orders", req.Path)
			assert.Equal(t, tt.wantQuery, req.QueryString())
			assert.Nil(t, req.Body)
		})
	}
}

func TestProtocol_BuildRequest_ListOrdersDedup(t *testing.T) {
	req, err := NewProtocol().BuildRequest(context.Background(), core.OpListOrders, core.Params{
		"statuses":   []core.OrderStatus{core.StatusDone, core.StatusOpen, core.StatusDone},
		"product_id": "BTC-USD",
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"done", "open"}, req.Query["status"])
	assert.Equal(t, []string{"BTC-USD"}, req.Query["product_id"])
}

func TestProtocol_BuildRequest_ListOrdersBadStatuses(t *testing.T) {
	_, err := NewProtocol().BuildRequest(context.Background(), core.OpListOrders, core.Params{
		"statuses": []string{"open"},
	})
	assert.EqualError(t, err, "parameter statuses must be a list of order statuses")
}

func TestProtocol_BuildRequest_PlaceOrder(t *testing.T) {
	p := NewProtocol()

	req, err := p.BuildRequest(context.Background(), core.OpPlaceOrder, core.Params{
		"product_id": "BTC-USD",
		"side":       core.SideBuy,
		"size":       "0.01",
		"price":      "30000.5",
		"post_only":  true,
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/orders", req.Path)
	assert.Empty(t, req.QueryString())
	assert.Equal(t, BucketTrading, req.Bucket)

	data, err := sonic.Marshal(req.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"product_id":"BTC-USD","side":"buy","size":"0.01","price":"30000.5","post_only":true}`, string(data))

	for _, key := range []string{"type", "stp", "time_in_force", "cancel_after", "client_oid", "null"} {
		assert.NotContains(t, string(data), key)
	}
}

func TestProtocol_BuildRequest_PlaceOrderAllFields(t *testing.T) {
	req, err := NewProtocol().BuildRequest(context.Background(), core.OpPlaceOrder, core.Params{
		"product_id":    "ETH-USD",
		"side":          core.SideSell,
		"size":          "2",
		"price":         "1800",
		"post_only":     false,
		"type":          core.TypeLimit,
		"stp":           core.STPCancelOldest,
		"time_in_force": core.GTT,
		"cancel_after":  core.CancelAfterHour,
		"client_oid":    "0c7a3b4e-2f7b-4f4e-9d2a-8d0b4f6a9e11",
	})
	require.NoError(t, err)

	data, err := sonic.Marshal(req.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"product_id":"ETH-USD",
		"side":"sell",
		"size":"2",
		"price":"1800",
		"post_only":false,
		"type":"limit",
		"stp":"co",
		"time_in_force":"GTT",
		"cancel_after":"hour",
		"client_oid":"0c7a3b4e-2f7b-4f4e-9d2a-8d0b4f6a9e11"
	}`, string(data))
}

func TestProtocol_BuildRequest_PlaceOrderMissingParams(t *testing.T) {
	full := core.Params{
		"product_id": "BTC-USD",
		"side":       core.SideBuy,
		"size":       "1",
		"price":      "100",
	}

	for _, key := range []string{"product_id", "side", "size", "price"} {
		t.Run(key, func(t *testing.T) {
			params := core.Params{}
			for k, v := range full {
				if k != key {
					params[k] = v
				}
			}

			_, err := NewProtocol().BuildRequest(context.Background(), core.OpPlaceOrder, params)
			assert.EqualError(t, err, "missing required parameter: "+key)
		})
	}
}

func TestProtocol_BuildRequest_CancelOrder(t *testing.T) {
	req, err := NewProtocol().BuildRequest(context.Background(), core.OpCancelOrder, core.Params{"order_id": "abc-123"})
	require.NoError(t, err)

	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "/orders/abc-123", req.Path)
	assert.Equal(t, "/orders/abc-123", req.RequestPath())
	assert.Nil(t, req.Body)
	assert.Equal(t, BucketTrading, req.Bucket)
}

func TestProtocol_BuildRequest_CancelOrderEscapesID(t *testing.T) {
	req, err := NewProtocol().BuildRequest(context.Background(), core.OpCancelOrder, core.Params{"order_id": "a/b c"})
	require.NoError(t, err)

	assert.Equal(t, "/orders/a%2Fb%20c", req.Path)
}

func TestProtocol_BuildRequest_CancelAll(t *testing.T) {
	p := NewProtocol()

	req, err := p.BuildRequest(context.Background(), core.OpCancelAll, core.Params{})
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "/orders", req.RequestPath())

	req, err = p.BuildRequest(context.Background(), core.OpCancelAll, core.Params{"product_id": "BTC-USD"})
	require.NoError(t, err)
	assert.Equal(t, "/orders?product_id=BTC-USD", req.RequestPath())
	assert.Nil(t, req.Body)
}

func TestProtocol_BuildRequest_Fills(t *testing.T) {
	tests := []struct {
		name   string
		params core.Params
		want   string
	}{
		{"no filters", core.Params{}, "/fills"},
		{"product", core.Params{"product_id": "BTC-USD"}, "/fills?product_id=BTC-USD"},
		{"order", core.Params{"order_id": "o-1"}, "/fills?order_id=o-1"},
		{"both", core.Params{"product_id": "BTC-USD", "order_id": "o-1"}, "/fills?order_id=o-1&product_id=BTC-USD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := NewProtocol().BuildRequest(context.Background(), core.OpListFills, tt.params)
			require.NoError(t, err)
			assert.Equal(t, http.MethodGet, req.Method)
			assert.Equal(t, tt.want, req.RequestPath())
		})
	}
}

func TestDedupStatuses(t *testing.T) {
	got := dedupStatuses([]core.OrderStatus{
		core.StatusAll, core.StatusDone, core.StatusOpen, core.StatusAll, core.StatusActive,
	})

	assert.Equal(t, []core.OrderStatus{core.StatusOpen, core.StatusActive, core.StatusDone, core.StatusAll}, got)
}
