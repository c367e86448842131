package coinbase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
	"resty.dev/v3"

	"cbpro/pkg/core"
)

const (
	ProductionURL = "https://api.pro.coinbase.com"
	SandboxURL    = "https://api-public.sandbox.pro.coinbase.com"
)

// Rate limit buckets.
const (
	BucketPrivate = "private"
	BucketTrading = "trading"
)

// Protocol implements core.Protocol for the Coinbase Pro REST API.
type Protocol struct{}

func NewProtocol() *Protocol {
	return &Protocol{}
}

func (p *Protocol) Name() string {
	return "coinbase"
}

func (p *Protocol) BaseURL(sandbox bool) string {
	if sandbox {
		return SandboxURL
	}
	return ProductionURL
}

func (p *Protocol) SupportedOperations() []core.Operation {
	return []core.Operation{
		core.OpListAccounts,
		core.OpGetAccount,
		core.OpListOrders,
		core.OpPlaceOrder,
		core.OpCancelOrder,
		core.OpCancelAll,
		core.OpListFills,
	}
}

// RateLimits returns the documented private endpoint limits.
func (p *Protocol) RateLimits() core.RateLimitConfig {
	return core.RateLimitConfig{
		RequestsPerSecond: 5,
		Burst:             10,
	}
}

// BuildRequest constructs the request for op. Every endpoint is private.
func (p *Protocol) BuildRequest(ctx context.Context, op core.Operation, params core.Params) (*core.Request, error) {
	var (
		req *core.Request
		err error
	)
	switch op {
	case core.OpListAccounts:
		req = core.NewRequest(http.MethodGet, "/accounts")
	case core.OpGetAccount:
		req, err = p.buildGetAccountRequest(params)
	case core.OpListOrders:
		req, err = p.buildListOrdersRequest(params)
	case core.OpPlaceOrder:
		req, err = p.buildPlaceOrderRequest(params)
	case core.OpCancelOrder:
		req, err = p.buildCancelOrderRequest(params)
	case core.OpCancelAll:
		req, err = p.buildCancelAllRequest(params)
	case core.OpListFills:
		req, err = p.buildListFillsRequest(params)
	default:
		return nil, fmt.Errorf("unsupported operation: %s", op)
	}
	if err != nil {
		return nil, err
	}

	req.SetRequireAuth(true)
	if op.IsTrading() {
		req.SetBucket(BucketTrading)
	} else {
		req.SetBucket(BucketPrivate)
	}
	return req, nil
}

func (p *Protocol) buildGetAccountRequest(params core.Params) (*core.Request, error) {
	id, err := getRequiredStringParam(params, "account_id")
	if err != nil {
		return nil, err
	}
	return core.NewRequest(http.MethodGet, "/accounts/"+url.PathEscape(id)), nil
}

// buildListOrdersRequest emits one status parameter per distinct status, in
// declaration order. No statuses means all of them.
func (p *Protocol) buildListOrdersRequest(params core.Params) (*core.Request, error) {
	statuses, err := getStatusesParam(params, "statuses")
	if err != nil {
		return nil, err
	}
	if len(statuses) == 0 {
		statuses = []core.OrderStatus{core.StatusAll}
	}

	req := core.NewRequest(http.MethodGet, "/orders")
	for _, s := range dedupStatuses(statuses) {
		req.AddQuery("status", strings.ToLower(s.String()))
	}
	if productID := getStringParamWithDefault(params, "product_id", ""); productID != "" {
		req.SetQuery("product_id", productID)
	}
	return req, nil
}

func dedupStatuses(statuses []core.OrderStatus) []core.OrderStatus {
	seen := make(map[core.OrderStatus]struct{}, len(statuses))
	out := make([]core.OrderStatus, 0, len(statuses))
	for _, s := range statuses {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// placeOrderBody is the POST /orders payload. Decimals travel as strings.
type placeOrderBody struct {
	ProductID   string `json:"product_id"`
	Side        string `json:"side"`
	Size        string `json:"size"`
	Price       string `json:"price"`
	PostOnly    bool   `json:"post_only"`
	Type        string `json:"type,omitempty"`
	STP         string `json:"stp,omitempty"`
	TimeInForce string `json:"time_in_force,omitempty"`
	CancelAfter string `json:"cancel_after,omitempty"`
	ClientOID   string `json:"client_oid,omitempty"`
}

func (p *Protocol) buildPlaceOrderRequest(params core.Params) (*core.Request, error) {
	productID, err := getRequiredStringParam(params, "product_id")
	if err != nil {
		return nil, err
	}
	side, ok := params["side"].(core.OrderSide)
	if !ok {
		return nil, fmt.Errorf("missing required parameter: side")
	}
	size, err := getRequiredStringParam(params, "size")
	if err != nil {
		return nil, err
	}
	price, err := getRequiredStringParam(params, "price")
	if err != nil {
		return nil, err
	}
	postOnly, _ := params["post_only"].(bool)

	body := &placeOrderBody{
		ProductID: productID,
		Side:      strings.ToLower(side.String()),
		Size:      size,
		Price:     price,
		PostOnly:  postOnly,
		ClientOID: getStringParamWithDefault(params, "client_oid", ""),
	}
	if t, ok := params["type"].(core.OrderType); ok {
		body.Type = strings.ToLower(t.String())
	}
	if stp, ok := params["stp"].(core.SelfTradePrevention); ok {
		body.STP = strings.ToLower(stp.String())
	}
	if tif, ok := params["time_in_force"].(core.TimeInForce); ok {
		body.TimeInForce = tif.String()
	}
	if ca, ok := params["cancel_after"].(core.CancelAfter); ok {
		body.CancelAfter = strings.ToLower(ca.String())
	}

	return core.NewRequest(http.MethodPost, "/orders").SetBody(body), nil
}

func (p *Protocol) buildCancelOrderRequest(params core.Params) (*core.Request, error) {
	id, err := getRequiredStringParam(params, "order_id")
	if err != nil {
		return nil, err
	}
	return core.NewRequest(http.MethodDelete, "/orders/"+url.PathEscape(id)), nil
}

func (p *Protocol) buildCancelAllRequest(params core.Params) (*core.Request, error) {
	req := core.NewRequest(http.MethodDelete, "/orders")
	if productID := getStringParamWithDefault(params, "product_id", ""); productID != "" {
		req.SetQuery("product_id", productID)
	}
	return req, nil
}

func (p *Protocol) buildListFillsRequest(params core.Params) (*core.Request, error) {
	req := core.NewRequest(http.MethodGet, "/fills")
	if productID := getStringParamWithDefault(params, "product_id", ""); productID != "" {
		req.SetQuery("product_id", productID)
	}
	if orderID := getStringParamWithDefault(params, "order_id", ""); orderID != "" {
		req.SetQuery("order_id", orderID)
	}
	return req, nil
}

type apiError struct {
	Message string `json:"message"`
}

// ParseResponse maps error statuses onto *core.ExchangeError and decodes
// successful bodies into core types.
func (p *Protocol) ParseResponse(op core.Operation, resp *resty.Response) (any, error) {
	if resp == nil {
		return nil, fmt.Errorf("nil response")
	}

	if resp.StatusCode() >= 400 {
		return nil, p.parseError(resp)
	}

	n := NewNormalizer()
	data := resp.Bytes()

	switch op {
	case core.OpListAccounts:
		var raw []cbAccount
		if err := sonic.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("unmarshal accounts: %w", err)
		}
		return n.NormalizeAccounts(raw)

	case core.OpGetAccount:
		var raw cbAccount
		if err := sonic.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("unmarshal account: %w", err)
		}
		return n.NormalizeAccount(&raw)

	case core.OpListOrders:
		var raw []cbOrder
		if err := sonic.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("unmarshal orders: %w", err)
		}
		return n.NormalizeOrders(raw)

	case core.OpPlaceOrder:
		var raw cbOrder
		if err := sonic.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("unmarshal order: %w", err)
		}
		return n.NormalizeOrder(&raw)

	case core.OpCancelOrder:
		return nil, nil

	case core.OpCancelAll:
		var raw []string
		if err := sonic.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("unmarshal order ids: %w", err)
		}
		ids := make([]core.OrderID, len(raw))
		for i, id := range raw {
			ids[i] = core.OrderID(id)
		}
		return ids, nil

	case core.OpListFills:
		var raw []cbFill
		if err := sonic.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("unmarshal fills: %w", err)
		}
		return n.NormalizeFills(raw)

	default:
		return nil, fmt.Errorf("unsupported operation: %s", op)
	}
}

func (p *Protocol) parseError(resp *resty.Response) error {
	var body apiError
	if err := sonic.Unmarshal(resp.Bytes(), &body); err != nil || body.Message == "" {
		body.Message = fmt.Sprintf("HTTP error: %s", resp.Status())
	}

	errType := core.ErrorTypeFromStatus(resp.StatusCode())
	exErr := core.NewExchangeError(p.Name(), errType, resp.StatusCode(), body.Message)

	msg := strings.ToLower(body.Message)
	switch {
	case strings.Contains(msg, "insufficient funds"):
		exErr.Type = core.ErrorTypeInsufficientFunds
		exErr.WithCode(core.ErrCodeInsufficientFunds)
	case strings.Contains(msg, "invalid signature"):
		exErr.WithCode(core.ErrCodeInvalidSignature)
	case strings.Contains(msg, "invalid passphrase"):
		exErr.WithCode(core.ErrCodeInvalidPassphrase)
	case strings.Contains(msg, "invalid api key"):
		exErr.WithCode(core.ErrCodeInvalidAPIKey)
	case strings.Contains(msg, "post only"):
		exErr.WithCode(core.ErrCodePostOnly)
	case errType == core.ErrorTypeNotFound && strings.Contains(msg, "order"):
		exErr.WithCode(core.ErrCodeOrderNotFound)
	}
	return exErr
}

func getRequiredStringParam(params core.Params, key string) (string, error) {
	val, ok := params[key]
	if !ok {
		return "", fmt.Errorf("missing required parameter: %s", key)
	}

	str, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("parameter %s must be a string", key)
	}

	if str == "" {
		return "", fmt.Errorf("parameter %s cannot be empty", key)
	}

	return str, nil
}

func getStringParamWithDefault(params core.Params, key, defaultVal string) string {
	if val, ok := params[key].(string); ok && val != "" {
		return val
	}
	return defaultVal
}

func getStatusesParam(params core.Params, key string) ([]core.OrderStatus, error) {
	val, ok := params[key]
	if !ok || val == nil {
		return nil, nil
	}
	statuses, ok := val.([]core.OrderStatus)
	if !ok {
		return nil, fmt.Errorf("parameter %s must be a list of order statuses", key)
	}
	return statuses, nil
}
