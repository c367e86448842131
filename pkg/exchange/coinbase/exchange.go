package coinbase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
	"resty.dev/v3"

	httpClient "cbpro/internal/http"
	"cbpro/internal/keyring"
	"cbpro/internal/ratelimit"
	"cbpro/pkg/core"
	"cbpro/pkg/exchange"
)

// Client is an authenticated Coinbase Pro REST client. It is safe for
// concurrent use.
type Client struct {
	config      *core.Config
	protocol    *Protocol
	httpClient  *httpClient.Client
	rateLimiter *ratelimit.Limiter
	auth        core.Authenticator
	keyRing     *keyring.KeyRing
	clock       func() time.Time
	logger      zerolog.Logger
}

var _ exchange.Exchange = (*Client)(nil)

type Option func(*Options)

type Options struct {
	KeyRing       *keyring.KeyRing
	Authenticator core.Authenticator
	Logger        zerolog.Logger
	Clock         func() time.Time
}

// RotationStrategy decides when a client signing with several keys moves
// on to the next one.
type RotationStrategy = keyring.RotationStrategy

const (
	RotateRoundRobin  = keyring.RotationRoundRobin
	RotateOnError     = keyring.RotationOnError
	RotateOnRateLimit = keyring.RotationOnRateLimit
)

// RateLimitMetrics counts requests admitted and denied by the client's rate
// limiter.
type RateLimitMetrics = ratelimit.MetricsSnapshot

// WithKeyRing signs with the ring's current key instead of config credentials.
func WithKeyRing(kr *keyring.KeyRing) Option {
	return func(o *Options) {
		o.KeyRing = kr
	}
}

// WithKeys signs with creds in turn, switching keys as strategy says. A key
// that keeps failing authentication is dropped from the rotation.
func WithKeys(strategy RotationStrategy, creds ...core.Credentials) Option {
	return WithKeyRing(keyring.FromCredentials(strategy, creds...))
}

// WithAuthenticator replaces HMAC signing with a.
func WithAuthenticator(a core.Authenticator) Option {
	return func(o *Options) {
		o.Authenticator = a
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithClock sets the time source used for request timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		o.Clock = now
	}
}

// New creates a client from config. Credentials may come from config, a key
// ring or a custom authenticator; without any of them every call fails with
// core.ErrNoCredentials.
func New(config *core.Config, opts ...Option) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	options := &Options{
		Logger: zerolog.Nop(),
		Clock:  time.Now,
	}
	for _, opt := range opts {
		opt(options)
	}

	if options.KeyRing != nil && options.KeyRing.Len() == 0 {
		return nil, errors.New("key ring is empty")
	}

	protocol := NewProtocol()

	auth := options.Authenticator
	if auth == nil && options.KeyRing == nil && config.Credentials != nil {
		hmacAuth, err := NewHMACAuthenticator(*config.Credentials)
		if err != nil {
			return nil, fmt.Errorf("create authenticator: %w", err)
		}
		auth = hmacAuth.WithClock(options.Clock)
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = protocol.BaseURL(config.Sandbox)
	}

	logger := options.Logger.With().Str("exchange", protocol.Name()).Logger()

	hc, err := httpClient.NewClient(&httpClient.Config{
		BaseURL:      baseURL,
		Timeout:      config.Timeout,
		MaxRetries:   config.MaxRetries,
		RetryWaitMin: config.RetryWaitMin,
		RetryWaitMax: config.RetryWaitMax,
		UserAgent:    "cbpro-go",
		Logger:       &logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}

	rl := ratelimit.New(config.RateLimitRequests, config.RateLimitPeriod)
	rl.Configure(BucketPrivate, protocol.RateLimits())
	rl.Configure(BucketTrading, protocol.RateLimits())

	if options.KeyRing != nil {
		options.KeyRing.SetLogger(logger)
	}

	return &Client{
		config:      config,
		protocol:    protocol,
		httpClient:  hc,
		rateLimiter: rl,
		auth:        auth,
		keyRing:     options.KeyRing,
		clock:       options.Clock,
		logger:      logger,
	}, nil
}

func (e *Client) Name() string {
	return e.protocol.Name()
}

func (e *Client) Close() error {
	return e.httpClient.Close()
}

// RateLimitMetrics returns the rate limiter counters since the client was
// created.
func (e *Client) RateLimitMetrics() RateLimitMetrics {
	return e.rateLimiter.Metrics()
}

func (e *Client) Accounts(ctx context.Context) ([]core.Account, error) {
	return call[[]core.Account](ctx, e, core.OpListAccounts, core.Params{})
}

func (e *Client) Account(ctx context.Context, id core.AccountID) (*core.Account, error) {
	return call[*core.Account](ctx, e, core.OpGetAccount, core.Params{
		"account_id": string(id),
	})
}

// ListOrders lists orders. Without WithStatuses every status is returned.
func (e *Client) ListOrders(ctx context.Context, opts ...exchange.Option) ([]core.Order, error) {
	options := exchange.ApplyOptions(opts...)

	params := core.Params{}
	if len(options.Statuses) > 0 {
		params["statuses"] = options.Statuses
	}
	if options.ProductID != "" {
		params["product_id"] = string(options.ProductID)
	}

	return call[[]core.Order](ctx, e, core.OpListOrders, params)
}

func (e *Client) PlaceOrder(ctx context.Context, req *exchange.OrderRequest) (*core.Order, error) {
	if req == nil {
		return nil, fmt.Errorf("order request is nil")
	}

	params := core.Params{
		"product_id": string(req.ProductID),
		"side":       req.Side,
		"size":       req.Size.Text('f'),
		"price":      req.Price.Text('f'),
		"post_only":  req.PostOnly,
	}
	if req.Type != nil {
		params["type"] = *req.Type
	}
	if req.STP != nil {
		params["stp"] = *req.STP
	}
	if req.TimeInForce != nil {
		params["time_in_force"] = *req.TimeInForce
	}
	if req.CancelAfter != nil {
		params["cancel_after"] = *req.CancelAfter
	}
	if req.ClientOID != "" {
		params["client_oid"] = req.ClientOID
	}

	return call[*core.Order](ctx, e, core.OpPlaceOrder, params)
}

func (e *Client) CancelOrder(ctx context.Context, id core.OrderID) error {
	_, err := e.execute(ctx, core.OpCancelOrder, core.Params{
		"order_id": string(id),
	})
	return err
}

// CancelAll cancels open orders, optionally of one product, and returns
// the ids of the cancelled orders.
func (e *Client) CancelAll(ctx context.Context, opts ...exchange.Option) ([]core.OrderID, error) {
	options := exchange.ApplyOptions(opts...)

	params := core.Params{}
	if options.ProductID != "" {
		params["product_id"] = string(options.ProductID)
	}

	return call[[]core.OrderID](ctx, e, core.OpCancelAll, params)
}

func (e *Client) Fills(ctx context.Context, opts ...exchange.Option) ([]core.Fill, error) {
	options := exchange.ApplyOptions(opts...)

	params := core.Params{}
	if options.ProductID != "" {
		params["product_id"] = string(options.ProductID)
	}
	if options.OrderID != "" {
		params["order_id"] = string(options.OrderID)
	}

	return call[[]core.Fill](ctx, e, core.OpListFills, params)
}

func call[T any](ctx context.Context, e *Client, op core.Operation, params core.Params) (T, error) {
	var zero T

	result, err := e.execute(ctx, op, params)
	if err != nil {
		return zero, err
	}

	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("unexpected response type: %T", result)
	}
	return typed, nil
}

func (e *Client) execute(ctx context.Context, op core.Operation, params core.Params) (any, error) {
	req, err := e.protocol.BuildRequest(ctx, op, params)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return e.doRequest(ctx, op, req)
}

// doRequest encodes the body once so that the signed bytes are the bytes
// sent, then signs, sends and parses.
func (e *Client) doRequest(ctx context.Context, op core.Operation, req *core.Request) (any, error) {
	var body []byte
	if req.Body != nil {
		var err error
		if body, err = sonic.Marshal(req.Body); err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
	}

	if err := e.rateLimiter.Wait(ctx, req.Bucket); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	var keyID string
	opts := []httpClient.RequestOption{httpClient.WithHeaders(req.Headers)}
	if req.RequireAuth {
		headers, id, err := e.sign(req, body)
		if err != nil {
			return nil, fmt.Errorf("sign request: %w", err)
		}
		keyID = id
		opts = append(opts, httpClient.WithHeaders(headers))
	}
	if len(req.Query) > 0 {
		opts = append(opts, httpClient.WithQueryValues(req.Query))
	}

	resp, err := e.send(ctx, req, body, opts)
	if err != nil {
		return nil, err
	}

	result, err := e.protocol.ParseResponse(op, resp)
	if err != nil {
		if keyID != "" {
			e.keyRing.OnError(keyID, err)
		}
		e.logger.Error().Err(err).
			Str("op", op.String()).
			Int("status", resp.StatusCode()).
			Msg("request failed")
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if keyID != "" {
		e.keyRing.MarkUsed(keyID)
	}

	e.logger.Debug().
		Str("op", op.String()).
		Int("status", resp.StatusCode()).
		Msg("request completed")
	return result, nil
}

func (e *Client) send(ctx context.Context, req *core.Request, body []byte, opts []httpClient.RequestOption) (*resty.Response, error) {
	switch req.Method {
	case http.MethodGet:
		return e.httpClient.Get(ctx, req.Path, opts...)
	case http.MethodPost:
		return e.httpClient.Post(ctx, req.Path, body, opts...)
	case http.MethodDelete:
		return e.httpClient.Delete(ctx, req.Path, opts...)
	}
	return nil, fmt.Errorf("unsupported http method: %s", req.Method)
}

// sign returns the auth headers and, when a key ring is in use, the id of
// the key that produced them.
func (e *Client) sign(req *core.Request, body []byte) (map[string]string, string, error) {
	path := req.RequestPath()

	if e.keyRing != nil {
		key, err := e.keyRing.Current()
		if err != nil {
			return nil, "", err
		}
		auth, err := NewHMACAuthenticator(key.Credentials)
		if err != nil {
			return nil, "", fmt.Errorf("key %s: %w", key.ID, err)
		}
		headers, err := auth.WithClock(e.clock).Sign(req.Method, path, body)
		return headers, key.ID, err
	}

	if e.auth == nil {
		return nil, "", core.ErrNoCredentials
	}
	headers, err := e.auth.Sign(req.Method, path, body)
	return headers, "", err
}
