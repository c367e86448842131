package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cbpro/pkg/core"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(&Config{
		BaseURL:   baseURL,
		Timeout:   time.Second,
		UserAgent: "cbpro-test",
		Headers:   map[string]string{"X-Test": "yes"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewClient_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
	}{
		{"missing base url", &Config{Timeout: time.Second}},
		{"bad base url", &Config{BaseURL: "not a url", Timeout: time.Second}},
		{"zero timeout", &Config{BaseURL: "https://example.com"}},
		{"negative retries", &Config{BaseURL: "https://example.com", Timeout: time.Second, MaxRetries: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.config)
			assert.Error(t, err)
		})
	}
}

func TestClient_GetWithRepeatedQuery(t *testing.T) {
	var gotQuery url.Values
	var gotHeaders http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotHeaders = r.Header
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	q := url.Values{}
	q.Add("status", "open")
	q.Add("status", "done")

	resp, err := c.Get(context.Background(), "/orders", WithQueryValues(q), WithHeaders(map[string]string{"CB-ACCESS-KEY": "key"}))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, "[]", string(resp.Bytes()))
	assert.Equal(t, []string{"open", "done"}, gotQuery["status"])
	assert.Equal(t, "key", gotHeaders.Get("CB-ACCESS-KEY"))
	assert.Equal(t, "cbpro-test", gotHeaders.Get("User-Agent"))
	assert.Equal(t, "yes", gotHeaders.Get("X-Test"))
}

func TestClient_PostRawBody(t *testing.T) {
	var gotBody []byte
	var gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	body := []byte(`{"product_id":"BTC-USD","size":"1"}`)

	_, err := c.Post(context.Background(), "/orders", body)
	require.NoError(t, err)

	assert.Equal(t, body, gotBody)
	assert.Contains(t, gotType, "application/json")
}

func TestClient_ErrorStatusIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"NotFound"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	resp, err := c.Delete(context.Background(), "/orders/abc")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())
	assert.Equal(t, `{"message":"NotFound"}`, string(resp.Bytes()))
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := srv.URL
	srv.Close()

	c := newTestClient(t, baseURL)

	_, err := c.Get(context.Background(), "/accounts")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http request")
}

func TestClient_Closed(t *testing.T) {
	c := newTestClient(t, "https://example.com")
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err := c.Get(context.Background(), "/accounts")
	assert.ErrorIs(t, err, core.ErrClientClosed)
	_, err = c.Post(context.Background(), "/orders", []byte(`{}`))
	assert.ErrorIs(t, err, core.ErrClientClosed)
	_, err = c.Delete(context.Background(), "/orders")
	assert.ErrorIs(t, err, core.ErrClientClosed)
}
