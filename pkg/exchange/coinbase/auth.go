package coinbase

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"cbpro/pkg/core"
)

// Authentication headers.
const (
	HeaderAccessKey        = "CB-ACCESS-KEY"
	HeaderAccessSign       = "CB-ACCESS-SIGN"
	HeaderAccessTimestamp  = "CB-ACCESS-TIMESTAMP"
	HeaderAccessPassphrase = "CB-ACCESS-PASSPHRASE"
)

// HMACAuthenticator signs requests with a single API key.
//
// The prehash string is timestamp + METHOD + requestPath + body, where
// timestamp is in unix seconds and requestPath includes the query string.
// It is signed with HMAC-SHA256 keyed by the base64 decoded secret.
type HMACAuthenticator struct {
	creds  core.Credentials
	secret []byte
	now    func() time.Time
}

var _ core.Authenticator = (*HMACAuthenticator)(nil)

func NewHMACAuthenticator(creds core.Credentials) (*HMACAuthenticator, error) {
	if creds.APIKey == "" || creds.SecretKey == "" {
		return nil, core.ErrNoCredentials
	}
	secret, err := base64.StdEncoding.DecodeString(creds.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("decode secret: %w", err)
	}
	return &HMACAuthenticator{
		creds:  creds,
		secret: secret,
		now:    time.Now,
	}, nil
}

// WithClock replaces the time source. Used by tests.
func (a *HMACAuthenticator) WithClock(now func() time.Time) *HMACAuthenticator {
	a.now = now
	return a
}

func (a *HMACAuthenticator) Sign(method, requestPath string, body []byte) (map[string]string, error) {
	ts := strconv.FormatInt(a.now().Unix(), 10)
	return map[string]string{
		HeaderAccessKey:        a.creds.APIKey,
		HeaderAccessSign:       signature(a.secret, ts, method, requestPath, body),
		HeaderAccessTimestamp:  ts,
		HeaderAccessPassphrase: a.creds.Passphrase,
	}, nil
}

func signature(secret []byte, timestamp, method, requestPath string, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(timestamp))
	mac.Write([]byte(method))
	mac.Write([]byte(requestPath))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
