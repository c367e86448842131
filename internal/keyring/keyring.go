package keyring

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"cbpro/pkg/core"
)

// KeyRing holds several API keys for one profile and picks the key used to
// sign the next request.
type KeyRing struct {
	mu       sync.RWMutex
	keys     []*APIKey
	current  int
	strategy RotationStrategy
	logger   zerolog.Logger
}

type APIKey struct {
	ID          string
	Credentials core.Credentials
	Disabled    bool
	LastUsed    time.Time
	ErrorCount  int

	authFailures int
}

type RotationStrategy int

// MaxAuthFailures is the number of consecutive authentication errors after
// which a key is disabled.
const MaxAuthFailures = 3

const (
	// RotationRoundRobin moves to the next key after every use.
	RotationRoundRobin RotationStrategy = iota
	// RotationOnError moves on after authentication or rate limit errors.
	RotationOnError
	// RotationOnRateLimit moves on after rate limit errors only.
	RotationOnRateLimit
)

func New(keys []*APIKey, strategy RotationStrategy) *KeyRing {
	k := &KeyRing{
		keys:     make([]*APIKey, 0, len(keys)),
		strategy: strategy,
		logger:   zerolog.Nop(),
	}
	for _, key := range keys {
		cp := *key
		k.keys = append(k.keys, &cp)
	}
	return k
}

// FromCredentials builds a ring whose key ids are "key-0", "key-1", ...
func FromCredentials(strategy RotationStrategy, creds ...core.Credentials) *KeyRing {
	keys := make([]*APIKey, len(creds))
	for i, c := range creds {
		keys[i] = &APIKey{ID: fmt.Sprintf("key-%d", i), Credentials: c}
	}
	return New(keys, strategy)
}

func (k *KeyRing) SetLogger(logger zerolog.Logger) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.logger = logger
}

func (k *KeyRing) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.keys)
}

// Current returns a copy of the first enabled key at or after the cursor.
func (k *KeyRing) Current() (APIKey, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if idx := k.activeLocked(); idx >= 0 {
		return *k.keys[idx], nil
	}
	return APIKey{}, core.ErrNoAPIKey
}

func (k *KeyRing) activeLocked() int {
	for i := 0; i < len(k.keys); i++ {
		idx := (k.current + i) % len(k.keys)
		if !k.keys[idx].Disabled {
			return idx
		}
	}
	return -1
}

func (k *KeyRing) rotateLocked() {
	n := len(k.keys)
	if n == 0 {
		return
	}
	for i := 1; i <= n; i++ {
		idx := (k.current + i) % n
		if !k.keys[idx].Disabled {
			k.current = idx
			return
		}
	}
}

// MarkUsed records a successful request signed by key id and resets its
// run of authentication failures. Under RotationRoundRobin it also advances
// the cursor, but only while id is still the active key.
func (k *KeyRing) MarkUsed(id string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	key := k.findLocked(id)
	if key == nil {
		return
	}
	key.LastUsed = time.Now()
	key.authFailures = 0

	if k.strategy == RotationRoundRobin && k.isActiveLocked(id) {
		k.rotateLocked()
	}
}

// OnError records err against key id and rotates when the strategy calls
// for it. A key that fails authentication MaxAuthFailures times in a row is
// disabled whatever the strategy. Errors that are not an exchange error
// only bump the counter.
func (k *KeyRing) OnError(id string, err error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	key := k.findLocked(id)
	if key == nil {
		return
	}
	key.ErrorCount++
	if core.IsAuthenticationError(err) {
		key.authFailures++
	} else {
		key.authFailures = 0
	}

	if key.authFailures >= MaxAuthFailures && !key.Disabled {
		key.Disabled = true
		k.logger.Error().Err(err).
			Str("key", key.String()).
			Int("errors", key.ErrorCount).
			Msg("api key disabled")
		return
	}

	rotate := false
	switch k.strategy {
	case RotationOnError:
		rotate = core.IsAuthenticationError(err) || core.IsRateLimitError(err)
	case RotationOnRateLimit:
		rotate = core.IsRateLimitError(err)
	}
	if !rotate || !k.isActiveLocked(id) {
		return
	}

	k.rotateLocked()
	k.logger.Warn().Err(err).
		Str("key", key.String()).
		Int("errors", key.ErrorCount).
		Msg("api key rotated")
}

func (k *KeyRing) findLocked(id string) *APIKey {
	for _, key := range k.keys {
		if key.ID == id {
			return key
		}
	}
	return nil
}

func (k *KeyRing) isActiveLocked(id string) bool {
	idx := k.activeLocked()
	return idx >= 0 && k.keys[idx].ID == id
}

func (k *APIKey) String() string {
	return fmt.Sprintf("APIKey{ID:%s, Key:%s}", k.ID, maskKey(k.Credentials.APIKey))
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
