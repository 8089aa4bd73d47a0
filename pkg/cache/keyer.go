package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Keyer derives the keys upstream responses are cached under.
type Keyer interface {
	// HTTPKey returns the cache key of a response body. namespace separates
	// upstream hosts; the empty namespace leaves key unchanged.
	HTTPKey(namespace, key string) string
}

// NewDefaultKeyer returns the keyer used when none is configured.
func NewDefaultKeyer() Keyer { return defaultKeyer{} }

type defaultKeyer struct{}

func (defaultKeyer) HTTPKey(namespace, key string) string {
	if namespace == "" {
		return key
	}
	return namespace + ":" + key
}

// ScopedKeyer wraps a Keyer with a prefix, so several tenants can share one
// backend without seeing each other's entries.
//
//	keys := NewScopedKeyer(nil, "nugetaudit:")
//	keys.HTTPKey("", "serilog.json") // "nugetaudit:serilog.json"
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer selects
// [NewDefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// HTTPKey generates a prefixed key.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// Hash returns the hex SHA-256 digest of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
