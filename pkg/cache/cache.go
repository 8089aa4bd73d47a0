// Package cache provides the byte cache shared by the registry and
// source-control clients.
//
// # Overview
//
// A [Cache] maps opaque string keys to byte blobs. The clients store raw
// (already decompressed) API responses in it, so a repeated audit of the same
// package answers from the cache instead of the network.
//
// Five interchangeable strategies implement the same contract:
//
//   - [NullCache]: discards everything; every Get is a miss
//   - [MemoryCache]: one process-wide concurrent map
//   - [FileCache]: one file per key under an existing folder
//   - [RedisCache]: shared between processes through Redis
//   - [MongoCache]: shared between processes through a MongoDB collection
//
// All implementations are safe for concurrent use by independent audits.
// Readers never observe a partially written value.
//
// # Lifetime
//
// Entries never expire. They live until [Cache.Delete] or [Cache.Clear] is
// called, or, for the memory strategy, until the process exits.
package cache

import (
	"context"
	"fmt"
	"strings"
)

// Cache is a key to byte-blob store.
type Cache interface {
	// Get returns the value stored under key. A miss is reported as
	// (nil, false, nil), never as an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key, replacing any previous value.
	Set(ctx context.Context, key string, data []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes every entry owned by this cache.
	Clear(ctx context.Context) error

	// Close releases resources held by the cache.
	Close() error
}

// Strategy names a cache implementation.
type Strategy string

// Supported strategies.
const (
	StrategyNone   Strategy = "none"
	StrategyMemory Strategy = "memory"
	StrategyFile   Strategy = "file"
	StrategyRedis  Strategy = "redis"
	StrategyMongo  Strategy = "mongo"
)

// Strategies lists every supported strategy in display order.
var Strategies = []Strategy{StrategyNone, StrategyMemory, StrategyFile, StrategyRedis, StrategyMongo}

// ParseStrategy converts a user-supplied name into a Strategy.
// An empty name selects [StrategyNone].
func ParseStrategy(name string) (Strategy, error) {
	s := Strategy(strings.ToLower(strings.TrimSpace(name)))
	if s == "" {
		return StrategyNone, nil
	}
	for _, known := range Strategies {
		if s == known {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// Options selects and configures a cache strategy for [New].
type Options struct {
	Strategy Strategy

	// Dir is the folder used by [StrategyFile]. It must already exist.
	Dir string

	// RedisAddr and RedisPrefix configure [StrategyRedis].
	RedisAddr   string
	RedisPrefix string

	// MongoURI, MongoDatabase and MongoCollection configure [StrategyMongo].
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
}

// New builds the cache described by opts.
func New(ctx context.Context, opts Options) (Cache, error) {
	switch opts.Strategy {
	case StrategyNone, "":
		return NewNullCache(), nil
	case StrategyMemory:
		return NewMemoryCache(), nil
	case StrategyFile:
		return NewFileCache(opts.Dir)
	case StrategyRedis:
		return NewRedisCache(ctx, opts.RedisAddr, opts.RedisPrefix)
	case StrategyMongo:
		return NewMongoCache(ctx, opts.MongoURI, opts.MongoDatabase, opts.MongoCollection)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, opts.Strategy)
	}
}

func clone(data []byte) []byte {
	if data == nil {
		return nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out
}
