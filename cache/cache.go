// Package cache is the translation memory: source text already translated
// for a locale and model is served again without a model call.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Cache stores translations keyed by Key.
type Cache interface {
	// Get returns the cached translation. Lookup failures count as misses.
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string) error
}

// Key builds the cache key for a source text translated into locale by model.
// The source text is trimmed and hashed with SHA-256.
func Key(locale, model, source string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(source)))
	return hex.EncodeToString(sum[:]) + ":" + locale + ":" + model
}

// Config selects and configures a cache.
type Config struct {
	Enabled   bool
	RedisURL  string
	TTL       time.Duration // 0 = no expiration
	KeyPrefix string
}

// New returns the cache described by cfg: Redis when a URL is set, an
// in-memory cache when only Enabled is set, nil otherwise.
func New(ctx context.Context, cfg Config) (Cache, error) {
	if cfg.RedisURL != "" {
		c, err := NewRedis(ctx, RedisConfig{URL: cfg.RedisURL, TTL: cfg.TTL, KeyPrefix: cfg.KeyPrefix})
		if err != nil {
			return nil, fmt.Errorf("connecting to redis cache: %w", err)
		}
		return c, nil
	}
	if cfg.Enabled {
		return NewMemory(cfg.TTL), nil
	}
	return nil, nil
}
