package cache

import (
	"fmt"
	"time"

	"crypto-indices/src/interfaces"
	"crypto-indices/src/models"
)

// New builds the configured cache backend.
func New(cfg models.MCacheConfig) (interfaces.IResponseCache, error) {
	ttl := time.Duration(cfg.TTLSeconds) * time.Second

	switch cfg.Backend {
	case "", "memory":
		return NewMemoryCache(ttl, nil), nil
	case "redis":
		rc, err := NewRedisCache(cfg)
		if err != nil {
			return nil, err
		}
		return rc, nil
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", cfg.Backend)
	}
}
