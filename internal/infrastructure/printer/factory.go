package printer

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/kthimi/invoicer/internal/infrastructure/config"
)

// NewAddressCache creates the cache backend selected in configuration.
// When Redis is selected but unreachable, discovery still has to work, so
// the factory falls back to the in-memory cache with a warning.
func NewAddressCache(printerCfg config.PrinterConfig, redisCfg config.RedisConfig, logger *zap.Logger) (AddressCache, error) {
	switch printerCfg.CacheBackend {
	case "inmemory":
		return NewInMemoryAddressCache(), nil
	case "redis":
		cache, err := NewRedisAddressCache(redisCfg)
		if err != nil {
			logger.Warn("redis printer cache unavailable, falling back to in-memory",
				zap.String("addr", redisCfg.Addr()),
				zap.Error(err),
			)
			return NewInMemoryAddressCache(), nil
		}
		return cache, nil
	default:
		return nil, fmt.Errorf("unknown printer cache backend %q", printerCfg.CacheBackend)
	}
}
