package factory

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/truthline/truthline/internal/adapters/cache"
	"github.com/truthline/truthline/internal/config"
	"github.com/truthline/truthline/internal/core"
	"go.uber.org/zap"
)

// CacheFactory creates stage caches based on configuration
type CacheFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewCacheFactory creates a new cache factory
func NewCacheFactory(cfg *config.Config, logger *zap.Logger) *CacheFactory {
	return &CacheFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateStageCache creates a stage cache based on the configuration
func (f *CacheFactory) CreateStageCache() (core.StageCache, error) {
	cacheType := f.cfg.GetString("cache.type")
	ttl, err := f.GetCacheTTL()
	if err != nil {
		return nil, fmt.Errorf("invalid cache ttl: %w", err)
	}
	cleanupFreq, err := f.cfg.GetDuration("cache.cleanup_frequency")
	if err != nil {
		return nil, fmt.Errorf("invalid cache cleanup frequency: %w", err)
	}

	switch cacheType {
	case "memory":
		return cache.NewMemoryCache(ttl, cleanupFreq, f.logger), nil
	case "sqlite":
		sqlitePath := f.cfg.GetString("cache.sqlite_path")
		if err := os.MkdirAll(filepath.Dir(sqlitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return cache.NewSQLiteCache(sqlitePath, ttl, cleanupFreq, f.logger)
	case "mysql":
		mysqlDSN := f.cfg.GetString("cache.mysql_dsn")
		return cache.NewMySQLCache(mysqlDSN, ttl, cleanupFreq, f.logger)
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cacheType)
	}
}

// GetCacheTTL returns the configured cache TTL
func (f *CacheFactory) GetCacheTTL() (time.Duration, error) {
	return f.cfg.GetDuration("cache.ttl")
}

// IsCacheEnabled returns whether caching is enabled
func (f *CacheFactory) IsCacheEnabled() bool {
	return f.cfg.GetBool("cache.enabled")
}
