package app

import (
	"log/slog"

	"github.com/matchdeck/matchdeck/internal/cache"
	"github.com/matchdeck/matchdeck/internal/config"
	"github.com/matchdeck/matchdeck/internal/metrics"
	"gorm.io/gorm"
)

// AppContext holds shared dependencies (DB, Redis, Metrics, Logger, Config)
type AppContext struct {
	Cfg        *config.Config
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

// New creates a new AppContext
func New(cfg *config.Config, db *gorm.DB, rdb *cache.RedisCache, m *metrics.Metrics, logger *slog.Logger) *AppContext {
	return &AppContext{
		Cfg:        cfg,
		DB:         db,
		RedisCache: rdb,
		Metrics:    m,
		Logger:     logger,
	}
}
