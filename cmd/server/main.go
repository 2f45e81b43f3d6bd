package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/matchdeck/matchdeck/internal/app"
	"github.com/matchdeck/matchdeck/internal/cache"
	"github.com/matchdeck/matchdeck/internal/config"
	"github.com/matchdeck/matchdeck/internal/db"
	"github.com/matchdeck/matchdeck/internal/logger"
	"github.com/matchdeck/matchdeck/internal/metrics"
	"github.com/matchdeck/matchdeck/internal/server"
	"github.com/matchdeck/matchdeck/internal/service/deck"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	appCtx := app.New(cfg, database, redisCache, metrics.New(), log)

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	router := server.NewRouter(
		deck.NewRegistrar(appCtx),
	)
	srv := server.NewHTTPServer(cfg, router)

	log.Info("starting HTTP server", "addr", srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
	}
}
