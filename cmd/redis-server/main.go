// Command redis-server boots the reactor event loop: load config,
// build an Engine, listen, and run until SIGINT/SIGTERM. Grounded on
// the teacher's main.go init()-then-main() shape and its
// log.Fatalln-on-setup-failure convention, rewritten against zap and
// the server's own config/engine/reactor packages instead of the
// teacher's test-harness bootstrap.
//
// Takes no flags, per spec.md §6's CLI surface: the only override is
// an optional TOML file at configPath (or REDIS_SERVER_CONFIG, if
// set), loaded on top of config.DefaultConfig.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/JeffersonJefferson-pixel/build-your-own-redis/internal/config"
	"github.com/JeffersonJefferson-pixel/build-your-own-redis/internal/engine"
	"github.com/JeffersonJefferson-pixel/build-your-own-redis/internal/reactor"
)

// configPath is the conventional on-disk location consulted when
// REDIS_SERVER_CONFIG isn't set.
const configPath = "/etc/redis-server/config.toml"

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	path := os.Getenv("REDIS_SERVER_CONFIG")
	if path == "" {
		path = configPath
	}
	cfg := config.DefaultConfig()
	if _, statErr := os.Stat(path); statErr == nil {
		cfg, err = config.Load(path)
		if err != nil {
			log.Fatal("failed to load config", zap.String("path", path), zap.Error(err))
		}
	}

	eng := engine.New(cfg, log)
	r := reactor.New(eng)
	if err := r.Listen(); err != nil {
		log.Fatal("failed to listen", zap.String("addr", cfg.Addr), zap.Error(err))
	}
	defer r.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("redis-server started", zap.String("addr", cfg.Addr))
	if err := r.Run(ctx); err != nil {
		log.Fatal("event loop exited with error", zap.Error(err))
	}
	log.Info("redis-server shutting down")
}
