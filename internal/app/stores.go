package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nadzzz/readmebot/internal/conversation"
	redisstore "github.com/nadzzz/readmebot/internal/store/redis"
	"github.com/nadzzz/readmebot/internal/store/sqlstore"
)

type stores struct {
	store   conversation.Store
	archive conversation.Archive
}

func (a *App) openStore(ctx context.Context) (stores, error) {
	cfg := a.cfg.Store
	switch cfg.Backend {
	case "", "memory":
		m := conversation.NewMemoryStore()
		slog.Info("using in-memory conversation store")
		return stores{store: m, archive: m}, nil

	case "redis":
		s, err := redisstore.New(cfg.RedisURL, cfg.TTL)
		if err != nil {
			return stores{}, err
		}
		a.closers = append(a.closers, s)
		a.health.AddCheck("redis", s.Ping)
		slog.Info("using redis conversation store", "ttl", cfg.TTL)
		return stores{store: s, archive: s}, nil

	case sqlstore.Postgres, sqlstore.SQLite:
		s, err := sqlstore.Open(cfg.Backend, cfg.DSN, cfg.TTL)
		if err != nil {
			return stores{}, err
		}
		a.closers = append(a.closers, s)
		if err := s.Migrate(ctx, "up"); err != nil {
			return stores{}, err
		}
		a.health.AddCheck(cfg.Backend, s.Ping)
		if cfg.TTL > 0 {
			a.janitor = s
		}
		slog.Info("using sql conversation store", "dialect", cfg.Backend, "ttl", cfg.TTL)
		return stores{store: s, archive: s}, nil
	}
	return stores{}, fmt.Errorf("store.backend: unknown backend %q", cfg.Backend)
}
