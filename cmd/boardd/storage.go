package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmerrifield20/linkboard/internal/accounts"
	"github.com/jmerrifield20/linkboard/internal/health"
	"github.com/jmerrifield20/linkboard/internal/journal"
	"github.com/jmerrifield20/linkboard/internal/migrate"
	"github.com/jmerrifield20/linkboard/internal/replay"
	"github.com/jmerrifield20/linkboard/migrations"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// backends are the stateful dependencies selected by configuration.
type backends struct {
	store   accounts.Store
	journal journal.Journal
	guard   replay.Guard
	pingers map[string]health.Pinger

	// committer is nil when the store and journal cannot share a transaction.
	committer *journal.PostgresCommitter

	closers []func()
}

// Close releases every connection opened by openBackends.
func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func openBackends(ctx context.Context, logger *zap.Logger) (*backends, error) {
	b := &backends{pingers: make(map[string]health.Pinger)}

	switch driver := viper.GetString("storage.driver"); driver {
	case "memory":
		store := accounts.NewMemoryStore()
		b.store = store
		b.journal = journal.NewMemory()
		b.pingers["store"] = store
		logger.Warn("using in-memory storage, state is lost on restart")
	case "postgres":
		db, err := pgxpool.New(ctx, viper.GetString("database.url"))
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		b.closers = append(b.closers, db.Close)
		if err := db.Ping(ctx); err != nil {
			b.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		logger.Info("connected to postgres")

		if viper.GetBool("database.auto_migrate") {
			n, err := migrate.Up(ctx, db, migrations.FS, logger)
			if err != nil {
				b.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
			logger.Info("schema up to date", zap.Int("applied", n))
		}

		store := accounts.NewPostgresStore(db, logger)
		jrnl := journal.NewPostgres(db, logger)
		b.store = store
		b.journal = jrnl
		b.committer = journal.NewPostgresCommitter(store, jrnl)
		b.pingers["store"] = store
		b.pingers["journal"] = jrnl
	default:
		return nil, fmt.Errorf("unknown storage.driver %q (want memory or postgres)", driver)
	}

	window := viper.GetDuration("replay.window")
	switch driver := viper.GetString("replay.driver"); driver {
	case "memory":
		guard := replay.NewMemory(window)
		b.guard = guard
		evictCtx, cancel := context.WithCancel(ctx)
		b.closers = append(b.closers, cancel)
		go evictLoop(evictCtx, guard, logger)
	case "redis":
		rdb, err := replay.Dial(ctx,
			viper.GetString("redis.addr"),
			viper.GetString("redis.password"),
			viper.GetInt("redis.db"),
		)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, func() { closeRedis(rdb, logger) })
		guard := replay.NewRedis(rdb, window)
		b.guard = guard
		b.pingers["redis"] = guard
		logger.Info("connected to redis", zap.String("addr", viper.GetString("redis.addr")))
	default:
		b.Close()
		return nil, fmt.Errorf("unknown replay.driver %q (want memory or redis)", driver)
	}

	return b, nil
}

// evictLoop drops expired replay ids until ctx is cancelled.
func evictLoop(ctx context.Context, guard *replay.MemoryGuard, logger *zap.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := guard.Evict(); n > 0 {
				logger.Debug("replay ids evicted", zap.Int("count", n), zap.Int("remaining", guard.Len()))
			}
		case <-ctx.Done():
			return
		}
	}
}

func closeRedis(rdb *redis.Client, logger *zap.Logger) {
	if err := rdb.Close(); err != nil {
		logger.Warn("close redis", zap.Error(err))
	}
}
