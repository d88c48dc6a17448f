package app

import (
	"context"
	"fmt"

	"github.com/yungbote/pickleball-backend/internal/clients/analyzer"
	"github.com/yungbote/pickleball-backend/internal/clients/redis"
	"github.com/yungbote/pickleball-backend/internal/platform/gcp"
	"github.com/yungbote/pickleball-backend/internal/platform/logger"
)

type Clients struct {
	Analyzer analyzer.Client
	Events   redis.EventBus
	Archive  gcp.VideoArchive
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	az, err := analyzer.NewClient(log, analyzer.Config{
		URL:          cfg.Analyzer.URL,
		Timeout:      cfg.Analyzer.Timeout,
		QueueTimeout: cfg.Analyzer.QueueTimeout,
		MaxInFlight:  cfg.Analyzer.MaxInFlight,
		Breaker: analyzer.BreakerConfig{
			FailureThreshold: cfg.Analyzer.Breaker.FailureThreshold,
			OpenTimeout:      cfg.Analyzer.Breaker.OpenTimeout,
			HalfOpenRequests: cfg.Analyzer.Breaker.HalfOpenRequests,
			Interval:         cfg.Analyzer.Breaker.Interval,
		},
	})
	if err != nil {
		return Clients{}, fmt.Errorf("init analyzer client: %w", err)
	}

	// Redis
	bus, err := redis.NewEventBus(log, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Channel:  cfg.Redis.Channel,
	})
	if err != nil {
		return Clients{}, fmt.Errorf("init redis event bus: %w", err)
	}

	// Gcs
	archive, err := resolveVideoArchive(ctx, log, cfg.Archive)
	if err != nil {
		_ = bus.Close()
		return Clients{}, fmt.Errorf("init video archive: %w", err)
	}

	return Clients{
		Analyzer: az,
		Events:   bus,
		Archive:  archive,
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Events != nil {
		_ = c.Events.Close()
	}
	if c.Archive != nil {
		_ = c.Archive.Close()
	}
}
