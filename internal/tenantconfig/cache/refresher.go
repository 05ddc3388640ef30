package cache

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RefreshChannel is the Redis pub/sub channel carrying refresh triggers.
// The payload is the appID to reload.
const RefreshChannel = "unify.config.refresh"

// Refresher listens for cluster-wide refresh triggers and applies them to
// the local cache, so an administrative refresh on one instance converges
// every instance without restarts.
type Refresher struct {
	cache *Cache
	rdb   *redis.Client
	log   *slog.Logger
}

func NewRefresher(cache *Cache, rdb *redis.Client, log *slog.Logger) *Refresher {
	return &Refresher{cache: cache, rdb: rdb, log: log}
}

// Run subscribes and applies refreshes until ctx is cancelled. A failed
// refresh is logged and the subscription continues; the cache stays
// fail-static on store errors.
func (r *Refresher) Run(ctx context.Context) error {
	sub := r.rdb.Subscribe(ctx, RefreshChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err := r.cache.Refresh(ctx, msg.Payload); err != nil {
				r.log.Error("broadcast refresh failed", "app_id", msg.Payload, "error", err)
			}
		}
	}
}

// Broadcast publishes a refresh trigger for appID to every instance.
func Broadcast(ctx context.Context, rdb *redis.Client, appID string) error {
	return rdb.Publish(ctx, RefreshChannel, appID).Err()
}
