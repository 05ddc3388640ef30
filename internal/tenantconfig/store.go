package tenantconfig

import "context"

// Store loads and persists per-tenant configuration rows. Settings values
// are stored encrypted; the store itself is encryption-agnostic.
type Store interface {
	// ListByApp returns every configuration row for one consumer. Used by
	// the cache refresh to republish the consumer's keys in bulk.
	ListByApp(ctx context.Context, appID string) ([]Config, error)

	// Upsert creates or replaces the row addressed by the config's
	// composite key.
	Upsert(ctx context.Context, cfg Config) error
}
