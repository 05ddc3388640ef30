package preference

import (
	"context"

	"unify/pkg/domain"
	dErrors "unify/pkg/domain-errors"
)

// ErrNotFound keeps store-level misses consistent across implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "preference record not found")

// Store is the durable backing for preference records.
type Store interface {
	// Upsert creates the record on first write and overwrites the mutable
	// field set thereafter, stamping UpdatedAt. The filter is
	// (MUUID, brand, region, market) when MUUID is present, else
	// (uuid, brand, region, market).
	Upsert(ctx context.Context, rec Record) (Record, error)

	// Query returns zero or more records. When several rows match, they
	// are ordered most-recently-updated first so the representative pick
	// during aggregation is deterministic.
	Query(ctx context.Context, q Query) ([]Record, error)

	// Delete hard-deletes every record for the identity, optionally scoped
	// to one market. Returns the number of rows removed.
	Delete(ctx context.Context, muuid domain.MUUID, market string) (int64, error)
}
