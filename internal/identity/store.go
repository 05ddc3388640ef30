package identity

import (
	"context"

	"unify/pkg/domain"
	dErrors "unify/pkg/domain-errors"
)

var (
	// ErrNotFound keeps store-level misses consistent across the postgres
	// and in-memory implementations.
	ErrNotFound = dErrors.New(dErrors.CodeNotFound, "identity record not found")

	// ErrEmailTaken is returned when an email value is already linked to a
	// different global identity. The uniqueness lives in the store (unique
	// index), not in application-level locking.
	ErrEmailTaken = dErrors.New(dErrors.CodeConflict, "email already linked to an identity")
)

// Store is the durable backing of the identity graph.
type Store interface {
	// FindIdentityByEmail returns the MUUID owning email, or ErrNotFound.
	FindIdentityByEmail(ctx context.Context, email string) (domain.MUUID, error)

	// CreateIdentity records a new global identity with its first email
	// (ord = 1). Returns ErrEmailTaken when a concurrent first-writer won
	// the unique-email race.
	CreateIdentity(ctx context.Context, muuid domain.MUUID, email string) error

	// EmailExists reports whether (muuid, email) is already on record.
	EmailExists(ctx context.Context, muuid domain.MUUID, email string) (bool, error)

	// AppendEmail appends email to muuid's history with ord = count + 1.
	// Returns ErrEmailTaken when the email belongs to another identity.
	AppendEmail(ctx context.Context, muuid domain.MUUID, email string) error

	// ListEmails returns the identity's full email history ordered by ord.
	ListEmails(ctx context.Context, muuid domain.MUUID) ([]EmailRecord, error)

	// FindAccountIdentityByUUID joins a local account to the most recent
	// email record for its MUUID (highest ord wins). Returns nil, nil when
	// nothing matches; the caller decides whether that is fatal.
	FindAccountIdentityByUUID(ctx context.Context, uuid string) (*AccountIdentity, error)

	// FindLocalAccount returns the tenant binding for (muuid, brand,
	// region), or ErrNotFound.
	FindLocalAccount(ctx context.Context, muuid domain.MUUID, brand, region string) (*LocalAccount, error)

	// UpsertLocalAccount creates the binding on first contact and
	// overwrites the mutable fields thereafter. When acc.MUUID is nil the
	// update falls back to (uuid, brand, region) and cannot insert.
	UpsertLocalAccount(ctx context.Context, acc LocalAccount) (LocalAccount, error)

	// DeleteLocalAccounts removes every tenant binding for muuid. Only the
	// global purge calls this.
	DeleteLocalAccounts(ctx context.Context, muuid domain.MUUID) (int64, error)
}
