package identity

import (
	"context"
	"log/slog"

	"unify/pkg/domain"
	dErrors "unify/pkg/domain-errors"
	"unify/pkg/email"
)

// Service exposes the identity graph operations. It keeps orchestration out
// of handlers and leaves uniqueness races to the store's constraints.
type Service struct {
	store Store
	log   *slog.Logger
}

func NewService(store Store, log *slog.Logger) *Service {
	return &Service{store: store, log: log}
}

// GetOrCreateIdentity returns the MUUID owning email, generating a new
// global identity on first contact. Idempotent: a duplicate-key collision
// from a concurrent first-writer is resolved by re-reading, never surfaced.
func (s *Service) GetOrCreateIdentity(ctx context.Context, address string) (domain.MUUID, error) {
	address = email.Normalize(address)
	if !email.Valid(address) {
		return domain.MUUID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid email address")
	}

	muuid, err := s.store.FindIdentityByEmail(ctx, address)
	if err == nil {
		return muuid, nil
	}
	if !dErrors.HasCode(err, dErrors.CodeNotFound) {
		return domain.MUUID{}, dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "lookup identity by email")
	}

	muuid = domain.NewMUUID()
	err = s.store.CreateIdentity(ctx, muuid, address)
	if err == nil {
		s.log.Info("global identity created", "muuid", muuid.String())
		return muuid, nil
	}
	if dErrors.HasCode(err, dErrors.CodeConflict) {
		// Lost the race; the other writer's identity owns the email now.
		winner, readErr := s.store.FindIdentityByEmail(ctx, address)
		if readErr != nil {
			return domain.MUUID{}, dErrors.Wrap(readErr, dErrors.CodeStoreUnavailable, "re-read identity after conflict")
		}
		return winner, nil
	}
	return domain.MUUID{}, dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "create identity")
}

// ChangeEmail appends newEmail to the identity's history. A no-op when the
// pair already exists; the prior records are never overwritten or removed.
func (s *Service) ChangeEmail(ctx context.Context, muuid domain.MUUID, newEmail string) error {
	newEmail = email.Normalize(newEmail)
	if !email.Valid(newEmail) {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid email address")
	}
	exists, err := s.store.EmailExists(ctx, muuid, newEmail)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "check email history")
	}
	if exists {
		return nil
	}
	if err := s.store.AppendEmail(ctx, muuid, newEmail); err != nil {
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "append email record")
	}
	return nil
}

// EmailHistory returns the identity's full, ordered email history.
func (s *Service) EmailHistory(ctx context.Context, muuid domain.MUUID) ([]EmailRecord, error) {
	return s.store.ListEmails(ctx, muuid)
}

// LookupByLocalAccountUUID resolves a tenant-scoped local account uuid to
// its global identity and most recent email. A nil result means nothing was
// found; the caller decides whether that is fatal.
func (s *Service) LookupByLocalAccountUUID(ctx context.Context, uuid string) (*AccountIdentity, error) {
	result, err := s.store.FindAccountIdentityByUUID(ctx, uuid)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "lookup by local account uuid")
	}
	return result, nil
}

// LocalAccount returns the tenant binding for (muuid, brand, region).
func (s *Service) LocalAccount(ctx context.Context, muuid domain.MUUID, brand, region string) (*LocalAccount, error) {
	return s.store.FindLocalAccount(ctx, muuid, brand, region)
}

// UpsertLocalAccount registers or updates a tenant binding. A binding that
// silently failed to register must not be treated as success, so every
// store failure here is fatal to the calling operation.
func (s *Service) UpsertLocalAccount(ctx context.Context, acc LocalAccount) (LocalAccount, error) {
	upserted, err := s.store.UpsertLocalAccount(ctx, acc)
	if err != nil {
		return LocalAccount{}, dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "upsert local account")
	}
	return upserted, nil
}

// PurgeLocalAccounts removes every tenant binding for the identity. Part of
// the global purge; no other path deletes local accounts.
func (s *Service) PurgeLocalAccounts(ctx context.Context, muuid domain.MUUID) error {
	deleted, err := s.store.DeleteLocalAccounts(ctx, muuid)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "purge local accounts")
	}
	s.log.Info("local accounts purged", "muuid", muuid.String(), "deleted", deleted)
	return nil
}
