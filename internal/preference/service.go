package preference

import (
	"context"
	"log/slog"

	"unify/internal/identity"
	"unify/pkg/domain"
	dErrors "unify/pkg/domain-errors"
)

// Accounts is the slice of the identity graph the preference service needs:
// the companion tenant-binding write and the global purge.
type Accounts interface {
	UpsertLocalAccount(ctx context.Context, acc identity.LocalAccount) (identity.LocalAccount, error)
	PurgeLocalAccounts(ctx context.Context, muuid domain.MUUID) error
}

// WriteEvent describes a completed preference write for the aggregation/
// sync pipeline. Consumers must never fail or delay the write it came from.
type WriteEvent struct {
	Selector Selector
	BrandID  string
	RegionID string
	MarketID string
	Locale   string

	// Kind tells the analytics sink which event family triggered the
	// write: registration, newsletter or emailChange.
	Kind string

	// Overrides are caller-supplied fields merged over everything else.
	Overrides map[string]any

	// FromIdentityCore marks writes originating from the identity-
	// resolution side, so two services that both write preferences do not
	// re-trigger each other's sync in a loop.
	FromIdentityCore bool
}

// SyncTrigger receives write events fire-and-forget.
type SyncTrigger interface {
	PreferenceWritten(event WriteEvent)
}

// UpsertInput carries one preference write plus the tenant-binding fields
// that ride along with it.
type UpsertInput struct {
	Record Record

	// Local account companion fields.
	Company     string
	Source      string
	AccountType string
	Shop        string
	Retailers   []string

	Kind             string
	Locale           string
	Overrides        map[string]any
	FromIdentityCore bool
}

// Service orchestrates preference writes: the companion local-account
// upsert first (fatal on failure), the record write second, and the
// aggregation trigger last.
type Service struct {
	store    Store
	accounts Accounts
	trigger  SyncTrigger
	log      *slog.Logger
}

func NewService(store Store, accounts Accounts, trigger SyncTrigger, log *slog.Logger) *Service {
	return &Service{store: store, accounts: accounts, trigger: trigger, log: log}
}

// Upsert writes one preference record. The local-account upsert is an
// atomic-in-intent companion write: if it fails, the preference write does
// not proceed. The sync trigger afterwards never blocks or fails the write.
func (s *Service) Upsert(ctx context.Context, in UpsertInput) (Record, error) {
	rec := in.Record
	if rec.BrandID == "" || rec.RegionID == "" {
		return Record{}, dErrors.New(dErrors.CodeInvalidInput, "brand and region are required")
	}
	if rec.MUUID.IsNil() && rec.UUID == "" {
		return Record{}, dErrors.New(dErrors.CodeInvalidInput, "muuid or uuid is required")
	}

	account, err := s.accounts.UpsertLocalAccount(ctx, identity.LocalAccount{
		MUUID:       rec.MUUID,
		BrandID:     rec.BrandID,
		RegionID:    rec.RegionID,
		UUID:        rec.UUID,
		ToolUsage:   rec.ToolUsage,
		Company:     in.Company,
		Source:      in.Source,
		AccountType: in.AccountType,
		Shop:        in.Shop,
		Retailers:   in.Retailers,
	})
	if err != nil {
		return Record{}, err
	}
	if rec.MUUID.IsNil() {
		rec.MUUID = account.MUUID
	}

	stored, err := s.store.Upsert(ctx, rec)
	if err != nil {
		return Record{}, dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "upsert preference record")
	}

	if s.trigger != nil {
		s.trigger.PreferenceWritten(WriteEvent{
			Selector:         Selector{MUUID: stored.MUUID, UUID: stored.UUID},
			BrandID:          stored.BrandID,
			RegionID:         stored.RegionID,
			MarketID:         stored.MarketID,
			Locale:           in.Locale,
			Kind:             in.Kind,
			Overrides:        in.Overrides,
			FromIdentityCore: in.FromIdentityCore,
		})
	}
	return stored, nil
}

// Query returns matching records. No ordering is guaranteed to callers
// unless the query fully pins (identity, brand, region, market).
func (s *Service) Query(ctx context.Context, q Query) ([]Record, error) {
	if !q.Selector.HasMUUID() && q.Selector.UUID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "muuid or uuid is required")
	}
	records, err := s.store.Query(ctx, q)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "query preference records")
	}
	return records, nil
}

// Purge hard-deletes every record for the identity, optionally scoped to
// one market. A zero-row delete is NotFound, not success. An unscoped purge
// also removes the identity's local accounts.
func (s *Service) Purge(ctx context.Context, muuid domain.MUUID, market string) error {
	deleted, err := s.store.Delete(ctx, muuid, market)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "purge preference records")
	}
	if deleted == 0 {
		return ErrNotFound
	}
	if market == "" {
		if err := s.accounts.PurgeLocalAccounts(ctx, muuid); err != nil {
			return err
		}
	}
	s.log.Info("preferences purged", "muuid", muuid.String(), "market", market, "deleted", deleted)
	return nil
}
