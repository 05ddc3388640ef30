// Package profile joins the identity graph, the preference store and the
// identity provider's live profile into one unified, downstream-shaped
// record, and hands it to the analytics sync. Everything in here is
// best-effort: a failure to build or push a profile never fails the
// preference write that triggered it.
package profile

import (
	"context"
	"log/slog"

	"unify/internal/analytics"
	"unify/internal/identity"
	"unify/internal/idp"
	"unify/internal/preference"
	"unify/pkg/domain"
	dErrors "unify/pkg/domain-errors"
)

// Accounts is the slice of the identity graph the aggregator reads.
type Accounts interface {
	LocalAccount(ctx context.Context, muuid domain.MUUID, brand, region string) (*identity.LocalAccount, error)
}

// Syncer receives the finished unified profile.
type Syncer interface {
	PushToAnalyticsStore(ctx context.Context, profile analytics.Profile, kind analytics.PushKind) error
	PushToMarketingPlatform(ctx context.Context, profile analytics.Profile) error
}

// Aggregator implements preference.SyncTrigger. Writes are handed to the
// background dispatcher and processed off the request path.
type Aggregator struct {
	prefs      preference.Store
	accounts   Accounts
	provider   idp.ProfileSource
	sync       Syncer
	dispatcher *analytics.Dispatcher
	log        *slog.Logger
}

func NewAggregator(prefs preference.Store, accounts Accounts, provider idp.ProfileSource,
	sync Syncer, dispatcher *analytics.Dispatcher, log *slog.Logger) *Aggregator {
	return &Aggregator{
		prefs:      prefs,
		accounts:   accounts,
		provider:   provider,
		sync:       sync,
		dispatcher: dispatcher,
		log:        log,
	}
}

// PreferenceWritten schedules aggregation for one completed write. Never
// blocks: the dispatcher drops on a full queue.
func (a *Aggregator) PreferenceWritten(event preference.WriteEvent) {
	a.dispatcher.Dispatch(func(ctx context.Context) {
		a.process(ctx, event)
	})
}

func (a *Aggregator) process(ctx context.Context, event preference.WriteEvent) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("unified profile sync panicked",
				"muuid", event.Selector.MUUID.String(), "uuid", event.Selector.UUID,
				"brand", event.BrandID, "region", event.RegionID, "panic", r)
		}
	}()

	profile, err := a.BuildUnifiedProfile(ctx, event)
	if err != nil {
		a.log.Error("unified profile build failed",
			"muuid", event.Selector.MUUID.String(), "uuid", event.Selector.UUID,
			"brand", event.BrandID, "region", event.RegionID, "error", err)
		return
	}
	if profile == nil {
		return
	}
	if event.FromIdentityCore {
		// The identity-resolution side already syncs its own writes;
		// pushing here again would have the two services re-triggering
		// each other in a loop.
		return
	}

	kind := analytics.PushKind(event.Kind)
	if kind == "" {
		kind = analytics.KindRegistration
	}
	if err := a.sync.PushToAnalyticsStore(ctx, profile, kind); err != nil {
		a.log.Error("analytics store push failed",
			"muuid", event.Selector.MUUID.String(), "brand", event.BrandID,
			"region", event.RegionID, "error", err)
	}
	if err := a.sync.PushToMarketingPlatform(ctx, profile); err != nil {
		a.log.Error("marketing platform push failed",
			"muuid", event.Selector.MUUID.String(), "brand", event.BrandID,
			"region", event.RegionID, "error", err)
	}
}

// BuildUnifiedProfile assembles the downstream-shaped record. A nil profile
// with a nil error is the deliberate best-effort short-circuit: the
// provider has no profile, or no preference rows match. Merge precedence is
// provider profile, then the representative record, then caller overrides.
func (a *Aggregator) BuildUnifiedProfile(ctx context.Context, event preference.WriteEvent) (analytics.Profile, error) {
	localUUID := event.Selector.UUID
	if localUUID == "" {
		account, err := a.accounts.LocalAccount(ctx, event.Selector.MUUID, event.BrandID, event.RegionID)
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeNotFound) {
				a.log.Warn("no local account for identity",
					"muuid", event.Selector.MUUID.String(),
					"brand", event.BrandID, "region", event.RegionID)
				return nil, nil
			}
			return nil, err
		}
		localUUID = account.UUID
	}

	provider, err := a.provider.GetProfile(ctx, idp.ProfileQuery{
		UUID:     localUUID,
		BrandID:  event.BrandID,
		RegionID: event.RegionID,
		MarketID: event.MarketID,
		Locale:   event.Locale,
	})
	if err != nil {
		return nil, err
	}
	if provider == nil {
		a.log.Warn("no identity provider profile",
			"uuid", localUUID, "brand", event.BrandID, "region", event.RegionID)
		return nil, nil
	}

	// Market is deliberately not pinned: every market's record for the
	// tenant feeds the per-market list.
	records, err := a.prefs.Query(ctx, preference.Query{
		Selector: event.Selector,
		BrandID:  event.BrandID,
		RegionID: event.RegionID,
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		a.log.Warn("no preference records for identity",
			"uuid", localUUID, "brand", event.BrandID, "region", event.RegionID)
		return nil, nil
	}

	// The store orders by updated_at descending, so the promoted
	// representative is the most recently updated record.
	representative := records[0]

	profile := merge(provider, recordFields(representative), event.Overrides)
	remapSynonyms(profile)

	entries := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		entries = append(entries, marketEntry(rec))
	}
	profile["marketPreferences"] = entries

	return profile, nil
}
