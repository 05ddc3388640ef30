package analytics

import "context"

// Sync fans one unified profile out to every downstream sink. Both pushes
// share the non-throwing contract: errors are values the caller may drop.
type Sync struct {
	store     *StoreClient
	marketing *MarketingClient
}

func NewSync(store *StoreClient, marketing *MarketingClient) *Sync {
	return &Sync{store: store, marketing: marketing}
}

// PushToAnalyticsStore forwards to the analytics store sink.
func (s *Sync) PushToAnalyticsStore(ctx context.Context, profile Profile, kind PushKind) error {
	return s.store.Push(ctx, profile, kind)
}

// PushToMarketingPlatform forwards to the marketing platform sink.
func (s *Sync) PushToMarketingPlatform(ctx context.Context, profile Profile) error {
	return s.marketing.Push(ctx, profile)
}
