package identity

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unify/pkg/domain"
	dErrors "unify/pkg/domain-errors"
)

func newTestService() (*Service, *InMemoryStore) {
	store := NewInMemoryStore()
	return NewService(store, slog.New(slog.NewTextHandler(io.Discard, nil))), store
}

func TestGetOrCreateIdentityIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	first, err := svc.GetOrCreateIdentity(ctx, "pat@example.com")
	require.NoError(t, err)
	assert.False(t, first.IsNil())

	second, err := svc.GetOrCreateIdentity(ctx, "pat@example.com")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Case and surrounding whitespace do not mint a new identity.
	normalized, err := svc.GetOrCreateIdentity(ctx, " Pat@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, first, normalized)

	other, err := svc.GetOrCreateIdentity(ctx, "kim@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestGetOrCreateIdentityRejectsInvalidEmail(t *testing.T) {
	svc, _ := newTestService()
	for _, address := range []string{"", "not-an-email", "pat@"} {
		_, err := svc.GetOrCreateIdentity(context.Background(), address)
		require.Error(t, err, "address %q", address)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	}
}

// racingStore simulates a concurrent first-writer: the initial lookup misses,
// the insert collides, and the re-read finds the winner's identity.
type racingStore struct {
	Store
	winner domain.MUUID
	reads  int
}

func (s *racingStore) FindIdentityByEmail(_ context.Context, _ string) (domain.MUUID, error) {
	s.reads++
	if s.reads == 1 {
		return domain.MUUID{}, ErrNotFound
	}
	return s.winner, nil
}

func (s *racingStore) CreateIdentity(_ context.Context, _ domain.MUUID, _ string) error {
	return ErrEmailTaken
}

func TestGetOrCreateIdentityResolvesUniqueRaceByReread(t *testing.T) {
	winner := domain.NewMUUID()
	store := &racingStore{winner: winner}
	svc := NewService(store, slog.New(slog.NewTextHandler(io.Discard, nil)))

	muuid, err := svc.GetOrCreateIdentity(context.Background(), "raced@example.com")
	require.NoError(t, err)
	assert.Equal(t, winner, muuid)
	assert.Equal(t, 2, store.reads)
}

func TestChangeEmailAppendsToHistory(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	muuid, err := svc.GetOrCreateIdentity(ctx, "one@example.com")
	require.NoError(t, err)

	require.NoError(t, svc.ChangeEmail(ctx, muuid, "two@example.com"))
	require.NoError(t, svc.ChangeEmail(ctx, muuid, "three@example.com"))

	history, err := svc.EmailHistory(ctx, muuid)
	require.NoError(t, err)
	require.Len(t, history, 3)
	for i, rec := range history {
		assert.Equal(t, i+1, rec.Ord)
		assert.Equal(t, muuid, rec.MUUID)
	}
	assert.Equal(t, "one@example.com", history[0].Email)
	assert.Equal(t, "three@example.com", history[2].Email)
}

func TestChangeEmailIsNoOpForKnownPair(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	muuid, err := svc.GetOrCreateIdentity(ctx, "same@example.com")
	require.NoError(t, err)

	require.NoError(t, svc.ChangeEmail(ctx, muuid, "same@example.com"))

	history, err := svc.EmailHistory(ctx, muuid)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestChangeEmailRejectsEmailOwnedByAnotherIdentity(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	_, err := svc.GetOrCreateIdentity(ctx, "owner@example.com")
	require.NoError(t, err)
	other, err := svc.GetOrCreateIdentity(ctx, "other@example.com")
	require.NoError(t, err)

	err = svc.ChangeEmail(ctx, other, "owner@example.com")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestUpsertLocalAccountFreezesIdentityFields(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	muuid := domain.NewMUUID()

	created, err := svc.UpsertLocalAccount(ctx, LocalAccount{
		MUUID:     muuid,
		BrandID:   "bosch",
		RegionID:  "EU",
		UUID:      "local-1",
		ToolUsage: []string{"drill"},
		Company:   "Acme GmbH",
	})
	require.NoError(t, err)
	assert.Equal(t, muuid, created.MUUID)

	updated, err := svc.UpsertLocalAccount(ctx, LocalAccount{
		MUUID:     muuid,
		BrandID:   "bosch",
		RegionID:  "EU",
		UUID:      "local-1",
		ToolUsage: []string{"drill", "saw"},
		Company:   "Acme SE",
	})
	require.NoError(t, err)
	assert.Equal(t, muuid, updated.MUUID)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, []string{"drill", "saw"}, updated.ToolUsage)
	assert.Equal(t, "Acme SE", updated.Company)
}

func TestUpsertLocalAccountWithoutMUUIDCannotInsert(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	_, err := svc.UpsertLocalAccount(ctx, LocalAccount{
		BrandID:  "bosch",
		RegionID: "EU",
		UUID:     "unknown-local",
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeStoreUnavailable))
}

func TestLookupByLocalAccountUUIDReturnsLatestEmail(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	muuid, err := svc.GetOrCreateIdentity(ctx, "old@example.com")
	require.NoError(t, err)
	require.NoError(t, svc.ChangeEmail(ctx, muuid, "new@example.com"))

	_, err = svc.UpsertLocalAccount(ctx, LocalAccount{
		MUUID:    muuid,
		BrandID:  "bosch",
		RegionID: "EU",
		UUID:     "local-9",
	})
	require.NoError(t, err)

	result, err := svc.LookupByLocalAccountUUID(ctx, "local-9")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, muuid, result.MUUID)
	assert.Equal(t, "new@example.com", result.Email)
	assert.Equal(t, "bosch", result.BrandID)
}

func TestLookupByLocalAccountUUIDMissIsNotAnError(t *testing.T) {
	svc, _ := newTestService()
	result, err := svc.LookupByLocalAccountUUID(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestPurgeLocalAccountsRemovesAllTenantBindings(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()
	muuid := domain.NewMUUID()

	for _, region := range []string{"EU", "NA"} {
		_, err := svc.UpsertLocalAccount(ctx, LocalAccount{
			MUUID:    muuid,
			BrandID:  "bosch",
			RegionID: region,
			UUID:     "local-" + region,
		})
		require.NoError(t, err)
	}

	require.NoError(t, svc.PurgeLocalAccounts(ctx, muuid))

	_, err := store.FindLocalAccount(ctx, muuid, "bosch", "EU")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
