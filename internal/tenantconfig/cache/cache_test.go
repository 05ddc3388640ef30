package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unify/internal/tenantconfig"
	dErrors "unify/pkg/domain-errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCipher(t *testing.T) *tenantconfig.Cipher {
	t.Helper()
	cipher, err := tenantconfig.NewCipher("cache-test", "cache-salt")
	require.NoError(t, err)
	return cipher
}

func encryptAll(cipher *tenantconfig.Cipher, plain map[string]string) []tenantconfig.Setting {
	settings := make([]tenantconfig.Setting, 0, len(plain))
	for name, value := range plain {
		settings = append(settings, tenantconfig.Setting{Name: name, Value: cipher.Encrypt(value)})
	}
	return settings
}

func TestResolveAbsentKeyYieldsZeroConfig(t *testing.T) {
	c := New(tenantconfig.NewInMemoryStore(), testCipher(t), testLogger(), nil)

	cfg, faults := c.ResolveAnalyticsStore("bosch", "EU", "registration")
	assert.True(t, cfg.IsZero())
	assert.Empty(t, faults)
}

func TestRefreshAndResolveAnalyticsStore(t *testing.T) {
	ctx := context.Background()
	cipher := testCipher(t)
	store := tenantconfig.NewInMemoryStore()
	require.NoError(t, store.Upsert(ctx, tenantconfig.Config{
		AppID:    tenantconfig.AppAnalyticsStore,
		BrandID:  "bosch",
		RegionID: "EU",
		Group:    "registration",
		Settings: encryptAll(cipher, map[string]string{
			"dbName":    "identity",
			"tableName": "profiles",
			"baseUri":   "https://analytics.example.com",
			"writeKey":  "wk-1",
			"legacyUri": "dropped",
		}),
	}))

	c := New(store, cipher, testLogger(), nil)
	require.NoError(t, c.Refresh(ctx, tenantconfig.AppAnalyticsStore))

	cfg, faults := c.ResolveAnalyticsStore("bosch", "EU", "registration")
	assert.Empty(t, faults)
	assert.Equal(t, "identity", cfg.DBName)
	assert.Equal(t, "profiles", cfg.TableName)
	assert.Equal(t, "https://analytics.example.com", cfg.BaseURI)
	assert.Equal(t, "wk-1", cfg.WriteKey)
}

func TestResolveIdentityProviderKeyedByMarketAndLocale(t *testing.T) {
	ctx := context.Background()
	cipher := testCipher(t)
	store := tenantconfig.NewInMemoryStore()
	require.NoError(t, store.Upsert(ctx, tenantconfig.Config{
		AppID:    tenantconfig.AppIdentityProvider,
		BrandID:  "bosch",
		RegionID: "EU",
		MarketID: "DE",
		Locale:   "de-DE",
		Settings: encryptAll(cipher, map[string]string{
			"website":  "https://idp.example.com",
			"clientId": "client-de",
		}),
	}))

	c := New(store, cipher, testLogger(), nil)
	require.NoError(t, c.Refresh(ctx, tenantconfig.AppIdentityProvider))

	cfg, faults := c.ResolveIdentityProvider("bosch", "EU", "DE", "de-DE", "")
	assert.Empty(t, faults)
	assert.Equal(t, "client-de", cfg.ClientID)

	other, _ := c.ResolveIdentityProvider("bosch", "EU", "FR", "fr-FR", "")
	assert.True(t, other.IsZero())
}

func TestRefreshReplacesConsumerKeysWholesale(t *testing.T) {
	ctx := context.Background()
	cipher := testCipher(t)
	store := tenantconfig.NewInMemoryStore()
	require.NoError(t, store.Upsert(ctx, tenantconfig.Config{
		AppID:    tenantconfig.AppMarketingPlatform,
		BrandID:  "bosch",
		RegionID: "DE",
		Settings: encryptAll(cipher, map[string]string{"apiKey": "old-key"}),
	}))

	c := New(store, cipher, testLogger(), nil)
	require.NoError(t, c.Refresh(ctx, tenantconfig.AppMarketingPlatform))

	// Replace the store contents entirely: the old tenant disappears and a
	// new one shows up. A refresh must reflect exactly the new state.
	store2 := tenantconfig.NewInMemoryStore()
	require.NoError(t, store2.Upsert(ctx, tenantconfig.Config{
		AppID:    tenantconfig.AppMarketingPlatform,
		BrandID:  "bosch",
		RegionID: "FR",
		Settings: encryptAll(cipher, map[string]string{"apiKey": "new-key"}),
	}))
	c.store = store2
	require.NoError(t, c.Refresh(ctx, tenantconfig.AppMarketingPlatform))

	stale, _ := c.ResolveMarketingPlatform("bosch", "DE")
	assert.True(t, stale.IsZero())
	fresh, _ := c.ResolveMarketingPlatform("bosch", "FR")
	assert.Equal(t, "new-key", fresh.APIKey)
}

func TestRefreshDoesNotTouchOtherConsumers(t *testing.T) {
	ctx := context.Background()
	cipher := testCipher(t)
	store := tenantconfig.NewInMemoryStore()
	require.NoError(t, store.Upsert(ctx, tenantconfig.Config{
		AppID:    tenantconfig.AppMarketingPlatform,
		BrandID:  "bosch",
		RegionID: "DE",
		Settings: encryptAll(cipher, map[string]string{"apiKey": "mk-1"}),
	}))
	require.NoError(t, store.Upsert(ctx, tenantconfig.Config{
		AppID:    tenantconfig.AppAnalyticsStore,
		BrandID:  "bosch",
		RegionID: "EU",
		Settings: encryptAll(cipher, map[string]string{"writeKey": "wk-1"}),
	}))

	c := New(store, cipher, testLogger(), nil)
	require.NoError(t, c.Refresh(ctx, tenantconfig.AppMarketingPlatform))
	require.NoError(t, c.Refresh(ctx, tenantconfig.AppAnalyticsStore))

	// Refreshing one consumer again must leave the other's entries alone.
	require.NoError(t, c.Refresh(ctx, tenantconfig.AppMarketingPlatform))
	cfg, _ := c.ResolveAnalyticsStore("bosch", "EU", "")
	assert.Equal(t, "wk-1", cfg.WriteKey)
}

type failingStore struct{}

func (failingStore) ListByApp(context.Context, string) ([]tenantconfig.Config, error) {
	return nil, errors.New("connection refused")
}

func (failingStore) Upsert(context.Context, tenantconfig.Config) error {
	return errors.New("connection refused")
}

func TestRefreshFailureIsFailStatic(t *testing.T) {
	ctx := context.Background()
	cipher := testCipher(t)
	store := tenantconfig.NewInMemoryStore()
	require.NoError(t, store.Upsert(ctx, tenantconfig.Config{
		AppID:    tenantconfig.AppMarketingPlatform,
		BrandID:  "bosch",
		RegionID: "DE",
		Settings: encryptAll(cipher, map[string]string{"apiKey": "keep-me"}),
	}))

	c := New(store, cipher, testLogger(), nil)
	require.NoError(t, c.Refresh(ctx, tenantconfig.AppMarketingPlatform))

	c.store = failingStore{}
	err := c.Refresh(ctx, tenantconfig.AppMarketingPlatform)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeStoreUnavailable))

	// The previously cached entry must still resolve.
	cfg, _ := c.ResolveMarketingPlatform("bosch", "DE")
	assert.Equal(t, "keep-me", cfg.APIKey)
}

func TestDecryptFaultSkipsSettingAndReportsIt(t *testing.T) {
	ctx := context.Background()
	cipher := testCipher(t)
	store := tenantconfig.NewInMemoryStore()
	require.NoError(t, store.Upsert(ctx, tenantconfig.Config{
		AppID:    tenantconfig.AppMarketingPlatform,
		BrandID:  "bosch",
		RegionID: "DE",
		Settings: []tenantconfig.Setting{
			{Name: "apiKey", Value: cipher.Encrypt("good-key")},
			{Name: "apiUrl", Value: "corrupt!!not-base64"},
		},
	}))

	c := New(store, cipher, testLogger(), nil)
	require.NoError(t, c.Refresh(ctx, tenantconfig.AppMarketingPlatform))

	cfg, faults := c.ResolveMarketingPlatform("bosch", "DE")
	assert.Equal(t, "good-key", cfg.APIKey)
	assert.Empty(t, cfg.APIURL)
	require.Len(t, faults, 1)
	assert.Equal(t, "apiUrl", faults[0].Name)
	assert.True(t, dErrors.HasCode(faults[0].Err, dErrors.CodeDecryptionFailure))
}
