package idp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unify/internal/tenantconfig"
	"unify/internal/tenantconfig/cache"
)

func newProviderCache(t *testing.T, website string) *cache.Cache {
	t.Helper()
	ctx := context.Background()
	cipher, err := tenantconfig.NewCipher("idp-test", "idp-salt")
	require.NoError(t, err)

	store := tenantconfig.NewInMemoryStore()
	require.NoError(t, store.Upsert(ctx, tenantconfig.Config{
		AppID:    tenantconfig.AppIdentityProvider,
		BrandID:  "bosch",
		RegionID: "EU",
		MarketID: "DE",
		Locale:   "de-DE",
		Settings: []tenantconfig.Setting{
			{Name: "website", Value: cipher.Encrypt(website)},
			{Name: "clientId", Value: cipher.Encrypt("cid")},
			{Name: "clientSecret", Value: cipher.Encrypt("secret")},
		},
	}))

	c := cache.New(store, cipher, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	require.NoError(t, c.Refresh(ctx, tenantconfig.AppIdentityProvider))
	return c
}

func testQuery() ProfileQuery {
	return ProfileQuery{UUID: "local-1", BrandID: "bosch", RegionID: "EU", MarketID: "DE", Locale: "de-DE"}
}

func TestGetProfileUsesTenantCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts/local-1", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "cid", user)
		assert.Equal(t, "secret", pass)
		_ = json.NewEncoder(w).Encode(map[string]any{"email": "pat@example.com"})
	}))
	defer srv.Close()

	client := NewClient(newProviderCache(t, srv.URL), nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	profile, err := client.GetProfile(context.Background(), testQuery())
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "pat@example.com", profile["email"])
}

func TestGetProfileNotFoundIsNilNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(newProviderCache(t, srv.URL), nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	profile, err := client.GetProfile(context.Background(), testQuery())
	require.NoError(t, err)
	assert.Nil(t, profile)
}

func TestGetProfileUnconfiguredTenantIsNilNotError(t *testing.T) {
	client := NewClient(newProviderCache(t, "http://unused"), nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	q := testQuery()
	q.MarketID = "FR"
	q.Locale = "fr-FR"
	profile, err := client.GetProfile(context.Background(), q)
	require.NoError(t, err)
	assert.Nil(t, profile)
}

func TestGetProfileServerErrorIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(newProviderCache(t, srv.URL), nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := client.GetProfile(context.Background(), testQuery())
	require.Error(t, err)
}
