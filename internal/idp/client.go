// Package idp talks to the external identity provider. Only the profile
// read used by aggregation lives here; login/registration flows are out of
// scope for this service.
package idp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"unify/internal/tenantconfig/cache"
)

// ProfileSource fetches the provider's live profile for a tenant-scoped
// local account. A nil profile with a nil error means the provider has no
// profile for that account; callers decide whether that is fatal.
type ProfileSource interface {
	GetProfile(ctx context.Context, in ProfileQuery) (map[string]any, error)
}

// ProfileQuery identifies one local account and the tenant whose
// credentials authenticate the call.
type ProfileQuery struct {
	UUID     string
	BrandID  string
	RegionID string
	MarketID string
	Locale   string
}

// Client is the HTTP implementation of ProfileSource. Per-tenant base URL
// and basic credentials come from the identity-provider config schema.
type Client struct {
	cache      *cache.Cache
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(configs *cache.Cache, httpClient *http.Client, log *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{cache: configs, httpClient: httpClient, log: log}
}

func (c *Client) GetProfile(ctx context.Context, in ProfileQuery) (map[string]any, error) {
	cfg, _ := c.cache.ResolveIdentityProvider(in.BrandID, in.RegionID, in.MarketID, in.Locale, "")
	if cfg.IsZero() {
		c.log.Info("identity provider not configured for tenant",
			"brand", in.BrandID, "region", in.RegionID, "market", in.MarketID)
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/accounts/%s", cfg.Website, in.UUID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build profile request: %w", err)
	}
	req.SetBasicAuth(cfg.ClientID, cfg.ClientSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch identity provider profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("identity provider returned %d", resp.StatusCode)
	}

	var profile map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decode identity provider profile: %w", err)
	}
	return profile, nil
}
