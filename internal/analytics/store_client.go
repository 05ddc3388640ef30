package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"unify/internal/analytics/metrics"
	"unify/internal/tenantconfig/cache"
	dErrors "unify/pkg/domain-errors"
)

const sinkAnalyticsStore = "analytics_store"

// StoreClient pushes unified profiles to the tabular analytics store. The
// per-tenant sink coordinates come from the config cache; a tenant without
// them simply has not onboarded analytics, which is expected and non-fatal.
type StoreClient struct {
	cache      *cache.Cache
	tokens     *TokenClient
	httpClient *http.Client
	log        *slog.Logger
	metrics    *metrics.Metrics
}

func NewStoreClient(configs *cache.Cache, tokens *TokenClient, httpClient *http.Client, log *slog.Logger, m *metrics.Metrics) *StoreClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &StoreClient{cache: configs, tokens: tokens, httpClient: httpClient, log: log, metrics: m}
}

// Push sends one profile to the analytics store. The config key is derived
// from the push kind and the record's region. Errors come back as values;
// fire-and-forget call sites are free to discard them.
func (c *StoreClient) Push(ctx context.Context, profile Profile, kind PushKind) error {
	cfg, _ := c.cache.ResolveAnalyticsStore(profile.BrandID(), profile.RegionID(), string(kind))
	if cfg.IsZero() {
		c.metrics.RecordSkip(sinkAnalyticsStore)
		c.log.Info("analytics store not configured for tenant",
			"brand", profile.BrandID(), "region", profile.RegionID(), "kind", string(kind))
		return nil
	}

	token, err := c.tokens.Fetch(ctx)
	if err != nil {
		c.metrics.RecordFailure(sinkAnalyticsStore)
		return dErrors.Wrap(err, dErrors.CodeSinkDelivery, "analytics store token")
	}

	body, err := json.Marshal(profile)
	if err != nil {
		c.metrics.RecordFailure(sinkAnalyticsStore)
		return dErrors.Wrap(err, dErrors.CodeSinkDelivery, "encode profile")
	}

	endpoint := fmt.Sprintf("%s/%s/%s", cfg.BaseURI, cfg.DBName, cfg.TableName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		c.metrics.RecordFailure(sinkAnalyticsStore)
		return dErrors.Wrap(err, dErrors.CodeSinkDelivery, "build analytics request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Write-Key", cfg.WriteKey)
	req.Header.Set("RegionId", profile.RegionID())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordFailure(sinkAnalyticsStore)
		return dErrors.Wrap(err, dErrors.CodeSinkDelivery, "push to analytics store")
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.RecordFailure(sinkAnalyticsStore)
		return dErrors.New(dErrors.CodeSinkDelivery,
			fmt.Sprintf("analytics store returned %d", resp.StatusCode))
	}

	c.metrics.RecordPush(sinkAnalyticsStore)
	return nil
}
