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
	"unify/pkg/domain"
	dErrors "unify/pkg/domain-errors"
)

const sinkMarketingPlatform = "marketing_platform"

// profileUpdatedEvent is the event name the marketing platform receives for
// every unified-profile push.
const profileUpdatedEvent = "profileUpdated"

// MarketingClient pushes unified profiles to the email marketing platform.
// Only regions on the allow-list are synced at all; everything else is a
// silent no-op.
type MarketingClient struct {
	cache          *cache.Cache
	httpClient     *http.Client
	allowedRegions map[string]bool
	log            *slog.Logger
	metrics        *metrics.Metrics
}

func NewMarketingClient(configs *cache.Cache, httpClient *http.Client, allowedRegions []string, log *slog.Logger, m *metrics.Metrics) *MarketingClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	allowed := make(map[string]bool, len(allowedRegions))
	for _, region := range allowedRegions {
		allowed[domain.NormalizeRegion(region)] = true
	}
	return &MarketingClient{
		cache:          configs,
		httpClient:     httpClient,
		allowedRegions: allowed,
		log:            log,
		metrics:        m,
	}
}

// eventEnvelope is the wire shape the marketing platform expects.
type eventEnvelope struct {
	EventName  string         `json:"eventName"`
	Email      string         `json:"email"`
	DataFields map[string]any `json:"dataFields"`
}

// Push sends one profile to the marketing platform, keyed on the brand and
// the normalized region. Same non-throwing contract as the analytics store.
func (c *MarketingClient) Push(ctx context.Context, profile Profile) error {
	region := domain.NormalizeRegion(profile.RegionID())
	if !c.allowedRegions[region] {
		return nil
	}

	cfg, _ := c.cache.ResolveMarketingPlatform(profile.BrandID(), region)
	if cfg.IsZero() {
		c.metrics.RecordSkip(sinkMarketingPlatform)
		c.log.Info("marketing platform not configured for tenant",
			"brand", profile.BrandID(), "region", region)
		return nil
	}

	body, err := json.Marshal(eventEnvelope{
		EventName:  profileUpdatedEvent,
		Email:      profile.Email(),
		DataFields: profile,
	})
	if err != nil {
		c.metrics.RecordFailure(sinkMarketingPlatform)
		return dErrors.Wrap(err, dErrors.CodeSinkDelivery, "encode marketing event")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		c.metrics.RecordFailure(sinkMarketingPlatform)
		return dErrors.Wrap(err, dErrors.CodeSinkDelivery, "build marketing request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordFailure(sinkMarketingPlatform)
		return dErrors.Wrap(err, dErrors.CodeSinkDelivery, "push to marketing platform")
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.RecordFailure(sinkMarketingPlatform)
		return dErrors.New(dErrors.CodeSinkDelivery,
			fmt.Sprintf("marketing platform returned %d", resp.StatusCode))
	}

	c.metrics.RecordPush(sinkMarketingPlatform)
	return nil
}
