// Package tenantconfig holds the durable, encrypted-at-rest store of
// per-tenant configuration and the composite keying scheme shared with the
// in-memory cache.
package tenantconfig

import (
	"strings"
	"time"
)

// Consumer application identifiers. Each consumer defines its own whitelist
// of recognized setting names (see cache package schemas).
const (
	AppIdentityProvider  = "identity-provider"
	AppAnalyticsStore    = "analytics-store"
	AppMarketingPlatform = "marketing-platform"
)

// Setting is one named configuration value. Value is encrypted at rest and
// inside the cache; only schema resolution decrypts it.
type Setting struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Config is one per-tenant configuration row.
//
// Key shape differs by AppID: the identity-provider consumer additionally
// requires MarketID and Locale; all other consumers key only on
// (AppID, brand, region). Group is optional for every shape.
type Config struct {
	AppID     string
	BrandID   string
	RegionID  string
	MarketID  string
	Locale    string
	Group     string
	Settings  []Setting
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Key returns the serialized composite key this row is cached under.
func (c Config) Key() string {
	return CompositeKey(c.AppID, c.BrandID, c.RegionID, c.MarketID, c.Locale, c.Group)
}

// CompositeKey serializes the addressing tuple for one configuration row.
// Market and locale participate only for the identity-provider consumer.
func CompositeKey(appID, brand, region, market, locale, group string) string {
	parts := []string{appID, brand, region}
	if appID == AppIdentityProvider {
		parts = append(parts, market, locale)
	}
	if group != "" {
		parts = append(parts, group)
	}
	return strings.Join(parts, "|")
}

// KeyPrefix returns the cache-key prefix owned by one consumer. Refresh
// replaces every key under this prefix wholesale.
func KeyPrefix(appID string) string {
	return appID + "|"
}
