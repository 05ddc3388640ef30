// Package cache holds the process-wide in-memory projection of the tenant
// configuration store. It is an injected object rather than a package-level
// singleton so handlers receive it explicitly and tests can run several
// independent instances in one process.
package cache

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"unify/internal/tenantconfig"
	"unify/internal/tenantconfig/metrics"
	dErrors "unify/pkg/domain-errors"
)

// Cache is a manually-refreshed projection of the tenant config store,
// keyed by composite key. Entries never expire on their own; a refresh
// replaces a consumer's keys wholesale. Safe for concurrent use.
type Cache struct {
	store   tenantconfig.Store
	cipher  *tenantconfig.Cipher
	log     *slog.Logger
	metrics *metrics.Metrics

	mu      sync.RWMutex
	entries map[string][]tenantconfig.Setting
}

func New(store tenantconfig.Store, cipher *tenantconfig.Cipher, log *slog.Logger, m *metrics.Metrics) *Cache {
	return &Cache{
		store:   store,
		cipher:  cipher,
		log:     log,
		metrics: m,
		entries: make(map[string][]tenantconfig.Setting),
	}
}

// Refresh reads every config row for appID and republishes it under its
// composite key, dropping keys the store no longer has. A store read failure
// is surfaced to the caller but leaves previously cached data untouched:
// the cache is fail-static. Refreshes for different consumers are
// independent; readers may observe stale entries while one runs.
func (c *Cache) Refresh(ctx context.Context, appID string) error {
	start := time.Now()
	configs, err := c.store.ListByApp(ctx, appID)
	if err != nil {
		c.metrics.RecordRefreshFailure()
		return dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "refresh tenant config for "+appID)
	}

	prefix := tenantconfig.KeyPrefix(appID)
	c.mu.Lock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	for _, cfg := range configs {
		c.entries[cfg.Key()] = cfg.Settings
	}
	c.mu.Unlock()

	c.metrics.ObserveRefresh(start)
	c.log.Info("config cache refreshed", "app_id", appID, "entries", len(configs))
	return nil
}

// ResolveIdentityProvider decodes the identity-provider schema for one
// tenant. Absent keys yield a zero config, never an error.
func (c *Cache) ResolveIdentityProvider(brand, region, market, locale, group string) (IdentityProviderConfig, []SettingFault) {
	key := tenantconfig.CompositeKey(tenantconfig.AppIdentityProvider, brand, region, market, locale, group)
	var cfg IdentityProviderConfig
	faults := c.decode(tenantconfig.AppIdentityProvider, key, cfg.assign)
	return cfg, faults
}

// ResolveAnalyticsStore decodes the analytics-store schema for one tenant.
func (c *Cache) ResolveAnalyticsStore(brand, region, group string) (AnalyticsStoreConfig, []SettingFault) {
	key := tenantconfig.CompositeKey(tenantconfig.AppAnalyticsStore, brand, region, "", "", group)
	var cfg AnalyticsStoreConfig
	faults := c.decode(tenantconfig.AppAnalyticsStore, key, cfg.assign)
	return cfg, faults
}

// ResolveMarketingPlatform decodes the marketing-platform schema for one
// tenant.
func (c *Cache) ResolveMarketingPlatform(brand, region string) (MarketingPlatformConfig, []SettingFault) {
	key := tenantconfig.CompositeKey(tenantconfig.AppMarketingPlatform, brand, region, "", "", "")
	var cfg MarketingPlatformConfig
	faults := c.decode(tenantconfig.AppMarketingPlatform, key, cfg.assign)
	return cfg, faults
}

// decode looks up the raw settings for key and assigns every recognized
// name through the schema's assign func. Unrecognized names are dropped.
// A setting that fails decryption is skipped and reported as a fault.
func (c *Cache) decode(appID, key string, assign func(name, value string)) []SettingFault {
	c.mu.RLock()
	settings, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		c.metrics.RecordMiss(appID)
		return nil
	}
	c.metrics.RecordHit(appID)

	var faults []SettingFault
	for _, setting := range settings {
		value, err := c.cipher.Decrypt(setting.Value)
		if err != nil {
			c.log.Warn("setting decryption failed", "key", key, "setting", setting.Name)
			faults = append(faults, SettingFault{Name: setting.Name, Err: err})
			continue
		}
		assign(setting.Name, value)
	}
	return faults
}
