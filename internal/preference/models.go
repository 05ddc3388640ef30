// Package preference holds per-tenant preference/consent records and their
// upsert/query/purge operations. Records are sharded by (brand, region) and
// optionally scoped further by market.
package preference

import (
	"time"

	"unify/pkg/domain"
)

// Selector identifies the person a record belongs to. MUUID is preferred;
// the tenant-scoped local account uuid is the fallback when the global
// identity is not yet known.
type Selector struct {
	MUUID domain.MUUID
	UUID  string
}

// HasMUUID reports whether the selector carries a global identity.
func (s Selector) HasMUUID() bool {
	return !s.MUUID.IsNil()
}

// Record captures marketing/consent state for one tenant. Multiple records
// may exist for the same (identity, brand, region) tuple when market
// varies. Records are never hard-deleted on normal update; only the
// explicit purge removes them.
type Record struct {
	MUUID    domain.MUUID
	UUID     string
	BrandID  string
	RegionID string
	MarketID string

	Username  string
	FirstName string
	LastName  string
	Country   string
	Language  string

	OptInNewsletter   bool
	OptInSMS          bool
	NewsletterOptInAt *time.Time

	DemographicTrades []string
	Interests         []string
	ToolUsage         []string
	Role              string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Query selects records. Brand, region and market are optional; a query
// that omits market may match multiple rows and callers must tolerate that.
type Query struct {
	Selector Selector
	BrandID  string
	RegionID string
	MarketID string
}
