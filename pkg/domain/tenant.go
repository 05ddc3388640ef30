package domain

import "strings"

// Tenant is a (brand, region) pair, the unit of data sharding for
// preferences and local accounts.
type Tenant struct {
	BrandID  string
	RegionID string
}

func (t Tenant) String() string {
	return t.BrandID + "/" + t.RegionID
}

// NormalizeRegion canonicalizes a region identifier for config lookups.
// Downstream sinks key on the bare upper-case region (e.g. "eu-de" → "DE").
func NormalizeRegion(region string) string {
	region = strings.ToUpper(strings.TrimSpace(region))
	if idx := strings.LastIndex(region, "-"); idx >= 0 {
		region = region[idx+1:]
	}
	return region
}
