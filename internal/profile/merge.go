package profile

import (
	"unify/internal/analytics"
	"unify/internal/preference"
)

// merge layers maps in precedence order: each later layer overwrites
// same-named fields from earlier ones (last-write-wins).
func merge(layers ...map[string]any) analytics.Profile {
	merged := make(analytics.Profile)
	for _, layer := range layers {
		for key, value := range layer {
			merged[key] = value
		}
	}
	return merged
}

// rootScopedFields are the identity-scoped keys promoted from the
// representative record. They are stripped from per-market entries to avoid
// duplication.
var rootScopedFields = []string{
	"muuid", "uuid", "brandId", "regionId", "username",
	"toolUsage", "interests", "role",
}

// recordFields projects a preference record into its downstream shape.
// Empty strings and nil collections are omitted so they do not clobber
// provider-supplied values during the merge; booleans always carry.
func recordFields(rec preference.Record) map[string]any {
	fields := map[string]any{
		"optInNewsletter": rec.OptInNewsletter,
		"optInSms":        rec.OptInSMS,
	}
	if !rec.MUUID.IsNil() {
		fields["muuid"] = rec.MUUID.String()
	}
	setIfPresent := func(key, value string) {
		if value != "" {
			fields[key] = value
		}
	}
	setIfPresent("uuid", rec.UUID)
	setIfPresent("brandId", rec.BrandID)
	setIfPresent("regionId", rec.RegionID)
	setIfPresent("marketId", rec.MarketID)
	setIfPresent("username", rec.Username)
	setIfPresent("firstName", rec.FirstName)
	setIfPresent("lastName", rec.LastName)
	setIfPresent("country", rec.Country)
	setIfPresent("language", rec.Language)
	setIfPresent("role", rec.Role)
	if rec.NewsletterOptInAt != nil {
		fields["newsletterOptInAt"] = *rec.NewsletterOptInAt
	}
	if len(rec.DemographicTrades) > 0 {
		fields["demographicTrades"] = rec.DemographicTrades
	}
	if len(rec.Interests) > 0 {
		fields["interests"] = rec.Interests
	}
	if len(rec.ToolUsage) > 0 {
		fields["toolUsage"] = rec.ToolUsage
	}
	return fields
}

// marketEntry is one element of the per-market preferences list: the
// record's fields minus the promoted identity-scoped ones.
func marketEntry(rec preference.Record) map[string]any {
	entry := recordFields(rec)
	for _, key := range rootScopedFields {
		delete(entry, key)
	}
	return entry
}

// remapSynonyms mirrors internally-named fields under the names the
// downstream schema expects.
func remapSynonyms(profile analytics.Profile) {
	if trades, ok := profile["demographicTrades"]; ok {
		profile["trade"] = trades
	}
	if optInAt, ok := profile["newsletterOptInAt"]; ok {
		profile["newsletterOptInDate"] = optInAt
	}
}
