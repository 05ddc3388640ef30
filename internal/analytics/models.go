// Package analytics pushes unified profiles to downstream sinks. All of it
// is best-effort: failures are logged and returned as values, never
// propagated to the write that triggered the push.
package analytics

// PushKind is the event family that triggered a push. The analytics-store
// config key is derived from it (group = kind).
type PushKind string

const (
	KindRegistration PushKind = "registration"
	KindNewsletter   PushKind = "newsletter"
	KindEmailChange  PushKind = "emailChange"
)

// Profile is a downstream-shaped unified record. The aggregator assembles
// it; the sinks serialize it as-is.
type Profile map[string]any

func (p Profile) str(key string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return ""
}

// BrandID returns the tenant brand carried by the profile.
func (p Profile) BrandID() string { return p.str("brandId") }

// RegionID returns the tenant region carried by the profile.
func (p Profile) RegionID() string { return p.str("regionId") }

// Email returns the profile's current email address.
func (p Profile) Email() string { return p.str("email") }
