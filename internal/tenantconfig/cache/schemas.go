package cache

// Each consumer has its own schema variant with a typed output struct.
// Decoding assigns recognized setting names to fields and drops unknown
// names; settings that fail decryption are reported as faults on the side
// so a single bad value never aborts the whole resolve.

// SettingFault marks one setting that could not be decrypted.
type SettingFault struct {
	Name string
	Err  error
}

// IdentityProviderConfig carries per-tenant credentials and flow settings
// for the external identity provider.
type IdentityProviderConfig struct {
	Website          string
	ClientID         string
	ClientSecret     string
	OwnerID          string
	OwnerSecret      string
	Flow             string
	FlowVersion      string
	PasswordResetURL string
	EmailVerifyURL   string
	Entity           string
}

// IsZero reports whether no setting was resolved. "No config" is a valid,
// checkable state, never an error.
func (c IdentityProviderConfig) IsZero() bool {
	return c == IdentityProviderConfig{}
}

func (c *IdentityProviderConfig) assign(name, value string) {
	switch name {
	case "website":
		c.Website = value
	case "clientId":
		c.ClientID = value
	case "clientSecret":
		c.ClientSecret = value
	case "ownerId":
		c.OwnerID = value
	case "ownerSecret":
		c.OwnerSecret = value
	case "flow":
		c.Flow = value
	case "flowVersion":
		c.FlowVersion = value
	case "passwordResetURL":
		c.PasswordResetURL = value
	case "emailVerifyURL":
		c.EmailVerifyURL = value
	case "entity":
		c.Entity = value
	}
}

// AnalyticsStoreConfig carries the per-tenant sink coordinates for the
// tabular analytics store.
type AnalyticsStoreConfig struct {
	DBName    string
	TableName string
	BaseURI   string
	WriteKey  string
}

func (c AnalyticsStoreConfig) IsZero() bool {
	return c == AnalyticsStoreConfig{}
}

func (c *AnalyticsStoreConfig) assign(name, value string) {
	switch name {
	case "dbName":
		c.DBName = value
	case "tableName":
		c.TableName = value
	case "baseUri":
		c.BaseURI = value
	case "writeKey":
		c.WriteKey = value
	}
}

// MarketingPlatformConfig carries the per-tenant credentials for the email
// marketing platform.
type MarketingPlatformConfig struct {
	APIKey string
	APIURL string
}

func (c MarketingPlatformConfig) IsZero() bool {
	return c == MarketingPlatformConfig{}
}

func (c *MarketingPlatformConfig) assign(name, value string) {
	switch name {
	case "apiKey":
		c.APIKey = value
	case "apiUrl":
		c.APIURL = value
	}
}
