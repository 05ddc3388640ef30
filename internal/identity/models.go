// Package identity maps a global identity to its ordered email history and
// its tenant-scoped local accounts issued by the external identity provider.
package identity

import (
	"time"

	"unify/pkg/domain"
)

// EmailRecord is one entry in a global identity's append-only email history.
//
// Invariants:
//   - Ord starts at 1 and increments; the pair (MUUID, Ord) is unique
//   - a given email value is linked to at most one MUUID
//   - history is never mutated in place: an email change appends a new
//     record so historical attribution survives
type EmailRecord struct {
	MUUID     domain.MUUID
	Email     string
	Ord       int
	CreatedAt time.Time
}

// LocalAccount is the identity-provider-issued account for one
// (brand, region) tenant. MUUID, BrandID and RegionID are frozen at
// creation; the remaining fields are overwritten on every upsert. Rows are
// only ever removed by the global purge.
type LocalAccount struct {
	MUUID       domain.MUUID
	BrandID     string
	RegionID    string
	UUID        string
	ToolUsage   []string
	Company     string
	Source      string
	AccountType string
	Shop        string
	Retailers   []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AccountIdentity is the result of resolving a local account uuid back to
// its global identity, joined with the most recent email on record.
type AccountIdentity struct {
	MUUID    domain.MUUID
	Email    string
	BrandID  string
	RegionID string
}
