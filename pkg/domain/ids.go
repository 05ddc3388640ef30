package domain

import (
	"github.com/google/uuid"

	dErrors "unify/pkg/domain-errors"
)

// MUUID is the opaque global identity identifier. It unifies one person
// across every brand/region tenant regardless of which local account they
// used. Generated once, never derived from user data.
type MUUID uuid.UUID

// NewMUUID generates a fresh global identity identifier.
func NewMUUID() MUUID {
	return MUUID(uuid.New())
}

// ParseMUUID validates and parses an MUUID from its string form.
// Empty and nil values are rejected: an MUUID either identifies a person or
// does not exist.
func ParseMUUID(raw string) (MUUID, error) {
	if raw == "" {
		return MUUID{}, dErrors.New(dErrors.CodeInvalidInput, "muuid must not be empty")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return MUUID{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid muuid")
	}
	if parsed == uuid.Nil {
		return MUUID{}, dErrors.New(dErrors.CodeInvalidInput, "muuid must not be nil")
	}
	return MUUID(parsed), nil
}

func (m MUUID) String() string {
	return uuid.UUID(m).String()
}

func (m MUUID) IsNil() bool {
	return uuid.UUID(m) == uuid.Nil
}
