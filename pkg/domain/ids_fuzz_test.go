package domain

import (
	"testing"
	"unicode/utf8"
)

// FuzzParseMUUID verifies that parsing never panics on arbitrary input and
// that any accepted value round-trips through its string form unchanged.
func FuzzParseMUUID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("'; DROP TABLE global_identities;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))
	f.Add("550e8400-e29b-41d4-a716-446655440000\x00suffix")

	f.Fuzz(func(t *testing.T, input string) {
		muuid, err := ParseMUUID(input)
		if err != nil {
			return
		}

		if muuid.IsNil() {
			t.Error("parser accepted a nil MUUID")
		}

		roundTrip, err2 := ParseMUUID(muuid.String())
		if err2 != nil {
			t.Errorf("accepted MUUID failed round-trip: %v", err2)
		}
		if roundTrip != muuid {
			t.Error("round-trip changed MUUID value")
		}

		if !utf8.ValidString(input) {
			t.Error("non-UTF8 input was accepted")
		}
	})
}
