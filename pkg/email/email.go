// Package email holds the address handling shared by the identity graph.
// Every email that enters the system passes through Normalize before lookup
// or storage, so the unique-email constraint is case-insensitive in effect.
package email

import (
	"net/mail"
	"strings"
)

// Normalize canonicalizes an address for storage and comparison.
func Normalize(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// Valid reports whether address parses as a bare RFC 5322 address.
// Display names ("Pat <pat@example.com>") are rejected; the identity graph
// stores addresses only.
func Valid(address string) bool {
	parsed, err := mail.ParseAddress(address)
	if err != nil {
		return false
	}
	return parsed.Address == address
}
