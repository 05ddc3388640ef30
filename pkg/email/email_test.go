package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "pat@example.com", Normalize("  Pat@Example.COM "))
	assert.Equal(t, "", Normalize("   "))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("pat@example.com"))
	assert.True(t, Valid("pat+tag@example.co.uk"))

	assert.False(t, Valid(""))
	assert.False(t, Valid("not-an-email"))
	assert.False(t, Valid("Pat <pat@example.com>"))
	assert.False(t, Valid("pat@"))
}
