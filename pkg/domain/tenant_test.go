package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeRegion(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"DE", "DE"},
		{"de", "DE"},
		{"eu-de", "DE"},
		{"emea-central-DE", "DE"},
		{"  fr ", "FR"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeRegion(tt.input), "input %q", tt.input)
	}
}
