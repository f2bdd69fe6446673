package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidIdentifier(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"bare slug", "compressarr-handbrake", true},
		{"scoped slug", "@acme/compressarr-handbrake", true},
		{"missing prefix", "handbrake", false},
		{"missing slug", "compressarr-", false},
		{"empty", "", false},
		{"scope without slash", "@acmecompressarr-handbrake", false},
		{"wrong prefix casing", "Compressarr-handbrake", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidIdentifier(tt.id))
		})
	}
}

func TestSplitScope(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		wantScope  string
		wantRemain string
	}{
		{"scoped", "@acme/compressarr-handbrake", "@acme", "compressarr-handbrake"},
		{"bare", "compressarr-handbrake", "", "compressarr-handbrake"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope, rest := SplitScope(tt.id)
			assert.Equal(t, tt.wantScope, scope)
			assert.Equal(t, tt.wantRemain, rest)
		})
	}
}
