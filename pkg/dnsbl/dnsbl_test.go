package dnsbl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modsentry/modsentry/pkg/config"
)

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://example.com/path?q=1", "example.com"},
		{"http://www.Example.COM", "example.com"},
		{"example.com:8080", "example.com"},
		{"  spam.example  ", "spam.example"},
		{"notadomain", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeDomain(tt.in), tt.in)
	}
}

func TestNoZonesNeverListed(t *testing.T) {
	cfg := config.DefaultConfig().Lists.DNSBL
	cfg.Zones = nil
	c, err := NewChecker(cfg, nil)
	require.NoError(t, err)

	assert.False(t, c.IsListed(context.Background(), "https://example.com"))
}

func TestInvalidDomainNeverListed(t *testing.T) {
	c, err := NewChecker(config.DefaultConfig().Lists.DNSBL, nil)
	require.NoError(t, err)

	assert.False(t, c.IsListed(context.Background(), "just-a-word"))
}
