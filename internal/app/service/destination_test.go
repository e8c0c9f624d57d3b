package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDestination(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"example.com", "http://example.com"},
		{"https://example.com", "https://example.com"},
		{"http://example.com/path?q=1", "http://example.com/path?q=1"},
		{"HTTPS://Example.com", "HTTPS://Example.com"},
		{"httpbin.org", "http://httpbin.org"},
		{"ftp://example.com", "http://ftp://example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDestination(tt.in))
		})
	}
}

func TestPrepareDestination(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		got, err := PrepareDestination("  example.com/a  ")
		require.NoError(t, err)
		assert.Equal(t, "http://example.com/a", got)
	})

	invalid := []string{"", "   ", "javascript:alert(1)", "http://", "exa mple.com"}
	for _, in := range invalid {
		t.Run("invalid "+in, func(t *testing.T) {
			_, err := PrepareDestination(in)
			assert.ErrorIs(t, err, ErrInvalidURL)
		})
	}
}
