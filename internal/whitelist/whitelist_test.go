package whitelist

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestChecker_IsAllowed(t *testing.T) {
	checker := NewChecker([]string{" Example.com ", "example.com", "pwned.example.org", ""}, zap.NewNop())

	tests := []struct {
		name     string
		address  string
		expected bool
	}{
		{name: "Exact domain", address: "bot@example.com", expected: true},
		{name: "Mixed case", address: "Bot@EXAMPLE.COM", expected: true},
		{name: "Angle brackets", address: "<bot@pwned.example.org>", expected: true},
		{name: "Other domain", address: "bot@evil.test", expected: false},
		{name: "Subdomain is distinct", address: "bot@mail.example.com", expected: false},
		{name: "No domain", address: "bot", expected: false},
		{name: "Trailing at", address: "bot@", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, checker.IsAllowed(tt.address))
		})
	}
}

func TestChecker_Normalizes(t *testing.T) {
	checker := NewChecker([]string{" Example.com ", "example.com", ""}, nil)
	require.Equal(t, []string{"example.com"}, checker.Domains())
}

func TestChecker_EmptyAcceptsAll(t *testing.T) {
	checker := NewChecker(nil, nil)
	require.True(t, checker.IsAllowed("anyone@anywhere.test"))
	require.True(t, checker.IsAllowed("not-an-address"))
}
