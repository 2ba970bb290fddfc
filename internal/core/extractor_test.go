package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractEmail(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Command with question mark",
			input:    "/pwned? example@test.com",
			expected: "example@test.com",
		},
		{
			name:     "Backslash command",
			input:    `\pwned? example@test.com`,
			expected: "example@test.com",
		},
		{
			name:     "Leftmost address wins",
			input:    "/pwned first@one.com second@two.com",
			expected: "first@one.com",
		},
		{
			name:     "Trailing sentence dot is not part of the domain",
			input:    "/pwned please check john.doe@example.org.",
			expected: "john.doe@example.org",
		},
		{
			name:     "Plus tag and subdomains",
			input:    "/pwned Jane <jane.doe+news@mail.example.co.uk>",
			expected: "jane.doe+news@mail.example.co.uk",
		},
		{
			name:     "Hyphenated labels",
			input:    "/pwned ops@my-host.example-mail.net",
			expected: "ops@my-host.example-mail.net",
		},
		{
			name:     "Quoted local part",
			input:    `/pwned "john.doe"@example.com`,
			expected: `"john.doe"@example.com`,
		},
		{
			name:     "Quoted local part with escaped quote",
			input:    `/pwned "john\"doe"@example.com`,
			expected: `"john\"doe"@example.com`,
		},
		{
			name:     "IPv4 literal",
			input:    "/pwned admin@[192.168.0.1] thanks",
			expected: "admin@[192.168.0.1]",
		},
		{
			name:     "Address without command",
			input:    "reach me at someone@example.com",
			expected: "someone@example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			got, err := ExtractEmail(tt.input)
			req.NoError(err)
			req.Equal(tt.expected, got)
			req.True(strings.Contains(tt.input, got))
			req.Equal(strings.Index(tt.input, tt.expected), strings.Index(tt.input, got))
		})
	}
}

func TestExtractEmail_NotFound(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "Empty text", input: ""},
		{name: "Command only", input: "/pwned"},
		{name: "No address", input: "/pwned no address here"},
		{name: "Domain without dot", input: "/pwned user@localhost"},
		{name: "Missing local part", input: "/pwned @example.com"},
		{name: "Label starting with hyphen", input: "/pwned user@-example.com"},
		{name: "Unterminated literal", input: "/pwned user@[10.0.0.1"},
		{name: "Control characters", input: "\x00\x01\x02@\x03"},
		{name: "Invalid UTF-8", input: "/pwned \xff\xfe@\xfd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			req.NotPanics(func() {
				got, err := ExtractEmail(tt.input)
				req.ErrorIs(err, ErrNoEmailFound)
				req.Empty(got)
			})
		})
	}
}

func TestExtractEmail_ErrorMessage(t *testing.T) {
	_, err := ExtractEmail("/pwned no address here")
	require.EqualError(t, err, "Input contains no valid email address")
}

func TestExtractEmail_Idempotent(t *testing.T) {
	req := require.New(t)
	inputs := []string{"/pwned a@b.io c@d.io", "nothing", ""}

	for _, input := range inputs {
		first, firstErr := ExtractEmail(input)
		second, secondErr := ExtractEmail(input)
		req.Equal(first, second)
		req.Equal(firstErr, secondErr)
	}
}
