//go:build tools

// Package tools pins the code generators used by go generate, such as
// mockgen for internal/mocks.
package pwned_relay

import (
	_ "go.uber.org/mock/mockgen"
)
