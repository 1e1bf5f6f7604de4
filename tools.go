//go:build tools

package tools

// Tool dependencies, tracked so `go mod tidy` keeps their versions pinned.
// Regenerate mocks with: go run github.com/vektra/mockery/v2
import (
	_ "github.com/vektra/mockery/v2"
)
