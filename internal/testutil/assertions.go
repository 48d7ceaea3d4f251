package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertComputed checks the captured log output to confirm that the
// component at path was evaluated at least once.
func AssertComputed(t *testing.T, logs *SafeBuffer, path string) {
	t.Helper()

	expected := "component=" + path
	require.True(t,
		strings.Contains(logs.String(), expected),
		"expected log output for component '%s' was not found in logs", path,
	)
}
