package utils

import (
	"os"
	"strings"
	"testing"
)

// ClearTestEnvironment blanks every variable of the test environment, so that a local RPC_URL or PRIVATE_KEY never
// leaks into the config options under test. The variables are restored when the test ends.
func ClearTestEnvironment(t *testing.T) {
	t.Helper()

	for _, env := range os.Environ() {
		key, _, found := strings.Cut(env, "=")
		if !found || key == "" {
			continue
		}
		t.Setenv(key, "")
	}
}
