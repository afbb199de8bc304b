// Package testutil provides shared test helpers for the reconciliation console.
package testutil

import (
	"os"
	"strings"
	"time"
)

// TestingTB covers both *testing.T and *testing.B.
type TestingTB interface {
	Helper()
	Skip(args ...any)
	Skipf(format string, args ...any)
	Fatal(args ...any)
	Fatalf(format string, args ...any)
	Logf(format string, args ...any)
}

// envBool parses common truthy values from env vars.
func envBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

// requireRedis turns a missing Redis into a failure instead of a skip, for CI.
func requireRedis() bool { return envBool("TEST_REQUIRE_REDIS") || envBool("TEST_REQUIRE_INFRA") }

// TestTime is the fixed "now" used by builders: month-end of the 2024-01 close.
func TestTime() time.Time {
	return time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC)
}
