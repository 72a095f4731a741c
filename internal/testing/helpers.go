// Package testing provides helpers for separating unit from integration
// tests.
package testing

import (
	"os"
	"testing"
)

// Unit returns true when running in unit test mode. Unit tests must not
// require external services such as an SMTP or NATS server.
func Unit() bool {
	if os.Getenv("SYSLOG4NET_UNIT_TESTS_ONLY") == "true" {
		return true
	}
	if os.Getenv("SYSLOG4NET_RUN_INTEGRATION_TESTS") == "true" {
		return false
	}
	if os.Getenv("SYSLOG4NET_RUN_INTEGRATION_TESTS") == "false" {
		return true
	}
	if testing.Short() {
		return true
	}
	// Default to unit mode unless integration tests are requested.
	return true
}

// Integration returns true when integration tests are enabled.
func Integration() bool {
	return !Unit()
}

// SkipIfUnit skips the test in unit test mode.
func SkipIfUnit(t *testing.T, message ...string) {
	if Unit() {
		msg := "Skipping integration test in unit mode"
		if len(message) > 0 {
			msg = message[0]
		}
		t.Skip(msg)
	}
}

// SkipIfIntegration skips the test in integration test mode.
func SkipIfIntegration(t *testing.T, message ...string) {
	if Integration() {
		msg := "Skipping unit-only test in integration mode"
		if len(message) > 0 {
			msg = message[0]
		}
		t.Skip(msg)
	}
}
