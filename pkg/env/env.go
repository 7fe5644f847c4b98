// Package env reads raw process environment values. Typed configuration goes
// through pkg/config; this helper exists for the few knobs read before the
// config is loaded, like the log format.
package env

import "os"

// Get returns the variable's value, or fallback when unset or empty.
func Get(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
