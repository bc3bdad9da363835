// This module provides a small set of env-var-with-default readers, used
// by collaborators (lockdir in particular) that are tuned by environment
// variables rather than CLI flags. The CLI's own flag surface is owned by
// cobra/pflag in cmd/ct-cppdeps; this file intentionally no longer
// registers a parallel stdlib flag.FlagSet, since the teacher's original
// combinator (one process, one flag set) doesn't apply once the CLI flags
// live elsewhere.
package common

import (
	"os"
	"strconv"
	"time"
)

// EnvString returns the value of envName if set, else defaultValue.
func EnvString(envName string, defaultValue string) string {
	if v, ok := os.LookupEnv(envName); ok {
		return v
	}
	return defaultValue
}

// EnvBool returns the value of envName parsed as a bool if set and valid,
// else defaultValue.
func EnvBool(envName string, defaultValue bool) bool {
	if v, ok := os.LookupEnv(envName); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

// EnvDuration returns the value of envName parsed as a time.Duration if
// set and valid, else defaultValue.
func EnvDuration(envName string, defaultValue time.Duration) time.Duration {
	if v, ok := os.LookupEnv(envName); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}
