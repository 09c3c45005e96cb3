// Package config loads battlelog.yaml, the defaults file for every
// battlelog command.
package config

import (
	"os"
	"regexp"
)

// envVarPattern matches ${VAR} and ${VAR:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnv replaces ${VAR} with the variable's value and ${VAR:-default}
// with the value or, when unset or empty, the default.
//
// Unset variables without defaults expand to the empty string. Required
// values then fail in Validate (e.g. a missing adapter URL).
func ExpandEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, expandMatch)
}

func expandMatch(match string) string {
	groups := envVarPattern.FindStringSubmatch(match)
	if groups == nil {
		return match
	}
	if value := os.Getenv(groups[1]); value != "" {
		return value
	}
	return groups[2]
}
