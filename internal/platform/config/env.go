// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Prefix namespaces every TeamFund environment variable.
const Prefix = "TEAMFUND_"

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// RequireTogether reports whether a group of settings is enabled.
//
// The group is disabled when every value is blank and enabled when every
// value is set. A partially configured group is an error naming the missing
// keys, so half-wired providers fail at startup instead of at request time.
func RequireTogether(values map[string]string) (bool, error) {
	missing := make([]string, 0, len(values))
	for key, value := range values {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, key)
		}
	}
	switch len(missing) {
	case 0:
		return true, nil
	case len(values):
		return false, nil
	}
	sort.Strings(missing)
	return false, fmt.Errorf("partial config; missing: %s", strings.Join(missing, ", "))
}
