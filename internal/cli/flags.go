package cli

import (
	"fmt"
	"time"

	"github.com/neoprene-dev/neoprene/internal/errors"
)

// ParseTimeout parses a --timeout value into a duration.
// Returns zero duration if the flag is empty.
func ParseTimeout(flag string) (time.Duration, error) {
	if flag == "" {
		return 0, nil
	}

	duration, err := time.ParseDuration(flag)
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("'%s' doesn't look like a valid timeout", flag),
			"Try something like 30s, 15m, or 1h.")
	}
	if duration <= 0 {
		return 0, errors.New(errors.ErrConfig,
			fmt.Sprintf("Timeout must be positive, got %s", flag),
			"Try something like 30s, 15m, or 1h.")
	}
	return duration, nil
}

// resolveTimeout picks the --timeout flag over the configured value.
func resolveTimeout(flag string, configured time.Duration) (time.Duration, error) {
	d, err := ParseTimeout(flag)
	if err != nil {
		return 0, err
	}
	if d > 0 {
		return d, nil
	}
	return configured, nil
}
