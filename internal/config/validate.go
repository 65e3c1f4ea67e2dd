package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/neoprene-dev/neoprene/internal/errors"
)

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but neoprene only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade neoprene, or lower 'version' in .neoprene.yaml.")
	}

	for _, name := range HostNames(cfg) {
		if err := validateHost(name, cfg.Hosts[name]); err != nil {
			return err
		}
	}

	if cfg.Default != "" {
		if err := validateHostReference(cfg.Default); err != nil {
			return err
		}
		if _, ok := cfg.Hosts[cfg.Default]; !ok {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Default host '%s' isn't defined under hosts", cfg.Default),
				fmt.Sprintf("Add it under 'hosts', or pick one of: %s", strings.Join(HostNames(cfg), ", ")))
		}
	}

	if cfg.Timeout < 0 || cfg.ProbeTimeout < 0 {
		return errors.New(errors.ErrConfig,
			"Timeouts can't be negative",
			"Use a Go duration such as 10m or 30s for 'timeout' and 'probe_timeout'.")
	}

	if err := validateTools(cfg.Tools); err != nil {
		return err
	}
	return validateLock(cfg.Lock)
}

func validateLock(l LockConfig) error {
	if l.Timeout < 0 || l.Stale < 0 {
		return errors.New(errors.ErrConfig,
			"lock.timeout and lock.stale can't be negative",
			"Use a Go duration such as 2m or 30m.")
	}
	if l.Enabled && l.Timeout > 0 && l.Stale > 0 && l.Timeout > l.Stale {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("lock.timeout (%v) is longer than lock.stale (%v)", l.Timeout, l.Stale),
			"A waiting run would give up after the held lock already counts as abandoned. Shorten lock.timeout.")
	}
	if l.Enabled && !strings.HasPrefix(l.Dir, "/") {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("lock.dir '%s' must be an absolute path", l.Dir),
			"Use a directory every operator can write to, such as /tmp.")
	}
	return nil
}

func validateHost(name string, h Host) error {
	if len(h.SSH) == 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Host '%s' has no SSH connections", name),
			fmt.Sprintf("Add an 'ssh' list to hosts.%s, e.g. ssh: [live.example.com].", name))
	}
	for i, s := range h.SSH {
		if strings.TrimSpace(s) == "" {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Host '%s' has an empty SSH entry at position %d", name, i+1),
				"Remove the empty entry or fill it in.")
		}
	}
	return nil
}

// validateHostReference checks that a host reference is just a name (no special chars).
func validateHostReference(host string) error {
	if strings.Contains(host, "@") {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Host reference '%s' looks like an SSH string, not a host name", host),
			"Use the name of an entry under 'hosts' here and put SSH details in its 'ssh' list.")
	}
	if strings.Contains(host, "/") {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Host reference '%s' contains a path separator", host),
			"Use just the host name here, not a path.")
	}
	return nil
}

func validateTools(t Tools) error {
	tools := map[string]string{
		"drush":      t.Drush,
		"git":        t.Git,
		"mysql":      t.MySQL,
		"mysqladmin": t.MySQLAdmin,
	}
	for key, value := range tools {
		if strings.TrimSpace(value) == "" {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("tools.%s is empty", key),
				fmt.Sprintf("Remove the key to use '%s' from PATH, or give the full path.", key))
		}
	}
	return nil
}

// HostNames returns the configured host names in sorted order.
func HostNames(cfg *Config) []string {
	names := make([]string, 0, len(cfg.Hosts))
	for name := range cfg.Hosts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveHost picks the host to use: the requested name, then the default,
// then the only configured host. ok is false when nothing is configured,
// which callers treat as "ask the operator". With no hosts configured, a
// requested name is used as the SSH destination itself.
func ResolveHost(cfg *Config, requested string) (name string, h Host, ok bool, err error) {
	switch {
	case requested != "":
		name = requested
	case cfg.Default != "":
		name = cfg.Default
	case len(cfg.Hosts) == 1:
		name = HostNames(cfg)[0]
	case len(cfg.Hosts) == 0:
		return "", Host{}, false, nil
	default:
		return "", Host{}, false, errors.New(errors.ErrConfig,
			"Several hosts are configured and none is the default",
			fmt.Sprintf("Pass --host (one of: %s) or set 'default' in .neoprene.yaml.", strings.Join(HostNames(cfg), ", ")))
	}

	h, found := cfg.Hosts[name]
	if !found && len(cfg.Hosts) == 0 {
		return name, Host{SSH: []string{name}}, true, nil
	}
	if !found {
		return "", Host{}, false, errors.New(errors.ErrConfig,
			fmt.Sprintf("Host '%s' isn't configured", name),
			fmt.Sprintf("Configured hosts: %s", strings.Join(HostNames(cfg), ", ")))
	}
	return name, h, true, nil
}
