package sshutil

import (
	"bytes"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/kevinburke/ssh_config"
	"github.com/neoprene-dev/neoprene/internal/logger"
)

// endpoint is a destination resolved against the SSH config.
type endpoint struct {
	hostname      string
	port          string
	user          string
	identityFile  string
	encryptedKeys []string // identity files found but passphrase protected
}

func (e *endpoint) address() string {
	return net.JoinHostPort(e.hostname, e.port)
}

// splitDestination breaks user@host:port into its parts. Missing parts are
// empty; a trailing :suffix is only a port when it is all digits.
func splitDestination(dest string) (user, host, port string) {
	host = dest
	if at := strings.Index(host, "@"); at != -1 {
		user, host = host[:at], host[at+1:]
	}
	if colon := strings.LastIndex(host, ":"); colon != -1 && isDigits(host[colon+1:]) {
		host, port = host[:colon], host[colon+1:]
	}
	return user, host, port
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// resolveEndpoint applies the SSH config's HostName, Port, User and
// IdentityFile for the destination's host part. Values written into dest win
// over the config; an unreadable config leaves the defaults.
func resolveEndpoint(dest, configFile string, log logger.Logger) *endpoint {
	user, host, port := splitDestination(dest)
	ep := &endpoint{hostname: host, port: "22", user: currentUser()}

	content, matchLine, err := preprocessSSHConfig(configFile)
	if err == nil {
		cfg, decodeErr := ssh_config.Decode(bytes.NewReader(content))
		if decodeErr != nil {
			log.Debug("ignoring %s: %v", configFile, decodeErr)
		} else if !applyConfig(ep, cfg, host) && matchLine > 0 {
			log.Warn("Host '%s' not found in %s, which has a Match block at line %d. "+
				"Entries after it aren't read; move the host above line %d.",
				host, configFile, matchLine, matchLine)
		}
	}

	if user != "" {
		ep.user = user
	}
	if port != "" {
		ep.port = port
	}
	return ep
}

// applyConfig copies the settings cfg has for host into ep and reports
// whether any were found.
func applyConfig(ep *endpoint, cfg *ssh_config.Config, host string) bool {
	found := false
	set := func(key string, apply func(string)) {
		if v, _ := cfg.Get(host, key); v != "" {
			apply(v)
			found = true
		}
	}
	set("HostName", func(v string) { ep.hostname = v })
	set("Port", func(v string) { ep.port = v })
	set("User", func(v string) { ep.user = v })
	set("IdentityFile", func(v string) { ep.identityFile = expandPath(v) })
	return found
}

// preprocessSSHConfig returns the config up to its first Match directive,
// which ssh_config can't parse, and that directive's 1-based line (0 when
// there is none).
func preprocessSSHConfig(configPath string) ([]byte, int, error) {
	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, 0, err
	}

	lines := strings.Split(string(content), "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "match ") {
			return []byte(strings.Join(lines[:i], "\n")), i + 1, nil
		}
	}
	return content, 0, nil
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return os.Getenv("HOME")
}

func sshDir(name string) string {
	return filepath.Join(homeDir(), ".ssh", name)
}

func currentUser() string {
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "root"
}

func expandPath(p string) string {
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(homeDir(), p[2:])
	}
	return p
}
