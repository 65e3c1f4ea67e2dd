package config

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ExpandTilde resolves a leading ~ against the local home directory. Only the
// current user's ~ is understood; ~name is returned unchanged. Remote paths
// must not go through here: their ~ belongs to the remote shell.
func ExpandTilde(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// Expand substitutes ${USER} and ${HOME} with local values. ~ is left alone.
func Expand(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return strings.NewReplacer("${USER}", loginName(), "${HOME}", localHome()).Replace(s)
}

// ExpandLocalPath is Expand followed by ExpandTilde.
func ExpandLocalPath(s string) string {
	return ExpandTilde(Expand(s))
}

// ExpandRemote substitutes ${USER} with the local login and rewrites ${HOME}
// to ~, leaving the remote shell to resolve it.
func ExpandRemote(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return strings.NewReplacer("${USER}", loginName(), "${HOME}", "~").Replace(s)
}

// loginName is the local user from the environment, then whoami.
func loginName() string {
	for _, key := range []string{"USER", "LOGNAME", "USERNAME"} {
		if name := os.Getenv(key); name != "" {
			return name
		}
	}
	if out, err := exec.Command("whoami").Output(); err == nil {
		return strings.TrimSpace(string(out))
	}
	return "user"
}

func localHome() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "~"
}
