package exec

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/neoprene-dev/neoprene/internal/errors"
)

// commandNotFoundPatterns are regex patterns to detect "command not found" errors
// from various shells. These require exit code 127.
var commandNotFoundPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)bash: (\S+): command not found`),
	regexp.MustCompile(`(?i)zsh: command not found: (\S+)`),
	regexp.MustCompile(`(?i)sh: \d+: (\S+): not found`),
	regexp.MustCompile(`(?i)-bash: (\S+): No such file or directory`),
	regexp.MustCompile(`(?i)(\S+): not found`),
	regexp.MustCompile(`(?i)(\S+): command not found`),
}

// IsCommandNotFound checks if the error output indicates a missing command.
// Returns the command name (if extractable) and whether it's a command-not-found error.
func IsCommandNotFound(stderr string, exitCode int) (string, bool) {
	// Exit code 127 is the standard for command not found
	if exitCode != 127 {
		return "", false
	}

	for _, pattern := range commandNotFoundPatterns {
		if matches := pattern.FindStringSubmatch(stderr); len(matches) > 1 {
			return strings.TrimSuffix(matches[1], ":"), true
		}
	}

	// Exit code is 127 but couldn't extract command name
	return "", true
}

// HandleExecError turns a command-not-found exit into a structured error.
// where is "remote" or "local" and only shapes the message.
// Returns nil when the failure is something else.
func HandleExecError(where, cmd, stderr string, exitCode int) error {
	cmdName, notFound := IsCommandNotFound(stderr, exitCode)
	if !notFound {
		return nil
	}

	if cmdName == "" {
		// Fall back to the first word of the command line.
		if parts := strings.Fields(cmd); len(parts) > 0 {
			cmdName = parts[0]
		} else {
			cmdName = "command"
		}
	}

	suggestion := fmt.Sprintf(`Install '%s' on the %s machine, or point neoprene at it:

  tools:
    %s: /full/path/to/%s

For remote hosts, tools installed through a shell profile need a login
shell. Check the 'shell' key (default "bash -l -c").`, cmdName, where, toolKey(cmdName), cmdName)

	return errors.New(errors.ErrExec,
		fmt.Sprintf("'%s' not found in PATH on %s", cmdName, where),
		suggestion)
}

// toolKey maps a binary to its key under the 'tools' config section.
func toolKey(name string) string {
	switch name {
	case "drush", "git", "mysql", "mysqladmin":
		return name
	}
	return "<tool>"
}
