// Package util provides common utility functions used across the codebase.
package util

import (
	"regexp"
	"strings"
)

// ShellQuote wraps a string in single quotes, escaping any existing single quotes.
// This is safe for use in shell commands where the string should be treated literally.
func ShellQuote(s string) string {
	// Replace ' with '\'' (end quote, escaped quote, start quote)
	escaped := strings.ReplaceAll(s, "'", "'\\''")
	return "'" + escaped + "'"
}

// safeWord matches arguments that need no quoting in a POSIX shell.
var safeWord = regexp.MustCompile(`^[A-Za-z0-9_@%+=:,./-]+$`)

// ShellArg quotes s only when the shell would otherwise split or expand it.
// Plain words stay readable in logs: git checkout main, not git checkout 'main'.
func ShellArg(s string) string {
	if safeWord.MatchString(s) {
		return s
	}
	return ShellQuote(s)
}

// ShellPath is ShellArg for paths, keeping a leading ~/ expandable.
func ShellPath(p string) string {
	if strings.HasPrefix(p, "~/") {
		return "~/" + ShellArg(p[2:])
	}
	return ShellArg(p)
}

// ShellJoin builds a command line from words, quoting each as needed.
func ShellJoin(words ...string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = ShellArg(w)
	}
	return strings.Join(quoted, " ")
}
