// Package drush reads drush's human-oriented output and turns a Backup and
// Migrate run into the location of the dump it wrote.
package drush

import (
	"regexp"
	"strings"
)

var (
	successMarker = regexp.MustCompile(`\[success\]`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// Normalize flattens raw drush output to one line: line breaks become spaces,
// every [success] marker is removed, whitespace runs collapse to one space,
// and the ends are trimmed. Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) string {
	s := strings.Join(strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n"), " ")
	// Removing one marker can splice the halves of another together.
	for successMarker.MatchString(s) {
		s = successMarker.ReplaceAllString(s, "")
	}
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
