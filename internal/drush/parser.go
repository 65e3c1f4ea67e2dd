package drush

import (
	"fmt"
	"regexp"
)

// Parser extracts values from normalized drush output. Swap it when a drush
// or module version words its messages differently.
type Parser interface {
	// BackupName returns the base file name from a bam-backup report,
	// without the .mysql.gz extension.
	BackupName(normalized string) (string, error)

	// PrivatePath returns the value of file_private_path from a vget report.
	PrivatePath(normalized string) (string, error)
}

// ParseError reports output that didn't match the expected message.
type ParseError struct {
	What    string
	Pattern string
	Text    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("no %s in drush output %q (expected to match %s)", e.What, e.Text, e.Pattern)
}

// RegexpParser is the default Parser, matching the wording of Backup and
// Migrate 7.x-3.x and drush 8.
type RegexpParser struct {
	Backup  *regexp.Regexp
	Private *regexp.Regexp
}

// NewRegexpParser returns a RegexpParser with the stock patterns.
func NewRegexpParser() *RegexpParser {
	return &RegexpParser{
		Backup: regexp.MustCompile(
			`Default Database backed up successfully to (\S+) in destination Manual Backups Directory in \d*\.\d* ms\.`),
		Private: regexp.MustCompile(`file_private_path: "([^"]*)"`),
	}
}

// BackupName implements Parser.
func (p *RegexpParser) BackupName(normalized string) (string, error) {
	return firstGroup(p.Backup, "backup file name", normalized)
}

// PrivatePath implements Parser. An empty value is an error: Backup and
// Migrate can't write manual backups without a private files directory.
func (p *RegexpParser) PrivatePath(normalized string) (string, error) {
	return firstGroup(p.Private, "private files path", normalized)
}

func firstGroup(re *regexp.Regexp, what, text string) (string, error) {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 || m[1] == "" {
		return "", &ParseError{What: what, Pattern: re.String(), Text: text}
	}
	return m[1], nil
}
