// Package require checks that the tools a command drives are installed
// before the first of them runs.
package require

import (
	"regexp"
	"strings"
)

// validToolName matches a bare executable name or a path to one, without
// shell metacharacters. Examples: drush, vendor/bin/drush, /usr/bin/mysql.
var validToolName = regexp.MustCompile(`^(\.{1,2}/|~/|/)?[a-zA-Z0-9_][a-zA-Z0-9._+/-]*$`)

// ValidateToolName checks if a tool name is safe to use in shell commands.
func ValidateToolName(name string) bool {
	return validToolName.MatchString(name)
}

// Executable returns the program a configured command line starts with:
// "drush --root=/srv/site" needs drush.
func Executable(cmdline string) string {
	fields := strings.Fields(cmdline)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Where says which machine a tool has to be installed on.
type Where int

const (
	Remote Where = iota
	Local
)

func (w Where) String() string {
	if w == Local {
		return "local"
	}
	return "remote"
}

// Tool is one executable a command needs. Dir is the remote directory a
// relative path like vendor/bin/drush resolves against.
type Tool struct {
	Name  string
	Where Where
	Dir   string
}

// RemoteTool is a tool run on the site host from dir.
func RemoteTool(cmdline, dir string) Tool {
	name := Executable(cmdline)
	if !strings.Contains(name, "/") || strings.HasPrefix(name, "/") || strings.HasPrefix(name, "~/") {
		dir = ""
	}
	return Tool{Name: name, Where: Remote, Dir: dir}
}

// LocalTool is a tool run on this machine.
func LocalTool(cmdline string) Tool {
	return Tool{Name: Executable(cmdline), Where: Local}
}

// CheckResult is the outcome of looking for one tool.
type CheckResult struct {
	Tool      Tool
	Satisfied bool
	// Path is where the tool was found.
	Path string
}

// Merge combines tool lists, dropping empty names and repeats while
// keeping the first occurrence's position.
func Merge(sources ...[]Tool) []Tool {
	seen := make(map[Tool]bool)
	var result []Tool

	for _, source := range sources {
		for _, t := range source {
			if t.Name != "" && !seen[t] {
				seen[t] = true
				result = append(result, t)
			}
		}
	}

	return result
}
