// Package mysql creates and fills databases through the mysql and
// mysqladmin command-line clients.
package mysql

import (
	"strings"

	"github.com/neoprene-dev/neoprene/internal/util"
)

// ConnectionInfo says how to reach a MySQL server. A nil Password leaves
// authentication to the client's option file (~/.my.cnf).
type ConnectionInfo struct {
	Host     string
	User     string
	Password *string
}

// Password returns a pointer to pw, for building a ConnectionInfo inline.
func Password(pw string) *string {
	return &pw
}

// args returns the connection flags in client order. Empty host or user
// are left for the option file to supply.
func (c ConnectionInfo) args() string {
	var parts []string
	if c.Host != "" {
		parts = append(parts, "-h", util.ShellArg(c.Host))
	}
	if c.User != "" {
		parts = append(parts, "-u", util.ShellArg(c.User))
	}
	if c.Password != nil {
		parts = append(parts, "--password="+util.ShellArg(*c.Password))
	}
	return strings.Join(parts, " ")
}

// command builds "<bin> <words...> <connection flags> <trailing...>".
func (c ConnectionInfo) command(bin string, words []string, trailing ...string) string {
	line := util.ShellJoin(append([]string{bin}, words...)...)
	if a := c.args(); a != "" {
		line += " " + a
	}
	if len(trailing) > 0 {
		line += " " + util.ShellJoin(trailing...)
	}
	return line
}

// PasswordSummary describes where the password comes from without showing it.
func (c ConnectionInfo) PasswordSummary(optionFile string) string {
	if c.Password != nil {
		return "***"
	}
	return "defined in " + optionFile
}
