package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShellQuote(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"simple", "'simple'"},
		{"with space", "'with space'"},
		{"with'quote", "'with'\\''quote'"},
		{"", "''"},
		{"path/to/file", "'path/to/file'"},
		{"$variable", "'$variable'"},
		{"$(command)", "'$(command)'"},
		{"`backtick`", "'`backtick`'"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ShellQuote(tt.input))
		})
	}
}

func TestShellArg(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"main", "main"},
		{"feature/login-form", "feature/login-form"},
		{"/var/www/html", "/var/www/html"},
		{"git@github.com:org/repo.git", "git@github.com:org/repo.git"},
		{"--password=s3cret", "--password=s3cret"},
		{"two words", "'two words'"},
		{"p@ss'word", "'p@ss'\\''word'"},
		{"", "''"},
		{"$HOME", "'$HOME'"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ShellArg(tt.input))
		})
	}
}

func TestShellJoin(t *testing.T) {
	assert.Equal(t, "git checkout -b feature main", ShellJoin("git", "checkout", "-b", "feature", "main"))
	assert.Equal(t, "mysql -u 'a b' db", ShellJoin("mysql", "-u", "a b", "db"))
	assert.Equal(t, "", ShellJoin())
}

func TestShellPath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/srv/dev/site", "/srv/dev/site"},
		{"~/dev/site", "~/dev/site"},
		{"~/my site", "~/'my site'"},
		{"/srv/my site", "'/srv/my site'"},
		{"~user/site", "'~user/site'"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ShellPath(tt.input))
		})
	}
}
