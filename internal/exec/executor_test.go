package exec

import (
	"testing"

	"github.com/neoprene-dev/neoprene/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsCommandNotFound(t *testing.T) {
	tests := []struct {
		name      string
		stderr    string
		exitCode  int
		wantCmd   string
		wantFound bool
	}{
		{name: "bash command not found", stderr: "bash: drush: command not found", exitCode: 127, wantCmd: "drush", wantFound: true},
		{name: "zsh command not found", stderr: "zsh: command not found: mysqladmin", exitCode: 127, wantCmd: "mysqladmin", wantFound: true},
		{name: "sh not found", stderr: "sh: 1: git: not found", exitCode: 127, wantCmd: "git", wantFound: true},
		{name: "-bash no such file", stderr: "-bash: drush: No such file or directory", exitCode: 127, wantCmd: "drush", wantFound: true},
		{name: "127 without a name", stderr: "", exitCode: 127, wantFound: true},
		{name: "not found text but other exit code", stderr: "bash: drush: command not found", exitCode: 1, wantFound: false},
		{name: "ordinary failure", stderr: "ERROR 1007 (HY000): database exists", exitCode: 1, wantFound: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, found := IsCommandNotFound(tt.stderr, tt.exitCode)
			assert.Equal(t, tt.wantFound, found, "found mismatch")
			if tt.wantFound && tt.wantCmd != "" {
				assert.Equal(t, tt.wantCmd, cmd, "command name mismatch")
			}
		})
	}
}

func TestHandleExecError_CommandNotFound(t *testing.T) {
	err := HandleExecError("remote", "drush bam-backup", "bash: drush: command not found", 127)

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrExec))
	assert.Contains(t, err.Error(), "'drush' not found in PATH on remote")
	assert.Contains(t, err.Error(), "drush: /full/path/to/drush")
	assert.Contains(t, err.Error(), "bash -l -c")
}

func TestHandleExecError_NotCommandNotFound(t *testing.T) {
	assert.Nil(t, HandleExecError("local", "mysqladmin create x", "database exists", 1))
}

func TestHandleExecError_ExtractsCommandFromInput(t *testing.T) {
	err := HandleExecError("local", "rsync -az a b", "", 127)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "'rsync' not found in PATH on local")
	assert.Contains(t, err.Error(), "<tool>: /full/path/to/rsync")
}
