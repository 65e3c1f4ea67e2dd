package cli

import (
	"bytes"
	stderrors "errors"
	"testing"

	"github.com/neoprene-dev/neoprene/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestIsUnknownCommandError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "unknown command error",
			err:  stderrors.New(`unknown command "foo" for "neoprene"`),
			want: true,
		},
		{
			name: "unknown flag error",
			err:  stderrors.New(`unknown flag: --foo`),
			want: true,
		},
		{
			name: "other error",
			err:  stderrors.New("connection failed"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUnknownCommandError(tt.err))
		})
	}
}

func TestExtractUnknownCommand(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "standard cobra format",
			err:  stderrors.New(`unknown command "foo" for "neoprene"`),
			want: "foo",
		},
		{
			name: "command with hyphen",
			err:  stderrors.New(`unknown command "pull-dbs" for "neoprene"`),
			want: "pull-dbs",
		},
		{
			name: "no quotes returns empty",
			err:  stderrors.New("unknown command foo"),
			want: "",
		},
		{
			name: "single quote returns empty",
			err:  stderrors.New(`unknown command "foo`),
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractUnknownCommand(tt.err))
		})
	}
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantOut  string
	}{
		{
			name:     "abort quits cleanly",
			err:      errors.NewAbort("operator quit"),
			wantCode: 0,
			wantOut:  "Quitting\n",
		},
		{
			name:     "wrapped abort",
			err:      errors.WrapWithCode(stderrors.New("ctrl-c"), errors.ErrAbort, "Quitting", ""),
			wantCode: 0,
			wantOut:  "Quitting\n",
		},
		{
			name:     "exit code passes through silently",
			err:      errors.NewExitError(3),
			wantCode: 3,
			wantOut:  "",
		},
		{
			name:     "unknown command",
			err:      stderrors.New(`unknown command "pul" for "neoprene"`),
			wantCode: 1,
			wantOut:  "Unknown command 'pul'",
		},
		{
			name:     "structured error",
			err:      errors.New(errors.ErrParse, "Couldn't find the backup file name", "Is backup_migrate enabled?"),
			wantCode: 1,
			wantOut:  "Is backup_migrate enabled?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			assert.Equal(t, tt.wantCode, handleError(&buf, tt.err))
			if tt.wantOut == "" {
				assert.Empty(t, buf.String())
			} else {
				assert.Contains(t, buf.String(), tt.wantOut)
			}
		})
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"pull-db", "dump", "dev-env", "db", "init", "version", "completion", "unlock"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCommand_GlobalFlags(t *testing.T) {
	for _, name := range []string{"config", "host", "verbose", "no-color", "timeout", "skip-checks"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
}
