package remote

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/neoprene-dev/neoprene/internal/errors"
	"github.com/neoprene-dev/neoprene/internal/logger"
	sshtesting "github.com/neoprene-dev/neoprene/pkg/sshutil/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner(client *sshtesting.MockClient, shell string) *SSHRunner {
	return NewSSHRunner(client, Options{Shell: shell, Logger: logger.Noop()})
}

func TestBuildRemoteCommand(t *testing.T) {
	tests := []struct {
		name    string
		shell   string
		workDir string
		command string
		want    string
	}{
		{name: "bare", command: "drush bam-backup", want: "drush bam-backup"},
		{name: "workdir", workDir: "/var/www/site", command: "drush bam-backup", want: "cd /var/www/site && drush bam-backup"},
		{name: "workdir with space", workDir: "/var/www/my site", command: "ls", want: "cd '/var/www/my site' && ls"},
		{name: "tilde workdir", workDir: "~/site", command: "ls", want: "cd ~/site && ls"},
		{name: "login shell", shell: "bash -l -c", workDir: "/site", command: "drush vget file_private_path",
			want: "bash -l -c 'cd /site && drush vget file_private_path'"},
		{name: "login shell escapes quotes", shell: "bash -l -c", command: "echo 'hi'",
			want: `bash -l -c 'echo '\''hi'\'''`},
		{name: "blank shell is ignored", shell: "  ", command: "ls", want: "ls"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildRemoteCommand(tt.shell, tt.workDir, tt.command))
		})
	}
}

func TestSSHRunner_RunRemote(t *testing.T) {
	client := sshtesting.NewMockClient("prod")
	client.SetCommandResponse("^drush bam-backup$", sshtesting.CommandResponse{
		Stdout: []byte("done\n"),
		Stderr: []byte("[success]\n"),
	})
	r := newTestRunner(client, "")

	res, err := r.RunRemote(context.Background(), "/site", "drush bam-backup")

	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, "done\n", res.Stdout)
	assert.Equal(t, "[success]\n", res.Stderr)
	assert.Equal(t, []string{"cd /site && drush bam-backup"}, client.Commands())
}

func TestSSHRunner_RunRemote_NonZeroIsData(t *testing.T) {
	client := sshtesting.NewMockClient("prod")
	client.SetCommandResponse("^git clone", sshtesting.CommandResponse{
		Stderr:   []byte("fatal: repository not found\n"),
		ExitCode: 128,
	})
	r := newTestRunner(client, "")

	res, err := r.RunRemote(context.Background(), "", "git clone x /srv/dev")

	require.NoError(t, err)
	assert.Equal(t, 128, res.ExitStatus)
	assert.Contains(t, res.Stderr, "repository not found")
}

func TestSSHRunner_RunRemote_CommandNotFound(t *testing.T) {
	client := sshtesting.NewMockClient("prod")
	client.SetCommandResponse("drush", sshtesting.CommandResponse{
		Stderr:   []byte("bash: drush: command not found\n"),
		ExitCode: 127,
	})
	r := newTestRunner(client, "")

	res, err := r.RunRemote(context.Background(), "/site", "drush bam-backup")

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrExec))
	assert.Equal(t, 127, res.ExitStatus)
}

func TestSSHRunner_RunRemote_ChannelErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{name: "deadline", err: context.DeadlineExceeded, wantCode: errors.ErrTimeout},
		{name: "cancel", err: context.Canceled, wantCode: errors.ErrAbort},
		{name: "other", err: assert.AnError, wantCode: errors.ErrSSH},
		{name: "structured passes through", err: errors.New(errors.ErrExec, "x", ""), wantCode: errors.ErrExec},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := sshtesting.NewMockClient("prod")
			client.SetCommandResponse("ls", sshtesting.CommandResponse{ExitCode: -1, Error: tt.err})

			res, err := newTestRunner(client, "").RunRemote(context.Background(), "", "ls")

			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tt.wantCode), "got %v", err)
			assert.Equal(t, -1, res.ExitStatus)
		})
	}
}

func TestSSHRunner_RunRemote_AppliesTimeout(t *testing.T) {
	client := sshtesting.NewMockClient("prod")
	r := NewSSHRunner(client, Options{Timeout: time.Nanosecond, Logger: logger.Noop()})
	time.Sleep(time.Millisecond)

	// A nanosecond deadline has passed by the time the mock checks it.
	_, err := r.RunRemote(context.Background(), "", "sleep 1")

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrTimeout))
}

func TestSSHRunner_RunLocal(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := NewSSHRunner(sshtesting.NewMockClient("prod"), Options{Stdout: &stdout, Stderr: &stderr, Logger: logger.Noop()})

	t.Run("captured", func(t *testing.T) {
		res, err := r.RunLocal(context.Background(), "echo out; echo err >&2; exit 3", true)
		require.NoError(t, err)
		assert.Equal(t, 3, res.ExitStatus)
		assert.Equal(t, "out\n", res.Stdout)
		assert.Equal(t, "err\n", res.Stderr)
		assert.Empty(t, stdout.String())
	})

	t.Run("streamed", func(t *testing.T) {
		stdout.Reset()
		stderr.Reset()

		res, err := r.RunLocal(context.Background(), "echo out; echo err >&2", false)
		require.NoError(t, err)
		assert.True(t, res.OK())
		assert.Empty(t, res.Stdout)
		assert.Equal(t, "err\n", res.Stderr)
		assert.Equal(t, "out\n", stdout.String())
		assert.Equal(t, "err\n", stderr.String())
	})

	t.Run("missing binary", func(t *testing.T) {
		_, err := r.RunLocal(context.Background(), "neoprene_missing_tool_xyz --version", true)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrExec))
	})
}

func TestSSHRunner_Host(t *testing.T) {
	assert.Equal(t, "prod", newTestRunner(sshtesting.NewMockClient("prod"), "").Host())
}

func TestMaskSecrets(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"mysqladmin create db -h localhost -u me --password=s3cret", "mysqladmin create db -h localhost -u me --password=***"},
		{"mysql --password='a b' db < dump.mysql", "mysql --password=*** db < dump.mysql"},
		{`mysql --password='it'\''s' db`, "mysql --password=*** db"},
		{"mysql -u me db", "mysql -u me db"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskSecrets(tt.in))
		})
	}
}
