package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/neoprene-dev/neoprene/internal/config"
	"github.com/neoprene-dev/neoprene/internal/devenv"
	"github.com/neoprene-dev/neoprene/internal/errors"
	"github.com/neoprene-dev/neoprene/internal/host"
	"github.com/neoprene-dev/neoprene/internal/lock"
	"github.com/neoprene-dev/neoprene/internal/logger"
	prompttesting "github.com/neoprene-dev/neoprene/internal/prompt/testing"
	"github.com/neoprene-dev/neoprene/internal/remote"
	remotetesting "github.com/neoprene-dev/neoprene/internal/remote/testing"
	sshtesting "github.com/neoprene-dev/neoprene/pkg/sshutil/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	backupReport = "Default Database backed up successfully to mysite in destination\n" +
		"Manual Backups Directory in 812.4 ms.                 [success]\n"
	privatePath = `file_private_path: "/priv"` + "\n"
	remoteDump  = "/priv/backup_migrate/manual/mysite.mysql.gz"
)

// newTestWorkflow builds a connected workflow over runner without dialing.
func newTestWorkflow(t *testing.T, runner remote.Runner, client *sshtesting.MockClient, answers ...prompttesting.Answer) (*WorkflowContext, *bytes.Buffer) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Hosts["prod"] = config.Host{SSH: []string{"prod"}, SiteDir: "/site"}
	cfg.Default = "prod"
	cfg.StagingDir = t.TempDir()
	cfg.LocalDB.User = "deploy"
	cfg.LocalDB.MyCnf = ""
	cfg.Lock.Enabled = false

	var out bytes.Buffer
	return &WorkflowContext{
		Config:     cfg,
		HostName:   "prod",
		Host:       cfg.Hosts["prod"],
		Conn:       &host.Connection{Name: "prod", Alias: "prod", Client: client, Host: cfg.Hosts["prod"]},
		Runner:     runner,
		Prompter:   prompttesting.NewScriptedPrompter(answers...),
		Out:        &out,
		Log:        logger.NewBufferLogger(),
		SkipChecks: true,
	}, &out
}

func newSSHRunner(client *sshtesting.MockClient) remote.Runner {
	return remote.NewSSHRunner(client, remote.Options{Logger: logger.Noop()})
}

func TestRunDump(t *testing.T) {
	client := sshtesting.NewMockClient("prod")
	client.SetCommandResponse("drush bam-backup", sshtesting.CommandResponse{Stdout: []byte(backupReport)})
	client.SetCommandResponse("drush vget file_private_path", sshtesting.CommandResponse{Stdout: []byte(privatePath)})
	wf, out := newTestWorkflow(t, newSSHRunner(client), client)

	artifact, err := runDump(context.Background(), wf, "")

	require.NoError(t, err)
	assert.Equal(t, remoteDump, artifact.RemotePath())
	assert.Contains(t, out.String(), remoteDump)
	assert.True(t, client.Ran(`^cd /site && drush bam-backup$`))
}

func TestRunDump_ArgumentOverridesSiteDir(t *testing.T) {
	client := sshtesting.NewMockClient("prod")
	client.SetCommandResponse("drush bam-backup", sshtesting.CommandResponse{Stdout: []byte(backupReport)})
	client.SetCommandResponse("drush vget file_private_path", sshtesting.CommandResponse{Stdout: []byte(privatePath)})
	wf, _ := newTestWorkflow(t, newSSHRunner(client), client)

	_, err := runDump(context.Background(), wf, "/srv/other")

	require.NoError(t, err)
	assert.True(t, client.Ran(`^cd /srv/other && drush bam-backup$`))
}

func TestRunDump_HoldsSiteLock(t *testing.T) {
	client := sshtesting.NewMockClient("prod")
	sshtesting.WithDirs(client, []string{"/tmp", "/site"})
	client.SetCommandResponse("drush bam-backup", sshtesting.CommandResponse{Stdout: []byte(backupReport)})
	client.SetCommandResponse("drush vget file_private_path", sshtesting.CommandResponse{Stdout: []byte(privatePath)})
	wf, _ := newTestWorkflow(t, newSSHRunner(client), client)
	wf.Config.Lock.Enabled = true
	lockDir := lock.Dir(wf.Config.Lock, "/site")

	_, err := runDump(context.Background(), wf, "")

	require.NoError(t, err)
	assert.True(t, client.Ran(`^mkdir `+lockDir+`$`))
	assert.True(t, client.Ran(`^rm -rf `+lockDir+`$`))
	assert.False(t, client.GetFS().Exists(lockDir))
}

func TestRunDump_SiteLocked(t *testing.T) {
	client := sshtesting.NewMockClient("prod")
	wf, _ := newTestWorkflow(t, newSSHRunner(client), client)
	wf.Config.Lock = config.LockConfig{Enabled: true, Timeout: time.Millisecond, Stale: time.Hour, Dir: "/tmp"}
	sshtesting.WithDirs(client, []string{"/site", lock.Dir(wf.Config.Lock, "/site")})

	_, err := runDump(context.Background(), wf, "")

	assert.True(t, errors.IsCode(err, errors.ErrLock))
	assert.False(t, client.Ran("bam-backup"))
}

func TestRunUnlock(t *testing.T) {
	client := sshtesting.NewMockClient("prod")
	wf, out := newTestWorkflow(t, newSSHRunner(client), client)
	lockDir := lock.Dir(wf.Config.Lock, "/site")
	sshtesting.WithFiles(client, map[string]string{
		lockDir + "/info.json": `{"user":"bob","hostname":"laptop","pid":42,"started":"2026-01-02T03:04:05Z"}`,
	})

	require.NoError(t, runUnlock(context.Background(), wf, ""))
	assert.Contains(t, out.String(), "held by bob@laptop (pid 42)")
	assert.False(t, client.GetFS().Exists(lockDir))

	out.Reset()
	require.NoError(t, runUnlock(context.Background(), wf, ""))
	assert.Contains(t, out.String(), "isn't locked")
}

func TestRunDump_Unrecognized(t *testing.T) {
	client := sshtesting.NewMockClient("prod")
	client.SetCommandResponse("drush bam-backup", sshtesting.CommandResponse{Stdout: []byte("Command bam-backup needs the backup_migrate module.\n")})
	wf, _ := newTestWorkflow(t, newSSHRunner(client), client)

	_, err := runDump(context.Background(), wf, "")

	assert.True(t, errors.IsCode(err, errors.ErrParse))
}

func TestRunPullDB(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	runner := &remotetesting.MockRunner{}
	wf, out := newTestWorkflow(t, runner, sshtesting.NewMockClient("prod"), prompttesting.Say("mysite_dev"))

	runner.On("RunRemote", mock.Anything, "/site", "drush bam-backup").
		Return(remotetesting.OK(backupReport), nil).Once()
	runner.On("RunRemote", mock.Anything, "/site", "drush vget file_private_path").
		Return(remotetesting.OK(privatePath), nil).Once()

	transfer := runner.On("TransferFile", mock.Anything, remoteDump, mock.Anything)
	transfer.Run(func(args mock.Arguments) {
		gz := filepath.Join(args.String(2), "mysite.mysql.gz")
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		_, err := zw.Write([]byte("CREATE TABLE node (nid int);\n"))
		require.NoError(t, err)
		require.NoError(t, zw.Close())
		require.NoError(t, os.WriteFile(gz, buf.Bytes(), 0600))
		transfer.ReturnArguments = mock.Arguments{gz, nil}
	}).Once()

	runner.On("RunLocal", mock.Anything, "mysqladmin create mysite_dev -h localhost -u deploy", true).
		Return(remotetesting.OK(""), nil).Once()
	runner.On("RunLocal", mock.Anything, mock.MatchedBy(func(cmd string) bool {
		return strings.HasPrefix(cmd, "mysql -h localhost -u deploy mysite_dev < ")
	}), true).Return(remotetesting.OK(""), nil).Once()

	err := runPullDB(context.Background(), wf, "", false)

	require.NoError(t, err)
	runner.AssertExpectations(t)
	assert.Contains(t, out.String(), "Pulled /site from prod into mysite_dev")
	assert.NotContains(t, out.String(), "Dump kept at")

	entries, err := os.ReadDir(wf.Config.StagingDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunPullDB_MissingTools(t *testing.T) {
	runner := &remotetesting.MockRunner{}
	wf, _ := newTestWorkflow(t, runner, sshtesting.NewMockClient("prod"))
	wf.SkipChecks = false
	wf.HostName = t.Name()

	runner.On("RunRemote", mock.Anything, "", "command -v drush").Return(remotetesting.Fail(1, ""), nil).Once()
	runner.On("RunRemote", mock.Anything, "", "command -v rsync").Return(remotetesting.OK("/usr/bin/rsync\n"), nil).Once()
	runner.On("RunLocal", mock.Anything, "command -v rsync", true).Return(remotetesting.OK("/usr/bin/rsync\n"), nil).Once()
	runner.On("RunLocal", mock.Anything, "command -v mysql", true).Return(remotetesting.OK("/usr/bin/mysql\n"), nil).Once()
	runner.On("RunLocal", mock.Anything, "command -v mysqladmin", true).Return(remotetesting.OK("/usr/bin/mysqladmin\n"), nil).Once()

	err := runPullDB(context.Background(), wf, "", false)

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrExec))
	assert.Contains(t, err.Error(), "drush (remote)")
	runner.AssertExpectations(t)
	runner.AssertNotCalled(t, "RunRemote", mock.Anything, "/site", "drush bam-backup")
}

func TestRunPullDB_NoSiteDir(t *testing.T) {
	runner := &remotetesting.MockRunner{}
	wf, _ := newTestWorkflow(t, runner, sshtesting.NewMockClient("prod"))
	wf.Host.SiteDir = ""

	err := runPullDB(context.Background(), wf, "", false)

	assert.True(t, errors.IsCode(err, errors.ErrConfig))
	runner.AssertNotCalled(t, "RunRemote", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunDevEnv(t *testing.T) {
	client := sshtesting.NewMockClient("prod")
	sshtesting.WithDirs(client, []string{"/srv/live/.git"})
	client.SetCommandResponse("git config --get remote.origin.url", sshtesting.CommandResponse{
		Stdout: []byte("git@github.com:example/site.git\n"),
	})
	client.SetCommandResponse("git branch -a", sshtesting.CommandResponse{
		Stdout: []byte("* master\n  remotes/origin/develop\n"),
	})
	wf, out := newTestWorkflow(t, newSSHRunner(client), client, prompttesting.Say("1"), prompttesting.Say("develop"))

	env, err := runDevEnv(context.Background(), wf, "/srv/live", "/srv/dev")

	require.NoError(t, err)
	assert.True(t, env.Finalized())
	assert.Equal(t, devenv.UseExisting, env.BranchMode)
	assert.Equal(t, "develop", env.BranchName)
	assert.True(t, client.Ran(`^git clone git@github\.com:example/site\.git /srv/dev$`))
	assert.Contains(t, out.String(), "/srv/dev is on branch develop")
}

func TestRunDevEnv_UsesConfiguredGit(t *testing.T) {
	client := sshtesting.NewMockClient("prod")
	wf, _ := newTestWorkflow(t, newSSHRunner(client), client)
	wf.Config.Tools.Git = "/opt/git/bin/git"

	_, err := runDevEnv(context.Background(), wf, "/srv/live", "/srv/dev")

	assert.True(t, errors.IsCode(err, errors.ErrRemote))
	assert.True(t, client.Ran(`^cd /srv/live && /opt/git/bin/git config --get remote\.origin\.url$`))
}

func TestRunDBList(t *testing.T) {
	runner := &remotetesting.MockRunner{}
	cfg := config.DefaultConfig()
	cfg.LocalDB.User = "deploy"
	runner.On("RunLocal", mock.Anything, "mysql --batch --skip-column-names -h localhost -u deploy -e 'show databases;'", true).
		Return(remotetesting.OK("information_schema\nmysite_dev\n"), nil).Once()

	var out bytes.Buffer
	require.NoError(t, runDBList(context.Background(), runner, cfg, &out))

	assert.Contains(t, out.String(), "DATABASE")
	assert.Contains(t, out.String(), "mysite_dev")
	runner.AssertExpectations(t)
}

func TestRunDBList_Empty(t *testing.T) {
	runner := &remotetesting.MockRunner{}
	runner.On("RunLocal", mock.Anything, mock.Anything, true).Return(remotetesting.OK(""), nil).Once()

	var out bytes.Buffer
	require.NoError(t, runDBList(context.Background(), runner, config.DefaultConfig(), &out))
	assert.Contains(t, out.String(), "No databases.")
}

func TestRunDBList_Failure(t *testing.T) {
	runner := &remotetesting.MockRunner{}
	runner.On("RunLocal", mock.Anything, mock.Anything, true).
		Return(remotetesting.Fail(1, "ERROR 2002 (HY000): Can't connect to local MySQL server"), nil).Once()

	err := runDBList(context.Background(), runner, config.DefaultConfig(), &bytes.Buffer{})
	assert.True(t, errors.IsCode(err, errors.ErrConnection))
}

func TestFirstArg(t *testing.T) {
	assert.Empty(t, firstArg(nil))
	assert.Equal(t, "/site", firstArg([]string{"/site"}))
}
