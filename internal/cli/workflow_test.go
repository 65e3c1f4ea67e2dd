package cli

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/neoprene-dev/neoprene/internal/config"
	"github.com/neoprene-dev/neoprene/internal/errors"
	"github.com/neoprene-dev/neoprene/internal/host"
	"github.com/neoprene-dev/neoprene/internal/logger"
	prompttesting "github.com/neoprene-dev/neoprene/internal/prompt/testing"
	"github.com/neoprene-dev/neoprene/internal/ui"
	"github.com/neoprene-dev/neoprene/pkg/sshutil"
	sshtesting "github.com/neoprene-dev/neoprene/pkg/sshutil/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const prodConfig = `version: 1
hosts:
  prod:
    ssh: [prod-lan, prod-vpn]
    site_dir: /var/www/html/site
default: prod
shell: ""
strict_host_key_checking: false
`

// isolate points HOME and the working directory at a temp dir and sets
// --config to path (empty for none).
func isolate(t *testing.T, path string) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)

	origCfg := cfgFile
	t.Cleanup(func() { cfgFile = origCfg })
	cfgFile = path
	return dir
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

// testDeps dials mock clients; aliases in failures return that error.
type testDeps struct {
	deps     workflowDeps
	out      *bytes.Buffer
	prompter *prompttesting.ScriptedPrompter
	dialed   []string
	opts     []sshutil.DialOptions
	clients  map[string]*sshtesting.MockClient
}

func newTestDeps(failures map[string]error, answers ...prompttesting.Answer) *testDeps {
	td := &testDeps{
		out:      &bytes.Buffer{},
		prompter: prompttesting.NewScriptedPrompter(answers...),
		clients:  map[string]*sshtesting.MockClient{},
	}
	td.deps = workflowDeps{
		dial: func(_ context.Context, alias string, opts sshutil.DialOptions) (sshutil.SSHClient, error) {
			td.dialed = append(td.dialed, alias)
			td.opts = append(td.opts, opts)
			if err, ok := failures[alias]; ok {
				return nil, err
			}
			c := sshtesting.NewMockClient(alias)
			td.clients[alias] = c
			return c, nil
		},
		prompter: td.prompter,
		out:      td.out,
		pick: func([]ui.SSHHostInfo) (*ui.SSHHostInfo, ui.PickOutcome, error) {
			return nil, ui.PickManual, nil
		},
		sshConfig: filepath.Join(os.TempDir(), "neoprene-no-such-ssh-config"),
	}
	return td
}

func TestSetupWorkflow_FallsBackThroughAliases(t *testing.T) {
	isolate(t, writeConfig(t, prodConfig))
	td := newTestDeps(map[string]error{
		"prod-lan": stderrors.New("dial tcp 10.0.0.5:22: connect: connection refused"),
	})
	var logs bytes.Buffer
	logger.SetOutput(&logs)
	t.Cleanup(func() { logger.SetOutput(os.Stderr) })

	wf, err := setupWorkflow(context.Background(), WorkflowOptions{}, td.deps)
	require.NoError(t, err)
	defer wf.Close()
	assert.Contains(t, logs.String(), "prod answered on prod-vpn after earlier destinations failed")

	assert.Equal(t, "prod", wf.HostName)
	assert.Equal(t, "prod-vpn", wf.Conn.Alias)
	assert.Equal(t, "prod-vpn", wf.Conn.Client.GetHost())
	assert.Equal(t, []string{"prod-lan", "prod-vpn"}, td.dialed)
	require.Len(t, td.opts, 2)
	assert.True(t, td.opts[1].InsecureIgnoreHostKey)
	assert.Equal(t, 10*time.Second, td.opts[1].Timeout)
	assert.Equal(t, td.deps.sshConfig, td.opts[1].ConfigFile)
	assert.NotEmpty(t, wf.ConfigPath)

	out := td.out.String()
	assert.Contains(t, out, "prod-lan")
	assert.Contains(t, out, "Connected to prod via prod-vpn")
}

func TestSetupWorkflow_RunnerUsesConfig(t *testing.T) {
	isolate(t, writeConfig(t, prodConfig))
	td := newTestDeps(nil)

	wf, err := setupWorkflow(context.Background(), WorkflowOptions{}, td.deps)
	require.NoError(t, err)
	defer wf.Close()

	client := td.clients["prod-lan"]
	client.SetCommandResponse("drush status", sshtesting.CommandResponse{Stdout: []byte("ok\n")})

	res, err := wf.Runner.RunRemote(context.Background(), "", "drush status")
	require.NoError(t, err)
	assert.Equal(t, "ok\n", res.Stdout)
	assert.Equal(t, []string{"drush status"}, client.Commands())
}

func TestSetupWorkflow_HostFlagWithoutConfig(t *testing.T) {
	isolate(t, "")
	td := newTestDeps(nil)

	wf, err := setupWorkflow(context.Background(), WorkflowOptions{Host: "deploy@live.example.com"}, td.deps)
	require.NoError(t, err)
	defer wf.Close()

	assert.Empty(t, wf.ConfigPath)
	assert.Equal(t, "deploy@live.example.com", wf.HostName)
	assert.Equal(t, []string{"deploy@live.example.com"}, td.dialed)
	assert.Zero(t, td.prompter.Asks())
}

func TestSetupWorkflow_PickerSelection(t *testing.T) {
	isolate(t, "")
	td := newTestDeps(nil)
	td.deps.pick = func([]ui.SSHHostInfo) (*ui.SSHHostInfo, ui.PickOutcome, error) {
		return &ui.SSHHostInfo{Alias: "live"}, ui.PickSelected, nil
	}

	wf, err := setupWorkflow(context.Background(), WorkflowOptions{}, td.deps)
	require.NoError(t, err)
	defer wf.Close()

	assert.Equal(t, "live", wf.Conn.Alias)
	assert.Zero(t, td.prompter.Asks())
}

func TestSetupWorkflow_PickerManualAsks(t *testing.T) {
	isolate(t, "")
	td := newTestDeps(nil, prompttesting.Say(""), prompttesting.Say("deploy@live"))

	wf, err := setupWorkflow(context.Background(), WorkflowOptions{}, td.deps)
	require.NoError(t, err)
	defer wf.Close()

	assert.Equal(t, "deploy@live", wf.Conn.Alias)
	assert.Equal(t, 1, td.prompter.Asks())
	ex := td.prompter.Exchanges()
	require.Len(t, ex, 2)
	assert.Error(t, ex[0].Rejected)
}

func TestSetupWorkflow_PickerCancelled(t *testing.T) {
	isolate(t, "")
	td := newTestDeps(nil)
	td.deps.pick = func([]ui.SSHHostInfo) (*ui.SSHHostInfo, ui.PickOutcome, error) {
		return nil, ui.PickCancelled, nil
	}

	wf, err := setupWorkflow(context.Background(), WorkflowOptions{}, td.deps)

	assert.Nil(t, wf)
	assert.True(t, errors.IsAbort(err))
	assert.Empty(t, td.dialed)
}

func TestSetupWorkflow_AllAliasesFail(t *testing.T) {
	isolate(t, writeConfig(t, prodConfig))
	td := newTestDeps(map[string]error{
		"prod-lan": stderrors.New("i/o timeout"),
		"prod-vpn": stderrors.New("no route to host"),
	})

	wf, err := setupWorkflow(context.Background(), WorkflowOptions{}, td.deps)

	assert.Nil(t, wf)
	assert.True(t, errors.IsCode(err, errors.ErrSSH))
	assert.Contains(t, td.out.String(), "Connection failed")
}

func TestSetupWorkflow_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		opts WorkflowOptions
	}{
		{name: "bad timeout flag", body: prodConfig, opts: WorkflowOptions{TimeoutFlag: "soon"}},
		{name: "unknown host", body: prodConfig, opts: WorkflowOptions{Host: "staging"}},
		{name: "invalid config", body: "hosts:\n  prod:\n    ssh: []\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t, writeConfig(t, tt.body))
			td := newTestDeps(nil)

			_, err := setupWorkflow(context.Background(), tt.opts, td.deps)

			assert.True(t, errors.IsCode(err, errors.ErrConfig))
			assert.Empty(t, td.dialed)
		})
	}
}

func TestWorkflowContext_SiteDir(t *testing.T) {
	wf := &WorkflowContext{HostName: "prod", Host: config.Host{SiteDir: "/var/www/html/site"}}

	dir, err := wf.SiteDir("")
	require.NoError(t, err)
	assert.Equal(t, "/var/www/html/site", dir)

	dir, err = wf.SiteDir("/srv/other")
	require.NoError(t, err)
	assert.Equal(t, "/srv/other", dir)

	dir, err = wf.SiteDir("${HOME}/site")
	require.NoError(t, err)
	assert.Equal(t, "~/site", dir)

	_, err = (&WorkflowContext{HostName: "prod"}).SiteDir("  ")
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestWorkflowContext_Close_NilConn(t *testing.T) {
	// Should not panic
	(&WorkflowContext{}).Close()
}

func TestLocalConn(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LocalDB.User = "deploy"

	conn := localConn(cfg)
	assert.Equal(t, "localhost", conn.Host)
	assert.Equal(t, "deploy", conn.User)
	assert.Nil(t, conn.Password)

	cfg.LocalDB.Password = "s3cret"
	conn = localConn(cfg)
	require.NotNil(t, conn.Password)
	assert.Equal(t, "s3cret", *conn.Password)
}

func TestDialStatus(t *testing.T) {
	assert.Equal(t, ui.StatusFailed, dialStatus(stderrors.New("boom")))
	assert.Equal(t, ui.StatusFailed, dialStatus(nil))
	assert.Equal(t, ui.StatusRefused, dialStatus(&host.DialError{Alias: "live", Reason: host.FailRefused}))
}
