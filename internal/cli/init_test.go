package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/neoprene-dev/neoprene/internal/config"
	"github.com/neoprene-dev/neoprene/internal/errors"
	prompttesting "github.com/neoprene-dev/neoprene/internal/prompt/testing"
	"github.com/neoprene-dev/neoprene/internal/ui"
	"github.com/neoprene-dev/neoprene/pkg/sshutil"
	sshtesting "github.com/neoprene-dev/neoprene/pkg/sshutil/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestHostName(t *testing.T) {
	tests := []struct {
		dest string
		want string
	}{
		{"deploy@live.example.com", "live"},
		{"live.example.com", "live"},
		{"prod", "prod"},
		{"deploy@prod:2222", "prod"},
		{"10.0.0.5", "10.0.0.5"},
		{"deploy@", defaultInitName},
		{"", defaultInitName},
	}

	for _, tt := range tests {
		t.Run(tt.dest, func(t *testing.T) {
			assert.Equal(t, tt.want, suggestHostName(tt.dest))
		})
	}
}

func TestExtractHostname(t *testing.T) {
	assert.Equal(t, "live.example.com", extractHostname("deploy@live.example.com"))
	assert.Equal(t, "live.example.com", extractHostname("live.example.com"))
	assert.Equal(t, "host", extractHostname("a@b@host"))
}

func TestValidateHostName(t *testing.T) {
	assert.NoError(t, validateHostName("live"))
	assert.NoError(t, validateHostName("prod-2"))
	assert.Error(t, validateHostName(""))
	assert.Error(t, validateHostName("   "))
	assert.Error(t, validateHostName("my host"))
	assert.Error(t, validateHostName("deploy@live"))
	assert.Error(t, validateHostName("a/b"))
}

func TestMergeInitOptions(t *testing.T) {
	t.Setenv("CI", "")
	t.Setenv(envNonInteractive, "")
	t.Setenv(envInitSSH, "deploy@live.example.com")
	t.Setenv(envInitName, "live")
	t.Setenv(envInitSiteDir, "/var/www/site")

	got := mergeInitOptions(InitOptions{Name: "prod"})
	assert.Equal(t, "deploy@live.example.com", got.SSH)
	assert.Equal(t, "prod", got.Name)
	assert.Equal(t, "/var/www/site", got.SiteDir)
	assert.False(t, got.NonInteractive)
}

func TestMergeInitOptions_CIForcesNonInteractive(t *testing.T) {
	t.Setenv("CI", "true")
	t.Setenv(envNonInteractive, "")

	assert.True(t, mergeInitOptions(InitOptions{}).NonInteractive)
}

func TestGetInitDefaults(t *testing.T) {
	t.Setenv("CI", "")
	t.Setenv(envNonInteractive, "1")
	t.Setenv(envInitSSH, "prod")
	t.Setenv(envInitName, "")
	t.Setenv(envInitSiteDir, "")

	d := getInitDefaults()
	assert.Equal(t, "prod", d.SSH)
	assert.Empty(t, d.Name)
	assert.True(t, d.NonInteractive)
}

// newInitDeps returns deps rooted at a temp dir whose dialer fails for the
// aliases in failures.
func newInitDeps(t *testing.T, failures map[string]bool, answers ...prompttesting.Answer) (initDeps, *prompttesting.ScriptedPrompter, *bytes.Buffer) {
	t.Helper()
	p := prompttesting.NewScriptedPrompter(answers...)
	var out bytes.Buffer
	return initDeps{
		prompter: p,
		dial: func(_ context.Context, alias string, _ sshutil.DialOptions) (sshutil.SSHClient, error) {
			if failures[alias] {
				return nil, fmt.Errorf("dial tcp: connection refused")
			}
			return sshtesting.NewMockClient(alias), nil
		},
		out: &out,
		dir: t.TempDir(),
	}, p, &out
}

func loadWritten(t *testing.T, deps initDeps) *config.Config {
	t.Helper()
	cfg, err := config.Load(filepath.Join(deps.dir, config.ConfigFileName))
	require.NoError(t, err)
	return cfg
}

func TestRunInit_NonInteractive(t *testing.T) {
	deps, p, out := newInitDeps(t, nil)

	err := runInit(context.Background(), InitOptions{
		SSH:            "deploy@live.example.com",
		SiteDir:        "/var/www/site",
		NonInteractive: true,
		SkipProbe:      true,
	}, deps)
	require.NoError(t, err)

	cfg := loadWritten(t, deps)
	assert.Equal(t, "live", cfg.Default)
	assert.Equal(t, []string{"deploy@live.example.com"}, cfg.Hosts["live"].SSH)
	assert.Equal(t, "/var/www/site", cfg.Hosts["live"].SiteDir)
	assert.Zero(t, p.Asks())
	assert.Contains(t, out.String(), "Created")
	assert.Contains(t, out.String(), "neoprene pull-db")
}

func TestRunInit_NonInteractiveRequiresSSH(t *testing.T) {
	deps, _, _ := newInitDeps(t, nil)

	err := runInit(context.Background(), InitOptions{NonInteractive: true, SkipProbe: true}, deps)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
	assert.NoFileExists(t, filepath.Join(deps.dir, config.ConfigFileName))
}

func TestRunInit_Interactive(t *testing.T) {
	deps, p, _ := newInitDeps(t, nil,
		prompttesting.Say("deploy@prod.example.com"),
		prompttesting.Say(""),
		prompttesting.Say("/srv/drupal"),
	)

	require.NoError(t, runInit(context.Background(), InitOptions{}, deps))

	cfg := loadWritten(t, deps)
	assert.Equal(t, "prod", cfg.Default)
	assert.Equal(t, "/srv/drupal", cfg.Hosts["prod"].SiteDir)
	assert.Equal(t, 3, p.Asks())
}

func TestRunInit_ExistingConfig(t *testing.T) {
	t.Run("non-interactive refuses", func(t *testing.T) {
		deps, _, _ := newInitDeps(t, nil)
		path := filepath.Join(deps.dir, config.ConfigFileName)
		require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0644))

		err := runInit(context.Background(), InitOptions{SSH: "prod", NonInteractive: true, SkipProbe: true}, deps)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")
	})

	t.Run("declined overwrite", func(t *testing.T) {
		deps, p, out := newInitDeps(t, nil, prompttesting.Say("n"))
		path := filepath.Join(deps.dir, config.ConfigFileName)
		require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0644))

		require.NoError(t, runInit(context.Background(), InitOptions{SSH: "prod", SkipProbe: true}, deps))
		assert.Contains(t, out.String(), "Cancelled.")
		assert.Equal(t, 1, p.Confirms())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "version: 1\n", string(data))
	})

	t.Run("force overwrites", func(t *testing.T) {
		deps, _, _ := newInitDeps(t, nil)
		path := filepath.Join(deps.dir, config.ConfigFileName)
		require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0644))

		require.NoError(t, runInit(context.Background(), InitOptions{
			SSH: "prod", Overwrite: true, NonInteractive: true, SkipProbe: true,
		}, deps))
		assert.Equal(t, "prod", loadWritten(t, deps).Default)
	})
}

func TestRunInit_AddHost(t *testing.T) {
	deps, _, out := newInitDeps(t, nil)
	require.NoError(t, runInit(context.Background(), InitOptions{
		SSH: "deploy@live.example.com", NonInteractive: true, SkipProbe: true,
	}, deps))

	require.NoError(t, runInit(context.Background(), InitOptions{
		SSH: "deploy@stage.example.com", AddHost: true, NonInteractive: true, SkipProbe: true,
	}, deps))

	cfg := loadWritten(t, deps)
	assert.Equal(t, "live", cfg.Default)
	assert.Contains(t, cfg.Hosts, "live")
	assert.Equal(t, []string{"deploy@stage.example.com"}, cfg.Hosts["stage"].SSH)
	assert.Contains(t, out.String(), "Added host 'stage'")
}

func TestRunInit_AddHostWithoutConfig(t *testing.T) {
	deps, _, _ := newInitDeps(t, nil)

	err := runInit(context.Background(), InitOptions{SSH: "prod", AddHost: true, NonInteractive: true}, deps)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestRunInit_ConnectionCheck(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		deps, _, _ := newInitDeps(t, nil)

		require.NoError(t, runInit(context.Background(), InitOptions{SSH: "prod", NonInteractive: true}, deps))
		assert.FileExists(t, filepath.Join(deps.dir, config.ConfigFileName))
	})

	t.Run("unreachable non-interactive", func(t *testing.T) {
		deps, _, _ := newInitDeps(t, map[string]bool{"prod": true})

		err := runInit(context.Background(), InitOptions{SSH: "prod", NonInteractive: true}, deps)
		assert.True(t, errors.IsCode(err, errors.ErrSSH))
		assert.NoFileExists(t, filepath.Join(deps.dir, config.ConfigFileName))
	})

	t.Run("unreachable saved anyway", func(t *testing.T) {
		deps, p, out := newInitDeps(t, map[string]bool{"prod": true}, prompttesting.Say("y"))

		require.NoError(t, runInit(context.Background(), InitOptions{SSH: "prod", Name: "prod", SiteDir: "/srv"}, deps))
		assert.Equal(t, 1, p.Confirms())
		assert.Contains(t, out.String(), "Connection to 'prod' failed")
		assert.FileExists(t, filepath.Join(deps.dir, config.ConfigFileName))
	})

	t.Run("cancelled", func(t *testing.T) {
		deps, p, out := newInitDeps(t, nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := runInit(ctx, InitOptions{SSH: "prod", Name: "prod", SiteDir: "/srv"}, deps)
		assert.True(t, errors.IsAbort(err))
		assert.Zero(t, p.Confirms())
		assert.Contains(t, out.String(), ui.SymbolSkipped+" Testing connection to prod")
		assert.NoFileExists(t, filepath.Join(deps.dir, config.ConfigFileName))
	})

	t.Run("unreachable not saved", func(t *testing.T) {
		deps, _, _ := newInitDeps(t, map[string]bool{"prod": true}, prompttesting.Say(""))

		err := runInit(context.Background(), InitOptions{SSH: "prod", Name: "prod", SiteDir: "/srv"}, deps)
		assert.True(t, errors.IsCode(err, errors.ErrSSH))
		assert.NoFileExists(t, filepath.Join(deps.dir, config.ConfigFileName))
	})
}
