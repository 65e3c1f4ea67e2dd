package cli

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withVersionInfo sets the build info for one test.
func withVersionInfo(t *testing.T, v, c, d string) {
	t.Helper()
	prevVersion, prevCommit, prevDate := version, commit, date
	t.Cleanup(func() { SetVersionInfo(prevVersion, prevCommit, prevDate) })
	SetVersionInfo(v, c, d)
}

func TestPrintVersion(t *testing.T) {
	tests := []struct {
		name    string
		version string
		short   bool
		want    []string
	}{
		{
			name:    "release",
			version: "1.2.3",
			want: []string{
				"neoprene v1.2.3\n",
				"commit: abc1234\n",
				"built: 2026-01-08T12:00:00Z\n",
				"go: " + runtime.Version() + "\n",
				"os/arch: " + runtime.GOOS + "/" + runtime.GOARCH + "\n",
			},
		},
		{name: "dev build", version: "dev", want: []string{"neoprene dev\n"}},
		{name: "short", version: "1.2.3", short: true, want: []string{"1.2.3\n"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withVersionInfo(t, tt.version, "abc1234", "2026-01-08T12:00:00Z")

			var buf bytes.Buffer
			printVersion(&buf, tt.short)

			if tt.short {
				assert.Equal(t, tt.want[0], buf.String())
				return
			}
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}

func TestVersionCommand(t *testing.T) {
	withVersionInfo(t, "1.2.3", "none", "unknown")

	flag := versionCmd.Flags().Lookup("short")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)

	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	t.Cleanup(func() { versionCmd.SetOut(nil) })

	versionCmd.Run(versionCmd, nil)
	assert.Contains(t, buf.String(), "neoprene v1.2.3")
	assert.Equal(t, "1.2.3", GetVersion())
}

func TestFormatVersion(t *testing.T) {
	tests := map[string]string{
		"":             "",
		"dev":          "dev",
		"1.2.3":        "v1.2.3",
		"v1.2.3":       "v1.2.3",
		"1.2.3-beta.1": "v1.2.3-beta.1",
	}

	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, formatVersion(in))
		})
	}
}
