// Package testing provides a testify-based double for remote.Runner.
package testing

import (
	"context"

	"github.com/neoprene-dev/neoprene/internal/remote"
	"github.com/stretchr/testify/mock"
)

// MockRunner records calls and returns whatever the test scripted with On.
type MockRunner struct {
	mock.Mock
}

var _ remote.Runner = (*MockRunner)(nil)

func (m *MockRunner) RunRemote(ctx context.Context, workDir, command string) (remote.Result, error) {
	args := m.Called(ctx, workDir, command)
	return args.Get(0).(remote.Result), args.Error(1)
}

func (m *MockRunner) RunLocal(ctx context.Context, command string, capture bool) (remote.Result, error) {
	args := m.Called(ctx, command, capture)
	return args.Get(0).(remote.Result), args.Error(1)
}

func (m *MockRunner) TransferFile(ctx context.Context, remotePath, localDir string) (string, error) {
	args := m.Called(ctx, remotePath, localDir)
	return args.String(0), args.Error(1)
}

// OK is a successful Result with the given stdout.
func OK(stdout string) remote.Result {
	return remote.Result{Stdout: stdout}
}

// Fail is a failed Result with the given exit status and stderr.
func Fail(status int, stderr string) remote.Result {
	return remote.Result{Stderr: stderr, ExitStatus: status}
}

// Result is a Result with every field set.
func Result(stdout, stderr string, status int) remote.Result {
	return remote.Result{Stdout: stdout, Stderr: stderr, ExitStatus: status}
}
