package testing

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"strings"
	"sync"
)

// CommandResponse is what a scripted command line answers with.
type CommandResponse struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Error    error
}

// success and failure build the responses the builtin commands return.
func success(stdout []byte) CommandResponse { return CommandResponse{Stdout: stdout} }

func failure(code int, format string, args ...any) CommandResponse {
	return CommandResponse{Stderr: []byte(fmt.Sprintf(format, args...)), ExitCode: code}
}

type script struct {
	literal string
	re      *regexp.Regexp
	resp    CommandResponse
}

// builtin emulates one shell command. args is the command line with the
// command name removed.
type builtin struct {
	name string
	run  func(m *MockClient, args string) CommandResponse
}

// builtins are matched on the leading word(s) of each "&&" segment.
var builtins = []builtin{
	{"cd", (*MockClient).cd},
	{"mkdir", (*MockClient).mkdir},
	{"cat", (*MockClient).cat},
	{"rm", (*MockClient).rm},
	{"chmod", (*MockClient).chmod},
	{"test", (*MockClient).test},
	{"[", (*MockClient).bracketTest},
	{"which", (*MockClient).which},
	{"git clone", (*MockClient).gitClone},
}

// knownBinaries is what `which` finds on the fake host.
var knownBinaries = map[string]string{
	"bash":  "/bin/bash",
	"drush": "/usr/local/bin/drush",
	"git":   "/usr/bin/git",
	"mysql": "/usr/bin/mysql",
	"rsync": "/usr/bin/rsync",
}

// MockClient stands in for an SSH connection to the live host. Command lines
// are answered from scripted responses first, then by a handful of shell
// builtins run against a MockFS. Every line is recorded for assertions.
type MockClient struct {
	mu      sync.Mutex
	host    string
	fs      *MockFS
	closed  bool
	scripts []script
	history []string
}

// NewMockClient returns a client for host with an empty filesystem.
func NewMockClient(host string) *MockClient {
	return &MockClient{host: host, fs: NewMockFS()}
}

// Exec answers cmd. A script matching the whole line wins; otherwise each
// "&&" segment runs in turn and the first non-zero status stops the chain.
func (m *MockClient) Exec(cmd string) (stdout, stderr []byte, exitCode int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, nil, -1, errors.New("connection closed")
	}
	m.history = append(m.history, cmd)

	if resp, found := m.scripted(cmd); found {
		return resp.Stdout, resp.Stderr, resp.ExitCode, resp.Error
	}

	var last CommandResponse
	for _, segment := range strings.Split(cmd, " && ") {
		last = m.runSegment(strings.TrimSpace(segment))
		stdout = append(stdout, last.Stdout...)
		stderr = append(stderr, last.Stderr...)
		if last.Error != nil || last.ExitCode != 0 {
			break
		}
	}
	return stdout, stderr, last.ExitCode, last.Error
}

// ExecContext is Exec after checking ctx.
func (m *MockClient) ExecContext(ctx context.Context, cmd string) (stdout, stderr []byte, exitCode int, err error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, nil, -1, ctxErr
	}
	return m.Exec(cmd)
}

// Close makes every later Exec fail.
func (m *MockClient) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

func (m *MockClient) GetHost() string { return m.host }

func (m *MockClient) GetAddress() string { return m.host + ":22" }

// SetCommandResponse scripts the answer for pattern, which matches a command
// line exactly or as a regular expression. Earlier scripts win, so register
// the narrow patterns first.
func (m *MockClient) SetCommandResponse(pattern string, resp CommandResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()

	re, _ := regexp.Compile(pattern)
	m.scripts = append(m.scripts, script{literal: pattern, re: re, resp: resp})
}

// Commands returns a copy of every line given to Exec.
func (m *MockClient) Commands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.history...)
}

// Ran reports whether some executed line matches pattern.
func (m *MockClient) Ran(pattern string) bool {
	re := regexp.MustCompile(pattern)
	for _, line := range m.Commands() {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// GetFS exposes the filesystem so tests can seed or inspect it.
func (m *MockClient) GetFS() *MockFS {
	return m.fs
}

func (m *MockClient) scripted(cmd string) (CommandResponse, bool) {
	for _, s := range m.scripts {
		if s.literal == cmd {
			return s.resp, true
		}
	}
	for _, s := range m.scripts {
		if s.re != nil && s.re.MatchString(cmd) {
			return s.resp, true
		}
	}
	return CommandResponse{}, false
}

// runSegment answers one command. Unknown commands succeed silently.
func (m *MockClient) runSegment(cmd string) CommandResponse {
	if resp, found := m.scripted(cmd); found {
		return resp
	}

	for _, suffix := range []string{" 2>/dev/null", " 2>&1"} {
		cmd = strings.TrimSuffix(cmd, suffix)
	}
	for _, b := range builtins {
		if args, found := strings.CutPrefix(cmd, b.name+" "); found {
			return b.run(m, strings.TrimSpace(args))
		}
	}
	return CommandResponse{}
}

// cd only fails once the filesystem holds something, so tests that script
// output alone need no directory setup.
func (m *MockClient) cd(args string) CommandResponse {
	dir := extractPath(args)
	if m.fs.Empty() || m.fs.IsDir(dir) {
		return success(nil)
	}
	return failure(1, "bash: cd: %s: No such file or directory\n", dir)
}

func (m *MockClient) mkdir(args string) CommandResponse {
	create := m.fs.Mkdir
	if rest, parents := strings.CutPrefix(args, "-p "); parents {
		create, args = m.fs.MkdirAll, rest
	}

	dir := extractPath(args)
	if dir == "" {
		return failure(1, "mkdir: missing operand")
	}
	if err := create(dir); err != nil {
		reason := "File exists"
		if errors.Is(err, fs.ErrNotExist) {
			reason = "No such file or directory"
		}
		return failure(1, "mkdir: cannot create directory '%s': %s", dir, reason)
	}
	return success(nil)
}

func (m *MockClient) cat(args string) CommandResponse {
	file := extractPath(args)
	if file == "" {
		return failure(1, "cat: missing file operand")
	}
	content, err := m.fs.ReadFile(file)
	if err != nil {
		return failure(1, "cat: %s: No such file or directory", file)
	}
	return success(content)
}

// rm accepts -f and -rf; either removes recursively and ignores absence.
func (m *MockClient) rm(args string) CommandResponse {
	fields := strings.Fields(args)
	if len(fields) > 0 && strings.HasPrefix(fields[0], "-") {
		args = strings.TrimSpace(strings.TrimPrefix(args, fields[0]))
	}
	target := extractPath(args)
	if target == "" {
		return failure(1, "rm: missing operand")
	}
	_ = m.fs.Remove(target)
	return success(nil)
}

// chmod only checks that its last operand exists.
func (m *MockClient) chmod(args string) CommandResponse {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return failure(1, "chmod: missing operand")
	}
	target := extractPath(fields[len(fields)-1])
	if !m.fs.Exists(target) {
		return failure(1, "chmod: cannot access '%s': No such file or directory", target)
	}
	return success(nil)
}

func (m *MockClient) bracketTest(args string) CommandResponse {
	return m.test(strings.TrimSuffix(args, " ]"))
}

// test supports -d, -f and -e. Any other operator exits 2.
func (m *MockClient) test(args string) CommandResponse {
	op, operand, _ := strings.Cut(args, " ")
	target := extractPath(operand)

	checks := map[string]func(string) bool{
		"-d": m.fs.IsDir,
		"-f": m.fs.IsFile,
		"-e": m.fs.Exists,
	}
	check, known := checks[op]
	if !known {
		return failure(2, "test: unknown operator %s", op)
	}
	if check(target) {
		return success(nil)
	}
	return CommandResponse{ExitCode: 1}
}

func (m *MockClient) which(args string) CommandResponse {
	if p, found := knownBinaries[args]; found {
		return success([]byte(p + "\n"))
	}
	return CommandResponse{ExitCode: 1}
}

// gitClone creates <dir>/.git the way a real clone would and refuses an
// existing destination.
func (m *MockClient) gitClone(args string) CommandResponse {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return failure(128, "fatal: You must specify a repository to clone.\n")
	}

	dir := extractPath(fields[len(fields)-1])
	if m.fs.Exists(dir) {
		return failure(128, "fatal: destination path '%s' already exists and is not an empty directory.\n", dir)
	}
	_ = m.fs.MkdirAll(path.Join(dir, ".git"))
	return CommandResponse{Stderr: []byte(fmt.Sprintf("Cloning into '%s'...\n", dir))}
}

// extractPath returns the first argument of arg, unwrapping one level of
// single or double quotes.
func extractPath(arg string) string {
	arg = strings.TrimSpace(arg)
	for _, q := range []string{`"`, `'`} {
		if rest, quoted := strings.CutPrefix(arg, q); quoted {
			if inner, _, closed := strings.Cut(rest, q); closed {
				return inner
			}
		}
	}
	if fields := strings.Fields(arg); len(fields) > 0 {
		return fields[0]
	}
	return ""
}
