// Package testing fakes the remote side of an SSH connection: a MockClient
// answering shell commands against an in-memory filesystem.
package testing

import (
	"io/fs"
	"path"
	"strings"
	"sync"
)

// entry is one node of the fake filesystem. A nil data slice on a
// directory is normal; files always carry a non-nil slice.
type entry struct {
	dir  bool
	data []byte
}

// MockFS is the fake remote filesystem behind MockClient. Paths are POSIX
// and "/" always exists. Errors are *fs.PathError wrapping fs.ErrExist or
// fs.ErrNotExist so callers can map them to shell messages.
type MockFS struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewMockFS returns a filesystem holding only the root.
func NewMockFS() *MockFS {
	return &MockFS{entries: make(map[string]entry)}
}

func clean(p string) string {
	return path.Clean(p)
}

// parentExists reports whether p's directory is present. Relative paths
// hang off an implicit working directory.
func (m *MockFS) parentExists(p string) bool {
	parent := path.Dir(p)
	if parent == "/" || parent == "." {
		return true
	}
	e, ok := m.entries[parent]
	return ok && e.dir
}

// Mkdir is plain mkdir: it fails when p exists or its parent doesn't.
func (m *MockFS) Mkdir(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = clean(p)
	if _, ok := m.entries[p]; ok || p == "/" {
		return &fs.PathError{Op: "mkdir", Path: p, Err: fs.ErrExist}
	}
	if !m.parentExists(p) {
		return &fs.PathError{Op: "mkdir", Path: p, Err: fs.ErrNotExist}
	}
	m.entries[p] = entry{dir: true}
	return nil
}

// MkdirAll is mkdir -p. It fails only when a file sits on the path.
func (m *MockFS) MkdirAll(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mkdirAllLocked(clean(p))
}

func (m *MockFS) mkdirAllLocked(p string) error {
	if p == "/" || p == "." {
		return nil
	}
	if e, ok := m.entries[p]; ok {
		if e.dir {
			return nil
		}
		return &fs.PathError{Op: "mkdir", Path: p, Err: fs.ErrExist}
	}
	if err := m.mkdirAllLocked(path.Dir(p)); err != nil {
		return err
	}
	m.entries[p] = entry{dir: true}
	return nil
}

// WriteFile stores content at p, creating every missing parent.
func (m *MockFS) WriteFile(p string, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = clean(p)
	if err := m.mkdirAllLocked(path.Dir(p)); err != nil {
		return err
	}
	if e, ok := m.entries[p]; ok && e.dir {
		return &fs.PathError{Op: "write", Path: p, Err: fs.ErrExist}
	}
	data := make([]byte, len(content))
	copy(data, content)
	m.entries[p] = entry{data: data}
	return nil
}

// ReadFile returns the content stored at p.
func (m *MockFS) ReadFile(p string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p = clean(p)
	e, ok := m.entries[p]
	if !ok || e.dir {
		return nil, &fs.PathError{Op: "read", Path: p, Err: fs.ErrNotExist}
	}
	return e.data, nil
}

// Remove is rm -rf: p and everything under it go, and a missing p is fine.
func (m *MockFS) Remove(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = clean(p)
	prefix := strings.TrimSuffix(p, "/") + "/"
	for name := range m.entries {
		if name == p || strings.HasPrefix(name, prefix) {
			delete(m.entries, name)
		}
	}
	return nil
}

func (m *MockFS) stat(p string) (entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p = clean(p)
	if p == "/" {
		return entry{dir: true}, true
	}
	e, ok := m.entries[p]
	return e, ok
}

// Exists reports whether p is a file or directory.
func (m *MockFS) Exists(p string) bool {
	_, ok := m.stat(p)
	return ok
}

// IsDir reports whether p is a directory.
func (m *MockFS) IsDir(p string) bool {
	e, ok := m.stat(p)
	return ok && e.dir
}

// IsFile reports whether p is a regular file.
func (m *MockFS) IsFile(p string) bool {
	e, ok := m.stat(p)
	return ok && !e.dir
}

// Empty reports whether nothing but the root exists.
func (m *MockFS) Empty() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries) == 0
}
