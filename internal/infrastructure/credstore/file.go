package credstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/trekkers/tour-client/internal/core/domain"
	"github.com/trekkers/tour-client/internal/pkg/notify"
)

const (
	dirPerm  = 0o700
	filePerm = 0o600
)

// tokenFile is the on-disk layout. Absence of the file means no credential.
type tokenFile struct {
	Token string `json:"token"`
}

// File persists the credential as a small JSON document. Every write goes
// to a temp file in the same directory and is renamed over the target, so a
// crash never leaves a half-written token behind.
type File struct {
	path string

	mu       sync.Mutex
	token    domain.Credential
	listener notify.Notifier[domain.Credential]
}

// OpenFile loads the credential stored at path. A missing file is an empty
// store; an unreadable or corrupt one is an error.
func OpenFile(path string) (*File, error) {
	f := &File{path: path}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return f, nil
	case err != nil:
		return nil, fmt.Errorf("credstore: read %s: %w", path, err)
	}

	var doc tokenFile
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("credstore: decode %s: %w", path, err)
	}
	f.token = domain.Credential(doc.Token)
	return f, nil
}

// Path is the file backing the store.
func (f *File) Path() string { return f.path }

func (f *File) Get() domain.Credential {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *File) Set(token domain.Credential) error {
	if token.IsZero() {
		return f.Clear()
	}
	f.mu.Lock()
	if err := f.write(token); err != nil {
		f.mu.Unlock()
		return err
	}
	f.token = token
	ticket := f.listener.Reserve()
	f.mu.Unlock()
	f.listener.Deliver(ticket, token)
	return nil
}

func (f *File) Clear() error {
	f.mu.Lock()
	if err := f.remove(); err != nil {
		f.mu.Unlock()
		return err
	}
	f.token = ""
	ticket := f.listener.Reserve()
	f.mu.Unlock()
	f.listener.Deliver(ticket, "")
	return nil
}

func (f *File) CompareAndClear(expected domain.Credential) (bool, error) {
	f.mu.Lock()
	if expected.IsZero() || f.token != expected {
		f.mu.Unlock()
		return false, nil
	}
	if err := f.remove(); err != nil {
		f.mu.Unlock()
		return false, err
	}
	f.token = ""
	ticket := f.listener.Reserve()
	f.mu.Unlock()
	f.listener.Deliver(ticket, "")
	return true, nil
}

func (f *File) OnChange(fn func(domain.Credential)) func() {
	return f.listener.Subscribe(fn)
}

func (f *File) write(token domain.Credential) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("credstore: create %s: %w", dir, err)
	}

	raw, err := json.Marshal(tokenFile{Token: string(token)})
	if err != nil {
		return fmt.Errorf("credstore: encode token: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".token-*")
	if err != nil {
		return fmt.Errorf("credstore: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := tmp.Chmod(filePerm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("credstore: chmod temp file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("credstore: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("credstore: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("credstore: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("credstore: replace %s: %w", f.path, err)
	}
	return nil
}

func (f *File) remove() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("credstore: remove %s: %w", f.path, err)
	}
	return nil
}
