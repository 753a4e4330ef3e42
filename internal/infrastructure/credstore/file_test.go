package credstore

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/trekkers/tour-client/internal/core/domain"
)

func openTemp(t *testing.T) (*File, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	f, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	return f, path
}

func TestFile_MissingFileIsEmpty(t *testing.T) {
	f, _ := openTemp(t)
	if got := f.Get(); !got.IsZero() {
		t.Fatalf("expected empty store, got %q", got)
	}
}

func TestFile_SetSurvivesReopen(t *testing.T) {
	f, path := openTemp(t)
	if err := f.Set("tok-1"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	reopened, err := OpenFile(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if got := reopened.Get(); got != "tok-1" {
		t.Fatalf("expected tok-1 after reopen, got %q", got)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if info.Mode().Perm() != filePerm {
		t.Fatalf("expected mode %o, got %o", filePerm, info.Mode().Perm())
	}
}

func TestFile_ClearRemovesFile(t *testing.T) {
	f, path := openTemp(t)
	_ = f.Set("tok-1")
	if err := f.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected file removed, stat err = %v", err)
	}
	if err := f.Clear(); err != nil {
		t.Fatalf("second Clear should be a no-op, got %v", err)
	}
}

func TestFile_CorruptFileIsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := OpenFile(path); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestFile_ListenerObservesDurableValue(t *testing.T) {
	f, path := openTemp(t)

	var seen []domain.Credential
	f.OnChange(func(c domain.Credential) {
		// A reader triggered by the notification must see the new value,
		// both in memory and on disk.
		if f.Get() != c {
			t.Errorf("Get() = %q inside listener, notified %q", f.Get(), c)
		}
		reopened, err := OpenFile(path)
		if err != nil {
			t.Errorf("reopen inside listener: %v", err)
			return
		}
		if reopened.Get() != c {
			t.Errorf("disk holds %q inside listener, notified %q", reopened.Get(), c)
		}
		seen = append(seen, c)
	})

	_ = f.Set("tok-1")
	_ = f.Clear()

	if len(seen) != 2 || seen[0] != "tok-1" || seen[1] != "" {
		t.Fatalf("unexpected notifications: %v", seen)
	}
}

func TestFile_CompareAndClearOnce(t *testing.T) {
	f, _ := openTemp(t)
	_ = f.Set("tok-1")

	var cleared atomic.Int32
	var notified atomic.Int32
	f.OnChange(func(domain.Credential) { notified.Add(1) })

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := f.CompareAndClear("tok-1")
			if err != nil {
				t.Errorf("CompareAndClear failed: %v", err)
			}
			if ok {
				cleared.Add(1)
			}
		}()
	}
	wg.Wait()

	if cleared.Load() != 1 || notified.Load() != 1 {
		t.Fatalf("expected exactly one clear and one notification, got %d and %d", cleared.Load(), notified.Load())
	}
}

func TestFile_CompareAndClearKeepsNewerToken(t *testing.T) {
	f, _ := openTemp(t)
	_ = f.Set("tok-2")

	ok, err := f.CompareAndClear("tok-1")
	if err != nil || ok {
		t.Fatalf("expected no clear for stale token, got ok=%v err=%v", ok, err)
	}
	if f.Get() != "tok-2" {
		t.Fatalf("newer token was purged")
	}
}
