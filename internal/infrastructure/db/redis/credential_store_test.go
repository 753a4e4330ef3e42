package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"

	"github.com/trekkers/tour-client/internal/core/domain"
)

func setupStore(t *testing.T) (*CredentialStore, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	client, err := Connect(context.Background(), Config{Addr: s.Addr()})
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	store, err := NewCredentialStore(context.Background(), client, "trekkers:token", zerolog.Nop())
	if err != nil {
		t.Fatalf("NewCredentialStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, s
}

func TestConnect_Unreachable(t *testing.T) {
	if _, err := Connect(context.Background(), Config{Addr: "127.0.0.1:1", Timeout: 100 * time.Millisecond}); err == nil {
		t.Fatalf("expected ping error")
	}
}

func TestCredentialStore_LoadsExistingKey(t *testing.T) {
	s := miniredis.RunT(t)
	if err := s.Set("trekkers:token", "tok-1"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	client, err := Connect(context.Background(), Config{Addr: s.Addr()})
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	store, err := NewCredentialStore(context.Background(), client, "trekkers:token", zerolog.Nop())
	if err != nil {
		t.Fatalf("NewCredentialStore failed: %v", err)
	}
	defer store.Close()

	if store.Get() != "tok-1" {
		t.Fatalf("expected tok-1, got %q", store.Get())
	}
}

func TestCredentialStore_SetClear(t *testing.T) {
	store, s := setupStore(t)

	var seen []domain.Credential
	store.OnChange(func(c domain.Credential) {
		got, _ := s.Get("trekkers:token")
		if got != string(c) {
			t.Errorf("redis holds %q when notified of %q", got, c)
		}
		seen = append(seen, c)
	})

	if err := store.Set("tok-1"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if store.Get() != "tok-1" {
		t.Fatalf("expected tok-1")
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if s.Exists("trekkers:token") {
		t.Fatalf("expected key deleted")
	}
	if len(seen) != 2 {
		t.Fatalf("expected 2 notifications, got %v", seen)
	}
}

func TestCredentialStore_SeesExternalSignOut(t *testing.T) {
	store, s := setupStore(t)
	_ = store.Set("tok-1")

	s.Del("trekkers:token")

	if got := store.Get(); !got.IsZero() {
		t.Fatalf("expected external delete to be observed, got %q", got)
	}
}

func TestCredentialStore_CompareAndClear(t *testing.T) {
	store, s := setupStore(t)
	_ = store.Set("tok-2")

	ok, err := store.CompareAndClear("tok-1")
	if err != nil || ok {
		t.Fatalf("stale token must not clear: ok=%v err=%v", ok, err)
	}
	if got, _ := s.Get("trekkers:token"); got != "tok-2" {
		t.Fatalf("newer token was purged")
	}

	ok, err = store.CompareAndClear("tok-2")
	if err != nil || !ok {
		t.Fatalf("expected clear: ok=%v err=%v", ok, err)
	}
	if s.Exists("trekkers:token") {
		t.Fatalf("expected key deleted")
	}
}
