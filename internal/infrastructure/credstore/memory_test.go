package credstore

import (
	"testing"

	"github.com/trekkers/tour-client/internal/core/domain"
)

func TestMemory_SetClearNotify(t *testing.T) {
	m := NewMemory("")
	var seen []domain.Credential
	stop := m.OnChange(func(c domain.Credential) { seen = append(seen, c) })

	_ = m.Set("tok-1")
	if m.Get() != "tok-1" {
		t.Fatalf("expected tok-1, got %q", m.Get())
	}
	_ = m.Clear()
	stop()
	_ = m.Set("tok-2")

	if len(seen) != 2 || seen[0] != "tok-1" || seen[1] != "" {
		t.Fatalf("unexpected notifications: %v", seen)
	}
}

func TestMemory_CompareAndClear(t *testing.T) {
	m := NewMemory("tok-1")

	if ok, _ := m.CompareAndClear(""); ok {
		t.Fatalf("empty expectation must never clear")
	}
	if ok, _ := m.CompareAndClear("other"); ok {
		t.Fatalf("mismatched expectation must not clear")
	}
	if ok, _ := m.CompareAndClear("tok-1"); !ok {
		t.Fatalf("expected clear")
	}
	if !m.Get().IsZero() {
		t.Fatalf("expected empty store")
	}
}
