package store

import (
	"errors"
	"testing"
	"time"

	"github.com/trekkers/tour-client/internal/core/domain"
)

func TestMemory_CreateUserRejectsDuplicateEmail(t *testing.T) {
	m := NewMemory()
	if _, err := m.CreateUser(User{Name: "Ana", Email: "Ana@Example.com"}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := m.CreateUser(User{Name: "Other", Email: "ana@example.com"}); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestMemory_InactiveUsersAreHidden(t *testing.T) {
	m := NewMemory()
	u, _ := m.CreateUser(User{Name: "Ana", Email: "ana@example.com"})
	if _, err := m.UpdateUser(u.ID, func(u *User) error { u.Active = false; return nil }); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if _, err := m.UserByID(u.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := m.UserByEmail("ana@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemory_Votes(t *testing.T) {
	m := NewMemory()
	m.PutTour(domain.Tour{ID: "t1", Name: "Forest", Slug: "forest"})

	n, err := m.Upvote("t1", "u1")
	if err != nil || n != 1 {
		t.Fatalf("Upvote: %d %v", n, err)
	}
	if _, err := m.Upvote("t1", "u1"); !errors.Is(err, ErrAlreadyVoted) {
		t.Fatalf("expected ErrAlreadyVoted, got %v", err)
	}
	n, _ = m.Upvote("t1", "u2")
	if n != 2 {
		t.Fatalf("expected 2 upvotes, got %d", n)
	}

	st, _ := m.VoteStatus("t1", "u1")
	if !st.HasUpvoted || st.Upvotes != 2 {
		t.Fatalf("unexpected status: %+v", st)
	}

	n, err = m.Downvote("t1", "u1")
	if err != nil || n != 1 {
		t.Fatalf("Downvote: %d %v", n, err)
	}
	if _, err := m.Downvote("t1", "u1"); !errors.Is(err, ErrNotVoted) {
		t.Fatalf("expected ErrNotVoted, got %v", err)
	}
	if _, err := m.Upvote("missing", "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemory_ResetHashExpires(t *testing.T) {
	m := NewMemory()
	now := time.Now()
	u, _ := m.CreateUser(User{Email: "ana@example.com"})
	_, _ = m.UpdateUser(u.ID, func(u *User) error {
		u.ResetTokenHash = "h"
		u.ResetExpires = now.Add(10 * time.Minute)
		return nil
	})

	if _, err := m.UserByResetHash("h", now); err != nil {
		t.Fatalf("UserByResetHash: %v", err)
	}
	if _, err := m.UserByResetHash("h", now.Add(11*time.Minute)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
}
