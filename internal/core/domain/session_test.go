package domain

import (
	"errors"
	"testing"
)

func authed(t *testing.T) Authenticated {
	t.Helper()
	a, err := NewAuthenticated(UserProfile{ID: "u1", Email: "ana@example.com"}, "tok-1")
	if err != nil {
		t.Fatalf("NewAuthenticated: %v", err)
	}
	return a
}

func TestNewAuthenticated_RejectsIncompleteIdentity(t *testing.T) {
	if _, err := NewAuthenticated(UserProfile{ID: "u1"}, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for empty credential, got %v", err)
	}
	if _, err := NewAuthenticated(UserProfile{}, "tok"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for missing user id, got %v", err)
	}
}

func TestTransition_BootstrapPaths(t *testing.T) {
	s, err := Transition(Uninitialized{}, Begin{Op: OpBootstrap, Token: "tok-1"})
	if err != nil {
		t.Fatalf("Begin bootstrap: %v", err)
	}
	loading, ok := s.(Loading)
	if !ok || loading.Prior.Token != "tok-1" {
		t.Fatalf("expected Loading with prior token, got %#v", s)
	}

	ok1, err := Transition(s, Succeeded{User: UserProfile{ID: "u1"}, Token: "tok-1"})
	if err != nil || ok1.Status() != StatusAuthenticated {
		t.Fatalf("expected Authenticated, got %v (%v)", ok1, err)
	}

	rejected, _ := Transition(s, Failed{Kind: AuthFailure, Message: "expired"})
	if rejected.Status() != StatusAnonymous {
		t.Fatalf("expected Anonymous after rejected credential, got %s", rejected.Status())
	}

	outage, _ := Transition(s, Failed{Kind: NetworkFailure, Message: "down"})
	errored, ok := outage.(Errored)
	if !ok || errored.Prior.Token != "tok-1" {
		t.Fatalf("expected Errored keeping the credential, got %#v", outage)
	}

	// A transient bootstrap failure can be retried.
	retry, err := Transition(outage, Begin{Op: OpBootstrap, Token: "tok-1"})
	if err != nil || retry.Status() != StatusLoading {
		t.Fatalf("expected retry to enter Loading, got %v (%v)", retry, err)
	}
	if _, err := Transition(outage, ErrorCleared{}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("clearing an unresolved bootstrap must fail, got %v", err)
	}
}

func TestTransition_LoadingIsBusy(t *testing.T) {
	s := Loading{Op: OpLogin}
	if _, err := Transition(s, Begin{Op: OpSignup}); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if _, err := Transition(s, ErrorCleared{}); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
}

func TestTransition_FailedLoginStaysAnonymousInEffect(t *testing.T) {
	s, _ := Transition(Anonymous{}, Begin{Op: OpLogin})
	next, err := Transition(s, Failed{Kind: AuthFailure, Message: "Incorrect email or password"})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	e, ok := next.(Errored)
	if !ok || e.Message != "Incorrect email or password" {
		t.Fatalf("expected Errored with message, got %#v", next)
	}
	if IsAuthenticated(e) {
		t.Fatalf("errored login must not be authenticated")
	}
	cleared, _ := Transition(e, ErrorCleared{})
	if cleared.Status() != StatusAnonymous {
		t.Fatalf("expected Anonymous after clear, got %s", cleared.Status())
	}
}

func TestTransition_FailedUpdateKeepsUser(t *testing.T) {
	a := authed(t)
	s, err := Transition(a, Begin{Op: OpUpdateProfile})
	if err != nil {
		t.Fatalf("Begin update: %v", err)
	}
	next, _ := Transition(s, Failed{Kind: ValidationFailure, Message: "email taken"})
	if next.Status() != StatusErrored || !IsAuthenticated(next) {
		t.Fatalf("expected Errored that preserves the user, got %#v", next)
	}
	back, err := Transition(next, ErrorCleared{})
	if err != nil {
		t.Fatalf("ErrorCleared: %v", err)
	}
	got, ok := back.(Authenticated)
	if !ok || got.Credential() != "tok-1" || got.User().ID != "u1" {
		t.Fatalf("expected original identity back, got %#v", back)
	}
}

func TestTransition_IdentityOperationsNeedUser(t *testing.T) {
	for _, s := range []Session{Uninitialized{}, Anonymous{}, Errored{Op: OpLogin}} {
		if _, err := Transition(s, Begin{Op: OpUpdateProfile}); !errors.Is(err, ErrNotAuthenticated) {
			t.Fatalf("%s: expected ErrNotAuthenticated, got %v", s.Status(), err)
		}
	}
}

func TestTransition_SignedOutFromAnyState(t *testing.T) {
	states := []Session{Uninitialized{}, Loading{Op: OpLogin}, authed(t), Anonymous{}, Errored{Op: OpLogin}}
	for _, s := range states {
		next, err := Transition(s, SignedOut{Reason: ReasonLogout})
		if err != nil || next.Status() != StatusAnonymous {
			t.Fatalf("%s: expected Anonymous, got %v (%v)", s.Status(), next, err)
		}
	}
}

func TestTransition_RepeatBootstrapIsInvalid(t *testing.T) {
	if _, err := Transition(authed(t), Begin{Op: OpBootstrap}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if _, err := Transition(Anonymous{}, Begin{Op: OpBootstrap}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestTransition_SignInNeedsSignedOutSession(t *testing.T) {
	for _, op := range []Operation{OpLogin, OpSignup} {
		if _, err := Transition(authed(t), Begin{Op: op}); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("%s: expected ErrInvalidTransition, got %v", op, err)
		}
	}
	if _, err := Transition(authed(t), Begin{Op: OpUpdateProfile}); err != nil {
		t.Fatalf("update from authenticated: %v", err)
	}
}
