package domain

import "fmt"

// SessionStatus names the active Session variant.
type SessionStatus string

const (
	StatusUninitialized SessionStatus = "uninitialized"
	StatusLoading       SessionStatus = "loading"
	StatusAuthenticated SessionStatus = "authenticated"
	StatusAnonymous     SessionStatus = "anonymous"
	StatusErrored       SessionStatus = "errored"
)

// Operation is the session operation that put the machine into Loading.
type Operation string

const (
	OpBootstrap      Operation = "bootstrap"
	OpLogin          Operation = "login"
	OpSignup         Operation = "signup"
	OpUpdateProfile  Operation = "update_profile"
	OpChangePassword Operation = "change_password"
	OpResetPassword  Operation = "reset_password"
	OpDeleteAccount  Operation = "delete_account"
)

// requiresIdentity reports whether op can only run for a signed-in user.
func (op Operation) requiresIdentity() bool {
	switch op {
	case OpUpdateProfile, OpChangePassword, OpDeleteAccount:
		return true
	}
	return false
}

// Identity is the credential and profile a session carries. A bootstrap that
// failed transiently holds a Token with no User.
type Identity struct {
	User  *UserProfile
	Token Credential
}

// Authenticated reports whether the identity is a fully resolved sign-in.
func (i Identity) Authenticated() bool {
	return i.User != nil && !i.Token.IsZero()
}

// UserID returns the profile id, or "" when there is no profile.
func (i Identity) UserID() string {
	if i.User == nil {
		return ""
	}
	return i.User.ID
}

// Session is a closed set of variants. Only this package can implement it.
type Session interface {
	Status() SessionStatus
	// Identity is the credential/profile pair in effect. Loading and Errored
	// report the identity they preserved from before the attempt.
	Identity() Identity
	session()
}

type Uninitialized struct{}

type Loading struct {
	Op    Operation
	Prior Identity
}

// Authenticated can only be built by NewAuthenticated, so a value with an
// empty credential or a profile without id does not exist.
type Authenticated struct {
	user  UserProfile
	token Credential
}

type Anonymous struct{}

type Errored struct {
	Op      Operation
	Kind    ErrorKind
	Message string
	Prior   Identity
}

// NewAuthenticated validates and builds the Authenticated variant.
func NewAuthenticated(user UserProfile, token Credential) (Authenticated, error) {
	if token.IsZero() {
		return Authenticated{}, fmt.Errorf("%w: authenticated session without credential", ErrInvalidTransition)
	}
	if user.ID == "" {
		return Authenticated{}, fmt.Errorf("%w: authenticated session without user id", ErrInvalidTransition)
	}
	return Authenticated{user: user, token: token}, nil
}

func (a Authenticated) User() UserProfile      { return a.user }
func (a Authenticated) Credential() Credential { return a.token }

func (Uninitialized) Status() SessionStatus { return StatusUninitialized }
func (Loading) Status() SessionStatus       { return StatusLoading }
func (Authenticated) Status() SessionStatus { return StatusAuthenticated }
func (Anonymous) Status() SessionStatus     { return StatusAnonymous }
func (Errored) Status() SessionStatus       { return StatusErrored }

func (Uninitialized) Identity() Identity { return Identity{} }
func (l Loading) Identity() Identity     { return l.Prior }
func (a Authenticated) Identity() Identity {
	u := a.user
	return Identity{User: &u, Token: a.token}
}
func (Anonymous) Identity() Identity { return Identity{} }
func (e Errored) Identity() Identity { return e.Prior }

func (Uninitialized) session() {}
func (Loading) session()       {}
func (Authenticated) session() {}
func (Anonymous) session()     {}
func (Errored) session()       {}

// IsAuthenticated reports whether s carries a resolved sign-in, including
// a Loading or Errored state that preserved one.
func IsAuthenticated(s Session) bool {
	return s != nil && s.Identity().Authenticated()
}

// SignOutReason records why a session ended.
type SignOutReason string

const (
	ReasonNoCredential   SignOutReason = "no_credential"
	ReasonLogout         SignOutReason = "logout"
	ReasonRevoked        SignOutReason = "revoked"
	ReasonAccountDeleted SignOutReason = "account_deleted"
)

// Event drives Transition. The set is closed.
type Event interface{ event() }

// Begin starts an operation. Token is the persisted credential read at
// bootstrap; other operations leave it empty.
type Begin struct {
	Op    Operation
	Token Credential
}

// Succeeded resolves Loading with a fresh identity.
type Succeeded struct {
	User  UserProfile
	Token Credential
}

// Failed resolves Loading with a classified failure.
type Failed struct {
	Kind    ErrorKind
	Message string
}

// SignedOut moves any state to Anonymous.
type SignedOut struct{ Reason SignOutReason }

// ErrorCleared drops an Errored state back to the identity it preserved.
type ErrorCleared struct{}

func (Begin) event()        {}
func (Succeeded) event()    {}
func (Failed) event()       {}
func (SignedOut) event()    {}
func (ErrorCleared) event() {}

// Transition is the session state machine. It is pure: persistence of the
// credential is the caller's job.
func Transition(s Session, e Event) (Session, error) {
	if _, ok := e.(SignedOut); ok {
		return Anonymous{}, nil
	}

	switch cur := s.(type) {
	case Uninitialized:
		switch ev := e.(type) {
		case Begin:
			if ev.Op.requiresIdentity() {
				return nil, ErrNotAuthenticated
			}
			return Loading{Op: ev.Op, Prior: Identity{Token: ev.Token}}, nil
		case ErrorCleared:
			return cur, nil
		}

	case Loading:
		switch ev := e.(type) {
		case Begin:
			return nil, ErrBusy
		case Succeeded:
			return NewAuthenticated(ev.User, ev.Token)
		case Failed:
			// A rejected credential ends the session. A 401 on a request
			// that carried none (a bad password) is an ordinary error.
			if ev.Kind == AuthFailure && !cur.Prior.Token.IsZero() {
				return Anonymous{}, nil
			}
			return Errored{Op: cur.Op, Kind: ev.Kind, Message: ev.Message, Prior: cur.Prior}, nil
		case ErrorCleared:
			return nil, ErrBusy
		}

	case Authenticated:
		switch ev := e.(type) {
		case Begin:
			switch ev.Op {
			case OpBootstrap, OpLogin, OpSignup:
				return nil, fmt.Errorf("%w: %s while authenticated", ErrInvalidTransition, ev.Op)
			}
			return Loading{Op: ev.Op, Prior: cur.Identity()}, nil
		case ErrorCleared:
			return cur, nil
		}

	case Anonymous:
		switch ev := e.(type) {
		case Begin:
			if ev.Op == OpBootstrap {
				return nil, fmt.Errorf("%w: already resolved", ErrInvalidTransition)
			}
			if ev.Op.requiresIdentity() {
				return nil, ErrNotAuthenticated
			}
			return Loading{Op: ev.Op}, nil
		case ErrorCleared:
			return cur, nil
		}

	case Errored:
		switch ev := e.(type) {
		case Begin:
			prior := cur.Prior
			if ev.Op == OpBootstrap {
				prior = Identity{Token: ev.Token}
			} else if ev.Op.requiresIdentity() && !prior.Authenticated() {
				return nil, ErrNotAuthenticated
			}
			return Loading{Op: ev.Op, Prior: prior}, nil
		case ErrorCleared:
			if cur.Prior.Authenticated() {
				return NewAuthenticated(*cur.Prior.User, cur.Prior.Token)
			}
			if !cur.Prior.Token.IsZero() {
				return nil, fmt.Errorf("%w: bootstrap must be retried", ErrInvalidTransition)
			}
			return Anonymous{}, nil
		}
	}

	return nil, fmt.Errorf("%w: %T on %s", ErrInvalidTransition, e, statusOf(s))
}

func statusOf(s Session) SessionStatus {
	if s == nil {
		return ""
	}
	return s.Status()
}
