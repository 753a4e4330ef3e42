package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/trekkers/tour-client/internal/core/domain"
	"github.com/trekkers/tour-client/internal/core/ports"
	"github.com/trekkers/tour-client/internal/pkg/metrics"
	"github.com/trekkers/tour-client/internal/pkg/notify"
	"github.com/trekkers/tour-client/pkg/logger"
)

// SessionService owns the session state machine and the credential it
// implies. Every state change goes through domain.Transition.
type SessionService struct {
	api      ports.IdentityAPI
	store    ports.CredentialStore
	validate *inputValidator
	log      zerolog.Logger

	mu    sync.Mutex
	state domain.Session
	epoch uint64
	subs  notify.Notifier[domain.Session]
}

var (
	_ ports.SessionReader      = (*SessionService)(nil)
	_ ports.AuthFailureHandler = (*SessionService)(nil)
)

func NewSessionService(api ports.IdentityAPI, store ports.CredentialStore, log zerolog.Logger) *SessionService {
	return &SessionService{
		api:      api,
		store:    store,
		validate: newInputValidator(),
		log:      log,
		state:    domain.Uninitialized{},
	}
}

// change is a published state waiting for delivery outside the mutex.
type change struct {
	ticket notify.Ticket
	state  domain.Session
}

// outcome is what a successful remote step resolves Loading with.
type outcome struct {
	user  domain.UserProfile
	token domain.Credential
}

func (s *SessionService) Current() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Viewer returns the identity toggles are keyed by. UserID is empty unless
// the session carries a resolved sign-in.
func (s *SessionService) Viewer() domain.Viewer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewerLocked()
}

func (s *SessionService) OnChange(fn func(domain.Session)) func() {
	return s.subs.Subscribe(fn)
}

// Bootstrap resolves the initial session from the persisted credential. It
// is a no-op once the session has resolved, and may be retried after a
// transient failure.
func (s *SessionService) Bootstrap(ctx context.Context) error {
	s.mu.Lock()
	token := s.store.Get()
	if token.IsZero() {
		if _, ok := s.state.(domain.Loading); ok {
			s.mu.Unlock()
			return domain.ErrBusy
		}
		if s.state.Status() == domain.StatusAuthenticated || s.state.Status() == domain.StatusAnonymous {
			s.mu.Unlock()
			return nil
		}
		c := s.signOutLocked(domain.ReasonNoCredential)
		s.mu.Unlock()
		s.deliver(c)
		return nil
	}
	s.mu.Unlock()

	err := s.run(ctx, domain.OpBootstrap, token, func(ctx context.Context, prior domain.Identity) (outcome, error) {
		user, err := s.api.Me(ctx)
		return outcome{user: user, token: prior.Token}, err
	})
	switch {
	case errors.Is(err, domain.ErrInvalidTransition):
		return nil
	case isAuth(err) && s.Current().Status() == domain.StatusAnonymous:
		// An expired credential is an ordinary bootstrap result.
		s.log.Info().Msg("persisted credential rejected; continuing signed out")
		return nil
	}
	return err
}

func (s *SessionService) Login(ctx context.Context, email, password string) error {
	in := domain.LoginInput{Email: email, Password: password}
	if err := s.validate.check(in); err != nil {
		return err
	}
	return s.run(ctx, domain.OpLogin, "", func(ctx context.Context, _ domain.Identity) (outcome, error) {
		res, err := s.api.Login(ctx, in)
		return outcome{user: res.User, token: res.Token}, err
	})
}

func (s *SessionService) Signup(ctx context.Context, in domain.SignupInput) error {
	if err := s.validate.check(in); err != nil {
		return err
	}
	return s.run(ctx, domain.OpSignup, "", func(ctx context.Context, _ domain.Identity) (outcome, error) {
		res, err := s.api.Signup(ctx, in)
		return outcome{user: res.User, token: res.Token}, err
	})
}

// UpdateProfile replaces the profile wholesale with what the server returns.
func (s *SessionService) UpdateProfile(ctx context.Context, in domain.ProfileInput) error {
	if in == (domain.ProfileInput{}) {
		return &domain.Failure{Kind: domain.ValidationFailure, Message: "nothing to update"}
	}
	if err := s.validate.check(in); err != nil {
		return err
	}
	return s.run(ctx, domain.OpUpdateProfile, "", func(ctx context.Context, prior domain.Identity) (outcome, error) {
		user, err := s.api.UpdateMe(ctx, in)
		return outcome{user: user, token: prior.Token}, err
	})
}

// ChangePassword persists the credential the server rotates in.
func (s *SessionService) ChangePassword(ctx context.Context, in domain.PasswordInput) error {
	if err := s.validate.check(in); err != nil {
		return err
	}
	return s.run(ctx, domain.OpChangePassword, "", func(ctx context.Context, _ domain.Identity) (outcome, error) {
		res, err := s.api.UpdateMyPassword(ctx, in)
		return outcome{user: res.User, token: res.Token}, err
	})
}

// ForgotPassword asks the server to mail a reset token. The session is not
// touched.
func (s *SessionService) ForgotPassword(ctx context.Context, email string) error {
	if err := s.validate.checkEmail(email); err != nil {
		return err
	}
	if err := s.api.ForgotPassword(ctx, email); err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}
	return nil
}

// ResetPassword sets a new password from a mailed reset token and signs in.
func (s *SessionService) ResetPassword(ctx context.Context, resetToken string, in domain.PasswordResetInput) error {
	if resetToken == "" {
		return &domain.Failure{Kind: domain.ValidationFailure, Message: "reset token is required", Fields: map[string]string{"token": "reset token is required"}}
	}
	if err := s.validate.check(in); err != nil {
		return err
	}
	return s.run(ctx, domain.OpResetPassword, "", func(ctx context.Context, _ domain.Identity) (outcome, error) {
		res, err := s.api.ResetPassword(ctx, resetToken, in)
		return outcome{user: res.User, token: res.Token}, err
	})
}

// DeleteAccount deactivates the account and then behaves like Logout.
func (s *SessionService) DeleteAccount(ctx context.Context) error {
	s.mu.Lock()
	next, err := domain.Transition(s.state, domain.Begin{Op: domain.OpDeleteAccount})
	if err != nil {
		s.mu.Unlock()
		return err
	}
	epoch := s.epoch
	c := s.applyLocked(next, false)
	s.mu.Unlock()
	s.deliver(c)

	callErr := s.api.DeleteMe(ctx)

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return staleErr(domain.OpDeleteAccount, callErr)
	}
	if callErr != nil {
		c := s.failLocked(domain.OpDeleteAccount, next.Identity(), callErr)
		s.mu.Unlock()
		s.deliver(c)
		return fmt.Errorf("%s: %w", domain.OpDeleteAccount, callErr)
	}
	if err := s.store.Clear(); err != nil {
		s.log.Error().Err(err).Msg("failed to clear credential after account deletion")
	}
	c = s.signOutLocked(domain.ReasonAccountDeleted)
	s.mu.Unlock()
	s.deliver(c)
	return nil
}

// Logout clears the credential and signs out. It is accepted in every
// state and cancels whatever is in flight.
func (s *SessionService) Logout(_ context.Context) error {
	s.mu.Lock()
	if err := s.store.Clear(); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("logout: %w", err)
	}
	c := s.signOutLocked(domain.ReasonLogout)
	s.mu.Unlock()
	s.deliver(c)
	return nil
}

// ClearError drops an Errored session back to the identity it preserved.
func (s *SessionService) ClearError() error {
	s.mu.Lock()
	next, err := domain.Transition(s.state, domain.ErrorCleared{})
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if next == s.state {
		s.mu.Unlock()
		return nil
	}
	c := s.applyLocked(next, false)
	s.mu.Unlock()
	s.deliver(c)
	return nil
}

// HandleAuthFailure demotes the session when the server rejects the
// credential it carries. Rejections of any other credential are ignored, so
// concurrent 401s for one token demote exactly once.
func (s *SessionService) HandleAuthFailure(token domain.Credential) {
	if token.IsZero() {
		return
	}
	s.mu.Lock()
	if s.state.Identity().Token != token {
		s.mu.Unlock()
		return
	}
	cleared, err := s.store.CompareAndClear(token)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to purge rejected credential")
	}
	c := s.signOutLocked(domain.ReasonRevoked)
	s.mu.Unlock()
	s.deliver(c)

	if cleared {
		metrics.GatewayAuthPurgesTotal.Inc()
	}
	s.log.Info().Str("token", logger.Redact(string(token))).Msg("credential rejected; signed out")
}

// run drives one Loading round trip: Begin, the remote call, then
// Succeeded or Failed. A result that arrives after the session moved on is
// discarded and reported as domain.ErrStale.
func (s *SessionService) run(ctx context.Context, op domain.Operation, token domain.Credential, call func(context.Context, domain.Identity) (outcome, error)) error {
	s.mu.Lock()
	next, err := domain.Transition(s.state, domain.Begin{Op: op, Token: token})
	if err != nil {
		s.mu.Unlock()
		return err
	}
	epoch := s.epoch
	prior := next.Identity()
	c := s.applyLocked(next, false)
	s.mu.Unlock()
	s.deliver(c)

	res, callErr := call(ctx, prior)

	s.mu.Lock()
	if s.epoch != epoch || s.state.Status() != domain.StatusLoading {
		s.mu.Unlock()
		if isAuth(callErr) && !prior.Token.IsZero() && s.Current().Status() == domain.StatusAnonymous {
			// This call's own 401 already signed the session out.
			return fmt.Errorf("%s: %w", op, callErr)
		}
		s.log.Debug().Str("op", string(op)).Msg("discarding stale session response")
		return staleErr(op, callErr)
	}

	if callErr != nil {
		c := s.failLocked(op, prior, callErr)
		s.mu.Unlock()
		s.deliver(c)
		return fmt.Errorf("%s: %w", op, callErr)
	}

	// The credential is durable before any reader can see Authenticated.
	if res.token != s.store.Get() {
		if err := s.store.Set(res.token); err != nil {
			failed, _ := domain.Transition(s.state, domain.Failed{Kind: domain.ServerFailure, Message: "could not save credential"})
			c := s.applyLocked(failed, false)
			s.mu.Unlock()
			s.deliver(c)
			return fmt.Errorf("%s: persist credential: %w", op, err)
		}
	}
	authed, err := domain.Transition(s.state, domain.Succeeded{User: res.user, Token: res.token})
	if err != nil {
		failed, _ := domain.Transition(s.state, domain.Failed{Kind: domain.ServerFailure, Message: "incomplete identity from server"})
		c := s.applyLocked(failed, false)
		s.mu.Unlock()
		s.deliver(c)
		return fmt.Errorf("%s: %w", op, err)
	}
	c = s.applyLocked(authed, false)
	s.mu.Unlock()
	s.deliver(c)

	s.log.Info().Str("op", string(op)).Str("user_id", res.user.ID).Msg("session authenticated")
	return nil
}

// failLocked resolves Loading with the classified failure of a call.
func (s *SessionService) failLocked(op domain.Operation, prior domain.Identity, callErr error) change {
	kind, ok := domain.KindOf(callErr)
	if !ok {
		kind = domain.ServerFailure
	}
	if kind == domain.AuthFailure && !prior.Token.IsZero() {
		if _, err := s.store.CompareAndClear(prior.Token); err != nil {
			s.log.Error().Err(err).Msg("failed to purge rejected credential")
		}
	}
	next, err := domain.Transition(s.state, domain.Failed{Kind: kind, Message: domain.MessageOf(callErr)})
	if err != nil {
		// Unreachable from Loading; keep the state rather than guess.
		s.log.Error().Err(err).Str("op", string(op)).Msg("unexpected session transition")
		return change{ticket: s.subs.Reserve(), state: s.state}
	}
	s.log.Warn().Str("op", string(op)).Str("kind", string(kind)).Msg("session operation failed")
	return s.applyLocked(next, next.Status() == domain.StatusAnonymous)
}

func (s *SessionService) signOutLocked(reason domain.SignOutReason) change {
	next, _ := domain.Transition(s.state, domain.SignedOut{Reason: reason})
	s.log.Debug().Str("reason", string(reason)).Msg("signed out")
	return s.applyLocked(next, true)
}

// applyLocked installs next and reserves its delivery. The epoch moves on
// every sign-out and whenever the signed-in user changes.
func (s *SessionService) applyLocked(next domain.Session, signOut bool) change {
	before := s.viewerLocked()
	s.state = next
	if signOut || s.viewerLocked().UserID != before.UserID {
		s.epoch++
	}
	metrics.SessionTransitionsTotal.WithLabelValues(string(next.Status())).Inc()
	return change{ticket: s.subs.Reserve(), state: next}
}

func (s *SessionService) deliver(c change) {
	s.subs.Deliver(c.ticket, c.state)
}

func (s *SessionService) viewerLocked() domain.Viewer {
	v := domain.Viewer{Epoch: s.epoch}
	if id := s.state.Identity(); id.Authenticated() {
		v.UserID = id.UserID()
	}
	return v
}

func staleErr(op domain.Operation, callErr error) error {
	if callErr != nil {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrStale, callErr)
	}
	return fmt.Errorf("%s: %w", op, domain.ErrStale)
}

func isAuth(err error) bool {
	kind, ok := domain.KindOf(err)
	return ok && kind == domain.AuthFailure
}
