package service

import (
	"context"
	"sync"

	"github.com/trekkers/tour-client/internal/core/domain"
	"github.com/trekkers/tour-client/internal/core/ports"
	"github.com/trekkers/tour-client/internal/pkg/notify"
)

// stubIdentityAPI answers with the configured funcs and counts calls.
type stubIdentityAPI struct {
	mu    sync.Mutex
	calls map[string]int

	me             func(ctx context.Context) (domain.UserProfile, error)
	login          func(ctx context.Context, in domain.LoginInput) (ports.AuthResult, error)
	signup         func(ctx context.Context, in domain.SignupInput) (ports.AuthResult, error)
	updateMe       func(ctx context.Context, in domain.ProfileInput) (domain.UserProfile, error)
	updatePassword func(ctx context.Context, in domain.PasswordInput) (ports.AuthResult, error)
	forgot         func(ctx context.Context, email string) error
	reset          func(ctx context.Context, token string, in domain.PasswordResetInput) (ports.AuthResult, error)
	deleteMe       func(ctx context.Context) error
}

func (s *stubIdentityAPI) record(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[name]++
}

func (s *stubIdentityAPI) count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

func (s *stubIdentityAPI) Me(ctx context.Context) (domain.UserProfile, error) {
	s.record("me")
	return s.me(ctx)
}

func (s *stubIdentityAPI) Login(ctx context.Context, in domain.LoginInput) (ports.AuthResult, error) {
	s.record("login")
	return s.login(ctx, in)
}

func (s *stubIdentityAPI) Signup(ctx context.Context, in domain.SignupInput) (ports.AuthResult, error) {
	s.record("signup")
	return s.signup(ctx, in)
}

func (s *stubIdentityAPI) UpdateMe(ctx context.Context, in domain.ProfileInput) (domain.UserProfile, error) {
	s.record("updateMe")
	return s.updateMe(ctx, in)
}

func (s *stubIdentityAPI) UpdateMyPassword(ctx context.Context, in domain.PasswordInput) (ports.AuthResult, error) {
	s.record("updateMyPassword")
	return s.updatePassword(ctx, in)
}

func (s *stubIdentityAPI) ForgotPassword(ctx context.Context, email string) error {
	s.record("forgotPassword")
	return s.forgot(ctx, email)
}

func (s *stubIdentityAPI) ResetPassword(ctx context.Context, token string, in domain.PasswordResetInput) (ports.AuthResult, error) {
	s.record("resetPassword")
	return s.reset(ctx, token, in)
}

func (s *stubIdentityAPI) DeleteMe(ctx context.Context) error {
	s.record("deleteMe")
	return s.deleteMe(ctx)
}

// stubVoteAPI plays the server side of votes for one viewer.
type stubVoteAPI struct {
	mu        sync.Mutex
	upvotes   int
	downvotes int
	statuses  int

	// gate, when set, blocks every mutation until it is closed.
	gate chan struct{}
	// statusGate does the same for status requests.
	statusGate chan struct{}

	upvote   func(tourID string) (domain.VoteResult, error)
	downvote func(tourID string) (domain.VoteResult, error)
	status   func(tourID string) (domain.VoteStatus, error)
}

func (s *stubVoteAPI) wait(ctx context.Context) error {
	return waitGate(ctx, s.gate)
}

func waitGate(ctx context.Context, gate chan struct{}) error {
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return &domain.Failure{Kind: domain.NetworkFailure, Message: "request canceled", Err: ctx.Err()}
	}
}

func (s *stubVoteAPI) Upvote(ctx context.Context, tourID string) (domain.VoteResult, error) {
	s.mu.Lock()
	s.upvotes++
	s.mu.Unlock()
	if err := s.wait(ctx); err != nil {
		return domain.VoteResult{}, err
	}
	return s.upvote(tourID)
}

func (s *stubVoteAPI) Downvote(ctx context.Context, tourID string) (domain.VoteResult, error) {
	s.mu.Lock()
	s.downvotes++
	s.mu.Unlock()
	if err := s.wait(ctx); err != nil {
		return domain.VoteResult{}, err
	}
	return s.downvote(tourID)
}

func (s *stubVoteAPI) UpvoteStatus(ctx context.Context, tourID string) (domain.VoteStatus, error) {
	s.mu.Lock()
	s.statuses++
	s.mu.Unlock()
	if err := waitGate(ctx, s.statusGate); err != nil {
		return domain.VoteStatus{}, err
	}
	return s.status(tourID)
}

func (s *stubVoteAPI) mutations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upvotes + s.downvotes
}

// fakeSession is a SessionReader whose viewer tests move by hand.
type fakeSession struct {
	mu     sync.Mutex
	viewer domain.Viewer
	subs   notify.Notifier[domain.Session]
}

func signedIn(userID string) *fakeSession {
	return &fakeSession{viewer: domain.Viewer{UserID: userID, Epoch: 1}}
}

func (f *fakeSession) Current() domain.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.viewer.Anonymous() {
		return domain.Anonymous{}
	}
	a, _ := domain.NewAuthenticated(domain.UserProfile{ID: f.viewer.UserID}, "tok")
	return a
}

func (f *fakeSession) Viewer() domain.Viewer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.viewer
}

func (f *fakeSession) OnChange(fn func(domain.Session)) func() {
	return f.subs.Subscribe(fn)
}

func (f *fakeSession) switchTo(userID string) {
	f.mu.Lock()
	f.viewer = domain.Viewer{UserID: userID, Epoch: f.viewer.Epoch + 1}
	f.mu.Unlock()
	f.subs.Publish(f.Current())
}

func intp(n int) *int    { return &n }
func boolp(b bool) *bool { return &b }
