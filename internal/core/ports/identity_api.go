package ports

import (
	"context"

	"github.com/trekkers/tour-client/internal/core/domain"
)

// AuthResult is what login, signup, password change and password reset
// return: a fresh credential and the profile it belongs to.
type AuthResult struct {
	Token domain.Credential
	User  domain.UserProfile
}

// IdentityAPI is the users/* surface of the tour service. Every error is a
// *domain.Failure.
type IdentityAPI interface {
	Me(ctx context.Context) (domain.UserProfile, error)
	Login(ctx context.Context, in domain.LoginInput) (AuthResult, error)
	Signup(ctx context.Context, in domain.SignupInput) (AuthResult, error)
	UpdateMe(ctx context.Context, in domain.ProfileInput) (domain.UserProfile, error)
	UpdateMyPassword(ctx context.Context, in domain.PasswordInput) (AuthResult, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, resetToken string, in domain.PasswordResetInput) (AuthResult, error)
	DeleteMe(ctx context.Context) error
}
