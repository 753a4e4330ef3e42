package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/trekkers/tour-client/internal/core/domain"
	"github.com/trekkers/tour-client/internal/core/ports"
)

// userData accepts both shapes the service uses for a user:
// data.user (auth endpoints, updateMe) and data.data (/users/me).
type userData struct {
	User *domain.UserProfile `json:"user"`
	Data *domain.UserProfile `json:"data"`
}

func (d userData) profile() (domain.UserProfile, bool) {
	switch {
	case d.User != nil && d.User.ID != "":
		return *d.User, true
	case d.Data != nil && d.Data.ID != "":
		return *d.Data, true
	}
	return domain.UserProfile{}, false
}

type userEnvelope struct {
	Status string   `json:"status"`
	Token  string   `json:"token"`
	Data   userData `json:"data"`
}

// UsersAPI implements ports.IdentityAPI over the gateway.
type UsersAPI struct {
	gw *Gateway
}

func NewUsersAPI(gw *Gateway) *UsersAPI {
	return &UsersAPI{gw: gw}
}

var _ ports.IdentityAPI = (*UsersAPI)(nil)

func (a *UsersAPI) Me(ctx context.Context) (domain.UserProfile, error) {
	var env userEnvelope
	if err := a.gw.Do(ctx, http.MethodGet, "/users/me", nil, &env); err != nil {
		return domain.UserProfile{}, err
	}
	user, ok := env.Data.profile()
	if !ok {
		return domain.UserProfile{}, domain.NewFailure(domain.ServerFailure, http.StatusOK, "response missing user")
	}
	return user, nil
}

func (a *UsersAPI) Login(ctx context.Context, in domain.LoginInput) (ports.AuthResult, error) {
	return a.authCall(ctx, http.MethodPost, "/users/login", in)
}

func (a *UsersAPI) Signup(ctx context.Context, in domain.SignupInput) (ports.AuthResult, error) {
	return a.authCall(ctx, http.MethodPost, "/users/signup", in)
}

func (a *UsersAPI) UpdateMe(ctx context.Context, in domain.ProfileInput) (domain.UserProfile, error) {
	var env userEnvelope
	if err := a.gw.Do(ctx, http.MethodPatch, "/users/updateMe", in, &env); err != nil {
		return domain.UserProfile{}, err
	}
	user, ok := env.Data.profile()
	if !ok {
		return domain.UserProfile{}, domain.NewFailure(domain.ServerFailure, http.StatusOK, "response missing user")
	}
	return user, nil
}

func (a *UsersAPI) UpdateMyPassword(ctx context.Context, in domain.PasswordInput) (ports.AuthResult, error) {
	return a.authCall(ctx, http.MethodPatch, "/users/updateMyPassword", in)
}

func (a *UsersAPI) ForgotPassword(ctx context.Context, email string) error {
	body := struct {
		Email string `json:"email"`
	}{Email: email}
	return a.gw.Do(ctx, http.MethodPost, "/users/forgotPassword", body, nil)
}

func (a *UsersAPI) ResetPassword(ctx context.Context, resetToken string, in domain.PasswordResetInput) (ports.AuthResult, error) {
	return a.authCall(ctx, http.MethodPatch, "/users/resetPassword/"+url.PathEscape(resetToken), in)
}

func (a *UsersAPI) DeleteMe(ctx context.Context) error {
	return a.gw.Do(ctx, http.MethodDelete, "/users/deleteMe", nil, nil)
}

// authCall handles the endpoints that answer {token, data:{user}}.
func (a *UsersAPI) authCall(ctx context.Context, method, path string, body any) (ports.AuthResult, error) {
	var env userEnvelope
	if err := a.gw.Do(ctx, method, path, body, &env); err != nil {
		return ports.AuthResult{}, err
	}
	user, ok := env.Data.profile()
	if !ok || env.Token == "" {
		return ports.AuthResult{}, domain.NewFailure(domain.ServerFailure, http.StatusOK, "response missing token or user")
	}
	return ports.AuthResult{Token: domain.Credential(env.Token), User: user}, nil
}
