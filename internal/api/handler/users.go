package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/trekkers/tour-client/internal/api/auth"
	"github.com/trekkers/tour-client/internal/api/store"
	"github.com/trekkers/tour-client/internal/core/domain"
)

const resetTokenTTL = 10 * time.Minute

// ResetMailer delivers password reset tokens.
type ResetMailer interface {
	SendReset(email, token string)
}

// LogMailer writes reset tokens to the log instead of sending mail.
type LogMailer struct {
	Log zerolog.Logger
}

func (m LogMailer) SendReset(email, token string) {
	m.Log.Info().Str("email", email).Str("reset_token", token).Msg("password reset requested")
}

type UserHandler struct {
	users  *store.Memory
	issuer *auth.Issuer
	mailer ResetMailer
	log    zerolog.Logger
}

func NewUserHandler(users *store.Memory, issuer *auth.Issuer, mailer ResetMailer, log zerolog.Logger) *UserHandler {
	if mailer == nil {
		mailer = LogMailer{Log: log}
	}
	return &UserHandler{users: users, issuer: issuer, mailer: mailer, log: log}
}

type updateMeRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email" validate:"omitempty,email"`
	Photo           string `json:"photo"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// Signup creates an account and signs it in.
func (h *UserHandler) Signup(c echo.Context) error {
	var req domain.SignupInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	hash, err := h.issuer.HashPassword(req.Password)
	if err != nil {
		return err
	}
	user, err := h.users.CreateUser(store.User{Name: req.Name, Email: req.Email, PasswordHash: hash})
	if err != nil {
		return err
	}
	return h.sendToken(c, http.StatusCreated, user)
}

func (h *UserHandler) Login(c echo.Context) error {
	var req domain.LoginInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Please provide email and password!")
	}
	user, err := h.users.UserByEmail(req.Email)
	if err != nil || !h.issuer.CheckPassword(user.PasswordHash, req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Incorrect email or password")
	}
	return h.sendToken(c, http.StatusOK, user)
}

// Me returns the signed-in user under data.data.
func (h *UserHandler) Me(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, docData[domain.UserProfile]{Data: user.Profile()})
}

// UpdateMe changes name, email and photo. Empty fields are left alone.
func (h *UserHandler) UpdateMe(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	var req updateMeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.Password != "" || req.PasswordConfirm != "" {
		return echo.NewHTTPError(http.StatusBadRequest, "This route is not for password updates. Please use /updateMyPassword.")
	}

	updated, err := h.users.UpdateUser(user.ID, func(u *store.User) error {
		if req.Name != "" {
			u.Name = req.Name
		}
		if req.Email != "" {
			u.Email = req.Email
		}
		if req.Photo != "" {
			u.Photo = req.Photo
		}
		return nil
	})
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, userData{User: updated.Profile()})
}

// UpdateMyPassword checks the current password, stores the new one and
// issues a fresh token. Tokens issued earlier stop working.
func (h *UserHandler) UpdateMyPassword(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	var req domain.PasswordInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if !h.issuer.CheckPassword(user.PasswordHash, req.PasswordCurrent) {
		return &ValidationError{Fields: map[string]string{"passwordCurrent": "Your current password is wrong."}}
	}
	updated, err := h.setPassword(user.ID, req.Password)
	if err != nil {
		return err
	}
	return h.sendToken(c, http.StatusOK, updated)
}

func (h *UserHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.users.UserByEmail(req.Email)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "There is no user with that email address.")
	}

	token, hash, err := auth.NewResetToken()
	if err != nil {
		return err
	}
	expires := h.issuer.Now().Add(resetTokenTTL)
	if _, err := h.users.UpdateUser(user.ID, func(u *store.User) error {
		u.ResetTokenHash = hash
		u.ResetExpires = expires
		return nil
	}); err != nil {
		return err
	}
	h.mailer.SendReset(user.Email, token)
	return c.JSON(http.StatusOK, response{Status: "success", Message: "Token sent to email!"})
}

func (h *UserHandler) ResetPassword(c echo.Context) error {
	user, err := h.users.UserByResetHash(auth.HashResetToken(c.Param("token")), h.issuer.Now())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Token is invalid or has expired")
	}
	var req domain.PasswordResetInput
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	updated, err := h.setPassword(user.ID, req.Password)
	if err != nil {
		return err
	}
	return h.sendToken(c, http.StatusOK, updated)
}

// DeleteMe deactivates the account.
func (h *UserHandler) DeleteMe(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	if _, err := h.users.UpdateUser(user.ID, func(u *store.User) error {
		u.Active = false
		return nil
	}); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// List returns every active user. Admin only.
func (h *UserHandler) List(c echo.Context) error {
	users := h.users.ListUsers()
	profiles := make([]domain.UserProfile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, u.Profile())
	}
	return list(c, profiles)
}

func (h *UserHandler) setPassword(userID, password string) (store.User, error) {
	hash, err := h.issuer.HashPassword(password)
	if err != nil {
		return store.User{}, err
	}
	// Back-dated by a second so the token issued next is not older than
	// the change at one-second resolution.
	changedAt := h.issuer.Now().Add(-time.Second)
	return h.users.UpdateUser(userID, func(u *store.User) error {
		u.PasswordHash = hash
		u.PasswordChangedAt = changedAt
		u.ResetTokenHash = ""
		u.ResetExpires = time.Time{}
		return nil
	})
}

func (h *UserHandler) sendToken(c echo.Context, code int, user store.User) error {
	token, err := h.issuer.Sign(user.ID)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}
	return withToken(c, code, token, user.Profile())
}
