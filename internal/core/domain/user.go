package domain

const (
	RoleUser      = "user"
	RoleGuide     = "guide"
	RoleLeadGuide = "lead-guide"
	RoleAdmin     = "admin"
)

// Credential is the opaque bearer token issued by the tour service.
// The zero value means no credential.
type Credential string

func (c Credential) IsZero() bool { return c == "" }

// UserProfile is the identity returned by the tour service. It is always
// replaced wholesale, never patched field by field.
type UserProfile struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Photo string `json:"photo,omitempty"`
	Role  string `json:"role"`
}

// LoginInput is the body of POST /users/login.
type LoginInput struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignupInput is the body of POST /users/signup.
type SignupInput struct {
	Name            string `json:"name"            validate:"required"`
	Email           string `json:"email"           validate:"required,email"`
	Password        string `json:"password"        validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

// ProfileInput is the body of PATCH /users/updateMe. Empty fields are left
// untouched by the server.
type ProfileInput struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
	Photo string `json:"photo,omitempty"`
}

// PasswordInput is the body of PATCH /users/updateMyPassword.
type PasswordInput struct {
	PasswordCurrent string `json:"passwordCurrent" validate:"required"`
	Password        string `json:"password"        validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

// PasswordResetInput is the body of PATCH /users/resetPassword/:token.
type PasswordResetInput struct {
	Password        string `json:"password"        validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}
