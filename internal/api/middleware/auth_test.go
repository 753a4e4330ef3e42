package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trekkers/tour-client/internal/api/auth"
	"github.com/trekkers/tour-client/internal/api/store"
)

func protectedRequest(t *testing.T, issuer *auth.Issuer, users UserFinder, header string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Protect(issuer, users)(func(c echo.Context) error {
		called = true
		if _, ok := CurrentUser(c); !ok {
			t.Fatalf("user not set")
		}
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, called
}

func TestProtect_ValidToken(t *testing.T) {
	users := store.NewMemory()
	u, _ := users.CreateUser(store.User{Name: "Ana", Email: "ana@example.com"})
	issuer := auth.NewIssuer("secret", time.Hour)
	tok, err := issuer.Sign(u.ID)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	rec, called := protectedRequest(t, issuer, users, "Bearer "+tok)
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected 200 through next, got %d (called=%v)", rec.Code, called)
	}
}

func TestProtect_Rejections(t *testing.T) {
	users := store.NewMemory()
	u, _ := users.CreateUser(store.User{Name: "Ana", Email: "ana@example.com"})
	issuer := auth.NewIssuer("secret", time.Hour)
	tok, _ := issuer.Sign(u.ID)
	ghost, _ := issuer.Sign("missing-user")

	cases := map[string]string{
		"missing header": "",
		"wrong scheme":   "Token " + tok,
		"bad signature":  "Bearer " + tok + "x",
		"unknown user":   "Bearer " + ghost,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			rec, called := protectedRequest(t, issuer, users, header)
			if called {
				t.Fatalf("should not reach next")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestProtect_PasswordChangedAfterIssue(t *testing.T) {
	users := store.NewMemory()
	u, _ := users.CreateUser(store.User{Name: "Ana", Email: "ana@example.com"})
	issuer := auth.NewIssuer("secret", time.Hour)
	tok, _ := issuer.Sign(u.ID)

	_, _ = users.UpdateUser(u.ID, func(u *store.User) error {
		u.PasswordChangedAt = time.Now().Add(5 * time.Second)
		return nil
	})

	rec, called := protectedRequest(t, issuer, users, "Bearer "+tok)
	if called || rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for token older than the password, got %d", rec.Code)
	}
}
