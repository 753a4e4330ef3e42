package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/trekkers/tour-client/internal/api"
	"github.com/trekkers/tour-client/internal/api/auth"
	"github.com/trekkers/tour-client/internal/api/store"
	"github.com/trekkers/tour-client/internal/core/domain"
)

const forestHiker = "5c88fa8cf4afda39709c2951"

// setupEnv points the CLI at a fresh mock service and a private
// credential directory.
func setupEnv(t *testing.T) {
	t.Helper()
	mem := store.NewMemory()
	mem.SeedTours()
	srv := httptest.NewServer(api.NewRouter(api.Deps{
		Store:  mem,
		Issuer: auth.NewIssuer("cli-secret", time.Hour, auth.WithBcryptCost(bcrypt.MinCost)),
		Log:    zerolog.Nop(),
	}))
	t.Cleanup(srv.Close)

	t.Setenv("TREKKERS_API_URL", srv.URL+api.Prefix)
	t.Setenv("TREKKERS_CREDENTIAL_BACKEND", "file")
	t.Setenv("TREKKERS_CONFIG_DIR", t.TempDir())
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_PRETTY", "false")
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	out, err := run(t, stdin, args...)
	if err != nil {
		t.Fatalf("trekkers %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func TestCLI_SignupWhoamiLogout(t *testing.T) {
	setupEnv(t)

	out := mustRun(t, "", "signup", "--name", "Ana", "--email", "ana@example.com", "--password", "pass1234")
	if !strings.Contains(out, "Signed in as Ana <ana@example.com>") {
		t.Fatalf("unexpected signup output: %q", out)
	}

	out = mustRun(t, "", "whoami", "--json")
	var view sessionView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode whoami: %v\n%s", err, out)
	}
	if view.Status != domain.StatusAuthenticated || view.User == nil || view.User.Email != "ana@example.com" {
		t.Fatalf("unexpected whoami: %+v", view)
	}

	mustRun(t, "", "logout")
	out = mustRun(t, "", "whoami")
	if !strings.Contains(out, "Not signed in.") {
		t.Fatalf("expected signed-out whoami, got %q", out)
	}
}

func TestCLI_LoginReadsPasswordFromStdin(t *testing.T) {
	setupEnv(t)
	mustRun(t, "", "signup", "--name", "Ana", "--email", "ana@example.com", "--password", "pass1234")
	mustRun(t, "", "logout")

	out := mustRun(t, "pass1234\n", "login", "--email", "ana@example.com")
	if !strings.Contains(out, "Signed in as Ana") {
		t.Fatalf("unexpected login output: %q", out)
	}

	if _, err := run(t, "wrong\n", "login", "--email", "ana@example.com"); err == nil {
		t.Fatalf("expected wrong password to fail")
	}
}

func TestCLI_VoteFlipsAndReports(t *testing.T) {
	setupEnv(t)
	mustRun(t, "", "signup", "--name", "Ana", "--email", "ana@example.com", "--password", "pass1234")

	out := mustRun(t, "", "vote", forestHiker)
	if !strings.Contains(out, forestHiker+": voted (1 votes)") {
		t.Fatalf("unexpected vote output: %q", out)
	}

	out = mustRun(t, "", "vote-status", forestHiker, "--json")
	var st domain.ToggleState
	if err := json.Unmarshal([]byte(out), &st); err != nil {
		t.Fatalf("decode vote-status: %v\n%s", err, out)
	}
	if !st.CommittedFlag || st.CommittedCount != 1 {
		t.Fatalf("unexpected status: %+v", st)
	}

	out = mustRun(t, "", "vote", forestHiker, forestHiker)
	if strings.Count(out, forestHiker) != 1 || !strings.Contains(out, "not voted (0 votes)") {
		t.Fatalf("unexpected unvote output: %q", out)
	}
}

func TestCLI_VoteRemovesVoteFromEarlierLogin(t *testing.T) {
	setupEnv(t)
	mustRun(t, "", "signup", "--name", "Ana", "--email", "ana@example.com", "--password", "pass1234")
	mustRun(t, "", "vote", forestHiker)
	mustRun(t, "", "logout")
	mustRun(t, "pass1234\n", "login", "--email", "ana@example.com")

	out := mustRun(t, "", "vote", forestHiker)
	if !strings.Contains(out, forestHiker+": not voted (0 votes)") {
		t.Fatalf("expected the vote to be removed, got %q", out)
	}
	if strings.Contains(out, "[synced with server]") {
		t.Fatalf("removing a known vote must not conflict: %q", out)
	}
}

func TestCLI_VoteSignedOut(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "", "vote", forestHiker)
	if !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if !strings.Contains(out, "[sign in to vote]") {
		t.Fatalf("expected a sign-in hint, got %q", out)
	}
}

func TestCLI_ToursListsSeededCatalogue(t *testing.T) {
	setupEnv(t)

	out := mustRun(t, "", "tours")
	for _, name := range []string{"The Forest Hiker", "The Sea Explorer", "The Snow Adventurer", "The Park Camper"} {
		if !strings.Contains(out, name) {
			t.Errorf("expected %q in output", name)
		}
	}
}

func TestCLI_DeleteMeNeedsConfirmation(t *testing.T) {
	setupEnv(t)
	mustRun(t, "", "signup", "--name", "Ana", "--email", "ana@example.com", "--password", "pass1234")

	if _, err := run(t, "", "delete-me"); err == nil {
		t.Fatalf("expected delete-me without --yes to fail")
	}
	out := mustRun(t, "", "delete-me", "--yes")
	if !strings.Contains(out, "Not signed in.") {
		t.Fatalf("unexpected delete-me output: %q", out)
	}
}

func TestCLI_UnknownBackend(t *testing.T) {
	setupEnv(t)
	if _, err := run(t, "", "whoami", "--credentials", "floppy"); err == nil {
		t.Fatalf("expected an unknown backend to fail")
	}
}

func TestFormatToggleHuman_Notices(t *testing.T) {
	cases := []struct {
		st   domain.ToggleState
		want string
	}{
		{domain.ToggleState{ResourceID: "t1", CommittedFlag: true, CommittedCount: 3}, "t1: voted (3 votes)"},
		{domain.ToggleState{ResourceID: "t1", CommittedCount: 2, Notice: domain.NoticeConflict}, "t1: not voted (2 votes) [synced with server]"},
		{domain.ToggleState{ResourceID: "t1", Notice: domain.NoticeReauthenticate}, "t1: not voted (0 votes) [sign in again]"},
		{domain.ToggleState{ResourceID: "t1", Notice: domain.NoticeRetryable}, "t1: not voted (0 votes) [failed, try again]"},
	}
	plain := newStyles(&bytes.Buffer{})
	for _, tc := range cases {
		if got := formatToggleHuman(plain, tc.st); got != tc.want {
			t.Errorf("expected %q, got %q", tc.want, got)
		}
	}
}

func TestReadSecret(t *testing.T) {
	if got, _ := readSecret(strings.NewReader("ignored\n"), "flag", "password"); got != "flag" {
		t.Fatalf("flag value must win, got %q", got)
	}
	if got, _ := readSecret(strings.NewReader("s3cret\r\n"), "", "password"); got != "s3cret" {
		t.Fatalf("expected line from stdin, got %q", got)
	}
	if _, err := readSecret(strings.NewReader(""), "", "password"); err == nil {
		t.Fatalf("expected empty input to fail")
	}
}

func TestDedupe(t *testing.T) {
	got := dedupe([]string{"a", "b", "a", "c", "b"})
	if strings.Join(got, ",") != "a,b,c" {
		t.Fatalf("unexpected %v", got)
	}
}
