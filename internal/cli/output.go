package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/trekkers/tour-client/internal/core/domain"
)

// printer writes command results either as text or, with --json, as one
// indented JSON document.
type printer struct {
	w     io.Writer
	json  bool
	style styles
}

func newPrinter(w io.Writer, jsonOutput bool) printer {
	return printer{w: w, json: jsonOutput, style: newStyles(w)}
}

// styles colour human output. The renderer probes w, so output that is not
// a terminal stays plain.
type styles struct {
	header lipgloss.Style
	voted  lipgloss.Style
	notice lipgloss.Style
	failed lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		header: r.NewStyle().Bold(true),
		voted:  r.NewStyle().Foreground(lipgloss.Color("#22C55E")),
		notice: r.NewStyle().Foreground(lipgloss.Color("#06B6D4")),
		failed: r.NewStyle().Foreground(lipgloss.Color("#F87171")),
	}
}

func (p printer) emit(v any, human string) error {
	if p.json {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		_, err = fmt.Fprintln(p.w, string(data))
		return err
	}
	_, err := fmt.Fprintln(p.w, human)
	return err
}

// sessionView is the JSON shape of a session.
type sessionView struct {
	Status domain.SessionStatus `json:"status"`
	User   *domain.UserProfile  `json:"user,omitempty"`
	Error  string               `json:"error,omitempty"`
}

func viewSession(s domain.Session) sessionView {
	v := sessionView{Status: s.Status()}
	switch cur := s.(type) {
	case domain.Authenticated:
		u := cur.User()
		v.User = &u
	case domain.Errored:
		v.Error = cur.Message
		v.User = cur.Prior.User
	}
	return v
}

func formatSessionHuman(st styles, s domain.Session) string {
	switch cur := s.(type) {
	case domain.Authenticated:
		return formatUserHuman(cur.User())
	case domain.Errored:
		return st.failed.Render(fmt.Sprintf("Last %s failed: %s", cur.Op, cur.Message))
	default:
		return "Not signed in."
	}
}

func formatUserHuman(u domain.UserProfile) string {
	return fmt.Sprintf(`Signed in as %s <%s>
ID:    %s
Role:  %s`, u.Name, u.Email, u.ID, u.Role)
}

func formatToursHuman(st styles, tours []domain.Tour) string {
	if len(tours) == 0 {
		return "No tours."
	}
	var b strings.Builder
	b.WriteString(st.header.Render(fmt.Sprintf("%-26s %-24s %8s %7s", "ID", "NAME", "PRICE", "VOTES")))
	b.WriteString("\n")
	for _, t := range tours {
		fmt.Fprintf(&b, "%-26s %-24s %8.0f %7d\n", t.ID, t.Name, t.Price, t.Upvotes)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatToggleHuman(sty styles, st domain.ToggleState) string {
	mark := "not voted"
	if st.CommittedFlag {
		mark = sty.voted.Render("voted")
	}
	line := fmt.Sprintf("%s: %s (%d votes)", st.ResourceID, mark, st.CommittedCount)
	switch st.Notice {
	case domain.NoticeConflict:
		line += " " + sty.notice.Render("[synced with server]")
	case domain.NoticeReauthenticate:
		line += " " + sty.failed.Render("[sign in again]")
	case domain.NoticeRetryable:
		line += " " + sty.failed.Render("[failed, try again]")
	case domain.NoticeNotAuthenticated:
		line += " " + sty.failed.Render("[sign in to vote]")
	}
	return line
}
