package domain

// Viewer identifies who a ToggleState belongs to. Epoch changes whenever the
// signed-in identity changes, so two sign-ins of the same user are distinct.
type Viewer struct {
	UserID string
	Epoch  uint64
}

func (v Viewer) Anonymous() bool { return v.UserID == "" }

// Notice is the transient message a toggle outcome asks the UI to show.
type Notice string

const (
	NoticeNone             Notice = ""
	NoticeConflict         Notice = "conflict"
	NoticeReauthenticate   Notice = "reauthenticate"
	NoticeRetryable        Notice = "retryable"
	NoticeNotAuthenticated Notice = "not_authenticated"
)

// ToggleState is the per-(resource, viewer) vote state. While Pending is
// true CommittedFlag/CommittedCount hold the optimistic projection.
type ToggleState struct {
	ResourceID     string    `json:"resourceId"`
	CommittedFlag  bool      `json:"committedFlag"`
	CommittedCount int       `json:"committedCount"`
	Pending        bool      `json:"pending"`
	LocalError     ErrorKind `json:"localError,omitempty"`
	Notice         Notice    `json:"notice,omitempty"`
}

// Project returns the optimistic state for flipping s.
func (s ToggleState) Project() ToggleState {
	next := s
	next.CommittedFlag = !s.CommittedFlag
	if next.CommittedFlag {
		next.CommittedCount = s.CommittedCount + 1
	} else {
		next.CommittedCount = clampCount(s.CommittedCount - 1)
	}
	next.Pending = true
	next.LocalError = ""
	next.Notice = NoticeNone
	return next
}

// RolledBack restores the committed values of before and settles s.
func (s ToggleState) RolledBack(before ToggleState, kind ErrorKind, notice Notice) ToggleState {
	s.CommittedFlag = before.CommittedFlag
	s.CommittedCount = before.CommittedCount
	s.Pending = false
	s.LocalError = kind
	s.Notice = notice
	return s
}

// Adopt overwrites s with the server's status and settles it.
func (s ToggleState) Adopt(status VoteStatus) ToggleState {
	s.CommittedFlag = status.HasUpvoted
	s.CommittedCount = clampCount(status.Upvotes)
	s.Pending = false
	return s
}

func clampCount(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// VoteResult is the body of a vote-on/vote-off response. Either field may
// be absent.
type VoteResult struct {
	Upvotes    *int  `json:"upvotes,omitempty"`
	HasUpvoted *bool `json:"hasUpvoted,omitempty"`
}

// VoteStatus is the authoritative per-viewer vote status of a resource.
type VoteStatus struct {
	HasUpvoted bool `json:"hasUpvoted"`
	Upvotes    int  `json:"upvotes"`
}

// PendingToggle is an optimistic flip that has been applied locally and is
// waiting for its network call.
type PendingToggle struct {
	ResourceID string
	Viewer     Viewer
	Before     ToggleState
	// Target is the flag the mutation asks the server for.
	Target bool
}
