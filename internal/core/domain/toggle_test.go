package domain

import "testing"

func TestToggleState_Project(t *testing.T) {
	off := ToggleState{ResourceID: "t1", CommittedCount: 4, LocalError: NetworkFailure, Notice: NoticeRetryable}
	on := off.Project()
	if !on.CommittedFlag || on.CommittedCount != 5 || !on.Pending {
		t.Fatalf("unexpected projection: %+v", on)
	}
	if on.LocalError != "" || on.Notice != NoticeNone {
		t.Fatalf("projection must clear errors: %+v", on)
	}

	back := ToggleState{ResourceID: "t1", CommittedFlag: true}.Project()
	if back.CommittedFlag || back.CommittedCount != 0 {
		t.Fatalf("expected count clamped at zero, got %+v", back)
	}
}

func TestToggleState_RolledBack(t *testing.T) {
	before := ToggleState{ResourceID: "t1", CommittedCount: 4}
	got := before.Project().RolledBack(before, AuthFailure, NoticeReauthenticate)
	want := ToggleState{ResourceID: "t1", CommittedCount: 4, LocalError: AuthFailure, Notice: NoticeReauthenticate}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestToggleState_Adopt(t *testing.T) {
	got := ToggleState{ResourceID: "t1", CommittedCount: 4}.Project().Adopt(VoteStatus{HasUpvoted: true, Upvotes: 9})
	if !got.CommittedFlag || got.CommittedCount != 9 || got.Pending {
		t.Fatalf("unexpected adopted state: %+v", got)
	}
}
