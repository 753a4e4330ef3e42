package ports

import (
	"context"

	"github.com/trekkers/tour-client/internal/core/domain"
)

// SessionReader is the read side of the session lifecycle. Components that
// act on behalf of the viewer read identity through it and never own it.
type SessionReader interface {
	Current() domain.Session
	Viewer() domain.Viewer
	OnChange(fn func(domain.Session)) (unsubscribe func())
}

// AuthFailureHandler is told about every 401, together with the credential
// that was attached when the request was sent.
type AuthFailureHandler interface {
	HandleAuthFailure(token domain.Credential)
}

// ToggleMutator splits a toggle into its optimistic step and its network
// step so the two can run on different goroutines.
type ToggleMutator interface {
	Begin(resourceID string) (domain.ToggleState, *domain.PendingToggle, error)
	Complete(ctx context.Context, p *domain.PendingToggle) (domain.ToggleState, error)
}
