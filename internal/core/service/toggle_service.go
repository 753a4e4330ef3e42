package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/trekkers/tour-client/internal/core/domain"
	"github.com/trekkers/tour-client/internal/core/ports"
	"github.com/trekkers/tour-client/internal/pkg/metrics"
	"github.com/trekkers/tour-client/internal/pkg/notify"
)

// fetchTimeout bounds a shared status request.
const fetchTimeout = 15 * time.Second

// ToggleService keeps per-resource vote state for the current viewer and
// reconciles optimistic flips with the server.
type ToggleService struct {
	votes   ports.VoteAPI
	session ports.SessionReader
	log     zerolog.Logger
	group   singleflight.Group

	mu     sync.Mutex
	viewer domain.Viewer
	states map[string]domain.ToggleState
	subs   notify.Notifier[domain.ToggleState]

	unsubscribe func()
}

var _ ports.ToggleMutator = (*ToggleService)(nil)

func NewToggleService(votes ports.VoteAPI, session ports.SessionReader, log zerolog.Logger) *ToggleService {
	t := &ToggleService{
		votes:   votes,
		session: session,
		log:     log,
		viewer:  session.Viewer(),
		states:  make(map[string]domain.ToggleState),
	}
	t.unsubscribe = session.OnChange(func(domain.Session) {
		v := session.Viewer()
		t.mu.Lock()
		t.syncViewerLocked(v)
		t.mu.Unlock()
	})
	return t
}

// Close detaches the service from the session.
func (t *ToggleService) Close() {
	if t.unsubscribe != nil {
		t.unsubscribe()
	}
}

func (t *ToggleService) OnChange(fn func(domain.ToggleState)) func() {
	return t.subs.Subscribe(fn)
}

// Snapshot returns the state held for resourceID.
func (t *ToggleService) Snapshot(resourceID string) (domain.ToggleState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.states[resourceID]
	return st, ok
}

// Track seeds the state for resourceID from a listing. Existing state wins.
func (t *ToggleService) Track(resourceID string, count int) domain.ToggleState {
	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok := t.states[resourceID]; ok {
		return st
	}
	if count < 0 {
		count = 0
	}
	st := domain.ToggleState{ResourceID: resourceID, CommittedCount: count}
	t.states[resourceID] = st
	return st
}

// Forget drops the state for resourceID. A toggle still in flight for it
// settles without effect.
func (t *ToggleService) Forget(resourceID string) {
	t.mu.Lock()
	delete(t.states, resourceID)
	t.mu.Unlock()
}

// Toggle flips the viewer's vote on resourceID and waits for the server.
func (t *ToggleService) Toggle(ctx context.Context, resourceID string) (domain.ToggleState, error) {
	st, p, err := t.Begin(resourceID)
	if err != nil || p == nil {
		return st, err
	}
	return t.Complete(ctx, p)
}

// Begin applies the optimistic flip and publishes it. A nil PendingToggle
// with a nil error means the call was ignored because a flip is already in
// flight.
func (t *ToggleService) Begin(resourceID string) (domain.ToggleState, *domain.PendingToggle, error) {
	viewer := t.session.Viewer()

	t.mu.Lock()
	viewer = t.syncViewerLocked(viewer)
	st, ok := t.states[resourceID]
	if !ok {
		st = domain.ToggleState{ResourceID: resourceID}
	}

	if viewer.Anonymous() {
		t.mu.Unlock()
		metrics.ToggleResultsTotal.WithLabelValues("not_authenticated").Inc()
		st.LocalError = domain.NotAuthenticated
		st.Notice = domain.NoticeNotAuthenticated
		return st, nil, &domain.Failure{Kind: domain.NotAuthenticated, Message: "sign in to vote", Err: domain.ErrNotAuthenticated}
	}
	if st.Pending {
		t.mu.Unlock()
		metrics.ToggleResultsTotal.WithLabelValues("ignored").Inc()
		return st, nil, nil
	}

	next := st.Project()
	t.states[resourceID] = next
	ticket := t.subs.Reserve()
	t.mu.Unlock()
	t.subs.Deliver(ticket, next)

	return next, &domain.PendingToggle{
		ResourceID: resourceID,
		Viewer:     viewer,
		Before:     st,
		Target:     next.CommittedFlag,
	}, nil
}

// Complete sends the mutation for p and reconciles the outcome.
func (t *ToggleService) Complete(ctx context.Context, p *domain.PendingToggle) (domain.ToggleState, error) {
	var (
		res domain.VoteResult
		err error
	)
	if p.Target {
		res, err = t.votes.Upvote(ctx, p.ResourceID)
	} else {
		res, err = t.votes.Downvote(ctx, p.ResourceID)
	}

	if err == nil {
		return t.settle(p, nil, "ok", func(st domain.ToggleState) domain.ToggleState {
			if res.Upvotes != nil {
				st.CommittedCount = max(*res.Upvotes, 0)
			}
			if res.HasUpvoted != nil {
				st.CommittedFlag = *res.HasUpvoted
			}
			st.Pending = false
			return st
		})
	}

	kind, ok := domain.KindOf(err)
	if !ok {
		kind = domain.ServerFailure
	}

	switch kind {
	case domain.ConflictFailure:
		// The server disagrees with the flip; only its status is trusted.
		status, ferr := t.fetch(ctx, p.ResourceID, p.Viewer)
		if ferr != nil {
			t.log.Warn().Err(ferr).Str("tour_id", p.ResourceID).Msg("status refetch after conflict failed")
			fkind, ok := domain.KindOf(ferr)
			if !ok {
				fkind = domain.ServerFailure
			}
			return t.rollback(p, fkind, noticeFor(fkind), ferr)
		}
		return t.settle(p, nil, "conflict", func(st domain.ToggleState) domain.ToggleState {
			st = st.Adopt(status)
			st.LocalError = ""
			st.Notice = domain.NoticeConflict
			return st
		})
	default:
		return t.rollback(p, kind, noticeFor(kind), err)
	}
}

// Refresh replaces the state for resourceID with the server's status.
// Concurrent refreshes of one key share a single request.
func (t *ToggleService) Refresh(ctx context.Context, resourceID string) (domain.ToggleState, error) {
	viewer := t.session.Viewer()
	if viewer.Anonymous() {
		st, _ := t.Snapshot(resourceID)
		st.ResourceID = resourceID
		return st, &domain.Failure{Kind: domain.NotAuthenticated, Message: "sign in to see vote status", Err: domain.ErrNotAuthenticated}
	}

	status, err := t.fetch(ctx, resourceID, viewer)
	if err != nil {
		st, _ := t.Snapshot(resourceID)
		st.ResourceID = resourceID
		return st, fmt.Errorf("refresh %s: %w", resourceID, err)
	}

	t.mu.Lock()
	t.syncViewerLocked(t.session.Viewer())
	if t.viewer != viewer {
		t.mu.Unlock()
		return domain.ToggleState{ResourceID: resourceID}, domain.ErrStale
	}
	st, ok := t.states[resourceID]
	if !ok {
		st = domain.ToggleState{ResourceID: resourceID}
	}
	if st.Pending {
		// The in-flight flip reconciles itself.
		t.mu.Unlock()
		return st, nil
	}
	st = st.Adopt(status)
	t.states[resourceID] = st
	ticket := t.subs.Reserve()
	t.mu.Unlock()
	t.subs.Deliver(ticket, st)
	return st, nil
}

func (t *ToggleService) fetch(ctx context.Context, resourceID string, viewer domain.Viewer) (domain.VoteStatus, error) {
	key := resourceID + "@" + strconv.FormatUint(viewer.Epoch, 10)
	// The flight is shared, so one caller giving up must not fail the rest.
	shared := context.WithoutCancel(ctx)
	v, err, _ := t.group.Do(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(shared, fetchTimeout)
		defer cancel()
		return t.votes.UpvoteStatus(fctx, resourceID)
	})
	if err != nil {
		return domain.VoteStatus{}, err
	}
	return v.(domain.VoteStatus), nil
}

func (t *ToggleService) rollback(p *domain.PendingToggle, kind domain.ErrorKind, notice domain.Notice, cause error) (domain.ToggleState, error) {
	st, err := t.settle(p, cause, "rollback", func(st domain.ToggleState) domain.ToggleState {
		return st.RolledBack(p.Before, kind, notice)
	})
	if errors.Is(err, domain.ErrStale) {
		return p.Before.RolledBack(p.Before, kind, notice), err
	}
	return st, err
}

// settle applies fn to the pending state of p, provided the state still
// belongs to the viewer that started it. Otherwise the result is dropped
// and domain.ErrStale is returned alongside cause.
func (t *ToggleService) settle(p *domain.PendingToggle, cause error, result string, fn func(domain.ToggleState) domain.ToggleState) (domain.ToggleState, error) {
	viewer := t.session.Viewer()

	t.mu.Lock()
	t.syncViewerLocked(viewer)
	st, ok := t.states[p.ResourceID]
	if t.viewer != p.Viewer || !ok || !st.Pending {
		t.mu.Unlock()
		metrics.ToggleResultsTotal.WithLabelValues("stale").Inc()
		t.log.Debug().Str("tour_id", p.ResourceID).Msg("discarding stale toggle result")
		if cause != nil {
			return p.Before, fmt.Errorf("%w: %w", domain.ErrStale, cause)
		}
		return p.Before, domain.ErrStale
	}
	next := fn(st)
	t.states[p.ResourceID] = next
	ticket := t.subs.Reserve()
	t.mu.Unlock()
	t.subs.Deliver(ticket, next)

	metrics.ToggleResultsTotal.WithLabelValues(result).Inc()
	if cause != nil {
		return next, fmt.Errorf("toggle %s: %w", p.ResourceID, cause)
	}
	return next, nil
}

// syncViewerLocked discards every state when the viewer moved on and
// returns the viewer now in effect. Epochs only grow, so a late reader
// holding an older viewer cannot roll the service back.
func (t *ToggleService) syncViewerLocked(v domain.Viewer) domain.Viewer {
	if v == t.viewer || v.Epoch < t.viewer.Epoch {
		return t.viewer
	}
	t.viewer = v
	clear(t.states)
	return t.viewer
}

func noticeFor(kind domain.ErrorKind) domain.Notice {
	if kind == domain.AuthFailure {
		return domain.NoticeReauthenticate
	}
	return domain.NoticeRetryable
}
