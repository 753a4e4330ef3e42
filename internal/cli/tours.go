package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trekkers/tour-client/internal/core/domain"
	"github.com/trekkers/tour-client/internal/infrastructure/queue"
	"github.com/trekkers/tour-client/pkg/logger"
)

func newToursCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tours",
		Short: "List tours with their vote counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withApp(cmd, false, func(ctx context.Context, a *app, p printer) error {
				tours, err := a.tours.List(ctx)
				if err != nil {
					return err
				}
				return p.emit(tours, formatToursHuman(p.style, tours))
			})
		},
	}
}

func newVoteCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "vote <tour-id>...",
		Short: "Flip your vote on one or more tours",
		Long: `Flip your vote on each tour given. Tours are sent in parallel, and the
final state of each is printed once the service has answered.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withApp(cmd, true, func(ctx context.Context, a *app, p printer) error {
				ids := dedupe(args)
				if err := a.seedCounts(ctx); err != nil {
					return err
				}
				a.seedVotes(ctx, ids)
				states, err := a.voteAll(ctx, ids)
				if emitErr := p.emit(states, formatTogglesHuman(p.style, states)); emitErr != nil {
					return emitErr
				}
				return err
			})
		},
	}
}

func newVoteStatusCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "vote-status <tour-id>",
		Short: "Show whether you have voted on a tour",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withApp(cmd, true, func(ctx context.Context, a *app, p printer) error {
				st, err := a.toggles.Refresh(ctx, args[0])
				if err != nil {
					return err
				}
				return p.emit(st, formatToggleHuman(p.style, st))
			})
		},
	}
}

// seedCounts loads the listed vote counts so optimistic flips start from
// the service's numbers.
func (a *app) seedCounts(ctx context.Context) error {
	tours, err := a.tours.List(ctx)
	if err != nil {
		return fmt.Errorf("load tours: %w", err)
	}
	for _, t := range tours {
		a.toggles.Track(t.ID, t.Upvotes)
	}
	return nil
}

// seedVotes loads the viewer's own vote on each id, since a listing carries
// only the counts. A failed lookup leaves the listed state in place and the
// flip reconciles through the conflict path.
func (a *app) seedVotes(ctx context.Context, ids []string) {
	if a.session.Viewer().Anonymous() {
		return
	}
	for _, id := range ids {
		if _, err := a.toggles.Refresh(ctx, id); err != nil {
			a.log.Debug().Err(err).Str("tour_id", id).Msg("vote status lookup failed")
		}
	}
}

// voteAll flips every id through the dispatcher and waits for each result.
// States come back in the order of ids.
func (a *app) voteAll(ctx context.Context, ids []string) ([]domain.ToggleState, error) {
	results := make(chan queue.Result, len(ids))
	d := queue.NewDispatcher(a.cfg.Toggle.Workers, a.toggles, results, logger.Component("queue"))
	d.Start(ctx)

	byID := make(map[string]domain.ToggleState, len(ids))
	var errs []error
	queued := 0
	for _, id := range ids {
		st, err := d.Enqueue(id)
		byID[id] = st
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
			continue
		}
		if st.Pending {
			queued++
		}
	}
	for ; queued > 0; queued-- {
		select {
		case r := <-results:
			byID[r.State.ResourceID] = r.State
			if r.Err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", r.State.ResourceID, r.Err))
			}
		case <-ctx.Done():
			d.Close()
			return nil, ctx.Err()
		}
	}
	d.Close()

	states := make([]domain.ToggleState, 0, len(ids))
	for _, id := range ids {
		states = append(states, byID[id])
	}
	return states, errors.Join(errs...)
}

func formatTogglesHuman(sty styles, states []domain.ToggleState) string {
	lines := make([]string, 0, len(states))
	for _, st := range states {
		lines = append(lines, formatToggleHuman(sty, st))
	}
	return strings.Join(lines, "\n")
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
