package ports

import (
	"context"

	"github.com/trekkers/tour-client/internal/core/domain"
)

// VoteAPI is the vote surface of the tour service. Every error is a
// *domain.Failure.
type VoteAPI interface {
	Upvote(ctx context.Context, tourID string) (domain.VoteResult, error)
	Downvote(ctx context.Context, tourID string) (domain.VoteResult, error)
	UpvoteStatus(ctx context.Context, tourID string) (domain.VoteStatus, error)
}

// TourCatalog is the read-only listing surface.
type TourCatalog interface {
	List(ctx context.Context) ([]domain.Tour, error)
	BySlug(ctx context.Context, slug string) (domain.Tour, error)
}
