package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/trekkers/tour-client/internal/core/domain"
	"github.com/trekkers/tour-client/internal/core/ports"
)

type voteEnvelope struct {
	Status string `json:"status"`
	Data   struct {
		Upvotes    *int  `json:"upvotes"`
		HasUpvoted *bool `json:"hasUpvoted"`
	} `json:"data"`
}

type tourListEnvelope struct {
	Status  string `json:"status"`
	Results int    `json:"results"`
	Data    struct {
		Data []domain.Tour `json:"data"`
	} `json:"data"`
}

type tourEnvelope struct {
	Status string `json:"status"`
	Data   struct {
		Data *domain.Tour `json:"data"`
	} `json:"data"`
}

// ToursAPI implements ports.VoteAPI and ports.TourCatalog over the gateway.
type ToursAPI struct {
	gw *Gateway
}

func NewToursAPI(gw *Gateway) *ToursAPI {
	return &ToursAPI{gw: gw}
}

var (
	_ ports.VoteAPI     = (*ToursAPI)(nil)
	_ ports.TourCatalog = (*ToursAPI)(nil)
)

func (a *ToursAPI) Upvote(ctx context.Context, tourID string) (domain.VoteResult, error) {
	return a.vote(ctx, tourID, "upvote")
}

func (a *ToursAPI) Downvote(ctx context.Context, tourID string) (domain.VoteResult, error) {
	return a.vote(ctx, tourID, "downvote")
}

func (a *ToursAPI) UpvoteStatus(ctx context.Context, tourID string) (domain.VoteStatus, error) {
	var env voteEnvelope
	if err := a.gw.Do(ctx, http.MethodGet, "/tours/"+url.PathEscape(tourID)+"/upvote-status", nil, &env); err != nil {
		return domain.VoteStatus{}, err
	}
	if env.Data.Upvotes == nil || env.Data.HasUpvoted == nil {
		return domain.VoteStatus{}, domain.NewFailure(domain.ServerFailure, http.StatusOK, "incomplete vote status")
	}
	return domain.VoteStatus{HasUpvoted: *env.Data.HasUpvoted, Upvotes: *env.Data.Upvotes}, nil
}

func (a *ToursAPI) List(ctx context.Context) ([]domain.Tour, error) {
	var env tourListEnvelope
	if err := a.gw.Do(ctx, http.MethodGet, "/tours", nil, &env); err != nil {
		return nil, err
	}
	return env.Data.Data, nil
}

func (a *ToursAPI) BySlug(ctx context.Context, slug string) (domain.Tour, error) {
	var env tourEnvelope
	if err := a.gw.Do(ctx, http.MethodGet, "/tours/slug/"+url.PathEscape(slug), nil, &env); err != nil {
		return domain.Tour{}, err
	}
	if env.Data.Data == nil {
		return domain.Tour{}, domain.NewFailure(domain.ServerFailure, http.StatusOK, "response missing tour")
	}
	return *env.Data.Data, nil
}

func (a *ToursAPI) vote(ctx context.Context, tourID, action string) (domain.VoteResult, error) {
	var env voteEnvelope
	if err := a.gw.Do(ctx, http.MethodPatch, "/tours/"+url.PathEscape(tourID)+"/"+action, nil, &env); err != nil {
		return domain.VoteResult{}, err
	}
	return domain.VoteResult{Upvotes: env.Data.Upvotes, HasUpvoted: env.Data.HasUpvoted}, nil
}
