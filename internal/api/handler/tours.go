package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trekkers/tour-client/internal/api/metrics"
	"github.com/trekkers/tour-client/internal/api/store"
	"github.com/trekkers/tour-client/internal/core/domain"
)

type TourHandler struct {
	tours   *store.Memory
	metrics *metrics.HTTP
}

func NewTourHandler(tours *store.Memory, m *metrics.HTTP) *TourHandler {
	return &TourHandler{tours: tours, metrics: m}
}

type voteData struct {
	Upvotes    int  `json:"upvotes"`
	HasUpvoted bool `json:"hasUpvoted"`
}

func (h *TourHandler) List(c echo.Context) error {
	return list(c, h.tours.Tours())
}

func (h *TourHandler) BySlug(c echo.Context) error {
	t, err := h.tours.TourBySlug(c.Param("slug"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "There is no tour with that name.")
	}
	return success(c, http.StatusOK, docData[domain.Tour]{Data: t})
}

// Upvote answers 409 when the viewer has already voted.
func (h *TourHandler) Upvote(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	n, err := h.tours.Upvote(c.Param("id"), user.ID)
	h.countVote("upvote", err)
	switch {
	case errors.Is(err, store.ErrAlreadyVoted):
		return echo.NewHTTPError(http.StatusConflict, "You have already upvoted this tour")
	case err != nil:
		return tourError(err)
	}
	return success(c, http.StatusOK, voteData{Upvotes: n, HasUpvoted: true})
}

// Downvote answers 409 when the viewer has not voted.
func (h *TourHandler) Downvote(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	n, err := h.tours.Downvote(c.Param("id"), user.ID)
	h.countVote("downvote", err)
	switch {
	case errors.Is(err, store.ErrNotVoted):
		return echo.NewHTTPError(http.StatusConflict, "You have not upvoted this tour")
	case err != nil:
		return tourError(err)
	}
	return success(c, http.StatusOK, voteData{Upvotes: n, HasUpvoted: false})
}

func (h *TourHandler) UpvoteStatus(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	st, err := h.tours.VoteStatus(c.Param("id"), user.ID)
	if err != nil {
		return tourError(err)
	}
	return success(c, http.StatusOK, voteData{Upvotes: st.Upvotes, HasUpvoted: st.HasUpvoted})
}

func (h *TourHandler) countVote(action string, err error) {
	result := "ok"
	switch {
	case errors.Is(err, store.ErrAlreadyVoted), errors.Is(err, store.ErrNotVoted):
		result = "conflict"
	case errors.Is(err, store.ErrNotFound):
		result = "not_found"
	case err != nil:
		result = "error"
	}
	h.metrics.VotesTotal.WithLabelValues(action, result).Inc()
}

func tourError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "No tour found with that ID")
	}
	return err
}
