package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/beach-tennis-system/services"
)

type RatingHandler struct {
	ratingService services.RatingService
}

func NewRatingHandler(rs services.RatingService) *RatingHandler {
	return &RatingHandler{ratingService: rs}
}

// RecomputeRatings пересчитывает рейтинги по всем (или отфильтрованным) турнирам.
func (h *RatingHandler) RecomputeRatings(w http.ResponseWriter, r *http.Request) {
	var opts services.RecomputeOptions
	if err := readOptionalJSON(w, r, &opts); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if opts.FromDate != nil && opts.ToDate != nil && opts.ToDate.Before(*opts.FromDate) {
		badRequestResponse(w, r, errors.New("to_date must not be before from_date"))
		return
	}

	report, err := h.ratingService.RecomputeRatings(r.Context(), opts)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"report": report})
}

func (h *RatingHandler) ComputeTournamentRatings(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	report, err := h.ratingService.ComputeRatingsForTournament(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"report": report})
}

type stageRatingsInput struct {
	StageIDs []int `json:"stage_ids"`
}

func (h *RatingHandler) ComputeStageRatings(w http.ResponseWriter, r *http.Request) {
	masterID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input stageRatingsInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if len(input.StageIDs) == 0 {
		badRequestResponse(w, r, errors.New("stage_ids must not be empty"))
		return
	}

	report, err := h.ratingService.ComputeRatingsForMultiStageTournament(r.Context(), masterID, input.StageIDs)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"report": report})
}

func (h *RatingHandler) ListDynamics(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	dynamics, err := h.ratingService.ListDynamics(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"dynamics": dynamics})
}
