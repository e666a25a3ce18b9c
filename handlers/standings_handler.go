package handlers

import (
	"net/http"

	"github.com/Dosada05/beach-tennis-system/services"
)

type StandingsHandler struct {
	standingsService services.StandingsService
}

func NewStandingsHandler(ss services.StandingsService) *StandingsHandler {
	return &StandingsHandler{standingsService: ss}
}

func (h *StandingsHandler) groupParams(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return 0, 0, false
	}
	group, err := getIndexFromURL(r, "group")
	if err != nil {
		badRequestResponse(w, r, err)
		return 0, 0, false
	}
	return tournamentID, group, true
}

func (h *StandingsHandler) RankGroup(w http.ResponseWriter, r *http.Request) {
	tournamentID, group, ok := h.groupParams(w, r)
	if !ok {
		return
	}

	ranking, err := h.standingsService.RankGroup(r.Context(), tournamentID, group)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"ranking": ranking})
}

func (h *StandingsHandler) KingGroupRanking(w http.ResponseWriter, r *http.Request) {
	tournamentID, group, ok := h.groupParams(w, r)
	if !ok {
		return
	}

	ranks, err := h.standingsService.ComputeKingGroupRanking(r.Context(), tournamentID, group)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"ranks": ranks})
}

func (h *StandingsHandler) RecomputePlacements(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	placements, err := h.standingsService.RecomputePlacements(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"placements": placements})
}
