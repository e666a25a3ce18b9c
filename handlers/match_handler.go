package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Dosada05/beach-tennis-system/models"
	"github.com/Dosada05/beach-tennis-system/repositories"
	"github.com/Dosada05/beach-tennis-system/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: ms}
}

type recordResultInput struct {
	Sets []models.MatchSet `json:"sets"`
}

// RecordResult сохраняет счет по сетам. Пустой список сбрасывает результат.
func (h *MatchHandler) RecordResult(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input recordResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.RecordResult(r.Context(), matchID, input.Sets)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"match": match})
}

func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.GetMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"match": match})
}

// ListMatches поддерживает фильтры ?stage=group|playoff&group=N&bracket=N.
func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	filter, err := matchFilterFromQuery(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.matchService.ListMatches(r.Context(), tournamentID, filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"matches": matches})
}

func matchFilterFromQuery(r *http.Request) (repositories.MatchFilter, error) {
	var filter repositories.MatchFilter
	q := r.URL.Query()

	switch stage := models.MatchStage(q.Get("stage")); stage {
	case "":
	case models.StageGroup, models.StagePlayoff:
		filter.Stage = &stage
	default:
		return filter, fmt.Errorf("unknown stage %q", stage)
	}

	intParam := func(name string) (*int, error) {
		raw := q.Get(name)
		if raw == "" {
			return nil, nil
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("invalid %s: %q", name, raw)
		}
		return &v, nil
	}
	var err error
	if filter.GroupIndex, err = intParam("group"); err != nil {
		return filter, err
	}
	if filter.BracketID, err = intParam("bracket"); err != nil {
		return filter, err
	}
	return filter, nil
}
