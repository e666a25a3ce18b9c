package handlers

import (
	"net/http"

	"github.com/Dosada05/beach-tennis-system/brackets"
	"github.com/Dosada05/beach-tennis-system/models"
	"github.com/Dosada05/beach-tennis-system/services"
)

// ScheduleHandler обслуживает расписания King и круговой системы.
type ScheduleHandler struct {
	kingService       services.KingService
	roundRobinService services.RoundRobinService
}

func NewScheduleHandler(ks services.KingService, rrs services.RoundRobinService) *ScheduleHandler {
	return &ScheduleHandler{kingService: ks, roundRobinService: rrs}
}

func (h *ScheduleHandler) GetKingSchedule(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	groups, err := h.kingService.GenerateKingSchedule(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"groups": groups})
}

type persistKingInput struct {
	Groups []services.KingGroupSchedule `json:"groups"`
}

// PersistKingMatches сохраняет матчи King. Без тела используется сгенерированное расписание.
func (h *ScheduleHandler) PersistKingMatches(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input persistKingInput
	if err := readOptionalJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	created, err := h.kingService.PersistKingMatches(r.Context(), tournamentID, input.Groups)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"created": created})
}

type roundRobinScheduleInput struct {
	EntrantIDs []int                    `json:"entrant_ids"`
	Pattern    models.RoundRobinPattern `json:"pattern"`
	Custom     *brackets.CustomPattern  `json:"custom,omitempty"`
}

// PreviewRoundRobinSchedule строит расписание без сохранения.
func (h *ScheduleHandler) PreviewRoundRobinSchedule(w http.ResponseWriter, r *http.Request) {
	var input roundRobinScheduleInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Pattern == "" {
		input.Pattern = models.PatternBerger
	}

	rounds, err := h.roundRobinService.GenerateRoundRobinSchedule(input.EntrantIDs, input.Pattern, input.Custom)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"rounds": rounds})
}

func (h *ScheduleHandler) GenerateRoundRobinMatches(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	created, err := h.roundRobinService.GenerateRoundRobinMatches(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"created": created})
}
