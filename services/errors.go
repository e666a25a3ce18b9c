package services

import (
	"errors"
	"fmt"

	"github.com/Dosada05/beach-tennis-system/brackets"
	"github.com/Dosada05/beach-tennis-system/repositories"
	"github.com/Dosada05/beach-tennis-system/scoring"
	"github.com/Dosada05/beach-tennis-system/standings"
)

// Errors shared by the services and the HTTP error mapping.
var (
	// umbrella for every missing resource
	ErrNotFound = errors.New("requested resource not found")

	// umbrella for caller mistakes
	ErrValidationFailed = errors.New("validation failed")

	// entities
	ErrTournamentNotFound = fmt.Errorf("tournament not found: %w", ErrNotFound)
	ErrPlayerNotFound     = fmt.Errorf("player not found: %w", ErrNotFound)
	ErrBracketNotFound    = fmt.Errorf("knockout bracket not found: %w", ErrNotFound)
	ErrMatchNotFound      = fmt.Errorf("match not found: %w", ErrNotFound)
	ErrEntryNotFound      = fmt.Errorf("tournament entry not found: %w", ErrNotFound)

	// tournaments, brackets and schedules
	ErrNotMasterTournament    = fmt.Errorf("tournament is a stage, not a master: %w", ErrValidationFailed)
	ErrStageNotInTournament   = fmt.Errorf("stage does not belong to the master tournament: %w", ErrValidationFailed)
	ErrWrongTournamentSystem  = fmt.Errorf("operation is not supported for this tournament system: %w", ErrValidationFailed)
	ErrEntryNotInTournament   = fmt.Errorf("entry does not belong to the tournament: %w", ErrValidationFailed)
	ErrMatchNotInKnockout     = fmt.Errorf("match is not part of a knockout bracket: %w", ErrValidationFailed)
	ErrMatchNotReady          = fmt.Errorf("match has no two teams yet: %w", ErrValidationFailed)
	ErrInvalidStartRating     = fmt.Errorf("start rating must not be negative: %w", ErrValidationFailed)
	ErrKingEntryNotSingle     = fmt.Errorf("king entries must be single players: %w", ErrValidationFailed)
	ErrEntrantsNotUniqueInput = fmt.Errorf("entrant ids must be unique: %w", ErrValidationFailed)
)

// validationErrors are core errors that a caller can fix by changing the request.
var validationErrors = []error{
	ErrValidationFailed,
	brackets.ErrInvalidBracketSize,
	brackets.ErrTooManyEntrants,
	brackets.ErrTooManyByes,
	brackets.ErrInvalidKingParticipants,
	brackets.ErrInvalidKingSchedule,
	brackets.ErrNotEnoughParticipants,
	brackets.ErrInvalidCustomPattern,
	brackets.ErrUnknownPattern,
	brackets.ErrMatchNotInBracket,
	brackets.ErrMatchHasNoWinner,
	brackets.ErrByeMatchReset,
	scoring.ErrCannotDetermineWinner,
	scoring.ErrInvalidSets,
	standings.ErrUnknownCriterion,
	standings.ErrUnknownKingMode,
}

// IsValidation reports whether err is the caller's fault.
func IsValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// handleRepositoryError maps repository errors onto service errors.
func handleRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrPlayerNotFound):
		return ErrPlayerNotFound
	case errors.Is(err, repositories.ErrBracketNotFound):
		return ErrBracketNotFound
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrEntryNotFound):
		return ErrEntryNotFound
	case errors.Is(err, repositories.ErrTeamNotFound):
		return fmt.Errorf("team not found: %w", ErrNotFound)
	case errors.Is(err, repositories.ErrEntryConflict),
		errors.Is(err, repositories.ErrBracketIndexConflict),
		errors.Is(err, repositories.ErrMatchSetConflict),
		errors.Is(err, repositories.ErrDrawPositionInvalid):
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	return err
}
