package brackets

import (
	"context"

	"github.com/Dosada05/beach-tennis-system/models"
)

// GenerateBracketParams is the input of a structural generator. Entries are
// expected in draw order (row index within the group).
type GenerateBracketParams struct {
	Tournament *models.Tournament
	Entries    []*models.TournamentEntry
	GroupIndex *int
}

// BracketMatch is a generated, not yet persisted, match. Sides hold entry ids:
// one per side for team formats, two per side for King rounds.
type BracketMatch struct {
	UID          string
	Round        int
	RoundName    string
	OrderInRound int
	GroupIndex   *int
	IsThirdPlace bool

	Side1 []int
	Side2 []int

	SourceMatch1UID *string
	SourceMatch2UID *string

	IsPlaceholder bool
	IsBye         bool
}

type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error)

	GetName() string
}

func entryIDs(entries []*models.TournamentEntry) []int {
	ids := make([]int, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}
