package models

import "time"

type TournamentSystem string

const (
	SystemRoundRobin TournamentSystem = "round_robin"
	SystemKnockout   TournamentSystem = "knockout"
	SystemKing       TournamentSystem = "king"
)

type ParticipantMode string

const (
	ModeSingles ParticipantMode = "singles"
	ModeDoubles ParticipantMode = "doubles"
)

// KingCalculationMode selects how unequal round counts are handled in King standings.
type KingCalculationMode string

const (
	KingModeNo     KingCalculationMode = "no"
	KingModeGMinus KingCalculationMode = "g_minus"
	KingModeMPlus  KingCalculationMode = "m_plus"
)

func (m KingCalculationMode) Valid() bool {
	switch m {
	case KingModeNo, KingModeGMinus, KingModeMPlus:
		return true
	}
	return false
}

type RoundRobinPattern string

const (
	PatternBerger RoundRobinPattern = "berger"
	PatternSnake  RoundRobinPattern = "snake"
	PatternCustom RoundRobinPattern = "custom"
)

type TournamentStatus string

const (
	TournamentCreated   TournamentStatus = "created"
	TournamentActive    TournamentStatus = "active"
	TournamentCompleted TournamentStatus = "completed"
)

// MatchFormat describes how sets of a match are played.
type MatchFormat struct {
	GamesTo              int  `json:"games_to"`
	MaxSets              int  `json:"max_sets"`
	AllowTiebreakOnlySet bool `json:"allow_tiebreak_only_set"`
	FreeFormat           bool `json:"free_format"`
}

// IsOnlyTiebreak reports the format where a match is a single tiebreak and
// the games fields of its set hold the raw tiebreak points.
func (f MatchFormat) IsOnlyTiebreak() bool {
	return f.GamesTo == 0 && f.MaxSets == 1 && f.AllowTiebreakOnlySet
}

// Tournament is a tournament or a stage of a multi-stage tournament.
type Tournament struct {
	ID                      int                 `json:"id"`
	Name                    string              `json:"name"`
	Date                    time.Time           `json:"date"`
	System                  TournamentSystem    `json:"system"`
	ParticipantMode         ParticipantMode     `json:"participant_mode"`
	GroupsCount             int                 `json:"groups_count"`
	PlannedParticipantCount int                 `json:"planned_participant_count"`
	RatingCoefficient       float64             `json:"rating_coefficient"`
	KingCalculationMode     KingCalculationMode `json:"king_calculation_mode"`
	ParentID                *int                `json:"parent_id,omitempty"`
	StageOrder              int                 `json:"stage_order"`
	Status                  TournamentStatus    `json:"status"`
	Format                  MatchFormat         `json:"format"`
	Ruleset                 []string            `json:"ruleset,omitempty"`
	RoundRobinPattern       RoundRobinPattern   `json:"round_robin_pattern"`
	CustomPatternJSON       *string             `json:"-"`
	KingScheduleJSON        *string             `json:"-"`
	CreatedAt               time.Time           `json:"created_at"`

	Stages []*Tournament `json:"stages,omitempty"`
}

// IsMaster reports whether the tournament is a root of a stage tree.
func (t *Tournament) IsMaster() bool {
	return t.ParentID == nil
}
