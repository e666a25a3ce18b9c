package rating

import (
	"fmt"
	"sort"
	"time"

	"github.com/Dosada05/beach-tennis-system/models"
	"github.com/Dosada05/beach-tennis-system/scoring"
)

// Phase is the state of one event recompute.
type Phase int

const (
	PhasePending Phase = iota
	PhaseCollectingPlayers
	PhaseAccumulating
	PhaseApply
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "PENDING"
	case PhaseCollectingPlayers:
		return "COLLECTING_PLAYERS"
	case PhaseAccumulating:
		return "PER_MATCH_ACCUMULATION"
	case PhaseApply:
		return "APPLY"
	case PhaseDone:
		return "DONE"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Reasons stored on history rows.
const (
	ReasonMatch            = "match"
	ReasonOutOfCompetition = "out_of_competition"
	ReasonNoWinner         = "undetermined_winner"
	ReasonMalformed        = "malformed_match"
)

// WarningKind classifies data problems that do not stop a recompute.
type WarningKind string

const (
	WarningNoSets    WarningKind = "no_sets"
	WarningNoWinner  WarningKind = "undetermined_winner"
	WarningMalformed WarningKind = "malformed_match"
)

type Warning struct {
	Kind         WarningKind `json:"kind"`
	TournamentID int         `json:"tournament_id"`
	MatchID      int         `json:"match_id"`
	Detail       string      `json:"detail"`
}

// Side is one team of a match as the engine needs it.
type Side struct {
	TeamID           int
	PlayerIDs        []int
	OutOfCompetition bool
}

// MatchInput is one match of a stage.
type MatchInput struct {
	MatchID      int
	TournamentID int
	StageOrder   int
	Stage        models.MatchStage
	Round        int
	Order        int
	Side1        *Side
	Side2        *Side
	WinnerTeamID *int
	Sets         []models.MatchSet
	Format       models.MatchFormat
}

// PlayerInfo is what the start-rating policy may use.
type PlayerInfo struct {
	ID  int
	BTR *int
}

// Event is a master tournament with all its stages' matches. Dynamics are
// attributed to TournamentID, history rows to each match's own tournament.
type Event struct {
	TournamentID int
	Name         string
	Date         time.Time
	Coefficient  float64
	Participants int
	Matches      []MatchInput
}

type EventResult struct {
	TournamentID int
	Coefficient  float64
	Dynamics     []models.PlayerRatingDynamic
	History      []models.PlayerRatingHistory
	Warnings     []Warning
	Ledger       Ledger
}

// Ratings returns the final rating of every player of the event.
func (r *EventResult) Ratings() map[int]int {
	out := make(map[int]int, len(r.Dynamics))
	for _, d := range r.Dynamics {
		out[d.PlayerID] = d.RatingAfter
	}
	return out
}

type Options struct {
	KFactor  float64
	Modifier FormatModifier
	Start    StartPolicy
}

// Engine is a pure replay of match history. It holds no state between calls.
type Engine struct {
	opts Options
}

func NewEngine(opts Options) *Engine {
	if opts.KFactor <= 0 {
		opts.KFactor = DefaultKFactor
	}
	if opts.Modifier == nil {
		opts.Modifier = SetsAndMarginModifier{}
	}
	if opts.Start.Default <= 0 {
		opts.Start.Default = DefaultStartRating
	}
	return &Engine{opts: opts}
}

// SortEvents orders events chronologically, then by name and id.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.TournamentID < b.TournamentID
	})
}

// Replay computes events in order, feeding each event's ledger into the next.
func (e *Engine) Replay(ledger Ledger, players map[int]PlayerInfo, events []Event) ([]*EventResult, Ledger, error) {
	results := make([]*EventResult, 0, len(events))
	for _, ev := range events {
		res, err := e.ComputeEvent(ledger, players, ev)
		if err != nil {
			return nil, ledger, err
		}
		results = append(results, res)
		ledger = res.Ledger
	}
	return results, ledger, nil
}

type eventRun struct {
	engine  *Engine
	event   Event
	phase   Phase
	players map[int]PlayerInfo

	start    map[int]int
	order    []int
	totals   map[int]int
	counts   map[int]int
	meta     map[int][]models.MatchRatingMeta
	history  []models.PlayerRatingHistory
	warnings []Warning
	coef     float64
}

func (r *eventRun) advance(to Phase) error {
	if to != r.phase+1 {
		return fmt.Errorf("rating: invalid phase transition %s -> %s", r.phase, to)
	}
	r.phase = to
	return nil
}

// ComputeEvent rates one event against the ratings fixed before it started.
func (e *Engine) ComputeEvent(ledger Ledger, players map[int]PlayerInfo, ev Event) (*EventResult, error) {
	run := &eventRun{
		engine:  e,
		event:   ev,
		players: players,
		start:   make(map[int]int),
		totals:  make(map[int]int),
		counts:  make(map[int]int),
		meta:    make(map[int][]models.MatchRatingMeta),
	}

	if err := run.advance(PhaseCollectingPlayers); err != nil {
		return nil, err
	}
	run.collect(ledger)

	if err := run.advance(PhaseAccumulating); err != nil {
		return nil, err
	}
	matches := append([]MatchInput(nil), ev.Matches...)
	sortMatches(matches)
	for _, m := range matches {
		run.accumulate(m)
	}

	if err := run.advance(PhaseApply); err != nil {
		return nil, err
	}
	res := run.apply(ledger)

	if err := run.advance(PhaseDone); err != nil {
		return nil, err
	}
	return res, nil
}

func stageRank(s models.MatchStage) int {
	if s == models.StagePlayoff {
		return 1
	}
	return 0
}

func sortMatches(ms []MatchInput) {
	sort.SliceStable(ms, func(i, j int) bool {
		a, b := ms[i], ms[j]
		switch {
		case a.StageOrder != b.StageOrder:
			return a.StageOrder < b.StageOrder
		case stageRank(a.Stage) != stageRank(b.Stage):
			return stageRank(a.Stage) < stageRank(b.Stage)
		case a.Round != b.Round:
			return a.Round < b.Round
		case a.Order != b.Order:
			return a.Order < b.Order
		}
		return a.MatchID < b.MatchID
	})
}

// collect fixes the starting rating of every player taking part.
func (r *eventRun) collect(ledger Ledger) {
	seen := make(map[int]bool)
	for _, m := range r.event.Matches {
		for _, side := range []*Side{m.Side1, m.Side2} {
			if side == nil {
				continue
			}
			for _, id := range side.PlayerIDs {
				if seen[id] {
					continue
				}
				seen[id] = true
				r.order = append(r.order, id)
			}
		}
	}
	sort.Ints(r.order)

	sum := 0
	for _, id := range r.order {
		rating, ok := ledger.Rating(id)
		if !ok {
			info := r.players[id]
			rating = r.engine.opts.Start.StartRating(id, info.BTR, r.event.Name)
		}
		r.start[id] = rating
		sum += rating
	}

	r.coef = r.event.Coefficient
	if r.coef <= 0 {
		avg := 0.0
		if len(r.order) > 0 {
			avg = float64(sum) / float64(len(r.order))
		}
		participants := r.event.Participants
		if participants <= 0 {
			participants = len(r.order)
		}
		r.coef = TournamentCoefficient(avg, participants)
	}
}

func (r *eventRun) teamRating(side *Side) float64 {
	sum := 0
	for _, id := range side.PlayerIDs {
		sum += r.start[id]
	}
	return float64(sum) / float64(len(side.PlayerIDs))
}

func (r *eventRun) warn(kind WarningKind, m MatchInput, detail string) {
	r.warnings = append(r.warnings, Warning{Kind: kind, TournamentID: m.TournamentID, MatchID: m.MatchID, Detail: detail})
}

func validSide(s *Side) bool {
	return s != nil && len(s.PlayerIDs) > 0
}

func (r *eventRun) accumulate(m MatchInput) {
	if !validSide(m.Side1) || !validSide(m.Side2) {
		r.warn(WarningMalformed, m, "match is missing a team")
		for _, side := range []*Side{m.Side1, m.Side2} {
			if side != nil {
				r.record(m, side, 0, models.MatchRatingMeta{Reason: ReasonMalformed})
			}
		}
		return
	}

	r1, r2 := r.teamRating(m.Side1), r.teamRating(m.Side2)
	e1, e2 := ExpectedScore(r1, r2), ExpectedScore(r2, r1)
	meta1 := models.MatchRatingMeta{TeamRating: r1, OpponentRating: r2, Expected: e1, Coefficient: r.coef}
	meta2 := models.MatchRatingMeta{TeamRating: r2, OpponentRating: r1, Expected: e2, Coefficient: r.coef}

	zero := func(reason string) {
		meta1.Reason, meta2.Reason = reason, reason
		r.record(m, m.Side1, 0, meta1)
		r.record(m, m.Side2, 0, meta2)
	}

	if m.Side1.OutOfCompetition || m.Side2.OutOfCompetition {
		zero(ReasonOutOfCompetition)
		return
	}

	modifier, hadSets := matchModifier(r.engine.opts.Modifier, m.Sets, m.Format)
	if !hadSets {
		r.warn(WarningNoSets, m, "completed match has no sets, modifier defaults to 1.0")
	}
	meta1.FormatModifier, meta2.FormatModifier = modifier, modifier

	winner := scoring.Evaluate(m.Sets, m.Format).Winner
	if winner == scoring.SideNone && m.WinnerTeamID != nil {
		switch *m.WinnerTeamID {
		case m.Side1.TeamID:
			winner = scoring.Side1
		case m.Side2.TeamID:
			winner = scoring.Side2
		}
	}
	if winner == scoring.SideNone {
		r.warn(WarningNoWinner, m, "cannot determine winner")
		zero(ReasonNoWinner)
		return
	}

	a1, a2 := 1.0, 0.0
	if winner == scoring.Side2 {
		a1, a2 = 0.0, 1.0
	}
	k := r.engine.opts.KFactor
	d1 := Delta(k, modifier, r.coef, a1, e1)
	d2 := Delta(k, modifier, r.coef, a2, e2)

	meta1.Won, meta2.Won = winner == scoring.Side1, winner == scoring.Side2
	meta1.Reason, meta2.Reason = ReasonMatch, ReasonMatch
	r.record(m, m.Side1, d1, meta1)
	r.record(m, m.Side2, d2, meta2)
}

// record gives every player of a side the whole side delta.
func (r *eventRun) record(m MatchInput, side *Side, delta int, meta models.MatchRatingMeta) {
	meta.MatchID = m.MatchID
	meta.TournamentID = m.TournamentID
	meta.Delta = delta
	for _, id := range side.PlayerIDs {
		r.totals[id] += delta
		r.counts[id]++
		r.meta[id] = append(r.meta[id], meta)
		r.history = append(r.history, models.PlayerRatingHistory{
			PlayerID:     id,
			TournamentID: m.TournamentID,
			MatchID:      m.MatchID,
			Delta:        delta,
			Reason:       meta.Reason,
			Seq:          len(r.history) + 1,
		})
	}
}

func (r *eventRun) apply(ledger Ledger) *EventResult {
	res := &EventResult{
		TournamentID: r.event.TournamentID,
		Coefficient:  r.coef,
		History:      r.history,
		Warnings:     r.warnings,
	}
	updates := make(map[int]int)
	for _, id := range r.order {
		if r.counts[id] == 0 {
			continue
		}
		before := r.start[id]
		after := max(before+r.totals[id], 1)
		updates[id] = after
		res.Dynamics = append(res.Dynamics, models.PlayerRatingDynamic{
			PlayerID:     id,
			TournamentID: r.event.TournamentID,
			RatingBefore: before,
			RatingAfter:  after,
			TotalChange:  r.totals[id],
			MatchesCount: r.counts[id],
			Meta:         r.meta[id],
		})
	}
	res.Ledger = ledger.With(updates)
	return res
}
