package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Dosada05/beach-tennis-system/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound          = errors.New("match not found")
	ErrMatchTournamentInvalid = errors.New("match tournament conflict or invalid")
	ErrMatchTeamInvalid       = errors.New("match team conflict or invalid")
	ErrMatchBracketInvalid    = errors.New("match bracket conflict or invalid")
	ErrMatchSetConflict       = errors.New("duplicate set index for match")
)

// MatchFilter narrows ListByTournament. Nil fields do not filter.
type MatchFilter struct {
	Stage      *models.MatchStage
	GroupIndex *int
	BracketID  *int
}

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, m *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, filter MatchFilter) ([]*models.Match, error)
	ListCompletedByTournamentIDs(ctx context.Context, exec SQLExecutor, tournamentIDs []int) ([]*models.Match, error)
	UpdateState(ctx context.Context, exec SQLExecutor, m *models.Match) error
	UpdateSchedule(ctx context.Context, exec SQLExecutor, m *models.Match) error
	DeleteByIDs(ctx context.Context, exec SQLExecutor, ids []int) error
	ReplaceSets(ctx context.Context, exec SQLExecutor, matchID int, sets []models.MatchSet) error
	DeleteSets(ctx context.Context, exec SQLExecutor, matchIDs []int) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `id, tournament_id, bracket_id, stage, group_index, round_index, round_name, order_in_round,
	is_third_place, team1_id, team2_id, team_low_id, team_high_id, winner_id, status,
	started_at, finished_at, created_at`

func scanMatch(row rowScanner) (*models.Match, error) {
	var m models.Match
	err := row.Scan(
		&m.ID, &m.TournamentID, &m.BracketID, &m.Stage, &m.GroupIndex, &m.RoundIndex, &m.RoundName, &m.OrderInRound,
		&m.IsThirdPlace, &m.Team1ID, &m.Team2ID, &m.TeamLowID, &m.TeamHighID, &m.WinnerID, &m.Status,
		&m.StartedAt, &m.FinishedAt, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	return constraintError(err, map[string]error{
		"matches_tournament_id_fkey": ErrMatchTournamentInvalid,
		"matches_team1_id_fkey":      ErrMatchTeamInvalid,
		"matches_team2_id_fkey":      ErrMatchTeamInvalid,
		"matches_winner_id_fkey":     ErrMatchTeamInvalid,
		"matches_bracket_id_fkey":    ErrMatchBracketInvalid,
		"match_sets_match_index_key": ErrMatchSetConflict,
		"match_sets_match_id_fkey":   ErrMatchNotFound,
	})
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	m.Normalize()
	if m.Status == "" {
		m.Status = models.MatchScheduled
	}
	if m.Stage == "" {
		m.Stage = models.StageGroup
	}
	query := `
		INSERT INTO matches (tournament_id, bracket_id, stage, group_index, round_index, round_name, order_in_round,
			is_third_place, team1_id, team2_id, team_low_id, team_high_id, winner_id, status, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at`
	err := executor(r.db, exec).QueryRowContext(ctx, query,
		m.TournamentID, m.BracketID, m.Stage, m.GroupIndex, m.RoundIndex, m.RoundName, m.OrderInRound,
		m.IsThirdPlace, m.Team1ID, m.Team2ID, m.TeamLowID, m.TeamHighID, m.WinnerID, m.Status, m.StartedAt, m.FinishedAt,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return r.handleMatchError(err)
	}
	if len(m.Sets) > 0 {
		return r.ReplaceSets(ctx, exec, m.ID, m.Sets)
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	m, err := scanMatch(executor(r.db, exec).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by id %d: %w", id, err)
	}
	if err := r.attachSets(ctx, exec, []*models.Match{m}); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, filter MatchFilter) ([]*models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1`)

	args := []interface{}{tournamentID}
	placeholderIndex := 2

	if filter.Stage != nil {
		queryBuilder.WriteString(" AND stage = $" + strconv.Itoa(placeholderIndex))
		args = append(args, *filter.Stage)
		placeholderIndex++
	}
	if filter.GroupIndex != nil {
		queryBuilder.WriteString(" AND group_index = $" + strconv.Itoa(placeholderIndex))
		args = append(args, *filter.GroupIndex)
		placeholderIndex++
	}
	if filter.BracketID != nil {
		queryBuilder.WriteString(" AND bracket_id = $" + strconv.Itoa(placeholderIndex))
		args = append(args, *filter.BracketID)
	}
	queryBuilder.WriteString(" ORDER BY round_index ASC NULLS FIRST, order_in_round ASC, id ASC")

	return r.list(ctx, exec, queryBuilder.String(), args...)
}

// ListCompletedByTournamentIDs returns completed matches of the given
// tournaments with their sets, the input of a rating recompute.
func (r *postgresMatchRepository) ListCompletedByTournamentIDs(ctx context.Context, exec SQLExecutor, tournamentIDs []int) ([]*models.Match, error) {
	if len(tournamentIDs) == 0 {
		return []*models.Match{}, nil
	}
	query := `SELECT ` + matchColumns + ` FROM matches
		WHERE tournament_id = ANY($1) AND status = $2
		ORDER BY tournament_id, round_index ASC NULLS FIRST, order_in_round ASC, id ASC`
	return r.list(ctx, exec, query, pq.Array(tournamentIDs), models.MatchCompleted)
}

func (r *postgresMatchRepository) list(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]*models.Match, error) {
	rows, err := executor(r.db, exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	if err := r.attachSets(ctx, exec, matches); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresMatchRepository) attachSets(ctx context.Context, exec SQLExecutor, matches []*models.Match) error {
	if len(matches) == 0 {
		return nil
	}
	byID := make(map[int]*models.Match, len(matches))
	ids := make([]int, 0, len(matches))
	for _, m := range matches {
		byID[m.ID] = m
		ids = append(ids, m.ID)
	}

	query := `
		SELECT id, match_id, index, games_1, games_2, tb_1, tb_2, is_tiebreak_only
		FROM match_sets
		WHERE match_id = ANY($1)
		ORDER BY match_id, index`
	rows, err := executor(r.db, exec).QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to query match sets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s models.MatchSet
		if err := rows.Scan(&s.ID, &s.MatchID, &s.Index, &s.Games1, &s.Games2, &s.TB1, &s.TB2, &s.IsTiebreakOnly); err != nil {
			return fmt.Errorf("failed to scan match set row: %w", err)
		}
		if m := byID[s.MatchID]; m != nil {
			m.Sets = append(m.Sets, s)
		}
	}
	return rows.Err()
}

// UpdateState writes slots, winner, status and timestamps of a match.
func (r *postgresMatchRepository) UpdateState(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	m.Normalize()
	query := `
		UPDATE matches
		SET team1_id = $1, team2_id = $2, team_low_id = $3, team_high_id = $4, winner_id = $5,
		    status = $6, started_at = $7, finished_at = $8
		WHERE id = $9`
	result, err := executor(r.db, exec).ExecContext(ctx, query,
		m.Team1ID, m.Team2ID, m.TeamLowID, m.TeamHighID, m.WinnerID, m.Status, m.StartedAt, m.FinishedAt, m.ID)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

// UpdateSchedule moves a match to another round slot without touching its result.
func (r *postgresMatchRepository) UpdateSchedule(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	query := `UPDATE matches SET round_index = $1, round_name = $2, order_in_round = $3 WHERE id = $4`
	result, err := executor(r.db, exec).ExecContext(ctx, query, m.RoundIndex, m.RoundName, m.OrderInRound, m.ID)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) DeleteByIDs(ctx context.Context, exec SQLExecutor, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	// sets go with ON DELETE CASCADE
	if _, err := executor(r.db, exec).ExecContext(ctx, `DELETE FROM matches WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return fmt.Errorf("failed to delete matches: %w", err)
	}
	return nil
}

func (r *postgresMatchRepository) ReplaceSets(ctx context.Context, exec SQLExecutor, matchID int, sets []models.MatchSet) error {
	ex := executor(r.db, exec)
	if _, err := ex.ExecContext(ctx, `DELETE FROM match_sets WHERE match_id = $1`, matchID); err != nil {
		return fmt.Errorf("failed to clear sets of match %d: %w", matchID, err)
	}
	batch := make([][]interface{}, 0, len(sets))
	for _, s := range sets {
		batch = append(batch, []interface{}{matchID, s.Index, s.Games1, s.Games2, s.TB1, s.TB2, s.IsTiebreakOnly})
	}
	err := execBatch(ctx, ex, `
		INSERT INTO match_sets (match_id, index, games_1, games_2, tb_1, tb_2, is_tiebreak_only)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`, batch)
	if err != nil {
		return r.handleMatchError(err)
	}
	return nil
}

func (r *postgresMatchRepository) DeleteSets(ctx context.Context, exec SQLExecutor, matchIDs []int) error {
	if len(matchIDs) == 0 {
		return nil
	}
	if _, err := executor(r.db, exec).ExecContext(ctx, `DELETE FROM match_sets WHERE match_id = ANY($1)`, pq.Array(matchIDs)); err != nil {
		return fmt.Errorf("failed to delete match sets: %w", err)
	}
	return nil
}
