package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Dosada05/beach-tennis-system/models"
	"github.com/lib/pq"
)

var (
	ErrTournamentNotFound      = errors.New("tournament not found")
	ErrTournamentInvalidParent = errors.New("invalid parent tournament reference")
)

// ListTournamentsFilter narrows master tournaments for a recompute. Nil or
// empty fields do not filter.
type ListTournamentsFilter struct {
	FromDate *time.Time
	ToDate   *time.Time
	IDs      []int
}

type TournamentRepository interface {
	Create(ctx context.Context, exec SQLExecutor, t *models.Tournament) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	ListStages(ctx context.Context, exec SQLExecutor, masterID int) ([]*models.Tournament, error)
	ListMasters(ctx context.Context, exec SQLExecutor, filter ListTournamentsFilter) ([]*models.Tournament, error)
	LockForUpdate(ctx context.Context, exec SQLExecutor, ids []int) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

const tournamentColumns = `id, name, date, system, participant_mode, groups_count, planned_participant_count,
	rating_coefficient, king_calculation_mode, parent_id, stage_order, status,
	games_to, max_sets, allow_tiebreak_only_set, free_format, ruleset,
	round_robin_pattern, custom_pattern, king_schedule, created_at`

func scanTournament(row rowScanner) (*models.Tournament, error) {
	var t models.Tournament
	err := row.Scan(
		&t.ID, &t.Name, &t.Date, &t.System, &t.ParticipantMode, &t.GroupsCount, &t.PlannedParticipantCount,
		&t.RatingCoefficient, &t.KingCalculationMode, &t.ParentID, &t.StageOrder, &t.Status,
		&t.Format.GamesTo, &t.Format.MaxSets, &t.Format.AllowTiebreakOnlySet, &t.Format.FreeFormat, pq.Array(&t.Ruleset),
		&t.RoundRobinPattern, &t.CustomPatternJSON, &t.KingScheduleJSON, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *postgresTournamentRepository) Create(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (name, date, system, participant_mode, groups_count, planned_participant_count,
			rating_coefficient, king_calculation_mode, parent_id, stage_order, status,
			games_to, max_sets, allow_tiebreak_only_set, free_format, ruleset,
			round_robin_pattern, custom_pattern, king_schedule)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id, created_at`

	err := executor(r.db, exec).QueryRowContext(ctx, query,
		t.Name, t.Date, t.System, t.ParticipantMode, t.GroupsCount, t.PlannedParticipantCount,
		t.RatingCoefficient, t.KingCalculationMode, t.ParentID, t.StageOrder, t.Status,
		t.Format.GamesTo, t.Format.MaxSets, t.Format.AllowTiebreakOnlySet, t.Format.FreeFormat, pq.Array(t.Ruleset),
		t.RoundRobinPattern, t.CustomPatternJSON, t.KingScheduleJSON,
	).Scan(&t.ID, &t.CreatedAt)
	return constraintError(err, map[string]error{
		"tournaments_parent_id_fkey": ErrTournamentInvalidParent,
	})
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`
	t, err := scanTournament(executor(r.db, exec).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament by id %d: %w", id, err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) ListStages(ctx context.Context, exec SQLExecutor, masterID int) ([]*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE parent_id = $1 ORDER BY stage_order ASC, id ASC`
	return r.list(ctx, exec, query, masterID)
}

// ListMasters returns root tournaments in the order ratings are replayed.
func (r *postgresTournamentRepository) ListMasters(ctx context.Context, exec SQLExecutor, filter ListTournamentsFilter) ([]*models.Tournament, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + tournamentColumns + ` FROM tournaments WHERE parent_id IS NULL`)

	args := []interface{}{}
	placeholderIndex := 1

	if filter.FromDate != nil {
		queryBuilder.WriteString(" AND date >= $" + strconv.Itoa(placeholderIndex))
		args = append(args, *filter.FromDate)
		placeholderIndex++
	}
	if filter.ToDate != nil {
		queryBuilder.WriteString(" AND date <= $" + strconv.Itoa(placeholderIndex))
		args = append(args, *filter.ToDate)
		placeholderIndex++
	}
	if len(filter.IDs) > 0 {
		queryBuilder.WriteString(" AND id = ANY($" + strconv.Itoa(placeholderIndex) + ")")
		args = append(args, pq.Array(filter.IDs))
	}
	queryBuilder.WriteString(" ORDER BY date ASC, name ASC, id ASC")

	return r.list(ctx, exec, queryBuilder.String(), args...)
}

func (r *postgresTournamentRepository) list(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]*models.Tournament, error) {
	rows, err := executor(r.db, exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		t, scanErr := scanTournament(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan tournament row: %w", scanErr)
		}
		tournaments = append(tournaments, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during tournament rows iteration: %w", err)
	}
	return tournaments, nil
}

// LockForUpdate row-locks the tournaments until the surrounding transaction
// ends. Rows are locked in id order so concurrent callers cannot deadlock.
func (r *postgresTournamentRepository) LockForUpdate(ctx context.Context, exec SQLExecutor, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	rows, err := executor(r.db, exec).QueryContext(ctx,
		`SELECT id FROM tournaments WHERE id = ANY($1) ORDER BY id FOR UPDATE`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to lock tournaments: %w", err)
	}
	locked, err := scanIDs(rows)
	if err != nil {
		return fmt.Errorf("failed to scan locked tournament ids: %w", err)
	}
	if len(locked) != len(uniqueInts(ids)) {
		return ErrTournamentNotFound
	}
	return nil
}

func uniqueInts(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
