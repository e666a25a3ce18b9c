package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/beach-tennis-system/models"
	"github.com/lib/pq"
)

var (
	ErrPlayerNotFound    = errors.New("player not found")
	ErrTeamNotFound      = errors.New("team not found")
	ErrTeamPlayerInvalid = errors.New("team player conflict or invalid")
)

type PlayerRepository interface {
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Player, error)
	ListByIDs(ctx context.Context, exec SQLExecutor, ids []int) ([]*models.Player, error)
	ListAll(ctx context.Context, exec SQLExecutor) ([]*models.Player, error)
	UpdateRatings(ctx context.Context, exec SQLExecutor, ratings map[int]int) error
	ResetRatings(ctx context.Context, exec SQLExecutor) error
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

const playerColumns = `id, full_name, current_rating, btr_rating, created_at`

func scanPlayer(row rowScanner) (*models.Player, error) {
	var p models.Player
	if err := row.Scan(&p.ID, &p.FullName, &p.CurrentRating, &p.BTRRating, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1`
	p, err := scanPlayer(executor(r.db, exec).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to scan player by id %d: %w", id, err)
	}
	return p, nil
}

func (r *postgresPlayerRepository) ListByIDs(ctx context.Context, exec SQLExecutor, ids []int) ([]*models.Player, error) {
	if len(ids) == 0 {
		return []*models.Player{}, nil
	}
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = ANY($1) ORDER BY id`
	return r.list(ctx, exec, query, pq.Array(ids))
}

func (r *postgresPlayerRepository) ListAll(ctx context.Context, exec SQLExecutor) ([]*models.Player, error) {
	return r.list(ctx, exec, `SELECT `+playerColumns+` FROM players ORDER BY id`)
}

func (r *postgresPlayerRepository) list(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]*models.Player, error) {
	rows, err := executor(r.db, exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer rows.Close()

	players := make([]*models.Player, 0)
	for rows.Next() {
		p, scanErr := scanPlayer(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan player row: %w", scanErr)
		}
		players = append(players, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during player rows iteration: %w", err)
	}
	return players, nil
}

func (r *postgresPlayerRepository) UpdateRatings(ctx context.Context, exec SQLExecutor, ratings map[int]int) error {
	batch := make([][]interface{}, 0, len(ratings))
	for id, rating := range ratings {
		batch = append(batch, []interface{}{rating, id})
	}
	if err := execBatch(ctx, executor(r.db, exec), `UPDATE players SET current_rating = $1 WHERE id = $2`, batch); err != nil {
		return fmt.Errorf("UpdateRatings: %w", err)
	}
	return nil
}

// ResetRatings clears every current rating so the next recompute starts from
// the start-rating policy.
func (r *postgresPlayerRepository) ResetRatings(ctx context.Context, exec SQLExecutor) error {
	if _, err := executor(r.db, exec).ExecContext(ctx, `UPDATE players SET current_rating = 0`); err != nil {
		return fmt.Errorf("failed to reset player ratings: %w", err)
	}
	return nil
}

type TeamRepository interface {
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error)
	ListByIDs(ctx context.Context, exec SQLExecutor, ids []int) ([]*models.Team, error)
	FindByPlayers(ctx context.Context, exec SQLExecutor, player1ID int, player2ID *int) (*models.Team, error)
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func scanTeam(row rowScanner) (*models.Team, error) {
	var t models.Team
	if err := row.Scan(&t.ID, &t.Player1ID, &t.Player2ID, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error) {
	query := `SELECT id, player1_id, player2_id, created_at FROM teams WHERE id = $1`
	t, err := scanTeam(executor(r.db, exec).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to scan team by id %d: %w", id, err)
	}
	return t, nil
}

func (r *postgresTeamRepository) ListByIDs(ctx context.Context, exec SQLExecutor, ids []int) ([]*models.Team, error) {
	teams := make([]*models.Team, 0, len(ids))
	if len(ids) == 0 {
		return teams, nil
	}
	query := `SELECT id, player1_id, player2_id, created_at FROM teams WHERE id = ANY($1) ORDER BY id`
	rows, err := executor(r.db, exec).QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		t, scanErr := scanTeam(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan team row: %w", scanErr)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// FindByPlayers looks a team up by its unordered pair of players.
func (r *postgresTeamRepository) FindByPlayers(ctx context.Context, exec SQLExecutor, player1ID int, player2ID *int) (*models.Team, error) {
	var (
		row   *sql.Row
		query string
	)
	if player2ID == nil {
		query = `SELECT id, player1_id, player2_id, created_at FROM teams
			WHERE player1_id = $1 AND player2_id IS NULL ORDER BY id LIMIT 1`
		row = executor(r.db, exec).QueryRowContext(ctx, query, player1ID)
	} else {
		query = `SELECT id, player1_id, player2_id, created_at FROM teams
			WHERE (player1_id = $1 AND player2_id = $2) OR (player1_id = $2 AND player2_id = $1)
			ORDER BY id LIMIT 1`
		row = executor(r.db, exec).QueryRowContext(ctx, query, player1ID, *player2ID)
	}
	t, err := scanTeam(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to find team by players: %w", err)
	}
	return t, nil
}

func (r *postgresTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	query := `INSERT INTO teams (player1_id, player2_id) VALUES ($1, $2) RETURNING id, created_at`
	err := executor(r.db, exec).QueryRowContext(ctx, query, team.Player1ID, team.Player2ID).Scan(&team.ID, &team.CreatedAt)
	return constraintError(err, map[string]error{
		"teams_player1_id_fkey": ErrTeamPlayerInvalid,
		"teams_player2_id_fkey": ErrTeamPlayerInvalid,
	})
}
