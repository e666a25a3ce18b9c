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
	ErrEntryNotFound     = errors.New("tournament entry not found")
	ErrEntryConflict     = errors.New("team is already entered in this tournament")
	ErrEntryTeamInvalid  = errors.New("entry team conflict or invalid")
	ErrEntryTournamentFK = errors.New("entry tournament conflict or invalid")
)

type EntryRepository interface {
	Create(ctx context.Context, exec SQLExecutor, entry *models.TournamentEntry) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.TournamentEntry, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.TournamentEntry, error)
	ListByTournamentIDs(ctx context.Context, exec SQLExecutor, tournamentIDs []int) ([]*models.TournamentEntry, error)
}

type postgresEntryRepository struct {
	db *sql.DB
}

func NewPostgresEntryRepository(db *sql.DB) EntryRepository {
	return &postgresEntryRepository{db: db}
}

// Entries come with their team; players are loaded by the caller.
const entrySelect = `
	SELECT e.id, e.tournament_id, e.team_id, e.group_index, e.row_index, e.out_of_competition, e.created_at,
	       t.id, t.player1_id, t.player2_id, t.created_at
	FROM tournament_entries e
	JOIN teams t ON t.id = e.team_id`

func scanEntry(row rowScanner) (*models.TournamentEntry, error) {
	var (
		e    models.TournamentEntry
		team models.Team
	)
	err := row.Scan(
		&e.ID, &e.TournamentID, &e.TeamID, &e.GroupIndex, &e.RowIndex, &e.OutOfCompetition, &e.CreatedAt,
		&team.ID, &team.Player1ID, &team.Player2ID, &team.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Team = &team
	return &e, nil
}

func (r *postgresEntryRepository) Create(ctx context.Context, exec SQLExecutor, entry *models.TournamentEntry) error {
	query := `
		INSERT INTO tournament_entries (tournament_id, team_id, group_index, row_index, out_of_competition)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	err := executor(r.db, exec).QueryRowContext(ctx, query,
		entry.TournamentID, entry.TeamID, entry.GroupIndex, entry.RowIndex, entry.OutOfCompetition,
	).Scan(&entry.ID, &entry.CreatedAt)
	return constraintError(err, map[string]error{
		"tournament_entries_tournament_team_key": ErrEntryConflict,
		"tournament_entries_team_id_fkey":        ErrEntryTeamInvalid,
		"tournament_entries_tournament_id_fkey":  ErrEntryTournamentFK,
	})
}

func (r *postgresEntryRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.TournamentEntry, error) {
	e, err := scanEntry(executor(r.db, exec).QueryRowContext(ctx, entrySelect+` WHERE e.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to scan entry by id %d: %w", id, err)
	}
	return e, nil
}

func (r *postgresEntryRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.TournamentEntry, error) {
	return r.ListByTournamentIDs(ctx, exec, []int{tournamentID})
}

func (r *postgresEntryRepository) ListByTournamentIDs(ctx context.Context, exec SQLExecutor, tournamentIDs []int) ([]*models.TournamentEntry, error) {
	entries := make([]*models.TournamentEntry, 0)
	if len(tournamentIDs) == 0 {
		return entries, nil
	}
	query := entrySelect + `
	WHERE e.tournament_id = ANY($1)
	ORDER BY e.tournament_id, e.group_index NULLS LAST, e.row_index NULLS LAST, e.id`

	rows, err := executor(r.db, exec).QueryContext(ctx, query, pq.Array(tournamentIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query tournament entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		e, scanErr := scanEntry(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan entry row: %w", scanErr)
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during entry rows iteration: %w", err)
	}
	return entries, nil
}
