package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/beach-tennis-system/models"
)

var (
	ErrBracketNotFound          = errors.New("knockout bracket not found")
	ErrBracketIndexConflict     = errors.New("bracket index already used in this tournament")
	ErrBracketTournamentInvalid = errors.New("bracket tournament conflict or invalid")
	ErrDrawPositionInvalid      = errors.New("draw position conflict or invalid")
)

type BracketRepository interface {
	Create(ctx context.Context, exec SQLExecutor, b *models.KnockoutBracket) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.KnockoutBracket, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.KnockoutBracket, error)
	ReplacePositions(ctx context.Context, exec SQLExecutor, bracketID int, positions []models.DrawPosition) error
	ListPositions(ctx context.Context, exec SQLExecutor, bracketID int) ([]models.DrawPosition, error)
}

type postgresBracketRepository struct {
	db *sql.DB
}

func NewPostgresBracketRepository(db *sql.DB) BracketRepository {
	return &postgresBracketRepository{db: db}
}

func (r *postgresBracketRepository) handleBracketError(err error) error {
	return constraintError(err, map[string]error{
		"knockout_brackets_tournament_index_key": ErrBracketIndexConflict,
		"knockout_brackets_tournament_id_fkey":   ErrBracketTournamentInvalid,
		"draw_positions_bracket_position_key":    ErrDrawPositionInvalid,
		"draw_positions_bye_empty":               ErrDrawPositionInvalid,
		"draw_positions_entry_id_fkey":           ErrDrawPositionInvalid,
	})
}

// Create inserts the bracket at the next free index of its tournament when
// Index is zero.
func (r *postgresBracketRepository) Create(ctx context.Context, exec SQLExecutor, b *models.KnockoutBracket) error {
	query := `
		INSERT INTO knockout_brackets (tournament_id, index, size, has_third_place)
		VALUES ($1, COALESCE(NULLIF($2, 0), (SELECT COALESCE(MAX(index), 0) + 1 FROM knockout_brackets WHERE tournament_id = $1)), $3, $4)
		RETURNING id, index, created_at`
	err := executor(r.db, exec).QueryRowContext(ctx, query, b.TournamentID, b.Index, b.Size, b.HasThirdPlace).
		Scan(&b.ID, &b.Index, &b.CreatedAt)
	return r.handleBracketError(err)
}

func (r *postgresBracketRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.KnockoutBracket, error) {
	var b models.KnockoutBracket
	query := `SELECT id, tournament_id, index, size, has_third_place, created_at FROM knockout_brackets WHERE id = $1`
	err := executor(r.db, exec).QueryRowContext(ctx, query, id).
		Scan(&b.ID, &b.TournamentID, &b.Index, &b.Size, &b.HasThirdPlace, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBracketNotFound
		}
		return nil, fmt.Errorf("failed to scan bracket by id %d: %w", id, err)
	}
	return &b, nil
}

func (r *postgresBracketRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.KnockoutBracket, error) {
	query := `SELECT id, tournament_id, index, size, has_third_place, created_at
		FROM knockout_brackets WHERE tournament_id = $1 ORDER BY index`
	rows, err := executor(r.db, exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query brackets of tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	out := make([]*models.KnockoutBracket, 0)
	for rows.Next() {
		var b models.KnockoutBracket
		if err := rows.Scan(&b.ID, &b.TournamentID, &b.Index, &b.Size, &b.HasThirdPlace, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bracket row: %w", err)
		}
		out = append(out, &b)
	}
	return out, rows.Err()
}

// ReplacePositions rewrites the whole draw of a bracket.
func (r *postgresBracketRepository) ReplacePositions(ctx context.Context, exec SQLExecutor, bracketID int, positions []models.DrawPosition) error {
	ex := executor(r.db, exec)
	if _, err := ex.ExecContext(ctx, `DELETE FROM draw_positions WHERE bracket_id = $1`, bracketID); err != nil {
		return fmt.Errorf("failed to clear draw of bracket %d: %w", bracketID, err)
	}
	batch := make([][]interface{}, 0, len(positions))
	for _, p := range positions {
		batch = append(batch, []interface{}{bracketID, p.Position, p.Source, p.EntryID, p.SeedNumber})
	}
	err := execBatch(ctx, ex, `
		INSERT INTO draw_positions (bracket_id, position, source, entry_id, seed_number)
		VALUES ($1, $2, $3, $4, $5)`, batch)
	if err != nil {
		return r.handleBracketError(err)
	}
	return nil
}

func (r *postgresBracketRepository) ListPositions(ctx context.Context, exec SQLExecutor, bracketID int) ([]models.DrawPosition, error) {
	query := `SELECT id, bracket_id, position, source, entry_id, seed_number
		FROM draw_positions WHERE bracket_id = $1 ORDER BY position`
	rows, err := executor(r.db, exec).QueryContext(ctx, query, bracketID)
	if err != nil {
		return nil, fmt.Errorf("failed to query draw of bracket %d: %w", bracketID, err)
	}
	defer rows.Close()

	out := make([]models.DrawPosition, 0)
	for rows.Next() {
		var p models.DrawPosition
		if err := rows.Scan(&p.ID, &p.BracketID, &p.Position, &p.Source, &p.EntryID, &p.SeedNumber); err != nil {
			return nil, fmt.Errorf("failed to scan draw position row: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
