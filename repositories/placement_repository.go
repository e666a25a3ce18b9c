package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/beach-tennis-system/models"
)

type PlacementRepository interface {
	ReplaceForTournament(ctx context.Context, exec SQLExecutor, tournamentID int, placements []models.TournamentPlacement) error
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.TournamentPlacement, error)
}

type postgresPlacementRepository struct {
	db *sql.DB
}

func NewPostgresPlacementRepository(db *sql.DB) PlacementRepository {
	return &postgresPlacementRepository{db: db}
}

func (r *postgresPlacementRepository) ReplaceForTournament(ctx context.Context, exec SQLExecutor, tournamentID int, placements []models.TournamentPlacement) error {
	ex := executor(r.db, exec)
	if _, err := ex.ExecContext(ctx, `DELETE FROM tournament_placements WHERE tournament_id = $1`, tournamentID); err != nil {
		return fmt.Errorf("failed to clear placements of tournament %d: %w", tournamentID, err)
	}
	batch := make([][]interface{}, 0, len(placements))
	for _, p := range placements {
		batch = append(batch, []interface{}{tournamentID, p.EntryID, p.PlaceFrom, p.PlaceTo})
	}
	err := execBatch(ctx, ex, `
		INSERT INTO tournament_placements (tournament_id, entry_id, place_from, place_to)
		VALUES ($1, $2, $3, $4)`, batch)
	if err != nil {
		return fmt.Errorf("ReplaceForTournament: %w", err)
	}
	return nil
}

func (r *postgresPlacementRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.TournamentPlacement, error) {
	query := `SELECT id, tournament_id, entry_id, place_from, place_to
		FROM tournament_placements WHERE tournament_id = $1 ORDER BY place_from, entry_id`
	rows, err := executor(r.db, exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query placements of tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	out := make([]models.TournamentPlacement, 0)
	for rows.Next() {
		var p models.TournamentPlacement
		if err := rows.Scan(&p.ID, &p.TournamentID, &p.EntryID, &p.PlaceFrom, &p.PlaceTo); err != nil {
			return nil, fmt.Errorf("failed to scan placement row: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
