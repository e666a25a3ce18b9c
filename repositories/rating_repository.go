package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Dosada05/beach-tennis-system/models"
	"github.com/lib/pq"
)

// RatingRepository stores the rows a rating recompute owns: per-tournament
// dynamics and per-match history. Both are only ever deleted and rewritten.
type RatingRepository interface {
	DeleteByTournamentIDs(ctx context.Context, exec SQLExecutor, tournamentIDs []int) error
	DeleteAll(ctx context.Context, exec SQLExecutor) error
	InsertDynamics(ctx context.Context, exec SQLExecutor, dynamics []models.PlayerRatingDynamic) error
	InsertHistory(ctx context.Context, exec SQLExecutor, history []models.PlayerRatingHistory) error
	RatingsBefore(ctx context.Context, exec SQLExecutor, tournamentID int) (map[int]int, error)
	LatestRatingsBefore(ctx context.Context, exec SQLExecutor, t *models.Tournament) (map[int]int, error)
	ListDynamics(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.PlayerRatingDynamic, error)
}

type postgresRatingRepository struct {
	db *sql.DB
}

func NewPostgresRatingRepository(db *sql.DB) RatingRepository {
	return &postgresRatingRepository{db: db}
}

func (r *postgresRatingRepository) DeleteByTournamentIDs(ctx context.Context, exec SQLExecutor, tournamentIDs []int) error {
	if len(tournamentIDs) == 0 {
		return nil
	}
	ex := executor(r.db, exec)
	if _, err := ex.ExecContext(ctx, `DELETE FROM player_rating_history WHERE tournament_id = ANY($1)`, pq.Array(tournamentIDs)); err != nil {
		return fmt.Errorf("failed to delete rating history: %w", err)
	}
	if _, err := ex.ExecContext(ctx, `DELETE FROM player_rating_dynamics WHERE tournament_id = ANY($1)`, pq.Array(tournamentIDs)); err != nil {
		return fmt.Errorf("failed to delete rating dynamics: %w", err)
	}
	return nil
}

func (r *postgresRatingRepository) DeleteAll(ctx context.Context, exec SQLExecutor) error {
	ex := executor(r.db, exec)
	if _, err := ex.ExecContext(ctx, `DELETE FROM player_rating_history`); err != nil {
		return fmt.Errorf("failed to wipe rating history: %w", err)
	}
	if _, err := ex.ExecContext(ctx, `DELETE FROM player_rating_dynamics`); err != nil {
		return fmt.Errorf("failed to wipe rating dynamics: %w", err)
	}
	return nil
}

func (r *postgresRatingRepository) InsertDynamics(ctx context.Context, exec SQLExecutor, dynamics []models.PlayerRatingDynamic) error {
	batch := make([][]interface{}, 0, len(dynamics))
	for _, d := range dynamics {
		meta := d.Meta
		if meta == nil {
			meta = []models.MatchRatingMeta{}
		}
		raw, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("failed to marshal rating meta of player %d: %w", d.PlayerID, err)
		}
		batch = append(batch, []interface{}{
			d.PlayerID, d.TournamentID, d.RatingBefore, d.RatingAfter, d.TotalChange, d.MatchesCount, string(raw),
		})
	}
	err := execBatch(ctx, executor(r.db, exec), `
		INSERT INTO player_rating_dynamics
		    (player_id, tournament_id, rating_before, rating_after, total_change, matches_count, meta)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`, batch)
	if err != nil {
		return fmt.Errorf("InsertDynamics: %w", err)
	}
	return nil
}

func (r *postgresRatingRepository) InsertHistory(ctx context.Context, exec SQLExecutor, history []models.PlayerRatingHistory) error {
	now := time.Now()
	batch := make([][]interface{}, 0, len(history))
	for _, h := range history {
		var matchID *int
		if h.MatchID > 0 {
			id := h.MatchID
			matchID = &id
		}
		batch = append(batch, []interface{}{h.PlayerID, h.TournamentID, matchID, h.Delta, h.Reason, h.Seq, now})
	}
	err := execBatch(ctx, executor(r.db, exec), `
		INSERT INTO player_rating_history (player_id, tournament_id, match_id, delta, reason, seq, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`, batch)
	if err != nil {
		return fmt.Errorf("InsertHistory: %w", err)
	}
	return nil
}

// RatingsBefore returns rating_before of every player already rated in the tournament.
func (r *postgresRatingRepository) RatingsBefore(ctx context.Context, exec SQLExecutor, tournamentID int) (map[int]int, error) {
	return r.ratingMap(ctx, exec,
		`SELECT player_id, rating_before FROM player_rating_dynamics WHERE tournament_id = $1`, tournamentID)
}

// LatestRatingsBefore returns, per player, rating_after of the last master
// tournament that comes before t in replay order.
func (r *postgresRatingRepository) LatestRatingsBefore(ctx context.Context, exec SQLExecutor, t *models.Tournament) (map[int]int, error) {
	query := `
		SELECT DISTINCT ON (d.player_id) d.player_id, d.rating_after
		FROM player_rating_dynamics d
		JOIN tournaments t ON t.id = d.tournament_id
		WHERE t.parent_id IS NULL AND (t.date, t.name, t.id) < ($1, $2, $3)
		ORDER BY d.player_id, t.date DESC, t.name DESC, t.id DESC`
	return r.ratingMap(ctx, exec, query, t.Date, t.Name, t.ID)
}

func (r *postgresRatingRepository) ratingMap(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) (map[int]int, error) {
	rows, err := executor(r.db, exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer rows.Close()

	out := make(map[int]int)
	for rows.Next() {
		var playerID, rating int
		if err := rows.Scan(&playerID, &rating); err != nil {
			return nil, fmt.Errorf("failed to scan rating row: %w", err)
		}
		out[playerID] = rating
	}
	return out, rows.Err()
}

func (r *postgresRatingRepository) ListDynamics(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.PlayerRatingDynamic, error) {
	query := `
		SELECT id, player_id, tournament_id, rating_before, rating_after, total_change, matches_count, meta
		FROM player_rating_dynamics
		WHERE tournament_id = $1
		ORDER BY rating_after DESC, player_id`
	rows, err := executor(r.db, exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rating dynamics of tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	out := make([]models.PlayerRatingDynamic, 0)
	for rows.Next() {
		var (
			d   models.PlayerRatingDynamic
			raw []byte
		)
		if err := rows.Scan(&d.ID, &d.PlayerID, &d.TournamentID, &d.RatingBefore, &d.RatingAfter, &d.TotalChange, &d.MatchesCount, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan rating dynamic row: %w", err)
		}
		if err := json.Unmarshal(raw, &d.Meta); err != nil {
			return nil, fmt.Errorf("failed to decode rating meta of player %d: %w", d.PlayerID, err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
