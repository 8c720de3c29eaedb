package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/handirank/handirank/models"
)

var ErrRoundNotFound = errors.New("round not found")

// RoundRepository is the round sheet: append-only rows, filtered reads, and
// a cascade delete used by participant removal. Rounds are never edited.
type RoundRepository interface {
	Append(ctx context.Context, round *models.Round) error
	ListAll(ctx context.Context) ([]models.Round, error)
	ListBySeason(ctx context.Context, seasonCode string) ([]models.Round, error)
	ListSeasonCodes(ctx context.Context) ([]string, error)
	DeleteByPlayerAndSeason(ctx context.Context, exec SQLExecutor, player, seasonCode string) (int64, error)
}

type postgresRoundRepository struct {
	db *sql.DB
}

func NewPostgresRoundRepository(db *sql.DB) RoundRepository {
	return &postgresRoundRepository{db: db}
}

const roundColumns = `id, played_at, player, gross, rating, slope, holes,
	adjusted_gross, differential, season_code, player_photo, added_by,
	is_admin_entry, added_at`

func (r *postgresRoundRepository) Append(ctx context.Context, round *models.Round) error {
	query := `
		INSERT INTO rounds (id, played_at, player, gross, rating, slope, holes,
			adjusted_gross, differential, season_code, player_photo, added_by,
			is_admin_entry, added_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	var differential any
	if !math.IsNaN(round.Differential) && !math.IsInf(round.Differential, 0) {
		differential = round.Differential
	}

	_, err := r.db.ExecContext(ctx, query,
		round.ID,
		round.PlayedAt,
		round.Player,
		round.Gross,
		round.Rating,
		round.Slope,
		round.Holes,
		round.AdjustedGross,
		differential,
		round.SeasonCode,
		round.PlayerPhoto,
		round.AddedBy,
		round.IsAdminEntry,
		round.AddedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append round: %w", err)
	}
	return nil
}

func (r *postgresRoundRepository) ListAll(ctx context.Context) ([]models.Round, error) {
	query := fmt.Sprintf(`SELECT %s FROM rounds ORDER BY added_at ASC`, roundColumns)
	return r.list(ctx, query)
}

func (r *postgresRoundRepository) ListBySeason(ctx context.Context, seasonCode string) ([]models.Round, error) {
	query := fmt.Sprintf(`SELECT %s FROM rounds WHERE season_code = $1 ORDER BY added_at ASC`, roundColumns)
	return r.list(ctx, query, seasonCode)
}

func (r *postgresRoundRepository) list(ctx context.Context, query string, args ...any) ([]models.Round, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds: %w", err)
	}
	defer rows.Close()

	rounds := make([]models.Round, 0)
	for rows.Next() {
		var (
			round        models.Round
			differential sql.NullFloat64
		)
		if err := rows.Scan(
			&round.ID,
			&round.PlayedAt,
			&round.Player,
			&round.Gross,
			&round.Rating,
			&round.Slope,
			&round.Holes,
			&round.AdjustedGross,
			&differential,
			&round.SeasonCode,
			&round.PlayerPhoto,
			&round.AddedBy,
			&round.IsAdminEntry,
			&round.AddedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan round row: %w", err)
		}
		// A missing differential marks a corrupt row; surfaced as NaN so the
		// engine can skip it instead of the whole listing failing.
		if differential.Valid {
			round.Differential = differential.Float64
		} else {
			round.Differential = math.NaN()
		}
		rounds = append(rounds, round)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating round rows: %w", err)
	}
	return rounds, nil
}

func (r *postgresRoundRepository) ListSeasonCodes(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT season_code FROM rounds
		WHERE season_code <> '' ORDER BY season_code ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list season codes from rounds: %w", err)
	}
	defer rows.Close()

	codes := make([]string, 0)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan season code: %w", err)
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating season codes: %w", err)
	}
	return codes, nil
}

func (r *postgresRoundRepository) DeleteByPlayerAndSeason(ctx context.Context, exec SQLExecutor, player, seasonCode string) (int64, error) {
	if exec == nil {
		exec = r.db
	}
	query := `DELETE FROM rounds WHERE player = $1 AND season_code = $2`
	result, err := exec.ExecContext(ctx, query, player, seasonCode)
	if err != nil {
		return 0, fmt.Errorf("failed to delete rounds for player: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check deleted round count: %w", err)
	}
	return deleted, nil
}
