package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/handirank/handirank/models"
)

var (
	ErrSeasonNotFound     = errors.New("season not found")
	ErrSeasonCodeConflict = errors.New("season code already exists")
	// ErrSeasonVersionConflict means the row moved under us; reload and retry.
	ErrSeasonVersionConflict = errors.New("season was modified concurrently")
)

// SeasonRepository stores seasons with their embedded participant document.
// Every Save is guarded by the version column, so concurrent
// read-modify-write cycles surface as ErrSeasonVersionConflict instead of a
// silent lost update.
type SeasonRepository interface {
	Create(ctx context.Context, season *models.Season) error
	FindByCode(ctx context.Context, code string) (*models.Season, error)
	ListCodes(ctx context.Context) ([]string, error)
	Save(ctx context.Context, exec SQLExecutor, season *models.Season) error
}

type postgresSeasonRepository struct {
	db *sql.DB
}

func NewPostgresSeasonRepository(db *sql.DB) SeasonRepository {
	return &postgresSeasonRepository{db: db}
}

func (r *postgresSeasonRepository) Create(ctx context.Context, season *models.Season) error {
	participants, err := marshalParticipants(season.Participants)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO seasons (code, sealed_password, participants, admin_name,
			admin_email, admin_photo, max_participants, created_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), 1)
		RETURNING id, created_at, version`

	err = r.db.QueryRowContext(ctx, query,
		season.Code,
		season.SealedPassword,
		participants,
		season.AdminName,
		season.AdminEmail,
		season.AdminPhoto,
		season.MaxParticipants,
	).Scan(&season.ID, &season.CreatedAt, &season.Version)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			// unique index on LOWER(code)
			return ErrSeasonCodeConflict
		}
		return fmt.Errorf("failed to create season: %w", err)
	}
	return nil
}

func (r *postgresSeasonRepository) FindByCode(ctx context.Context, code string) (*models.Season, error) {
	query := `
		SELECT id, code, sealed_password, participants, admin_name, admin_email,
			admin_photo, max_participants, created_at, admin_updated_at, version
		FROM seasons
		WHERE LOWER(code) = LOWER($1)`

	var (
		season       models.Season
		participants []byte
	)
	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&season.ID,
		&season.Code,
		&season.SealedPassword,
		&participants,
		&season.AdminName,
		&season.AdminEmail,
		&season.AdminPhoto,
		&season.MaxParticipants,
		&season.CreatedAt,
		&season.AdminUpdatedAt,
		&season.Version,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeasonNotFound
		}
		return nil, fmt.Errorf("failed to find season: %w", err)
	}

	season.Participants, err = unmarshalParticipants(participants)
	if err != nil {
		return nil, err
	}
	return &season, nil
}

func (r *postgresSeasonRepository) ListCodes(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT code FROM seasons ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list seasons: %w", err)
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
		return nil, fmt.Errorf("error iterating season rows: %w", err)
	}
	return codes, nil
}

// Save writes the participant document and admin snapshot back, bumping the
// version. Callers must reload and retry on ErrSeasonVersionConflict.
func (r *postgresSeasonRepository) Save(ctx context.Context, exec SQLExecutor, season *models.Season) error {
	if exec == nil {
		exec = r.db
	}

	participants, err := marshalParticipants(season.Participants)
	if err != nil {
		return err
	}

	query := `
		UPDATE seasons
		SET participants = $1, admin_name = $2, admin_email = $3,
			admin_photo = $4, admin_updated_at = $5, version = version + 1
		WHERE id = $6 AND version = $7`

	result, err := exec.ExecContext(ctx, query,
		participants,
		season.AdminName,
		season.AdminEmail,
		season.AdminPhoto,
		season.AdminUpdatedAt,
		season.ID,
		season.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to save season: %w", err)
	}
	if err := checkAffectedRows(result, ErrSeasonVersionConflict); err != nil {
		return err
	}
	season.Version++
	return nil
}

func marshalParticipants(participants []models.Participant) ([]byte, error) {
	if participants == nil {
		participants = []models.Participant{}
	}
	data, err := json.Marshal(participants)
	if err != nil {
		return nil, fmt.Errorf("failed to encode participant list: %w", err)
	}
	return data, nil
}

func unmarshalParticipants(data []byte) ([]models.Participant, error) {
	if len(data) == 0 {
		return []models.Participant{}, nil
	}
	var participants []models.Participant
	if err := json.Unmarshal(data, &participants); err != nil {
		return nil, fmt.Errorf("failed to decode participant list: %w", err)
	}
	return participants, nil
}
