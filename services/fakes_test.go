package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/handirank/handirank/models"
	"github.com/handirank/handirank/repositories"
	"github.com/handirank/handirank/utils"
)

// fakeSeasonRepo is an in-memory SeasonRepository with the same contract as
// the Postgres one: copies in, copies out, version-checked saves.
type fakeSeasonRepo struct {
	mu      sync.Mutex
	seasons map[string]*models.Season
	nextID  int

	// saveConflicts injects that many version conflicts before saves
	// succeed again, to exercise retry paths.
	saveConflicts int
}

func newFakeSeasonRepo() *fakeSeasonRepo {
	return &fakeSeasonRepo{seasons: make(map[string]*models.Season)}
}

func copySeason(s *models.Season) *models.Season {
	cp := *s
	cp.Participants = append([]models.Participant(nil), s.Participants...)
	if s.AdminUpdatedAt != nil {
		t := *s.AdminUpdatedAt
		cp.AdminUpdatedAt = &t
	}
	return &cp
}

func (r *fakeSeasonRepo) Create(_ context.Context, season *models.Season) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(season.Code)
	if _, ok := r.seasons[key]; ok {
		return repositories.ErrSeasonCodeConflict
	}
	r.nextID++
	season.ID = r.nextID
	season.Version = 1
	r.seasons[key] = copySeason(season)
	return nil
}

func (r *fakeSeasonRepo) FindByCode(_ context.Context, code string) (*models.Season, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.seasons[strings.ToLower(code)]
	if !ok {
		return nil, repositories.ErrSeasonNotFound
	}
	return copySeason(stored), nil
}

func (r *fakeSeasonRepo) ListCodes(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	codes := make([]string, 0, len(r.seasons))
	for _, s := range r.seasons {
		codes = append(codes, s.Code)
	}
	return codes, nil
}

func (r *fakeSeasonRepo) Save(_ context.Context, _ repositories.SQLExecutor, season *models.Season) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveConflicts > 0 {
		r.saveConflicts--
		return repositories.ErrSeasonVersionConflict
	}
	key := strings.ToLower(season.Code)
	stored, ok := r.seasons[key]
	if !ok {
		return repositories.ErrSeasonNotFound
	}
	if stored.Version != season.Version {
		return repositories.ErrSeasonVersionConflict
	}
	season.Version++
	r.seasons[key] = copySeason(season)
	return nil
}

func (r *fakeSeasonRepo) snapshot() map[string]*models.Season {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := make(map[string]*models.Season, len(r.seasons))
	for k, v := range r.seasons {
		snap[k] = copySeason(v)
	}
	return snap
}

func (r *fakeSeasonRepo) restore(snap map[string]*models.Season) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seasons = snap
}

type fakeRoundRepo struct {
	mu     sync.Mutex
	rounds []models.Round

	failDelete error
}

func newFakeRoundRepo() *fakeRoundRepo {
	return &fakeRoundRepo{}
}

func (r *fakeRoundRepo) Append(_ context.Context, round *models.Round) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rounds = append(r.rounds, *round)
	return nil
}

func (r *fakeRoundRepo) ListAll(_ context.Context) ([]models.Round, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Round(nil), r.rounds...), nil
}

func (r *fakeRoundRepo) ListBySeason(_ context.Context, seasonCode string) ([]models.Round, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Round
	for _, round := range r.rounds {
		if round.SeasonCode == seasonCode {
			out = append(out, round)
		}
	}
	return out, nil
}

func (r *fakeRoundRepo) ListSeasonCodes(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]bool)
	var codes []string
	for _, round := range r.rounds {
		if !seen[round.SeasonCode] {
			seen[round.SeasonCode] = true
			codes = append(codes, round.SeasonCode)
		}
	}
	return codes, nil
}

func (r *fakeRoundRepo) DeleteByPlayerAndSeason(_ context.Context, _ repositories.SQLExecutor, player, seasonCode string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failDelete != nil {
		return 0, r.failDelete
	}
	var kept []models.Round
	var deleted int64
	for _, round := range r.rounds {
		if round.Player == player && round.SeasonCode == seasonCode {
			deleted++
			continue
		}
		kept = append(kept, round)
	}
	r.rounds = kept
	return deleted, nil
}

// fakeTransactor snapshots the season store and restores it when the wrapped
// function fails, mimicking a rollback.
type fakeTransactor struct {
	seasons *fakeSeasonRepo
}

func (t *fakeTransactor) InTransaction(_ context.Context, fn func(exec repositories.SQLExecutor) error) error {
	snap := t.seasons.snapshot()
	if err := fn(nil); err != nil {
		t.seasons.restore(snap)
		return err
	}
	return nil
}

var errBoom = errors.New("boom")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testKey(t *testing.T) *[32]byte {
	t.Helper()
	key, err := utils.ParseSecretKey(strings.Repeat("ab", 32))
	require.NoError(t, err)
	return key
}

type testEnv struct {
	seasons *fakeSeasonRepo
	rounds  *fakeRoundRepo
	service *SeasonService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	seasons := newFakeSeasonRepo()
	rounds := newFakeRoundRepo()
	service := NewSeasonService(
		seasons,
		rounds,
		&fakeTransactor{seasons: seasons},
		testKey(t),
		nil,
		nil,
		testLogger(),
	)
	return &testEnv{seasons: seasons, rounds: rounds, service: service}
}
