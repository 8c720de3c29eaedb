package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handirank/handirank/handicap"
	"github.com/handirank/handirank/models"
)

func createSeason(t *testing.T, env *testEnv, code, password, admin string) *models.Season {
	t.Helper()
	season, err := env.service.CreateSeason(context.Background(), CreateSeasonInput{
		SeasonCode: code,
		Password:   password,
		AdminName:  admin,
		AdminEmail: admin + "@example.com",
	})
	require.NoError(t, err)
	return season
}

func joinSeason(t *testing.T, env *testEnv, code, password, name string) {
	t.Helper()
	_, err := env.service.Join(context.Background(), JoinSeasonInput{
		SeasonCode: code,
		Password:   password,
		UserName:   name,
	})
	require.NoError(t, err)
}

func addRound(env *testEnv, player, code string, gross int, playedAt time.Time) {
	_ = env.rounds.Append(context.Background(), &models.Round{
		ID:           player + playedAt.String(),
		PlayedAt:     playedAt,
		Player:       player,
		Gross:        gross,
		Rating:       72.0,
		Slope:        113,
		Holes:        18,
		Differential: handicap.Differential(gross, 72.0, 113),
		SeasonCode:   code,
	})
}

func TestCreateSeasonMakesCreatorAdmin(t *testing.T) {
	env := newTestEnv(t)

	season := createSeason(t, env, "summer-2026", "secret", "alice")

	require.Len(t, season.Participants, 1)
	assert.Equal(t, "alice", season.Participants[0].Name)
	assert.True(t, season.Participants[0].IsAdmin)
	assert.Equal(t, "alice", season.AdminName)
	assert.Equal(t, 1, season.Version)
}

func TestCreateSeasonCodeConflictIsCaseInsensitive(t *testing.T) {
	env := newTestEnv(t)
	createSeason(t, env, "Summer-2026", "secret", "alice")

	_, err := env.service.CreateSeason(context.Background(), CreateSeasonInput{
		SeasonCode: "summer-2026",
		Password:   "other",
	})
	assert.ErrorIs(t, err, ErrSeasonCodeConflict)
}

func TestCreateSeasonValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.CreateSeason(context.Background(), CreateSeasonInput{})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestJoinAddsParticipant(t *testing.T) {
	env := newTestEnv(t)
	createSeason(t, env, "summer", "secret", "alice")

	season, err := env.service.Join(context.Background(), JoinSeasonInput{
		SeasonCode: "summer",
		Password:   "secret",
		UserName:   "bob",
		UserEmail:  "bob@example.com",
	})
	require.NoError(t, err)

	require.Len(t, season.Participants, 2)
	bob := season.FindParticipant("bob")
	require.NotNil(t, bob)
	assert.False(t, bob.IsAdmin)
}

func TestJoinWrongPasswordLeavesSeasonUntouched(t *testing.T) {
	env := newTestEnv(t)
	createSeason(t, env, "summer", "secret", "alice")

	_, err := env.service.Join(context.Background(), JoinSeasonInput{
		SeasonCode: "summer",
		Password:   "wrong",
		UserName:   "bob",
	})
	assert.ErrorIs(t, err, ErrInvalidSeasonPassword)

	stored, err := env.seasons.FindByCode(context.Background(), "summer")
	require.NoError(t, err)
	assert.Len(t, stored.Participants, 1)
}

func TestJoinDuplicateName(t *testing.T) {
	env := newTestEnv(t)
	createSeason(t, env, "summer", "secret", "alice")

	_, err := env.service.Join(context.Background(), JoinSeasonInput{
		SeasonCode: "summer",
		Password:   "secret",
		UserName:   "alice",
	})
	assert.ErrorIs(t, err, ErrParticipantNameConflict)
}

func TestJoinUnknownSeason(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.Join(context.Background(), JoinSeasonInput{
		SeasonCode: "missing",
		Password:   "x",
		UserName:   "bob",
	})
	assert.ErrorIs(t, err, ErrSeasonNotFound)
}

func TestJoinRetriesOnVersionConflict(t *testing.T) {
	env := newTestEnv(t)
	createSeason(t, env, "summer", "secret", "alice")
	env.seasons.saveConflicts = 1

	_, err := env.service.Join(context.Background(), JoinSeasonInput{
		SeasonCode: "summer",
		Password:   "secret",
		UserName:   "bob",
	})
	require.NoError(t, err)

	stored, err := env.seasons.FindByCode(context.Background(), "summer")
	require.NoError(t, err)
	assert.Len(t, stored.Participants, 2)
}

func TestRevealPassword(t *testing.T) {
	env := newTestEnv(t)
	createSeason(t, env, "summer", "secret", "alice")
	joinSeason(t, env, "summer", "secret", "bob")

	password, err := env.service.RevealPassword(context.Background(), "summer", "alice")
	require.NoError(t, err)
	assert.Equal(t, "secret", password)

	_, err = env.service.RevealPassword(context.Background(), "summer", "bob")
	assert.ErrorIs(t, err, ErrAdminRequired)

	_, err = env.service.RevealPassword(context.Background(), "summer", "stranger")
	assert.ErrorIs(t, err, ErrAdminRequired)
}

func TestRemoveParticipantCascadesRounds(t *testing.T) {
	env := newTestEnv(t)
	createSeason(t, env, "summer", "secret", "alice")
	joinSeason(t, env, "summer", "secret", "bob")
	now := time.Now()
	addRound(env, "bob", "summer", 90, now)
	addRound(env, "bob", "other", 85, now)

	err := env.service.RemoveParticipant(context.Background(), "summer", "bob", "alice")
	require.NoError(t, err)

	stored, err := env.seasons.FindByCode(context.Background(), "summer")
	require.NoError(t, err)
	assert.Nil(t, stored.FindParticipant("bob"))

	remaining, err := env.rounds.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "other", remaining[0].SeasonCode)
}

func TestRemoveParticipantRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	createSeason(t, env, "summer", "secret", "alice")
	joinSeason(t, env, "summer", "secret", "bob")

	err := env.service.RemoveParticipant(context.Background(), "summer", "alice", "bob")
	assert.ErrorIs(t, err, ErrAdminRequired)
}

func TestRemoveParticipantUnknownTarget(t *testing.T) {
	env := newTestEnv(t)
	createSeason(t, env, "summer", "secret", "alice")

	err := env.service.RemoveParticipant(context.Background(), "summer", "ghost", "alice")
	assert.ErrorIs(t, err, ErrParticipantNotFound)
}

func TestRemoveParticipantRollsBackWhenCascadeFails(t *testing.T) {
	env := newTestEnv(t)
	createSeason(t, env, "summer", "secret", "alice")
	joinSeason(t, env, "summer", "secret", "bob")
	env.rounds.failDelete = errBoom

	err := env.service.RemoveParticipant(context.Background(), "summer", "bob", "alice")
	assert.ErrorIs(t, err, errBoom)

	stored, err := env.seasons.FindByCode(context.Background(), "summer")
	require.NoError(t, err)
	assert.NotNil(t, stored.FindParticipant("bob"), "participant list must survive a failed cascade")
}

func TestRemoveAdminClearsAdminSnapshot(t *testing.T) {
	env := newTestEnv(t)
	createSeason(t, env, "summer", "secret", "alice")
	joinSeason(t, env, "summer", "secret", "bob")

	// No rounds exist, so no election can refill the flag afterwards.
	err := env.service.RemoveParticipant(context.Background(), "summer", "alice", "alice")
	require.NoError(t, err)

	stored, err := env.seasons.FindByCode(context.Background(), "summer")
	require.NoError(t, err)
	assert.Empty(t, stored.AdminName)
	assert.Nil(t, stored.AdminParticipant())
}

func TestStatusElectsLeaderboardLeader(t *testing.T) {
	env := newTestEnv(t)
	createSeason(t, env, "summer", "secret", "alice")
	joinSeason(t, env, "summer", "secret", "bob")

	now := time.Now()
	addRound(env, "alice", "summer", 95, now.Add(-2*time.Hour))
	addRound(env, "bob", "summer", 80, now.Add(-time.Hour))

	status, err := env.service.Status(context.Background(), "summer", "bob")
	require.NoError(t, err)

	assert.True(t, status.IsParticipant)
	assert.True(t, status.IsAdmin)
	assert.Equal(t, "bob", status.CurrentAdmin)
	require.NotNil(t, status.AdminChange)
	assert.Equal(t, "alice", status.AdminChange.Previous)
	assert.Equal(t, "bob", status.AdminChange.New)

	// Re-running the same check must not report another handover.
	again, err := env.service.Status(context.Background(), "summer", "bob")
	require.NoError(t, err)
	assert.Nil(t, again.AdminChange)
	assert.Equal(t, "bob", again.CurrentAdmin)
}

func TestStatusLeaderOutsideSeasonKeepsAdmin(t *testing.T) {
	env := newTestEnv(t)
	createSeason(t, env, "summer", "secret", "alice")

	// The best player never joined, so the flag must stay where it is.
	addRound(env, "drifter", "summer", 75, time.Now())

	status, err := env.service.Status(context.Background(), "summer", "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", status.CurrentAdmin)
	assert.Nil(t, status.AdminChange)
}

func TestStatusForNonParticipant(t *testing.T) {
	env := newTestEnv(t)
	createSeason(t, env, "summer", "secret", "alice")

	status, err := env.service.Status(context.Background(), "summer", "stranger")
	require.NoError(t, err)
	assert.False(t, status.IsParticipant)
	assert.False(t, status.IsAdmin)
}

func TestElectionRetriesThenGivesUp(t *testing.T) {
	env := newTestEnv(t)
	createSeason(t, env, "summer", "secret", "alice")
	joinSeason(t, env, "summer", "secret", "bob")
	addRound(env, "bob", "summer", 80, time.Now())

	env.seasons.saveConflicts = 1
	status, err := env.service.Status(context.Background(), "summer", "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", status.CurrentAdmin)

	// Reset the admin back to alice and make every save fail.
	env.seasons.mu.Lock()
	stored := env.seasons.seasons["summer"]
	for i := range stored.Participants {
		stored.Participants[i].IsAdmin = stored.Participants[i].Name == "alice"
	}
	env.seasons.saveConflicts = saveAttempts
	env.seasons.mu.Unlock()

	_, err = env.service.Status(context.Background(), "summer", "bob")
	assert.ErrorIs(t, err, ErrConcurrentUpdate)
}

func TestRunElectionSweep(t *testing.T) {
	env := newTestEnv(t)
	createSeason(t, env, "summer", "secret", "alice")
	joinSeason(t, env, "summer", "secret", "bob")
	addRound(env, "bob", "summer", 80, time.Now())

	require.NoError(t, env.service.RunElectionSweep(context.Background()))

	stored, err := env.seasons.FindByCode(context.Background(), "summer")
	require.NoError(t, err)
	admin := stored.AdminParticipant()
	require.NotNil(t, admin)
	assert.Equal(t, "bob", admin.Name)
}

func TestListSeasonCodesFallsBackToRounds(t *testing.T) {
	env := newTestEnv(t)
	addRound(env, "bob", "legacy-season", 90, time.Now())

	codes, err := env.service.ListSeasonCodes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"legacy-season"}, codes)

	createSeason(t, env, "summer", "secret", "alice")
	codes, err = env.service.ListSeasonCodes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"summer"}, codes)
}

func TestSeasonExists(t *testing.T) {
	env := newTestEnv(t)
	createSeason(t, env, "summer", "secret", "alice")

	exists, err := env.service.SeasonExists(context.Background(), "summer")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = env.service.SeasonExists(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, exists)
}
