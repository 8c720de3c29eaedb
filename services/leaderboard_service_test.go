package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handirank/handirank/handicap"
)

func TestWorldLeaderboardSpansSeasons(t *testing.T) {
	env := newTestEnv(t)
	boards := NewLeaderboardService(env.rounds, env.seasons)
	now := time.Now()

	addRound(env, "alice", "summer", 95, now)
	addRound(env, "bob", "winter", 80, now)

	standings, err := boards.World(context.Background())
	require.NoError(t, err)

	require.Len(t, standings, 2)
	assert.Equal(t, "bob", standings[0].Player)
	assert.Equal(t, 1, standings[0].Rank)
	assert.Equal(t, "alice", standings[1].Player)
	assert.Equal(t, 2, standings[1].Rank)
}

func TestSeasonLeaderboardIncludesRoundlessParticipants(t *testing.T) {
	env := newTestEnv(t)
	boards := NewLeaderboardService(env.rounds, env.seasons)

	createSeason(t, env, "summer", "secret", "alice")
	joinSeason(t, env, "summer", "secret", "bob")
	addRound(env, "bob", "summer", 80, time.Now())

	standings, err := boards.Season(context.Background(), "summer")
	require.NoError(t, err)

	require.Len(t, standings, 2)
	assert.Equal(t, "bob", standings[0].Player)
	assert.Equal(t, 1, standings[0].Rounds)
	assert.Equal(t, 1, standings[0].Rank)

	// Alice joined but never played: visible, sentinel handicap, last rank.
	assert.Equal(t, "alice", standings[1].Player)
	assert.Equal(t, 2, standings[1].Rank)
	assert.Equal(t, handicap.NoHandicap, standings[1].Average)
	assert.Equal(t, handicap.NoHandicap, standings[1].Index)
}

func TestSeasonLeaderboardWithoutSeasonRecord(t *testing.T) {
	env := newTestEnv(t)
	boards := NewLeaderboardService(env.rounds, env.seasons)

	addRound(env, "alice", "legacy", 90, time.Now())

	standings, err := boards.Season(context.Background(), "legacy")
	require.NoError(t, err)
	require.Len(t, standings, 1)
	assert.Equal(t, "alice", standings[0].Player)
}

func TestSeasonLeaderboardScopesToOneSeason(t *testing.T) {
	env := newTestEnv(t)
	boards := NewLeaderboardService(env.rounds, env.seasons)
	now := time.Now()

	addRound(env, "alice", "summer", 95, now)
	addRound(env, "bob", "winter", 80, now)

	standings, err := boards.Season(context.Background(), "summer")
	require.NoError(t, err)
	require.Len(t, standings, 1)
	assert.Equal(t, "alice", standings[0].Player)
}
