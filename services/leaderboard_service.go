package services

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/handirank/handirank/handicap"
	"github.com/handirank/handirank/models"
	"github.com/handirank/handirank/repositories"
)

// LeaderboardService builds ranked standings, either across every stored
// round or scoped to one season.
type LeaderboardService struct {
	rounds  repositories.RoundRepository
	seasons repositories.SeasonRepository
}

func NewLeaderboardService(rounds repositories.RoundRepository, seasons repositories.SeasonRepository) *LeaderboardService {
	return &LeaderboardService{rounds: rounds, seasons: seasons}
}

// World ranks every player that has ever logged a round, across seasons.
func (s *LeaderboardService) World(ctx context.Context) ([]models.Standing, error) {
	rounds, err := s.rounds.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return handicap.Rank(handicap.Aggregate(rounds)), nil
}

// Season ranks one season. Participants who joined but have no rounds yet
// are appended after the scored players with the no-rounds sentinel, so the
// whole roster is always visible. A missing season record degrades to a
// rounds-only board.
func (s *LeaderboardService) Season(ctx context.Context, seasonCode string) ([]models.Standing, error) {
	var (
		season *models.Season
		rounds []models.Round
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		found, err := s.seasons.FindByCode(gctx, seasonCode)
		if err != nil {
			if errors.Is(err, repositories.ErrSeasonNotFound) {
				return nil
			}
			return err
		}
		season = found
		return nil
	})
	g.Go(func() error {
		var err error
		rounds, err = s.rounds.ListBySeason(gctx, seasonCode)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	standings := handicap.Rank(handicap.Aggregate(rounds))
	if season == nil {
		return standings, nil
	}

	scored := make(map[string]bool, len(standings))
	for _, st := range standings {
		scored[st.Player] = true
	}
	for _, p := range season.Participants {
		if scored[p.Name] {
			continue
		}
		standings = append(standings, models.Standing{
			Rank:    len(standings) + 1,
			Player:  p.Name,
			Photo:   p.Photo,
			Average: handicap.NoHandicap,
			Index:   handicap.NoHandicap,
		})
	}
	return standings, nil
}
