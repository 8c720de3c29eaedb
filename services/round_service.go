package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/handirank/handirank/handicap"
	"github.com/handirank/handirank/live"
	"github.com/handirank/handirank/models"
	"github.com/handirank/handirank/repositories"
)

// RoundService records rounds and kicks off the downstream ranking work:
// differential computation, the admin election and the live broadcast.
type RoundService struct {
	rounds   repositories.RoundRepository
	seasons  *SeasonService
	hub      *live.Hub
	validate *validator.Validate
	logger   *slog.Logger
}

func NewRoundService(rounds repositories.RoundRepository, seasons *SeasonService, hub *live.Hub, logger *slog.Logger) *RoundService {
	return &RoundService{
		rounds:   rounds,
		seasons:  seasons,
		hub:      hub,
		validate: validator.New(),
		logger:   logger,
	}
}

// RoundInput carries one submitted score. Gross, rating and slope bounds
// reject typos (a 500 gross, a 15.5 slope) while admitting every real
// course.
type RoundInput struct {
	UserName    string    `json:"userName" validate:"required,min=1,max=120"`
	Gross       int       `json:"gross" validate:"required,gte=50,lte=200"`
	Rating      float64   `json:"rating" validate:"required,gte=60,lte=80"`
	Slope       int       `json:"slope" validate:"required,gte=55,lte=155"`
	Holes       int       `json:"holes" validate:"omitempty,oneof=9 18"`
	SeasonCode  string    `json:"seasonCode" validate:"required"`
	PlayedAt    time.Time `json:"playedAt"`
	PlayerPhoto string    `json:"playerPhoto" validate:"omitempty,url"`

	// AddedBy is set when an admin submits on a participant's behalf.
	AddedBy string `json:"addedBy" validate:"omitempty,max=120"`
}

// SubmitResult reports what the submission changed beyond the stored row.
type SubmitResult struct {
	Round        *models.Round    `json:"round"`
	AdminChange  *handicap.Change `json:"adminChange,omitempty"`
	AdminUpdated bool             `json:"adminUpdated"`
}

// Submit validates, scores and stores a round, then re-runs the season
// election. A failed election never fails the submission: the round is
// durable by then and the next status check or sweep will converge the
// admin flag.
func (s *RoundService) Submit(ctx context.Context, input RoundInput) (*SubmitResult, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	if input.Holes == 0 {
		input.Holes = 18
	}
	if input.PlayedAt.IsZero() {
		input.PlayedAt = time.Now()
	}

	isAdminEntry := input.AddedBy != "" && input.AddedBy != input.UserName
	if isAdminEntry {
		if err := s.authorizeAdminEntry(ctx, input); err != nil {
			return nil, err
		}
	}

	round := &models.Round{
		ID:            uuid.NewString(),
		PlayedAt:      input.PlayedAt,
		Player:        input.UserName,
		Gross:         input.Gross,
		Rating:        input.Rating,
		Slope:         input.Slope,
		Holes:         input.Holes,
		AdjustedGross: handicap.AdjustedGross(input.Gross),
		Differential:  handicap.Differential(input.Gross, input.Rating, input.Slope),
		SeasonCode:    input.SeasonCode,
		PlayerPhoto:   input.PlayerPhoto,
		AddedBy:       input.AddedBy,
		IsAdminEntry:  isAdminEntry,
		AddedAt:       time.Now(),
	}

	if err := s.rounds.Append(ctx, round); err != nil {
		return nil, err
	}

	result := &SubmitResult{Round: round}
	s.runPostSubmit(ctx, round.SeasonCode, result)
	return result, nil
}

// authorizeAdminEntry checks that AddedBy holds the admin flag and that the
// target player is actually in the season. Self-submissions skip both
// checks: players may log rounds before a season record even exists.
func (s *RoundService) authorizeAdminEntry(ctx context.Context, input RoundInput) error {
	season, err := s.seasons.findSeason(ctx, input.SeasonCode)
	if err != nil {
		return err
	}
	if err := requireAdmin(season, input.AddedBy); err != nil {
		return err
	}
	if season.FindParticipant(input.UserName) == nil {
		return ErrNotParticipant
	}
	return nil
}

func (s *RoundService) runPostSubmit(ctx context.Context, seasonCode string, result *SubmitResult) {
	season, rounds, err := s.seasons.loadSeasonAndRounds(ctx, seasonCode)
	if err != nil {
		if !errors.Is(err, ErrSeasonNotFound) {
			s.logger.Error("post-submit election failed",
				slog.String("season", seasonCode), slog.Any("error", err))
		}
		s.broadcastLeaderboard(seasonCode)
		return
	}

	standings := handicap.Rank(handicap.Aggregate(rounds))
	change, err := s.seasons.ElectAndPersist(ctx, season, standings)
	if err != nil {
		s.logger.Error("post-submit election failed",
			slog.String("season", seasonCode), slog.Any("error", err))
	} else {
		result.AdminChange = change
		result.AdminUpdated = change != nil
	}
	s.broadcastLeaderboard(seasonCode)
}

func (s *RoundService) broadcastLeaderboard(seasonCode string) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToRoom(live.SeasonRoom(seasonCode), live.Message{
		Type:    live.EventLeaderboardUpdated,
		Payload: map[string]string{"seasonCode": seasonCode},
	})
}
