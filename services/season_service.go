package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/handirank/handirank/handicap"
	"github.com/handirank/handirank/live"
	"github.com/handirank/handirank/models"
	"github.com/handirank/handirank/repositories"
	"github.com/handirank/handirank/utils"
)

// saveAttempts bounds optimistic-concurrency retries on the season row.
const saveAttempts = 3

// SeasonService owns the season lifecycle: creation, joining, participant
// removal, status checks and the admin election that runs behind them.
//
// Admin authority is never cached: every admin-gated operation re-derives
// the flag from the stored season at request time, because an election may
// have moved it between requests.
type SeasonService struct {
	seasons  repositories.SeasonRepository
	rounds   repositories.RoundRepository
	tx       repositories.Transactor
	key      *[32]byte
	hub      *live.Hub
	mailer   *EmailService
	validate *validator.Validate
	logger   *slog.Logger
}

func NewSeasonService(
	seasons repositories.SeasonRepository,
	rounds repositories.RoundRepository,
	tx repositories.Transactor,
	key *[32]byte,
	hub *live.Hub,
	mailer *EmailService,
	logger *slog.Logger,
) *SeasonService {
	return &SeasonService{
		seasons:  seasons,
		rounds:   rounds,
		tx:       tx,
		key:      key,
		hub:      hub,
		mailer:   mailer,
		validate: validator.New(),
		logger:   logger,
	}
}

type CreateSeasonInput struct {
	SeasonCode      string `json:"seasonCode" validate:"required,min=1,max=60"`
	Password        string `json:"password" validate:"omitempty,max=120"`
	AdminName       string `json:"adminName" validate:"omitempty,max=120"`
	AdminEmail      string `json:"adminEmail" validate:"omitempty,email"`
	AdminPhoto      string `json:"adminPhoto" validate:"omitempty,url"`
	MaxParticipants int    `json:"maxParticipants" validate:"omitempty,gte=0"`
}

type JoinSeasonInput struct {
	SeasonCode string `json:"seasonCode" validate:"required"`
	Password   string `json:"password"`
	UserName   string `json:"userName" validate:"required,min=1,max=120"`
	UserEmail  string `json:"userEmail" validate:"omitempty,email"`
	UserPhoto  string `json:"userPhoto" validate:"omitempty,url"`
}

// SeasonInfo mirrors the summary block of the status response.
type SeasonInfo struct {
	Name             string    `json:"name"`
	CreatedAt        time.Time `json:"createdAt"`
	ParticipantCount int       `json:"participantCount"`
}

// SeasonStatus is the status-check result. AdminChange is set when this very
// check moved the admin flag.
type SeasonStatus struct {
	IsAdmin       bool                 `json:"isAdmin"`
	IsParticipant bool                 `json:"isParticipant"`
	CurrentAdmin  string               `json:"currentAdmin,omitempty"`
	Participants  []models.Participant `json:"participants"`
	SeasonInfo    SeasonInfo           `json:"seasonInfo"`
	AdminChange   *handicap.Change     `json:"adminChange,omitempty"`
}

// CreateSeason registers a new season. Codes are unique case-insensitively.
// When an admin name is supplied the creator joins immediately as the one
// flagged participant.
func (s *SeasonService) CreateSeason(ctx context.Context, input CreateSeasonInput) (*models.Season, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	code := strings.TrimSpace(input.SeasonCode)

	if _, err := s.seasons.FindByCode(ctx, code); err == nil {
		return nil, ErrSeasonCodeConflict
	} else if !errors.Is(err, repositories.ErrSeasonNotFound) {
		return nil, err
	}

	sealed, err := utils.SealSecret(s.key, input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to seal season password: %w", err)
	}

	season := &models.Season{
		Code:            code,
		SealedPassword:  sealed,
		Participants:    []models.Participant{},
		MaxParticipants: input.MaxParticipants,
	}

	if input.AdminName != "" {
		season.Participants = append(season.Participants, models.Participant{
			Name:     input.AdminName,
			Email:    input.AdminEmail,
			Photo:    input.AdminPhoto,
			IsAdmin:  true,
			JoinedAt: time.Now(),
		})
		season.AdminName = input.AdminName
		season.AdminEmail = input.AdminEmail
		season.AdminPhoto = input.AdminPhoto
	}

	if err := s.seasons.Create(ctx, season); err != nil {
		if errors.Is(err, repositories.ErrSeasonCodeConflict) {
			return nil, ErrSeasonCodeConflict
		}
		return nil, err
	}
	return season, nil
}

// Join adds a participant after checking the shared password. Names are the
// join key and must be unique within the season.
func (s *SeasonService) Join(ctx context.Context, input JoinSeasonInput) (*models.Season, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	for attempt := 0; attempt < saveAttempts; attempt++ {
		season, err := s.findSeason(ctx, input.SeasonCode)
		if err != nil {
			return nil, err
		}

		password, err := utils.OpenSecret(s.key, season.SealedPassword)
		if err != nil {
			return nil, fmt.Errorf("failed to unseal season password: %w", err)
		}
		if subtle.ConstantTimeCompare([]byte(password), []byte(input.Password)) != 1 {
			return nil, ErrInvalidSeasonPassword
		}

		if season.FindParticipant(input.UserName) != nil {
			return nil, ErrParticipantNameConflict
		}

		season.Participants = append(season.Participants, models.Participant{
			Name:     input.UserName,
			Email:    input.UserEmail,
			Photo:    input.UserPhoto,
			IsAdmin:  false,
			JoinedAt: time.Now(),
		})

		err = s.seasons.Save(ctx, nil, season)
		if err == nil {
			return season, nil
		}
		if !errors.Is(err, repositories.ErrSeasonVersionConflict) {
			return nil, err
		}
		// Lost the race; reload and re-check from scratch.
	}
	return nil, ErrConcurrentUpdate
}

// Status reports membership and admin state for a user, running the
// election first so the answer reflects the current ranking.
func (s *SeasonService) Status(ctx context.Context, seasonCode, userName string) (*SeasonStatus, error) {
	season, rounds, err := s.loadSeasonAndRounds(ctx, seasonCode)
	if err != nil {
		return nil, err
	}

	standings := handicap.Rank(handicap.Aggregate(rounds))
	change, err := s.ElectAndPersist(ctx, season, standings)
	if err != nil {
		return nil, err
	}

	status := &SeasonStatus{
		Participants: season.Participants,
		SeasonInfo: SeasonInfo{
			Name:             season.Code,
			CreatedAt:        season.CreatedAt,
			ParticipantCount: len(season.Participants),
		},
		AdminChange: change,
	}
	if admin := season.AdminParticipant(); admin != nil {
		status.CurrentAdmin = admin.Name
	}
	if p := season.FindParticipant(userName); p != nil {
		status.IsParticipant = true
		status.IsAdmin = p.IsAdmin
	}
	return status, nil
}

// RevealPassword returns the shared season password to the current admin.
func (s *SeasonService) RevealPassword(ctx context.Context, seasonCode, adminName string) (string, error) {
	season, err := s.findSeason(ctx, seasonCode)
	if err != nil {
		return "", err
	}
	if err := requireAdmin(season, adminName); err != nil {
		return "", err
	}
	password, err := utils.OpenSecret(s.key, season.SealedPassword)
	if err != nil {
		return "", fmt.Errorf("failed to unseal season password: %w", err)
	}
	return password, nil
}

// RemoveParticipant drops a participant and cascades to their rounds in
// this season. The list update and the round deletion share one
// transaction: either both apply or neither does.
func (s *SeasonService) RemoveParticipant(ctx context.Context, seasonCode, participantName, adminName string) error {
	for attempt := 0; attempt < saveAttempts; attempt++ {
		season, err := s.findSeason(ctx, seasonCode)
		if err != nil {
			return err
		}
		if err := requireAdmin(season, adminName); err != nil {
			return err
		}
		removed := season.FindParticipant(participantName)
		if removed == nil {
			return ErrParticipantNotFound
		}

		kept := make([]models.Participant, 0, len(season.Participants)-1)
		for _, p := range season.Participants {
			if p.Name != participantName {
				kept = append(kept, p)
			}
		}
		season.Participants = kept
		if removed.IsAdmin {
			// The season goes admin-less until the next election.
			season.AdminName = ""
			season.AdminEmail = ""
			season.AdminPhoto = ""
			now := time.Now()
			season.AdminUpdatedAt = &now
		}

		err = s.tx.InTransaction(ctx, func(exec repositories.SQLExecutor) error {
			if err := s.seasons.Save(ctx, exec, season); err != nil {
				return err
			}
			deleted, err := s.rounds.DeleteByPlayerAndSeason(ctx, exec, participantName, season.Code)
			if err != nil {
				return err
			}
			s.logger.Info("participant removed",
				slog.String("season", season.Code),
				slog.String("participant", participantName),
				slog.Int64("rounds_deleted", deleted))
			return nil
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, repositories.ErrSeasonVersionConflict) {
			return err
		}
	}
	return ErrConcurrentUpdate
}

// ListSeasonCodes returns every known season. Falls back to the codes seen
// on round rows when no season records exist yet (legacy data).
func (s *SeasonService) ListSeasonCodes(ctx context.Context) ([]string, error) {
	codes, err := s.seasons.ListCodes(ctx)
	if err != nil {
		return nil, err
	}
	if len(codes) > 0 {
		return codes, nil
	}
	return s.rounds.ListSeasonCodes(ctx)
}

// SeasonExists is a cheap existence probe for the websocket handler.
func (s *SeasonService) SeasonExists(ctx context.Context, seasonCode string) (bool, error) {
	_, err := s.findSeason(ctx, seasonCode)
	if errors.Is(err, ErrSeasonNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ElectAndPersist runs the admin election against the given standings and
// saves the season when the flag moved, retrying on concurrent updates. The
// same path serves round submission, status checks and the background
// sweep, so all of them converge on the identical result for the same
// round set.
func (s *SeasonService) ElectAndPersist(ctx context.Context, season *models.Season, standings []models.Standing) (*handicap.Change, error) {
	for attempt := 0; attempt < saveAttempts; attempt++ {
		change, changed := handicap.Elect(season, standings, time.Now())
		if !changed {
			return nil, nil
		}

		err := s.seasons.Save(ctx, nil, season)
		if err == nil {
			if change != nil {
				s.notifyAdminChange(season, change)
			}
			return change, nil
		}
		if !errors.Is(err, repositories.ErrSeasonVersionConflict) {
			return nil, err
		}

		reloaded, err := s.findSeason(ctx, season.Code)
		if err != nil {
			return nil, err
		}
		*season = *reloaded
	}
	return nil, ErrConcurrentUpdate
}

// RunElectionSweep re-runs the election for every season and pushes any
// handover to that season's room. Elections are idempotent, so sweeping
// alongside request-triggered runs is safe.
func (s *SeasonService) RunElectionSweep(ctx context.Context) error {
	codes, err := s.seasons.ListCodes(ctx)
	if err != nil {
		return err
	}

	for _, code := range codes {
		season, rounds, err := s.loadSeasonAndRounds(ctx, code)
		if err != nil {
			s.logger.Error("election sweep: failed to load season",
				slog.String("season", code), slog.Any("error", err))
			continue
		}
		standings := handicap.Rank(handicap.Aggregate(rounds))
		if _, err := s.ElectAndPersist(ctx, season, standings); err != nil {
			s.logger.Error("election sweep: election failed",
				slog.String("season", code), slog.Any("error", err))
		}
	}
	return nil
}

func (s *SeasonService) notifyAdminChange(season *models.Season, change *handicap.Change) {
	s.logger.Info("season admin changed",
		slog.String("season", season.Code),
		slog.String("previous", change.Previous),
		slog.String("new", change.New))

	if s.hub != nil {
		s.hub.BroadcastToRoom(live.SeasonRoom(season.Code), live.Message{
			Type:    live.EventAdminChanged,
			Payload: change,
		})
	}
	if s.mailer != nil && season.AdminEmail != "" {
		if err := s.mailer.NotifyAdminChange(season.AdminEmail, season.Code, *change); err != nil {
			s.logger.Error("failed to send admin change mail",
				slog.String("season", season.Code), slog.Any("error", err))
		}
	}
}

// loadSeasonAndRounds fetches the season record and its round rows
// concurrently; both are needed by every election path.
func (s *SeasonService) loadSeasonAndRounds(ctx context.Context, seasonCode string) (*models.Season, []models.Round, error) {
	var (
		season *models.Season
		rounds []models.Round
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		season, err = s.findSeason(gctx, seasonCode)
		return err
	})
	g.Go(func() error {
		var err error
		rounds, err = s.rounds.ListBySeason(gctx, seasonCode)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return season, rounds, nil
}

func (s *SeasonService) findSeason(ctx context.Context, code string) (*models.Season, error) {
	season, err := s.seasons.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repositories.ErrSeasonNotFound) {
			return nil, ErrSeasonNotFound
		}
		return nil, err
	}
	return season, nil
}

// requireAdmin re-derives admin authority from the stored participant list.
func requireAdmin(season *models.Season, name string) error {
	p := season.FindParticipant(name)
	if p == nil || !p.IsAdmin {
		return ErrAdminRequired
	}
	return nil
}
