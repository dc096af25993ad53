package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Temirlan00/league-system/live"
	"github.com/Temirlan00/league-system/models"
	"github.com/Temirlan00/league-system/repositories"
)

type FlagCancellationInput struct {
	CanceledByUserID int    `json:"canceled_by_user_id"`
	Reason           string `json:"reason"`
}

type ReviewCancellationInput struct {
	Approved        *bool                  `json:"approved"`
	ApplyPenalty    bool                   `json:"apply_penalty"`
	PenaltySeverity models.PenaltySeverity `json:"penalty_severity,omitempty"`
	Reason          string                 `json:"reason"`
}

type CancellationService interface {
	// FlagLateCancellation вызывается планировщиком, когда отказ от матча попал
	// внутрь штрафного окна.
	FlagLateCancellation(ctx context.Context, matchID int, input FlagCancellationInput) (*models.LateCancellation, error)
	ReviewCancellation(ctx context.Context, admin models.AdminContext, cancellationID int, input ReviewCancellationInput) (*models.LateCancellation, error)
	ListPendingCancellations(ctx context.Context) ([]*models.LateCancellation, error)
}

type cancellationService struct {
	db               *sql.DB
	cancellationRepo repositories.CancellationRepository
	penaltyRepo      repositories.PenaltyRepository
	matchRepo        repositories.MatchRepository
	notifier         Notifier
	hub              *live.Hub
	defaultSeverity  models.PenaltySeverity
	windowHours      int
}

func NewCancellationService(
	db *sql.DB,
	cancellationRepo repositories.CancellationRepository,
	penaltyRepo repositories.PenaltyRepository,
	matchRepo repositories.MatchRepository,
	notifier Notifier,
	hub *live.Hub,
	defaultSeverity models.PenaltySeverity,
	windowHours int,
) CancellationService {
	return &cancellationService{
		db:               db,
		cancellationRepo: cancellationRepo,
		penaltyRepo:      penaltyRepo,
		matchRepo:        matchRepo,
		notifier:         notifier,
		hub:              hub,
		defaultSeverity:  defaultSeverity,
		windowHours:      windowHours,
	}
}

func (s *cancellationService) FlagLateCancellation(ctx context.Context, matchID int, input FlagCancellationInput) (*models.LateCancellation, error) {
	if input.CanceledByUserID <= 0 {
		return nil, fmt.Errorf("%w: canceled_by_user_id is required", ErrValidationFailed)
	}
	if input.Reason == "" {
		return nil, ErrReasonRequired
	}

	cancellation := &models.LateCancellation{
		MatchID:      matchID,
		CanceledByID: input.CanceledByUserID,
		Status:       models.CancellationStatusPending,
		Reason:       input.Reason,
	}

	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		match, err := s.matchRepo.GetByID(ctx, tx, matchID)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return ErrMatchNotFound
			}
			return err
		}
		// Отказ "поздний", только если до начала матча меньше штрафного окна.
		if s.windowHours > 0 && !match.ScheduledAt.IsZero() {
			if time.Until(match.ScheduledAt) > time.Duration(s.windowHours)*time.Hour {
				return ErrCancellationNotLate
			}
		}
		if err := s.cancellationRepo.Create(ctx, tx, cancellation); err != nil {
			return fmt.Errorf("failed to create late cancellation for match %d: %w", matchID, err)
		}
		if !match.HasLateCancellation {
			if err := s.matchRepo.SetLateCancellationFlag(ctx, tx, matchID, true); err != nil {
				return fmt.Errorf("failed to flag match %d late cancellation: %w", matchID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancellation, nil
}

// ReviewCancellation - однократное решение админа по pending-отмене. Отклонение
// с apply_penalty выписывает штраф отменившему игроку в той же транзакции.
func (s *cancellationService) ReviewCancellation(ctx context.Context, admin models.AdminContext, cancellationID int, input ReviewCancellationInput) (*models.LateCancellation, error) {
	if input.Approved == nil {
		return nil, fmt.Errorf("%w: approved is required", ErrValidationFailed)
	}
	if input.Reason == "" {
		return nil, ErrReasonRequired
	}
	severity := input.PenaltySeverity
	if severity == "" {
		severity = s.defaultSeverity
	}
	if input.ApplyPenalty && !severity.Valid() {
		return nil, ErrInvalidPenaltySeverity
	}

	status := models.CancellationStatusDenied
	if *input.Approved {
		status = models.CancellationStatusApproved
	}

	var reviewed *models.LateCancellation

	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		cancellation, err := s.cancellationRepo.GetByID(ctx, tx, cancellationID)
		if err != nil {
			if errors.Is(err, repositories.ErrCancellationNotFound) {
				return ErrCancellationNotFound
			}
			return err
		}
		if cancellation.Status != models.CancellationStatusPending {
			return ErrCancellationReviewed
		}

		var penaltyID *int
		if input.ApplyPenalty {
			points := pointsForSeverity(severity)
			penalty := &models.Penalty{
				UserID:         cancellation.CanceledByID,
				IssuedByID:     admin.ID,
				Type:           models.PenaltyRatingDeduction,
				Severity:       severity,
				PointsDeducted: &points,
				RelatedMatchID: &cancellation.MatchID,
				Reason:         input.Reason,
			}
			if err := s.penaltyRepo.Create(ctx, tx, penalty); err != nil {
				return fmt.Errorf("failed to create cancellation penalty: %w", err)
			}
			penaltyID = &penalty.ID
		}

		if err := s.cancellationRepo.Review(ctx, tx, cancellationID, status, admin.ID, input.Reason, penaltyID); err != nil {
			if errors.Is(err, repositories.ErrCancellationNotPending) {
				return ErrCancellationReviewed
			}
			return err
		}

		cancellation.Status = status
		cancellation.ReviewedByID = &admin.ID
		cancellation.ReviewReason = &input.Reason
		cancellation.PenaltyID = penaltyID
		reviewed = cancellation
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Уведомление игроку и live-лента - после коммита, best-effort.
	if match, err := s.matchRepo.GetByID(ctx, nil, reviewed.MatchID); err == nil {
		s.hubBroadcast(match.LeagueID, reviewed)
		if s.notifier != nil {
			subject := "Late cancellation reviewed"
			body := fmt.Sprintf("Your cancellation of match #%d was %s. Reason: %s", reviewed.MatchID, status, input.Reason)
			s.notifier.Enqueue(ctx, models.NotifyCancellationReview, reviewed.CanceledByID, match.LeagueID, reviewed.ID, subject, body)
		}
	}

	return reviewed, nil
}

func (s *cancellationService) ListPendingCancellations(ctx context.Context) ([]*models.LateCancellation, error) {
	cancellations, err := s.cancellationRepo.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	if cancellations == nil {
		return []*models.LateCancellation{}, nil
	}
	return cancellations, nil
}

func (s *cancellationService) hubBroadcast(leagueID int, payload interface{}) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToLeague(leagueID, live.Event{Type: "CANCELLATION_REVIEWED", Payload: payload})
}

// pointsForSeverity - дефолтная политика списания очков. Пересматривается
// вместе с политикой эскалации за повторные нарушения.
func pointsForSeverity(severity models.PenaltySeverity) int {
	switch severity {
	case models.SeverityMinor:
		return 5
	case models.SeveritySevere:
		return 25
	default:
		return 10
	}
}
