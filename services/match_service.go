package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Temirlan00/league-system/live"
	"github.com/Temirlan00/league-system/models"
	"github.com/Temirlan00/league-system/repositories"
)

type EditMatchResultInput struct {
	Team1Score     *int                 `json:"team1_score,omitempty"`
	Team2Score     *int                 `json:"team2_score,omitempty"`
	SetScores      []models.SetScore    `json:"set_scores,omitempty"`
	Outcome        *models.MatchOutcome `json:"outcome,omitempty"`
	IsWalkover     *bool                `json:"is_walkover,omitempty"`
	WalkoverReason *string              `json:"walkover_reason,omitempty"`
	Reason         string               `json:"reason"`
}

type MatchService interface {
	GetMatch(ctx context.Context, id int) (*models.Match, error)
	ListMatches(ctx context.Context, filter models.MatchFilter) (models.MatchListResponse, error)
	// EditMatchResult - частичная правка результата: перезаписываются только
	// переданные поля, каждая правка оставляет запись аудита.
	EditMatchResult(ctx context.Context, admin models.AdminContext, matchID int, input EditMatchResultInput) (*models.Match, error)
	VoidMatch(ctx context.Context, admin models.AdminContext, matchID int, reason string) (*models.Match, error)
	GetMatchAudit(ctx context.Context, matchID int) ([]*models.MatchAuditEntry, error)
}

type matchService struct {
	db        *sql.DB
	matchRepo repositories.MatchRepository
	auditRepo repositories.MatchAuditRepository
	hub       *live.Hub
}

func NewMatchService(
	db *sql.DB,
	matchRepo repositories.MatchRepository,
	auditRepo repositories.MatchAuditRepository,
	hub *live.Hub,
) MatchService {
	return &matchService{
		db:        db,
		matchRepo: matchRepo,
		auditRepo: auditRepo,
		hub:       hub,
	}
}

func (s *matchService) GetMatch(ctx context.Context, id int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

func (s *matchService) ListMatches(ctx context.Context, filter models.MatchFilter) (models.MatchListResponse, error) {
	matches, total, err := s.matchRepo.List(ctx, filter)
	if err != nil {
		return models.MatchListResponse{}, err
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	return models.MatchListResponse{
		Matches:    matches,
		TotalCount: total,
		Page:       page,
		Limit:      limit,
	}, nil
}

func (s *matchService) EditMatchResult(ctx context.Context, admin models.AdminContext, matchID int, input EditMatchResultInput) (*models.Match, error) {
	// reason обязателен до любого обращения к базе: без него ни правки, ни аудита.
	if input.Reason == "" {
		return nil, ErrReasonRequired
	}
	if input.Team1Score == nil && input.Team2Score == nil && len(input.SetScores) == 0 &&
		input.Outcome == nil && input.IsWalkover == nil && input.WalkoverReason == nil {
		return nil, ErrNothingToUpdate
	}
	if len(input.SetScores) > 0 {
		if err := validateSetScores(input.SetScores); err != nil {
			return nil, err
		}
	}
	if input.Outcome != nil && !input.Outcome.Valid() {
		return nil, ErrInvalidOutcome
	}

	return s.overrideResult(ctx, admin, matchID, input.Reason, func(match *models.Match) models.MatchResultSnapshot {
		snap := snapshotOfMatch(match)
		if input.Team1Score != nil {
			snap.Team1Score = input.Team1Score
		}
		if input.Team2Score != nil {
			snap.Team2Score = input.Team2Score
		}
		if len(input.SetScores) > 0 {
			snap.SetScores = input.SetScores
		}
		if input.IsWalkover != nil {
			snap.IsWalkover = *input.IsWalkover
		}
		if input.WalkoverReason != nil {
			snap.WalkoverReason = input.WalkoverReason
		}
		if input.Outcome != nil {
			snap.Outcome = input.Outcome
			switch *input.Outcome {
			case models.OutcomeTeam1Win:
				snap.Status = models.MatchStatusCompleted
				snap.WinnerUserID = &match.Team1UserID
			case models.OutcomeTeam2Win:
				snap.Status = models.MatchStatusCompleted
				snap.WinnerUserID = &match.Team2UserID
			case models.OutcomeDraw:
				snap.Status = models.MatchStatusCompleted
				snap.WinnerUserID = nil
			case models.OutcomeWalkover:
				snap.Status = models.MatchStatusWalkover
				snap.IsWalkover = true
			case models.OutcomeVoid:
				snap.Status = models.MatchStatusVoid
				snap.WinnerUserID = nil
			}
		}
		return snap
	})
}

// VoidMatch - обёртка над правкой результата: матч аннулируется, победитель
// снимается, запись аудита та же, что и у обычной правки.
func (s *matchService) VoidMatch(ctx context.Context, admin models.AdminContext, matchID int, reason string) (*models.Match, error) {
	if reason == "" {
		return nil, ErrReasonRequired
	}
	return s.overrideResult(ctx, admin, matchID, reason, func(match *models.Match) models.MatchResultSnapshot {
		outcome := models.OutcomeVoid
		snap := snapshotOfMatch(match)
		snap.Status = models.MatchStatusVoid
		snap.Outcome = &outcome
		snap.WinnerUserID = nil
		return snap
	})
}

func (s *matchService) overrideResult(ctx context.Context, admin models.AdminContext, matchID int, reason string, build func(*models.Match) models.MatchResultSnapshot) (*models.Match, error) {
	var leagueID int

	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		match, err := s.matchRepo.GetByID(ctx, tx, matchID)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return ErrMatchNotFound
			}
			return err
		}
		leagueID = match.LeagueID

		prior := snapshotOfMatch(match)
		next := build(match)

		entry := &models.MatchAuditEntry{
			MatchID: matchID,
			AdminID: admin.ID,
			Prior:   marshalSnapshot(prior),
			New:     marshalSnapshot(next),
			Reason:  reason,
		}
		if err := s.auditRepo.Create(ctx, tx, entry); err != nil {
			return fmt.Errorf("failed to write match audit entry: %w", err)
		}

		if err := s.matchRepo.UpdateResult(ctx, tx, matchID, match.UpdatedAt, next); err != nil {
			if errors.Is(err, repositories.ErrMatchConcurrentUpdate) {
				return ErrMatchModifiedConcurrently
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		return nil, err
	}

	if s.hub != nil {
		s.hub.BroadcastToLeague(leagueID, live.Event{Type: "MATCH_OVERRIDDEN", Payload: updated})
	}
	return updated, nil
}

func (s *matchService) GetMatchAudit(ctx context.Context, matchID int) ([]*models.MatchAuditEntry, error) {
	if _, err := s.matchRepo.GetByID(ctx, nil, matchID); err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	entries, err := s.auditRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		return []*models.MatchAuditEntry{}, nil
	}
	return entries, nil
}
