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

// Notifier ставит исходящее уведомление в очередь. Реализация обязана сама
// глотать и логировать свои ошибки: резолюция не должна падать из-за доставки.
type Notifier interface {
	Enqueue(ctx context.Context, kind models.NotificationKind, recipientUserID, leagueID, sourceID int, subject, body string)
}

type ResolveDisputeInput struct {
	Action        models.DisputeAction `json:"action"`
	FinalScore    []models.SetScore    `json:"final_score,omitempty"`
	WinnerUserID  *int                 `json:"winner_user_id,omitempty"`
	Reason        string               `json:"reason"`
	NotifyPlayers bool                 `json:"notify_players"`
}

type OpenDisputeInput struct {
	RaisedByUserID int                    `json:"raised_by_user_id"`
	ClaimedScore   []models.SetScore      `json:"claimed_score,omitempty"`
	Reason         string                 `json:"reason"`
	Priority       models.DisputePriority `json:"priority,omitempty"`
}

type AddNoteInput struct {
	Note           string `json:"note"`
	IsInternalOnly bool   `json:"is_internal_only"`
}

type DisputeService interface {
	OpenDispute(ctx context.Context, matchID int, input OpenDisputeInput) (*models.Dispute, error)
	GetDispute(ctx context.Context, id int) (*models.Dispute, error)
	ListDisputes(ctx context.Context, filter models.DisputeFilter) (models.DisputeListResponse, error)
	ResolveDispute(ctx context.Context, admin models.AdminContext, disputeID int, input ResolveDisputeInput) (*models.Dispute, error)
	AddNote(ctx context.Context, admin models.AdminContext, disputeID int, input AddNoteInput) (*models.DisputeNote, error)
}

type disputeService struct {
	db          *sql.DB
	disputeRepo repositories.DisputeRepository
	matchRepo   repositories.MatchRepository
	notifier    Notifier
	hub         *live.Hub
}

func NewDisputeService(
	db *sql.DB,
	disputeRepo repositories.DisputeRepository,
	matchRepo repositories.MatchRepository,
	notifier Notifier,
	hub *live.Hub,
) DisputeService {
	return &disputeService{
		db:          db,
		disputeRepo: disputeRepo,
		matchRepo:   matchRepo,
		notifier:    notifier,
		hub:         hub,
	}
}

func (s *disputeService) OpenDispute(ctx context.Context, matchID int, input OpenDisputeInput) (*models.Dispute, error) {
	if input.Reason == "" {
		return nil, ErrReasonRequired
	}
	if input.RaisedByUserID <= 0 {
		return nil, fmt.Errorf("%w: raised_by_user_id is required", ErrValidationFailed)
	}
	priority := input.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}
	if !priority.Valid() {
		return nil, ErrInvalidPriority
	}
	if len(input.ClaimedScore) > 0 {
		if err := validateSetScores(input.ClaimedScore); err != nil {
			return nil, err
		}
	}

	dispute := &models.Dispute{
		MatchID:          matchID,
		RaisedByUserID:   input.RaisedByUserID,
		Status:           models.DisputeStatusOpen,
		Priority:         priority,
		ClaimedSetScores: input.ClaimedScore,
		Reason:           input.Reason,
	}

	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		match, err := s.matchRepo.GetByID(ctx, tx, matchID)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return ErrMatchNotFound
			}
			return err
		}
		if err := s.disputeRepo.Create(ctx, tx, dispute); err != nil {
			if errors.Is(err, repositories.ErrDisputeAlreadyActive) {
				return ErrDisputeAlreadyOpen
			}
			return fmt.Errorf("failed to create dispute for match %d: %w", matchID, err)
		}
		if !match.IsDisputed {
			if err := s.matchRepo.SetDisputedFlag(ctx, tx, matchID, true); err != nil {
				return fmt.Errorf("failed to flag match %d as disputed: %w", matchID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return dispute, nil
}

func (s *disputeService) GetDispute(ctx context.Context, id int) (*models.Dispute, error) {
	dispute, err := s.disputeRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrDisputeNotFound) {
			return nil, ErrDisputeNotFound
		}
		return nil, err
	}

	notes, err := s.disputeRepo.ListNotes(ctx, id)
	if err != nil {
		return nil, err
	}
	dispute.Notes = notes
	return dispute, nil
}

func (s *disputeService) ListDisputes(ctx context.Context, filter models.DisputeFilter) (models.DisputeListResponse, error) {
	disputes, total, err := s.disputeRepo.List(ctx, filter)
	if err != nil {
		return models.DisputeListResponse{}, err
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	return models.DisputeListResponse{
		Disputes:   disputes,
		TotalCount: total,
		Page:       page,
		Limit:      limit,
	}, nil
}

// ResolveDispute применяет решение админа к активному диспуту. Все терминальные
// действия закрывают диспут, перезаписывают результат матча (если действие его
// меняет) и снимают флаг is_disputed одной транзакцией. Повторная резолюция
// упирается в условный UPDATE и возвращает конфликт.
func (s *disputeService) ResolveDispute(ctx context.Context, admin models.AdminContext, disputeID int, input ResolveDisputeInput) (*models.Dispute, error) {
	// Валидация до какого-либо обращения к базе.
	if !input.Action.Valid() {
		return nil, ErrInvalidDisputeAction
	}
	if input.Reason == "" {
		return nil, ErrReasonRequired
	}
	if input.Action == models.ActionCustomScore {
		if len(input.FinalScore) == 0 {
			return nil, ErrFinalScoreRequired
		}
		if err := validateSetScores(input.FinalScore); err != nil {
			return nil, err
		}
	}
	var match *models.Match

	err := runInTx(ctx, s.db, func(tx *sql.Tx) error {
		dispute, err := s.disputeRepo.GetByID(ctx, tx, disputeID)
		if err != nil {
			if errors.Is(err, repositories.ErrDisputeNotFound) {
				return ErrDisputeNotFound
			}
			return err
		}
		if !dispute.Status.Active() {
			return ErrDisputeAlreadyResolved
		}

		match, err = s.matchRepo.GetByID(ctx, tx, dispute.MatchID)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return ErrMatchNotFound
			}
			return err
		}

		if input.Action == models.ActionRequestMoreInfo {
			// Единственное нетерминальное действие: диспут остаётся на
			// рассмотрении, матч не трогаем, резолюция не фиксируется.
			if err := s.disputeRepo.MarkInReview(ctx, tx, disputeID); err != nil {
				if errors.Is(err, repositories.ErrDisputeNotActive) {
					return ErrDisputeAlreadyResolved
				}
				return err
			}
			note := &models.DisputeNote{
				DisputeID:      disputeID,
				AuthorID:       admin.ID,
				Note:           input.Reason,
				IsInternalOnly: false,
			}
			return s.disputeRepo.AddNote(ctx, tx, note)
		}

		snap, mutate, err := s.resolutionSnapshot(dispute, match, input)
		if err != nil {
			return err
		}

		if err := s.disputeRepo.Resolve(ctx, tx, disputeID, input.Action, admin.ID, input.Reason); err != nil {
			if errors.Is(err, repositories.ErrDisputeNotActive) {
				return ErrDisputeAlreadyResolved
			}
			return err
		}

		if mutate {
			if err := s.matchRepo.UpdateResult(ctx, tx, match.ID, match.UpdatedAt, snap); err != nil {
				if errors.Is(err, repositories.ErrMatchConcurrentUpdate) {
					return ErrMatchModifiedConcurrently
				}
				return err
			}
		}
		return s.matchRepo.SetDisputedFlag(ctx, tx, match.ID, false)
	})
	if err != nil {
		return nil, err
	}

	resolved, err := s.disputeRepo.GetByID(ctx, nil, disputeID)
	if err != nil {
		return nil, err
	}

	// Сайд-эффекты после коммита: не влияют на результат операции.
	if input.Action.Terminal() {
		s.broadcast(match.LeagueID, "DISPUTE_RESOLVED", resolved)
		if input.NotifyPlayers && s.notifier != nil {
			subject := "Dispute resolved"
			body := fmt.Sprintf("The dispute on your match #%d has been resolved: %s. Reason: %s",
				match.ID, input.Action, input.Reason)
			s.notifier.Enqueue(ctx, models.NotifyDisputeResolved, match.Team1UserID, match.LeagueID, resolved.ID, subject, body)
			s.notifier.Enqueue(ctx, models.NotifyDisputeResolved, match.Team2UserID, match.LeagueID, resolved.ID, subject, body)
		}
	}

	return resolved, nil
}

// resolutionSnapshot возвращает новое состояние результата матча для действия.
// mutate=false означает, что матч не меняется (UPHOLD_ORIGINAL).
func (s *disputeService) resolutionSnapshot(dispute *models.Dispute, match *models.Match, input ResolveDisputeInput) (models.MatchResultSnapshot, bool, error) {
	switch input.Action {
	case models.ActionUpholdOriginal:
		return models.MatchResultSnapshot{}, false, nil

	case models.ActionUpholdDisputer:
		if len(dispute.ClaimedSetScores) == 0 {
			return models.MatchResultSnapshot{}, false, fmt.Errorf("%w: dispute has no claimed score to uphold", ErrValidationFailed)
		}
		return deriveResultFromSets(dispute.ClaimedSetScores, match.Team1UserID, match.Team2UserID), true, nil

	case models.ActionCustomScore:
		return deriveResultFromSets(input.FinalScore, match.Team1UserID, match.Team2UserID), true, nil

	case models.ActionVoidMatch:
		outcome := models.OutcomeVoid
		return models.MatchResultSnapshot{
			Status:  models.MatchStatusVoid,
			Outcome: &outcome,
		}, true, nil

	case models.ActionAwardWalkover:
		// Победитель по умолчанию - заявитель диспута: walkover присуждается
		// за неявку оппонента. Явный winner_user_id перекрывает умолчание.
		winner := dispute.RaisedByUserID
		if input.WinnerUserID != nil {
			winner = *input.WinnerUserID
		}
		if winner != match.Team1UserID && winner != match.Team2UserID {
			return models.MatchResultSnapshot{}, false, fmt.Errorf("%w: walkover winner %d is not a participant of match %d", ErrValidationFailed, winner, match.ID)
		}
		outcome := models.OutcomeWalkover
		return models.MatchResultSnapshot{
			Status:         models.MatchStatusWalkover,
			Outcome:        &outcome,
			WinnerUserID:   &winner,
			IsWalkover:     true,
			WalkoverReason: &input.Reason,
		}, true, nil
	}
	return models.MatchResultSnapshot{}, false, ErrInvalidDisputeAction
}

func (s *disputeService) AddNote(ctx context.Context, admin models.AdminContext, disputeID int, input AddNoteInput) (*models.DisputeNote, error) {
	if input.Note == "" {
		return nil, fmt.Errorf("%w: note text is required", ErrValidationFailed)
	}
	if _, err := s.disputeRepo.GetByID(ctx, nil, disputeID); err != nil {
		if errors.Is(err, repositories.ErrDisputeNotFound) {
			return nil, ErrDisputeNotFound
		}
		return nil, err
	}

	note := &models.DisputeNote{
		DisputeID:      disputeID,
		AuthorID:       admin.ID,
		Note:           input.Note,
		IsInternalOnly: input.IsInternalOnly,
	}
	if err := s.disputeRepo.AddNote(ctx, nil, note); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *disputeService) broadcast(leagueID int, eventType string, payload interface{}) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToLeague(leagueID, live.Event{Type: eventType, Payload: payload})
}
