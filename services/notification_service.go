package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Temirlan00/league-system/live"
	"github.com/Temirlan00/league-system/models"
	"github.com/Temirlan00/league-system/repositories"
)

// NotificationService - outbox для исходящих уведомлений. Enqueue только
// ставит строку в очередь; доставку (email + live-лента) выполняет фоновый
// диспетчер, который дергается тикером из main. Семантика at-least-once:
// упавшая доставка помечается failed и будет повторена следующим проходом.
type NotificationService struct {
	notificationRepo repositories.NotificationRepository
	userRepo         repositories.UserRepository
	email            *EmailService
	hub              *live.Hub
	logger           *slog.Logger
}

func NewNotificationService(
	notificationRepo repositories.NotificationRepository,
	userRepo repositories.UserRepository,
	email *EmailService,
	hub *live.Hub,
	logger *slog.Logger,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		email:            email,
		hub:              hub,
		logger:           logger,
	}
}

const dispatchBatchSize = 50

// Enqueue никогда не возвращает ошибку вызывающему: уведомление - сайд-эффект,
// его отказ логируется и не должен откатывать или ронять основную операцию.
// sourceID - id породившей событие сущности (диспут, штраф, отмена): ключ
// дедупликации детерминирован, повторная постановка того же события тому же
// получателю не создаёт вторую строку.
func (s *NotificationService) Enqueue(ctx context.Context, kind models.NotificationKind, recipientUserID, leagueID, sourceID int, subject, body string) {
	notification := &models.Notification{
		DedupKey:        fmt.Sprintf("%s:%d:%d", kind, sourceID, recipientUserID),
		Kind:            kind,
		RecipientUserID: recipientUserID,
		LeagueID:        leagueID,
		Subject:         subject,
		Body:            body,
	}

	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		if errors.Is(err, repositories.ErrNotificationDuplicate) {
			return
		}
		s.logger.Error("failed to enqueue notification",
			slog.String("kind", string(kind)),
			slog.Int("recipient", recipientUserID),
			slog.Any("error", err),
		)
	}
}

// DispatchPending забирает порцию недоставленных уведомлений и доставляет их.
// Вызывается тикером из main и один раз на старте.
func (s *NotificationService) DispatchPending(ctx context.Context) error {
	batch, err := s.notificationRepo.ClaimBatch(ctx, dispatchBatchSize)
	if err != nil {
		return err
	}

	for _, notification := range batch {
		if err := s.deliver(ctx, notification); err != nil {
			s.logger.Error("notification delivery failed",
				slog.Int("notification_id", notification.ID),
				slog.Int("attempts", notification.Attempts+1),
				slog.Any("error", err),
			)
			if markErr := s.notificationRepo.MarkFailed(ctx, notification.ID); markErr != nil {
				s.logger.Error("failed to mark notification failed", slog.Int("notification_id", notification.ID), slog.Any("error", markErr))
			}
			continue
		}
		if err := s.notificationRepo.MarkSent(ctx, notification.ID); err != nil {
			// Строка останется pending и будет доставлена повторно - допустимо
			// при at-least-once.
			s.logger.Error("failed to mark notification sent", slog.Int("notification_id", notification.ID), slog.Any("error", err))
		}
	}
	return nil
}

func (s *NotificationService) deliver(ctx context.Context, notification *models.Notification) error {
	if s.hub != nil && notification.LeagueID > 0 {
		s.hub.BroadcastToLeague(notification.LeagueID, live.Event{
			Type:    string(notification.Kind),
			Payload: notification,
		})
	}

	if s.email == nil || !s.email.Configured() {
		return nil
	}

	recipient, err := s.userRepo.GetByID(ctx, notification.RecipientUserID)
	if err != nil {
		return err
	}
	return s.email.SendEmail([]string{recipient.Email}, notification.Subject, notification.Body)
}
