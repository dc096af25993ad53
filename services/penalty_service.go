package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/Temirlan00/league-system/models"
	"github.com/Temirlan00/league-system/repositories"
	"github.com/Temirlan00/league-system/storage"
)

type ApplyPenaltyInput struct {
	UserID           int                    `json:"user_id"`
	Type             models.PenaltyType     `json:"penalty_type"`
	Severity         models.PenaltySeverity `json:"severity"`
	PointsDeducted   *int                   `json:"points_deducted,omitempty"`
	SuspensionDays   *int                   `json:"suspension_days,omitempty"`
	RelatedMatchID   *int                   `json:"related_match_id,omitempty"`
	RelatedDisputeID *int                   `json:"related_dispute_id,omitempty"`
	Reason           string                 `json:"reason"`
	EvidenceURL      *string                `json:"evidence_url,omitempty"`
}

type PenaltyService interface {
	ApplyPenalty(ctx context.Context, admin models.AdminContext, input ApplyPenaltyInput) (*models.Penalty, error)
	GetPlayerPenalties(ctx context.Context, userID int) ([]*models.Penalty, error)
	// UploadEvidence загружает файл-доказательство и возвращает публичный URL,
	// который админ передаёт в evidence_url последующего штрафа.
	UploadEvidence(ctx context.Context, contentType string, file io.Reader) (string, error)
}

type penaltyService struct {
	penaltyRepo repositories.PenaltyRepository
	uploader    storage.FileUploader
	notifier    Notifier
}

func NewPenaltyService(penaltyRepo repositories.PenaltyRepository, uploader storage.FileUploader, notifier Notifier) PenaltyService {
	return &penaltyService{
		penaltyRepo: penaltyRepo,
		uploader:    uploader,
		notifier:    notifier,
	}
}

// ApplyPenalty добавляет запись в журнал санкций. Записи никогда не
// дедуплицируются: два одинаковых вызова дают две записи.
func (s *penaltyService) ApplyPenalty(ctx context.Context, admin models.AdminContext, input ApplyPenaltyInput) (*models.Penalty, error) {
	if input.UserID <= 0 {
		return nil, fmt.Errorf("%w: user_id is required", ErrValidationFailed)
	}
	if !input.Type.Valid() {
		return nil, ErrInvalidPenaltyType
	}
	if !input.Severity.Valid() {
		return nil, ErrInvalidPenaltySeverity
	}
	if input.Reason == "" {
		return nil, ErrReasonRequired
	}
	if input.PointsDeducted != nil && *input.PointsDeducted < 0 {
		return nil, fmt.Errorf("%w: points_deducted cannot be negative", ErrValidationFailed)
	}
	if input.SuspensionDays != nil && *input.SuspensionDays < 0 {
		return nil, fmt.Errorf("%w: suspension_days cannot be negative", ErrValidationFailed)
	}

	penalty := &models.Penalty{
		UserID:           input.UserID,
		IssuedByID:       admin.ID,
		Type:             input.Type,
		Severity:         input.Severity,
		PointsDeducted:   input.PointsDeducted,
		SuspensionDays:   input.SuspensionDays,
		RelatedMatchID:   input.RelatedMatchID,
		RelatedDisputeID: input.RelatedDisputeID,
		Reason:           input.Reason,
		EvidenceURL:      input.EvidenceURL,
	}

	if err := s.penaltyRepo.Create(ctx, nil, penalty); err != nil {
		if errors.Is(err, repositories.ErrPenaltyUserInvalid) {
			return nil, ErrUserNotFound
		}
		if errors.Is(err, repositories.ErrPenaltyMatchInvalid) {
			return nil, ErrMatchNotFound
		}
		if errors.Is(err, repositories.ErrPenaltyDisputeInvalid) {
			return nil, ErrDisputeNotFound
		}
		return nil, fmt.Errorf("failed to create penalty: %w", err)
	}

	if s.notifier != nil {
		leagueID := 0 // Штраф не привязан к лиге напрямую, лента общая.
		subject := "Penalty issued"
		body := fmt.Sprintf("A %s penalty (%s) has been recorded against your account. Reason: %s",
			penalty.Severity, penalty.Type, penalty.Reason)
		s.notifier.Enqueue(ctx, models.NotifyPenaltyIssued, penalty.UserID, leagueID, penalty.ID, subject, body)
	}

	return penalty, nil
}

func (s *penaltyService) GetPlayerPenalties(ctx context.Context, userID int) ([]*models.Penalty, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user_id is required", ErrValidationFailed)
	}
	penalties, err := s.penaltyRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if penalties == nil {
		return []*models.Penalty{}, nil
	}
	return penalties, nil
}

func (s *penaltyService) UploadEvidence(ctx context.Context, contentType string, file io.Reader) (string, error) {
	if s.uploader == nil {
		return "", errors.New("evidence storage is not configured")
	}
	ext, err := extensionForContentType(contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	key := "evidence/" + uuid.NewString() + ext
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return "", fmt.Errorf("failed to upload evidence file: %w", err)
	}
	return result.Location, nil
}

func extensionForContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/webp":
		return ".webp", nil
	case "application/pdf":
		return ".pdf", nil
	case "video/mp4":
		return ".mp4", nil
	default:
		return "", fmt.Errorf("unsupported evidence content type: %q", contentType)
	}
}
