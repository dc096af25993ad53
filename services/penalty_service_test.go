package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/Temirlan00/league-system/models"
	"github.com/Temirlan00/league-system/storage"
)

type fakeUploader struct {
	uploadedKeys []string
	uploadErr    error
}

func (f *fakeUploader) Upload(ctx context.Context, key, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.uploadedKeys = append(f.uploadedKeys, key)
	return &storage.UploadResult{Key: key, Location: "https://cdn.example.com/" + key}, nil
}


func (f *fakeUploader) GetPublicURL(key string) string { return "https://cdn.example.com/" + key }

func TestApplyPenalty(t *testing.T) {
	penaltyRepo := &fakePenaltyRepo{}
	notifier := &fakeNotifier{}
	svc := NewPenaltyService(penaltyRepo, &fakeUploader{}, notifier)
	points := 15

	penalty, err := svc.ApplyPenalty(context.Background(), models.AdminContext{ID: 99}, ApplyPenaltyInput{
		UserID:         20,
		Type:           models.PenaltyRatingDeduction,
		Severity:       models.SeverityModerate,
		PointsDeducted: &points,
		Reason:         "repeated unsportsmanlike conduct",
	})
	if err != nil {
		t.Fatalf("ApplyPenalty returned error: %v", err)
	}
	if penalty.ID == 0 {
		t.Error("penalty was not assigned an id")
	}
	if penalty.IssuedByID != 99 {
		t.Errorf("issued_by = %d, want 99", penalty.IssuedByID)
	}
	if len(notifier.enqueued) != 1 || notifier.enqueued[0].Kind != models.NotifyPenaltyIssued {
		t.Errorf("notifications = %+v, want one penalty_issued", notifier.enqueued)
	}
}

// Журнал append-only: дедупликации нет, два одинаковых вызова - две записи.
func TestApplyPenaltyIdenticalCallsCreateTwoRecords(t *testing.T) {
	penaltyRepo := &fakePenaltyRepo{}
	svc := NewPenaltyService(penaltyRepo, &fakeUploader{}, &fakeNotifier{})
	input := ApplyPenaltyInput{
		UserID:   20,
		Type:     models.PenaltyWarning,
		Severity: models.SeverityMinor,
		Reason:   "late to scheduled match",
	}

	for i := 0; i < 2; i++ {
		if _, err := svc.ApplyPenalty(context.Background(), models.AdminContext{ID: 99}, input); err != nil {
			t.Fatalf("ApplyPenalty call %d returned error: %v", i+1, err)
		}
	}
	if len(penaltyRepo.created) != 2 {
		t.Fatalf("created %d penalties, want 2", len(penaltyRepo.created))
	}
	if penaltyRepo.created[0].ID == penaltyRepo.created[1].ID {
		t.Error("both records share an id")
	}
}

func TestApplyPenaltyValidation(t *testing.T) {
	svc := NewPenaltyService(&fakePenaltyRepo{}, &fakeUploader{}, &fakeNotifier{})
	admin := models.AdminContext{ID: 99}
	negative := -3

	cases := []struct {
		name  string
		input ApplyPenaltyInput
		want  error
	}{
		{"missing user", ApplyPenaltyInput{Type: models.PenaltyWarning, Severity: models.SeverityMinor, Reason: "r"}, ErrValidationFailed},
		{"bad type", ApplyPenaltyInput{UserID: 20, Type: "exile", Severity: models.SeverityMinor, Reason: "r"}, ErrInvalidPenaltyType},
		{"bad severity", ApplyPenaltyInput{UserID: 20, Type: models.PenaltyWarning, Severity: "harsh", Reason: "r"}, ErrInvalidPenaltySeverity},
		{"missing reason", ApplyPenaltyInput{UserID: 20, Type: models.PenaltyWarning, Severity: models.SeverityMinor}, ErrReasonRequired},
		{"negative points", ApplyPenaltyInput{UserID: 20, Type: models.PenaltyRatingDeduction, Severity: models.SeverityMinor, PointsDeducted: &negative, Reason: "r"}, ErrValidationFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.ApplyPenalty(context.Background(), admin, tc.input); !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestUploadEvidence(t *testing.T) {
	uploader := &fakeUploader{}
	svc := NewPenaltyService(&fakePenaltyRepo{}, uploader, &fakeNotifier{})

	url, err := svc.UploadEvidence(context.Background(), "image/png", strings.NewReader("fake image"))
	if err != nil {
		t.Fatalf("UploadEvidence returned error: %v", err)
	}
	if !strings.HasPrefix(url, "https://cdn.example.com/evidence/") {
		t.Errorf("url = %q, want evidence key under the public base", url)
	}
	if len(uploader.uploadedKeys) != 1 || !strings.HasSuffix(uploader.uploadedKeys[0], ".png") {
		t.Errorf("uploaded keys = %v, want a single .png key", uploader.uploadedKeys)
	}
}

func TestUploadEvidenceRejectsUnknownContentType(t *testing.T) {
	svc := NewPenaltyService(&fakePenaltyRepo{}, &fakeUploader{}, &fakeNotifier{})

	_, err := svc.UploadEvidence(context.Background(), "application/x-msdownload", strings.NewReader("nope"))
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("err = %v, want ErrValidationFailed", err)
	}
}

func TestGetPlayerPenalties(t *testing.T) {
	penaltyRepo := &fakePenaltyRepo{}
	svc := NewPenaltyService(penaltyRepo, &fakeUploader{}, &fakeNotifier{})

	penalties, err := svc.GetPlayerPenalties(context.Background(), 20)
	if err != nil {
		t.Fatalf("GetPlayerPenalties returned error: %v", err)
	}
	if penalties == nil || len(penalties) != 0 {
		t.Errorf("penalties = %v, want empty non-nil slice", penalties)
	}

	if _, err := svc.GetPlayerPenalties(context.Background(), 0); !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("err = %v, want ErrValidationFailed", err)
	}
}
