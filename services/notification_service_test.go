package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/Temirlan00/league-system/models"
	"github.com/Temirlan00/league-system/repositories"
)

type fakeNotificationRepo struct {
	created    []*models.Notification
	claimErr   error
	sentIDs    []int
	failedIDs  []int
	pendingSet []*models.Notification
}

func (f *fakeNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	for _, existing := range f.created {
		if existing.DedupKey == notification.DedupKey {
			return repositories.ErrNotificationDuplicate
		}
	}
	notification.ID = len(f.created) + 1
	notification.Status = models.NotificationPending
	copied := *notification
	f.created = append(f.created, &copied)
	return nil
}

func (f *fakeNotificationRepo) ClaimBatch(ctx context.Context, limit int) ([]*models.Notification, error) {
	if f.claimErr != nil {
		return nil, f.claimErr
	}
	// Как и боевой репозиторий: захваченные строки уходят в processing и
	// повторному захвату не подлежат.
	var out []*models.Notification
	for _, n := range f.pendingSet {
		if len(out) == limit {
			break
		}
		if n.Status == models.NotificationPending || n.Status == models.NotificationFailed {
			n.Status = models.NotificationProcessing
			copied := *n
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeNotificationRepo) MarkSent(ctx context.Context, id int) error {
	f.sentIDs = append(f.sentIDs, id)
	f.setStatus(id, models.NotificationSent)
	return nil
}

func (f *fakeNotificationRepo) MarkFailed(ctx context.Context, id int) error {
	f.failedIDs = append(f.failedIDs, id)
	f.setStatus(id, models.NotificationFailed)
	return nil
}

func (f *fakeNotificationRepo) setStatus(id int, status models.NotificationStatus) {
	for _, n := range f.pendingSet {
		if n.ID == id {
			n.Status = status
		}
	}
}

type fakeUserRepo struct {
	users map[int]*models.User
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEnqueueCreatesPendingRow(t *testing.T) {
	repo := &fakeNotificationRepo{}
	svc := NewNotificationService(repo, &fakeUserRepo{}, nil, nil, discardLogger())

	svc.Enqueue(context.Background(), models.NotifyDisputeResolved, 20, 7, 5, "Dispute resolved", "body")

	if len(repo.created) != 1 {
		t.Fatalf("created %d rows, want 1", len(repo.created))
	}
	row := repo.created[0]
	if row.Status != models.NotificationPending {
		t.Errorf("status = %s, want pending", row.Status)
	}
	if row.DedupKey != "dispute_resolved:5:20" {
		t.Errorf("dedup key = %q, want kind:source:recipient", row.DedupKey)
	}
	if row.RecipientUserID != 20 || row.LeagueID != 7 {
		t.Errorf("row = %+v", row)
	}
}

func TestEnqueueDedupsRepeatedEvent(t *testing.T) {
	repo := &fakeNotificationRepo{}
	svc := NewNotificationService(repo, &fakeUserRepo{}, nil, nil, discardLogger())

	// Повторная постановка того же события тому же получателю - одна строка.
	svc.Enqueue(context.Background(), models.NotifyPenaltyIssued, 20, 7, 31, "Penalty issued", "body")
	svc.Enqueue(context.Background(), models.NotifyPenaltyIssued, 20, 7, 31, "Penalty issued", "body")
	if len(repo.created) != 1 {
		t.Fatalf("created %d rows, want 1 after duplicate enqueue", len(repo.created))
	}

	// Другой штраф и другой получатель - отдельные строки.
	svc.Enqueue(context.Background(), models.NotifyPenaltyIssued, 20, 7, 32, "Penalty issued", "body")
	svc.Enqueue(context.Background(), models.NotifyPenaltyIssued, 10, 7, 31, "Penalty issued", "body")
	if len(repo.created) != 3 {
		t.Errorf("created %d rows, want 3", len(repo.created))
	}
}

func TestDispatchPendingMarksSent(t *testing.T) {
	repo := &fakeNotificationRepo{
		pendingSet: []*models.Notification{
			{ID: 1, Kind: models.NotifyPenaltyIssued, RecipientUserID: 20, Status: models.NotificationPending},
			{ID: 2, Kind: models.NotifyDisputeResolved, RecipientUserID: 20, LeagueID: 7, Status: models.NotificationPending},
		},
	}
	// Email не сконфигурирован: доставка сводится к live-ленте и считается успешной.
	svc := NewNotificationService(repo, &fakeUserRepo{}, nil, nil, discardLogger())

	if err := svc.DispatchPending(context.Background()); err != nil {
		t.Fatalf("DispatchPending returned error: %v", err)
	}
	if len(repo.sentIDs) != 2 {
		t.Errorf("marked sent = %v, want both rows", repo.sentIDs)
	}
	if len(repo.failedIDs) != 0 {
		t.Errorf("marked failed = %v, want none", repo.failedIDs)
	}
}

func TestDispatchPendingDeliversEachRowOnce(t *testing.T) {
	repo := &fakeNotificationRepo{
		pendingSet: []*models.Notification{
			{ID: 1, Kind: models.NotifyPenaltyIssued, RecipientUserID: 20, Status: models.NotificationPending},
		},
	}
	svc := NewNotificationService(repo, &fakeUserRepo{}, nil, nil, discardLogger())

	for i := 0; i < 2; i++ {
		if err := svc.DispatchPending(context.Background()); err != nil {
			t.Fatalf("DispatchPending run %d returned error: %v", i+1, err)
		}
	}
	// Отправленная строка повторному захвату не подлежит.
	if len(repo.sentIDs) != 1 {
		t.Errorf("marked sent %d times, want exactly once", len(repo.sentIDs))
	}
}

func TestDispatchPendingPropagatesClaimError(t *testing.T) {
	repo := &fakeNotificationRepo{claimErr: errors.New("db down")}
	svc := NewNotificationService(repo, &fakeUserRepo{}, nil, nil, discardLogger())

	if err := svc.DispatchPending(context.Background()); err == nil {
		t.Fatal("DispatchPending returned nil, want claim error")
	}
}
