package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Temirlan00/league-system/models"
	"github.com/Temirlan00/league-system/repositories"
)

// Фейковый sql-драйвер: сервисы открывают транзакцию через *sql.DB, но все
// запросы уходят в фейковые репозитории, поэтому Begin/Commit/Rollback - no-op.

type stubDriver struct{}

func (stubDriver) Open(name string) (driver.Conn, error) { return &stubConn{}, nil }

type stubConn struct{}

func (*stubConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("stub connection does not execute queries")
}
func (*stubConn) Close() error              { return nil }
func (*stubConn) Begin() (driver.Tx, error) { return stubTx{}, nil }

type stubTx struct{}

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }

var registerStubDriver sync.Once

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	registerStubDriver.Do(func() {
		sql.Register("servicestub", stubDriver{})
	})
	db, err := sql.Open("servicestub", "")
	if err != nil {
		t.Fatalf("failed to open stub db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type fakeMatchRepo struct {
	matches     map[int]*models.Match
	updateErr   error
	updateCalls int
}

func newFakeMatchRepo(matches ...*models.Match) *fakeMatchRepo {
	repo := &fakeMatchRepo{matches: make(map[int]*models.Match)}
	for _, m := range matches {
		repo.matches[m.ID] = m
	}
	return repo
}

func (f *fakeMatchRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Match, error) {
	match, ok := f.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	copied := *match
	return &copied, nil
}

func (f *fakeMatchRepo) List(ctx context.Context, filter models.MatchFilter) ([]*models.Match, int, error) {
	var out []*models.Match
	for _, m := range f.matches {
		copied := *m
		out = append(out, &copied)
	}
	return out, len(out), nil
}

func (f *fakeMatchRepo) UpdateResult(ctx context.Context, exec repositories.SQLExecutor, id int, priorUpdatedAt time.Time, snap models.MatchResultSnapshot) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	match, ok := f.matches[id]
	if !ok {
		return repositories.ErrMatchConcurrentUpdate
	}
	if !match.UpdatedAt.Equal(priorUpdatedAt) {
		return repositories.ErrMatchConcurrentUpdate
	}
	f.updateCalls++
	match.Status = snap.Status
	match.Team1Score = snap.Team1Score
	match.Team2Score = snap.Team2Score
	match.SetScores = snap.SetScores
	match.Outcome = snap.Outcome
	match.WinnerUserID = snap.WinnerUserID
	match.IsWalkover = snap.IsWalkover
	match.WalkoverReason = snap.WalkoverReason
	match.UpdatedAt = match.UpdatedAt.Add(time.Second)
	return nil
}

func (f *fakeMatchRepo) SetDisputedFlag(ctx context.Context, exec repositories.SQLExecutor, id int, disputed bool) error {
	match, ok := f.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	match.IsDisputed = disputed
	return nil
}

func (f *fakeMatchRepo) SetLateCancellationFlag(ctx context.Context, exec repositories.SQLExecutor, id int, flagged bool) error {
	match, ok := f.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	match.HasLateCancellation = flagged
	return nil
}

func (f *fakeMatchRepo) CountDisputed(ctx context.Context) (int, error) { return 0, nil }

func (f *fakeMatchRepo) CountCompletedSince(ctx context.Context, since time.Time) (int, error) {
	return 0, nil
}

type fakeDisputeRepo struct {
	disputes map[int]*models.Dispute
	notes    []*models.DisputeNote
	nextID   int
}

func newFakeDisputeRepo(disputes ...*models.Dispute) *fakeDisputeRepo {
	repo := &fakeDisputeRepo{disputes: make(map[int]*models.Dispute), nextID: 1}
	for _, d := range disputes {
		repo.disputes[d.ID] = d
		if d.ID >= repo.nextID {
			repo.nextID = d.ID + 1
		}
	}
	return repo
}

func (f *fakeDisputeRepo) Create(ctx context.Context, exec repositories.SQLExecutor, dispute *models.Dispute) error {
	for _, existing := range f.disputes {
		if existing.MatchID == dispute.MatchID && existing.Status.Active() {
			return repositories.ErrDisputeAlreadyActive
		}
	}
	dispute.ID = f.nextID
	f.nextID++
	dispute.CreatedAt = time.Now()
	copied := *dispute
	f.disputes[dispute.ID] = &copied
	return nil
}

func (f *fakeDisputeRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Dispute, error) {
	dispute, ok := f.disputes[id]
	if !ok {
		return nil, repositories.ErrDisputeNotFound
	}
	copied := *dispute
	return &copied, nil
}

func (f *fakeDisputeRepo) List(ctx context.Context, filter models.DisputeFilter) ([]*models.Dispute, int, error) {
	var out []*models.Dispute
	for _, d := range f.disputes {
		copied := *d
		out = append(out, &copied)
	}
	return out, len(out), nil
}

func (f *fakeDisputeRepo) Resolve(ctx context.Context, exec repositories.SQLExecutor, id int, action models.DisputeAction, adminID int, reason string) error {
	dispute, ok := f.disputes[id]
	if !ok || !dispute.Status.Active() {
		return repositories.ErrDisputeNotActive
	}
	now := time.Now()
	dispute.Status = models.DisputeStatusResolved
	dispute.ResolutionAction = &action
	dispute.ResolutionReason = &reason
	dispute.ResolvedByID = &adminID
	dispute.ResolvedAt = &now
	return nil
}

func (f *fakeDisputeRepo) MarkInReview(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	dispute, ok := f.disputes[id]
	if !ok || !dispute.Status.Active() {
		return repositories.ErrDisputeNotActive
	}
	dispute.Status = models.DisputeStatusInReview
	return nil
}

func (f *fakeDisputeRepo) AddNote(ctx context.Context, exec repositories.SQLExecutor, note *models.DisputeNote) error {
	note.ID = len(f.notes) + 1
	note.CreatedAt = time.Now()
	copied := *note
	f.notes = append(f.notes, &copied)
	return nil
}

func (f *fakeDisputeRepo) ListNotes(ctx context.Context, disputeID int) ([]*models.DisputeNote, error) {
	var out []*models.DisputeNote
	for _, n := range f.notes {
		if n.DisputeID == disputeID {
			copied := *n
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeDisputeRepo) CountActive(ctx context.Context) (int, error) {
	count := 0
	for _, d := range f.disputes {
		if d.Status.Active() {
			count++
		}
	}
	return count, nil
}

type fakePenaltyRepo struct {
	created   []*models.Penalty
	createErr error
}

func (f *fakePenaltyRepo) Create(ctx context.Context, exec repositories.SQLExecutor, penalty *models.Penalty) error {
	if f.createErr != nil {
		return f.createErr
	}
	penalty.ID = len(f.created) + 1
	penalty.CreatedAt = time.Now()
	copied := *penalty
	f.created = append(f.created, &copied)
	return nil
}

func (f *fakePenaltyRepo) ListByUser(ctx context.Context, userID int) ([]*models.Penalty, error) {
	var out []*models.Penalty
	for _, p := range f.created {
		if p.UserID == userID {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakePenaltyRepo) CountSince(ctx context.Context, since time.Time) (int, error) {
	return len(f.created), nil
}

type fakeCancellationRepo struct {
	cancellations map[int]*models.LateCancellation
	nextID        int
}

func newFakeCancellationRepo(cancellations ...*models.LateCancellation) *fakeCancellationRepo {
	repo := &fakeCancellationRepo{cancellations: make(map[int]*models.LateCancellation), nextID: 1}
	for _, c := range cancellations {
		repo.cancellations[c.ID] = c
		if c.ID >= repo.nextID {
			repo.nextID = c.ID + 1
		}
	}
	return repo
}

func (f *fakeCancellationRepo) Create(ctx context.Context, exec repositories.SQLExecutor, cancellation *models.LateCancellation) error {
	cancellation.ID = f.nextID
	f.nextID++
	cancellation.CreatedAt = time.Now()
	copied := *cancellation
	f.cancellations[cancellation.ID] = &copied
	return nil
}

func (f *fakeCancellationRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.LateCancellation, error) {
	cancellation, ok := f.cancellations[id]
	if !ok {
		return nil, repositories.ErrCancellationNotFound
	}
	copied := *cancellation
	return &copied, nil
}

func (f *fakeCancellationRepo) ListPending(ctx context.Context) ([]*models.LateCancellation, error) {
	var out []*models.LateCancellation
	for _, c := range f.cancellations {
		if c.Status == models.CancellationStatusPending {
			copied := *c
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeCancellationRepo) Review(ctx context.Context, exec repositories.SQLExecutor, id int, status models.CancellationStatus, adminID int, reason string, penaltyID *int) error {
	cancellation, ok := f.cancellations[id]
	if !ok || cancellation.Status != models.CancellationStatusPending {
		return repositories.ErrCancellationNotPending
	}
	now := time.Now()
	cancellation.Status = status
	cancellation.ReviewedByID = &adminID
	cancellation.ReviewReason = &reason
	cancellation.PenaltyID = penaltyID
	cancellation.ReviewedAt = &now
	return nil
}

func (f *fakeCancellationRepo) CountPending(ctx context.Context) (int, error) {
	count := 0
	for _, c := range f.cancellations {
		if c.Status == models.CancellationStatusPending {
			count++
		}
	}
	return count, nil
}

type fakeAuditRepo struct {
	entries []*models.MatchAuditEntry
}

func (f *fakeAuditRepo) Create(ctx context.Context, exec repositories.SQLExecutor, entry *models.MatchAuditEntry) error {
	entry.ID = len(f.entries) + 1
	entry.CreatedAt = time.Now()
	copied := *entry
	f.entries = append(f.entries, &copied)
	return nil
}

func (f *fakeAuditRepo) ListByMatch(ctx context.Context, matchID int) ([]*models.MatchAuditEntry, error) {
	var out []*models.MatchAuditEntry
	for _, e := range f.entries {
		if e.MatchID == matchID {
			copied := *e
			out = append(out, &copied)
		}
	}
	return out, nil
}

type enqueuedNotification struct {
	Kind            models.NotificationKind
	RecipientUserID int
	LeagueID        int
	SourceID        int
}

type fakeNotifier struct {
	enqueued []enqueuedNotification
}

func (f *fakeNotifier) Enqueue(ctx context.Context, kind models.NotificationKind, recipientUserID, leagueID, sourceID int, subject, body string) {
	f.enqueued = append(f.enqueued, enqueuedNotification{
		Kind:            kind,
		RecipientUserID: recipientUserID,
		LeagueID:        leagueID,
		SourceID:        sourceID,
	})
}
