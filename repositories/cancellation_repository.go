package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Temirlan00/league-system/models"
)

var (
	ErrCancellationNotFound     = errors.New("late cancellation not found")
	ErrCancellationNotPending   = errors.New("late cancellation already reviewed")
	ErrCancellationMatchInvalid = errors.New("late cancellation references an unknown match")
)

type CancellationRepository interface {
	Create(ctx context.Context, exec SQLExecutor, cancellation *models.LateCancellation) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.LateCancellation, error)
	// ListPending возвращает очередь на рассмотрение, старые записи первыми.
	ListPending(ctx context.Context) ([]*models.LateCancellation, error)
	// Review условно переводит pending-запись в approved/denied. Ноль затронутых
	// строк означает, что запись уже рассмотрена (review однократен).
	Review(ctx context.Context, exec SQLExecutor, id int, status models.CancellationStatus, adminID int, reason string, penaltyID *int) error
	CountPending(ctx context.Context) (int, error)
}

type postgresCancellationRepository struct {
	db *sql.DB
}

func NewPostgresCancellationRepository(db *sql.DB) CancellationRepository {
	return &postgresCancellationRepository{db: db}
}

const cancellationColumns = `id, match_id, canceled_by_id, status, reason,
	       reviewed_by_id, review_reason, penalty_id, created_at, reviewed_at`

func scanCancellation(row interface{ Scan(...interface{}) error }) (*models.LateCancellation, error) {
	c := &models.LateCancellation{}
	err := row.Scan(
		&c.ID,
		&c.MatchID,
		&c.CanceledByID,
		&c.Status,
		&c.Reason,
		&c.ReviewedByID,
		&c.ReviewReason,
		&c.PenaltyID,
		&c.CreatedAt,
		&c.ReviewedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *postgresCancellationRepository) Create(ctx context.Context, exec SQLExecutor, cancellation *models.LateCancellation) error {
	if exec == nil {
		exec = r.db
	}
	query := `
		INSERT INTO late_cancellations (match_id, canceled_by_id, status, reason)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		cancellation.MatchID,
		cancellation.CanceledByID,
		cancellation.Status,
		cancellation.Reason,
	).Scan(&cancellation.ID, &cancellation.CreatedAt)

	if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "late_cancellations_match_id_fkey" {
		return ErrCancellationMatchInvalid
	}
	return err
}

func (r *postgresCancellationRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.LateCancellation, error) {
	if exec == nil {
		exec = r.db
	}
	query := `SELECT ` + cancellationColumns + ` FROM late_cancellations WHERE id = $1`

	cancellation, err := scanCancellation(exec.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCancellationNotFound
		}
		return nil, fmt.Errorf("failed to scan late cancellation by id %d: %w", id, err)
	}
	return cancellation, nil
}

func (r *postgresCancellationRepository) ListPending(ctx context.Context) ([]*models.LateCancellation, error) {
	// FIFO: админская очередь обрабатывается в порядке поступления.
	query := `SELECT ` + cancellationColumns + ` FROM late_cancellations
		WHERE status = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, models.CancellationStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending cancellations: %w", err)
	}
	defer rows.Close()

	cancellations := make([]*models.LateCancellation, 0)
	for rows.Next() {
		cancellation, scanErr := scanCancellation(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan late cancellation row: %w", scanErr)
		}
		cancellations = append(cancellations, cancellation)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during cancellation rows iteration: %w", err)
	}
	return cancellations, nil
}

func (r *postgresCancellationRepository) Review(ctx context.Context, exec SQLExecutor, id int, status models.CancellationStatus, adminID int, reason string, penaltyID *int) error {
	if exec == nil {
		exec = r.db
	}
	query := `
		UPDATE late_cancellations
		SET status = $1, reviewed_by_id = $2, review_reason = $3, penalty_id = $4, reviewed_at = NOW()
		WHERE id = $5 AND status = $6`

	result, err := exec.ExecContext(ctx, query, status, adminID, reason, penaltyID, id, models.CancellationStatusPending)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrCancellationNotPending)
}

func (r *postgresCancellationRepository) CountPending(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM late_cancellations WHERE status = $1`
	err := r.db.QueryRowContext(ctx, query, models.CancellationStatusPending).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending cancellations: %w", err)
	}
	return count, nil
}
