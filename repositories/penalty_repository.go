package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Temirlan00/league-system/models"
)

var (
	ErrPenaltyUserInvalid    = errors.New("penalty references an unknown user")
	ErrPenaltyMatchInvalid   = errors.New("penalty references an unknown match")
	ErrPenaltyDisputeInvalid = errors.New("penalty references an unknown dispute")
)

// PenaltyRepository - журнал только на запись: у него намеренно нет Update и Delete.
type PenaltyRepository interface {
	Create(ctx context.Context, exec SQLExecutor, penalty *models.Penalty) error
	ListByUser(ctx context.Context, userID int) ([]*models.Penalty, error)
	CountSince(ctx context.Context, since time.Time) (int, error)
}

type postgresPenaltyRepository struct {
	db *sql.DB
}

func NewPostgresPenaltyRepository(db *sql.DB) PenaltyRepository {
	return &postgresPenaltyRepository{db: db}
}

func (r *postgresPenaltyRepository) Create(ctx context.Context, exec SQLExecutor, penalty *models.Penalty) error {
	if exec == nil {
		exec = r.db
	}
	query := `
		INSERT INTO penalties
			(user_id, issued_by_id, type, severity, points_deducted, suspension_days,
			 related_match_id, related_dispute_id, reason, evidence_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		penalty.UserID,
		penalty.IssuedByID,
		penalty.Type,
		penalty.Severity,
		penalty.PointsDeducted,
		penalty.SuspensionDays,
		penalty.RelatedMatchID,
		penalty.RelatedDisputeID,
		penalty.Reason,
		penalty.EvidenceURL,
	).Scan(&penalty.ID, &penalty.CreatedAt)

	return r.handlePenaltyError(err)
}

func (r *postgresPenaltyRepository) ListByUser(ctx context.Context, userID int) ([]*models.Penalty, error) {
	query := `
		SELECT id, user_id, issued_by_id, type, severity, points_deducted, suspension_days,
		       related_match_id, related_dispute_id, reason, evidence_url, created_at
		FROM penalties
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query penalties for user %d: %w", userID, err)
	}
	defer rows.Close()

	penalties := make([]*models.Penalty, 0)
	for rows.Next() {
		var penalty models.Penalty
		if scanErr := rows.Scan(
			&penalty.ID,
			&penalty.UserID,
			&penalty.IssuedByID,
			&penalty.Type,
			&penalty.Severity,
			&penalty.PointsDeducted,
			&penalty.SuspensionDays,
			&penalty.RelatedMatchID,
			&penalty.RelatedDisputeID,
			&penalty.Reason,
			&penalty.EvidenceURL,
			&penalty.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan penalty row: %w", scanErr)
		}
		penalties = append(penalties, &penalty)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during penalty rows iteration: %w", err)
	}
	return penalties, nil
}

func (r *postgresPenaltyRepository) CountSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM penalties WHERE created_at >= $1`, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count penalties: %w", err)
	}
	return count, nil
}

func (r *postgresPenaltyRepository) handlePenaltyError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "penalties_user_id_fkey", "penalties_issued_by_id_fkey":
			return ErrPenaltyUserInvalid
		case "penalties_related_match_id_fkey":
			return ErrPenaltyMatchInvalid
		case "penalties_related_dispute_id_fkey":
			return ErrPenaltyDisputeInvalid
		}
	}
	return err
}
