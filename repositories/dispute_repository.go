package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/Temirlan00/league-system/models"
)

var (
	ErrDisputeNotFound      = errors.New("dispute not found")
	ErrDisputeNotActive     = errors.New("dispute is not open or in review")
	ErrDisputeMatchInvalid  = errors.New("dispute references an unknown match")
	ErrDisputeAlreadyActive = errors.New("match already has an active dispute")
)

type DisputeRepository interface {
	Create(ctx context.Context, exec SQLExecutor, dispute *models.Dispute) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Dispute, error)
	List(ctx context.Context, filter models.DisputeFilter) ([]*models.Dispute, int, error)
	// Resolve переводит диспут в resolved при условии, что он всё ещё активен.
	// Ноль затронутых строк означает, что параллельная резолюция успела раньше.
	Resolve(ctx context.Context, exec SQLExecutor, id int, action models.DisputeAction, adminID int, reason string) error
	MarkInReview(ctx context.Context, exec SQLExecutor, id int) error
	AddNote(ctx context.Context, exec SQLExecutor, note *models.DisputeNote) error
	ListNotes(ctx context.Context, disputeID int) ([]*models.DisputeNote, error)
	CountActive(ctx context.Context) (int, error)
}

type postgresDisputeRepository struct {
	db *sql.DB
}

func NewPostgresDisputeRepository(db *sql.DB) DisputeRepository {
	return &postgresDisputeRepository{db: db}
}

const disputeColumns = `id, match_id, raised_by_user_id, status, priority, claimed_set_scores,
	       reason, resolution_action, resolution_reason, resolved_by_id, created_at, resolved_at`

func scanDispute(row interface{ Scan(...interface{}) error }) (*models.Dispute, error) {
	dispute := &models.Dispute{}
	var rawClaimed []byte
	err := row.Scan(
		&dispute.ID,
		&dispute.MatchID,
		&dispute.RaisedByUserID,
		&dispute.Status,
		&dispute.Priority,
		&rawClaimed,
		&dispute.Reason,
		&dispute.ResolutionAction,
		&dispute.ResolutionReason,
		&dispute.ResolvedByID,
		&dispute.CreatedAt,
		&dispute.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	dispute.ClaimedSetScores, err = scanSetScores(rawClaimed)
	if err != nil {
		return nil, err
	}
	return dispute, nil
}

func (r *postgresDisputeRepository) Create(ctx context.Context, exec SQLExecutor, dispute *models.Dispute) error {
	if exec == nil {
		exec = r.db
	}
	rawClaimed, err := setScoresValue(dispute.ClaimedSetScores)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO disputes (match_id, raised_by_user_id, status, priority, claimed_set_scores, reason)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err = exec.QueryRowContext(ctx, query,
		dispute.MatchID,
		dispute.RaisedByUserID,
		dispute.Status,
		dispute.Priority,
		rawClaimed,
		dispute.Reason,
	).Scan(&dispute.ID, &dispute.CreatedAt)

	return r.handleDisputeError(err)
}

func (r *postgresDisputeRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Dispute, error) {
	if exec == nil {
		exec = r.db
	}
	query := `SELECT ` + disputeColumns + ` FROM disputes WHERE id = $1`

	dispute, err := scanDispute(exec.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDisputeNotFound
		}
		return nil, fmt.Errorf("failed to scan dispute by id %d: %w", id, err)
	}
	return dispute, nil
}

func (r *postgresDisputeRepository) List(ctx context.Context, filter models.DisputeFilter) ([]*models.Dispute, int, error) {
	var where strings.Builder
	where.WriteString(" WHERE 1=1")

	args := make([]interface{}, 0, 4)
	placeholder := func() string {
		return "$" + strconv.Itoa(len(args))
	}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		where.WriteString(" AND status = " + placeholder())
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		where.WriteString(" AND priority = " + placeholder())
	}
	if filter.MatchID != nil {
		args = append(args, *filter.MatchID)
		where.WriteString(" AND match_id = " + placeholder())
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM disputes`+where.String(), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count disputes: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, limit)
	limitPlaceholder := placeholder()
	args = append(args, (page-1)*limit)
	offsetPlaceholder := placeholder()

	query := `SELECT ` + disputeColumns + ` FROM disputes` + where.String() +
		` ORDER BY created_at DESC, id DESC LIMIT ` + limitPlaceholder + ` OFFSET ` + offsetPlaceholder

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query disputes: %w", err)
	}
	defer rows.Close()

	disputes := make([]*models.Dispute, 0)
	for rows.Next() {
		dispute, scanErr := scanDispute(rows)
		if scanErr != nil {
			return nil, 0, fmt.Errorf("failed to scan dispute row: %w", scanErr)
		}
		disputes = append(disputes, dispute)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error during dispute rows iteration: %w", err)
	}
	return disputes, total, nil
}

func (r *postgresDisputeRepository) Resolve(ctx context.Context, exec SQLExecutor, id int, action models.DisputeAction, adminID int, reason string) error {
	if exec == nil {
		exec = r.db
	}
	query := `
		UPDATE disputes
		SET status = $1, resolution_action = $2, resolution_reason = $3, resolved_by_id = $4, resolved_at = NOW()
		WHERE id = $5 AND status IN ($6, $7)`

	result, err := exec.ExecContext(ctx, query,
		models.DisputeStatusResolved,
		action,
		reason,
		adminID,
		id,
		models.DisputeStatusOpen,
		models.DisputeStatusInReview,
	)
	if err != nil {
		return r.handleDisputeError(err)
	}
	return checkAffectedRows(result, ErrDisputeNotActive)
}

func (r *postgresDisputeRepository) MarkInReview(ctx context.Context, exec SQLExecutor, id int) error {
	if exec == nil {
		exec = r.db
	}
	query := `UPDATE disputes SET status = $1 WHERE id = $2 AND status IN ($3, $4)`
	result, err := exec.ExecContext(ctx, query,
		models.DisputeStatusInReview,
		id,
		models.DisputeStatusOpen,
		models.DisputeStatusInReview,
	)
	if err != nil {
		return r.handleDisputeError(err)
	}
	return checkAffectedRows(result, ErrDisputeNotActive)
}

func (r *postgresDisputeRepository) AddNote(ctx context.Context, exec SQLExecutor, note *models.DisputeNote) error {
	if exec == nil {
		exec = r.db
	}
	query := `
		INSERT INTO dispute_notes (dispute_id, author_id, note, is_internal_only)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		note.DisputeID,
		note.AuthorID,
		note.Note,
		note.IsInternalOnly,
	).Scan(&note.ID, &note.CreatedAt)

	if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "dispute_notes_dispute_id_fkey" {
		return ErrDisputeNotFound
	}
	return err
}

func (r *postgresDisputeRepository) ListNotes(ctx context.Context, disputeID int) ([]*models.DisputeNote, error) {
	query := `
		SELECT id, dispute_id, author_id, note, is_internal_only, created_at
		FROM dispute_notes
		WHERE dispute_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, disputeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query dispute notes for dispute %d: %w", disputeID, err)
	}
	defer rows.Close()

	notes := make([]*models.DisputeNote, 0)
	for rows.Next() {
		var note models.DisputeNote
		if scanErr := rows.Scan(
			&note.ID,
			&note.DisputeID,
			&note.AuthorID,
			&note.Note,
			&note.IsInternalOnly,
			&note.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan dispute note row: %w", scanErr)
		}
		notes = append(notes, &note)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during dispute note rows iteration: %w", err)
	}
	return notes, nil
}

func (r *postgresDisputeRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM disputes WHERE status IN ($1, $2)`
	err := r.db.QueryRowContext(ctx, query, models.DisputeStatusOpen, models.DisputeStatusInReview).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active disputes: %w", err)
	}
	return count, nil
}

func (r *postgresDisputeRepository) handleDisputeError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "disputes_match_id_fkey":
			return ErrDisputeMatchInvalid
		case "disputes_active_match_uidx":
			// Частичный уникальный индекс по match_id WHERE status IN ('open','in_review').
			return ErrDisputeAlreadyActive
		}
	}
	return err
}
