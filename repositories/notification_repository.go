package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Temirlan00/league-system/models"
)

var ErrNotificationDuplicate = errors.New("notification with this dedup key already queued")

type NotificationRepository interface {
	// Create вставляет pending-строку outbox. Повтор по dedup_key - ошибка
	// ErrNotificationDuplicate, строка не дублируется.
	Create(ctx context.Context, notification *models.Notification) error
	// ClaimBatch атомарно захватывает порцию недоставленных строк для
	// диспетчера: захваченные строки недоступны параллельному вызову.
	ClaimBatch(ctx context.Context, limit int) ([]*models.Notification, error)
	MarkSent(ctx context.Context, id int) error
	MarkFailed(ctx context.Context, id int) error
}

type postgresNotificationRepository struct {
	db *sql.DB
}

func NewPostgresNotificationRepository(db *sql.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	query := `
		INSERT INTO notifications (dedup_key, kind, recipient_user_id, league_id, subject, body, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		notification.DedupKey,
		notification.Kind,
		notification.RecipientUserID,
		notification.LeagueID,
		notification.Subject,
		notification.Body,
		models.NotificationPending,
	).Scan(&notification.ID, &notification.CreatedAt)

	if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "notifications_dedup_key_key" {
		return ErrNotificationDuplicate
	}
	return err
}

func (r *postgresNotificationRepository) ClaimBatch(ctx context.Context, limit int) ([]*models.Notification, error) {
	// Захват одним атомарным UPDATE: строки уходят в processing, и
	// параллельный инстанс диспетчера их уже не выберет. Processing-строки,
	// зависшие после падения инстанса, возвращаются в выборку по таймауту
	// claimed_at.
	query := `
		UPDATE notifications
		SET status = $1, claimed_at = NOW()
		WHERE id IN (
			SELECT id FROM notifications
			WHERE status IN ($2, $3)
			   OR (status = $1 AND claimed_at < NOW() - INTERVAL '5 minutes')
			ORDER BY id ASC
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, dedup_key, kind, recipient_user_id, league_id, subject, body, status, attempts, created_at, sent_at`

	rows, err := r.db.QueryContext(ctx, query, models.NotificationProcessing, models.NotificationPending, models.NotificationFailed, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to claim notification batch: %w", err)
	}
	defer rows.Close()

	notifications := make([]*models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		if scanErr := rows.Scan(
			&n.ID,
			&n.DedupKey,
			&n.Kind,
			&n.RecipientUserID,
			&n.LeagueID,
			&n.Subject,
			&n.Body,
			&n.Status,
			&n.Attempts,
			&n.CreatedAt,
			&n.SentAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan notification row: %w", scanErr)
		}
		notifications = append(notifications, &n)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during notification rows iteration: %w", err)
	}
	return notifications, nil
}

func (r *postgresNotificationRepository) MarkSent(ctx context.Context, id int) error {
	query := `UPDATE notifications SET status = $1, attempts = attempts + 1, sent_at = NOW() WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, models.NotificationSent, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, sql.ErrNoRows)
}

func (r *postgresNotificationRepository) MarkFailed(ctx context.Context, id int) error {
	query := `UPDATE notifications SET status = $1, attempts = attempts + 1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, models.NotificationFailed, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, sql.ErrNoRows)
}
