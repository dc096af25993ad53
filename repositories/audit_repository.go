package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Temirlan00/league-system/models"
)

var ErrAuditMatchInvalid = errors.New("audit entry references an unknown match")

// MatchAuditRepository - как и штрафы, только запись и чтение, без правок истории.
type MatchAuditRepository interface {
	Create(ctx context.Context, exec SQLExecutor, entry *models.MatchAuditEntry) error
	ListByMatch(ctx context.Context, matchID int) ([]*models.MatchAuditEntry, error)
}

type postgresMatchAuditRepository struct {
	db *sql.DB
}

func NewPostgresMatchAuditRepository(db *sql.DB) MatchAuditRepository {
	return &postgresMatchAuditRepository{db: db}
}

func (r *postgresMatchAuditRepository) Create(ctx context.Context, exec SQLExecutor, entry *models.MatchAuditEntry) error {
	if exec == nil {
		exec = r.db
	}
	query := `
		INSERT INTO match_audit (match_id, admin_id, prior_state, new_state, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		entry.MatchID,
		entry.AdminID,
		[]byte(entry.Prior),
		[]byte(entry.New),
		entry.Reason,
	).Scan(&entry.ID, &entry.CreatedAt)

	if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "match_audit_match_id_fkey" {
		return ErrAuditMatchInvalid
	}
	return err
}

func (r *postgresMatchAuditRepository) ListByMatch(ctx context.Context, matchID int) ([]*models.MatchAuditEntry, error) {
	query := `
		SELECT id, match_id, admin_id, prior_state, new_state, reason, created_at
		FROM match_audit
		WHERE match_id = $1
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries for match %d: %w", matchID, err)
	}
	defer rows.Close()

	entries := make([]*models.MatchAuditEntry, 0)
	for rows.Next() {
		var entry models.MatchAuditEntry
		var prior, next []byte
		if scanErr := rows.Scan(
			&entry.ID,
			&entry.MatchID,
			&entry.AdminID,
			&prior,
			&next,
			&entry.Reason,
			&entry.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan audit entry row: %w", scanErr)
		}
		entry.Prior = prior
		entry.New = next
		entries = append(entries, &entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during audit entry rows iteration: %w", err)
	}
	return entries, nil
}
