package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/Temirlan00/league-system/models"
)

var (
	ErrMatchNotFound         = errors.New("match not found")
	ErrMatchConcurrentUpdate = errors.New("match was modified by another operation")
	ErrMatchPlayerInvalid    = errors.New("match references an unknown player")
)

type MatchRepository interface {
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	List(ctx context.Context, filter models.MatchFilter) ([]*models.Match, int, error)
	// UpdateResult перезаписывает результатные колонки матча целиком. Обновление
	// условное: если updated_at матча уже не равен priorUpdatedAt, возвращается
	// ErrMatchConcurrentUpdate.
	UpdateResult(ctx context.Context, exec SQLExecutor, id int, priorUpdatedAt time.Time, snap models.MatchResultSnapshot) error
	SetDisputedFlag(ctx context.Context, exec SQLExecutor, id int, disputed bool) error
	SetLateCancellationFlag(ctx context.Context, exec SQLExecutor, id int, flagged bool) error
	CountDisputed(ctx context.Context) (int, error)
	CountCompletedSince(ctx context.Context, since time.Time) (int, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `id, league_id, season_id, division_id, team1_user_id, team2_user_id, status,
	       team1_score, team2_score, set_scores, outcome, winner_user_id,
	       is_walkover, walkover_reason, is_disputed, has_late_cancellation,
	       scheduled_at, created_at, updated_at`

func scanMatch(row interface{ Scan(...interface{}) error }) (*models.Match, error) {
	match := &models.Match{}
	var rawSetScores []byte
	err := row.Scan(
		&match.ID,
		&match.LeagueID,
		&match.SeasonID,
		&match.DivisionID,
		&match.Team1UserID,
		&match.Team2UserID,
		&match.Status,
		&match.Team1Score,
		&match.Team2Score,
		&rawSetScores,
		&match.Outcome,
		&match.WinnerUserID,
		&match.IsWalkover,
		&match.WalkoverReason,
		&match.IsDisputed,
		&match.HasLateCancellation,
		&match.ScheduledAt,
		&match.CreatedAt,
		&match.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	match.SetScores, err = scanSetScores(rawSetScores)
	if err != nil {
		return nil, err
	}
	return match, nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	if exec == nil {
		exec = r.db
	}
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	match, err := scanMatch(exec.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by id %d: %w", id, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) List(ctx context.Context, filter models.MatchFilter) ([]*models.Match, int, error) {
	var where strings.Builder
	where.WriteString(" WHERE 1=1")

	args := make([]interface{}, 0, 8)
	placeholder := func() string {
		return "$" + strconv.Itoa(len(args))
	}

	if filter.LeagueID != nil {
		args = append(args, *filter.LeagueID)
		where.WriteString(" AND league_id = " + placeholder())
	}
	if filter.SeasonID != nil {
		args = append(args, *filter.SeasonID)
		where.WriteString(" AND season_id = " + placeholder())
	}
	if filter.DivisionID != nil {
		args = append(args, *filter.DivisionID)
		where.WriteString(" AND division_id = " + placeholder())
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, pq.Array(statuses))
		where.WriteString(" AND status = ANY(" + placeholder() + ")")
	}
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		where.WriteString(" AND scheduled_at >= " + placeholder())
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		where.WriteString(" AND scheduled_at <= " + placeholder())
	}
	if filter.IsDisputed != nil {
		args = append(args, *filter.IsDisputed)
		where.WriteString(" AND is_disputed = " + placeholder())
	}
	if filter.HasLateCancellation != nil {
		args = append(args, *filter.HasLateCancellation)
		where.WriteString(" AND has_late_cancellation = " + placeholder())
	}
	if filter.Search != "" {
		// Поиск по именам обеих сторон матча.
		args = append(args, "%"+filter.Search+"%")
		p := placeholder()
		where.WriteString(` AND EXISTS (
			SELECT 1 FROM users u
			WHERE u.id IN (matches.team1_user_id, matches.team2_user_id)
			  AND (u.first_name || ' ' || u.last_name) ILIKE ` + p + `)`)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM matches` + where.String()
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count matches: %w", err)
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

	query := `SELECT ` + matchColumns + ` FROM matches` + where.String() +
		` ORDER BY scheduled_at DESC, id DESC LIMIT ` + limitPlaceholder + ` OFFSET ` + offsetPlaceholder

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		match, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, 0, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, match)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, total, nil
}

func (r *postgresMatchRepository) UpdateResult(ctx context.Context, exec SQLExecutor, id int, priorUpdatedAt time.Time, snap models.MatchResultSnapshot) error {
	if exec == nil {
		exec = r.db
	}
	rawScores, err := setScoresValue(snap.SetScores)
	if err != nil {
		return err
	}

	query := `
		UPDATE matches
		SET status = $1, team1_score = $2, team2_score = $3, set_scores = $4,
		    outcome = $5, winner_user_id = $6, is_walkover = $7, walkover_reason = $8,
		    updated_at = NOW()
		WHERE id = $9 AND updated_at = $10`

	result, err := exec.ExecContext(ctx, query,
		snap.Status,
		snap.Team1Score,
		snap.Team2Score,
		rawScores,
		snap.Outcome,
		snap.WinnerUserID,
		snap.IsWalkover,
		snap.WalkoverReason,
		id,
		priorUpdatedAt,
	)
	if err != nil {
		return r.handleMatchError(err)
	}
	// Ноль строк здесь означает гонку: матч успел измениться после чтения.
	return checkAffectedRows(result, ErrMatchConcurrentUpdate)
}

func (r *postgresMatchRepository) SetDisputedFlag(ctx context.Context, exec SQLExecutor, id int, disputed bool) error {
	if exec == nil {
		exec = r.db
	}
	query := `UPDATE matches SET is_disputed = $1, updated_at = NOW() WHERE id = $2`
	result, err := exec.ExecContext(ctx, query, disputed, id)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) SetLateCancellationFlag(ctx context.Context, exec SQLExecutor, id int, flagged bool) error {
	if exec == nil {
		exec = r.db
	}
	query := `UPDATE matches SET has_late_cancellation = $1, updated_at = NOW() WHERE id = $2`
	result, err := exec.ExecContext(ctx, query, flagged, id)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) CountDisputed(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM matches WHERE is_disputed = TRUE`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count disputed matches: %w", err)
	}
	return count, nil
}

func (r *postgresMatchRepository) CountCompletedSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM matches WHERE status = $1 AND updated_at >= $2`
	err := r.db.QueryRowContext(ctx, query, models.MatchStatusCompleted, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed matches: %w", err)
	}
	return count, nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "matches_team1_user_id_fkey", "matches_team2_user_id_fkey", "matches_winner_user_id_fkey":
			return ErrMatchPlayerInvalid
		}
	}
	return err
}
