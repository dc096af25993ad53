package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Temirlan00/league-system/models"
)

// SQLExecutor позволяет методам репозитория работать как с *sql.DB, так и с *sql.Tx.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func checkAffectedRows(result sql.Result, zeroRowsError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return zeroRowsError // Возвращаем переданную ошибку "не найдено"/"конфликт"
	}
	return nil
}

// setScoresValue сериализует счёт по сетам для jsonb-колонки. NULL для пустого счёта.
func setScoresValue(scores []models.SetScore) (interface{}, error) {
	if len(scores) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(scores)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal set scores: %w", err)
	}
	return raw, nil
}

func scanSetScores(raw []byte) ([]models.SetScore, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var scores []models.SetScore
	if err := json.Unmarshal(raw, &scores); err != nil {
		return nil, fmt.Errorf("failed to unmarshal set scores: %w", err)
	}
	return scores, nil
}
