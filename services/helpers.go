package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Temirlan00/league-system/models"
)

// runInTx выполняет fn в транзакции: rollback при ошибке или панике, иначе commit.
func runInTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// validateSetScores проверяет счёт по сетам: от 1 до 5 сетов, без отрицательных
// значений и без ничьих внутри сета.
func validateSetScores(scores []models.SetScore) error {
	if len(scores) == 0 || len(scores) > 5 {
		return fmt.Errorf("%w: expected between 1 and 5 sets, got %d", ErrInvalidSetScores, len(scores))
	}
	for i, set := range scores {
		if set.Team1 < 0 || set.Team2 < 0 {
			return fmt.Errorf("%w: set %d has a negative game count", ErrInvalidSetScores, i+1)
		}
		if set.Team1 == set.Team2 {
			return fmt.Errorf("%w: set %d is tied", ErrInvalidSetScores, i+1)
		}
	}
	return nil
}

// deriveResultFromSets сворачивает счёт по сетам в счёт матча (выигранные сеты)
// и определяет исход. Ничья по сетам допустима для лиг с чётным числом сетов.
func deriveResultFromSets(scores []models.SetScore, team1UserID, team2UserID int) models.MatchResultSnapshot {
	var team1Sets, team2Sets int
	for _, set := range scores {
		if set.Team1 > set.Team2 {
			team1Sets++
		} else {
			team2Sets++
		}
	}

	snap := models.MatchResultSnapshot{
		Status:     models.MatchStatusCompleted,
		Team1Score: &team1Sets,
		Team2Score: &team2Sets,
		SetScores:  scores,
	}

	var outcome models.MatchOutcome
	switch {
	case team1Sets > team2Sets:
		outcome = models.OutcomeTeam1Win
		snap.WinnerUserID = &team1UserID
	case team2Sets > team1Sets:
		outcome = models.OutcomeTeam2Win
		snap.WinnerUserID = &team2UserID
	default:
		outcome = models.OutcomeDraw
	}
	snap.Outcome = &outcome
	return snap
}

func snapshotOfMatch(match *models.Match) models.MatchResultSnapshot {
	return models.MatchResultSnapshot{
		Status:         match.Status,
		Team1Score:     match.Team1Score,
		Team2Score:     match.Team2Score,
		SetScores:      match.SetScores,
		Outcome:        match.Outcome,
		WinnerUserID:   match.WinnerUserID,
		IsWalkover:     match.IsWalkover,
		WalkoverReason: match.WalkoverReason,
	}
}

func marshalSnapshot(snap models.MatchResultSnapshot) json.RawMessage {
	raw, err := json.Marshal(snap)
	if err != nil {
		// MatchResultSnapshot состоит из примитивов, сюда попасть нельзя.
		return json.RawMessage(`{}`)
	}
	return raw
}
