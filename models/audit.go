package models

import (
	"encoding/json"
	"time"
)

// MatchAuditEntry - неизменяемая запись о ручной правке результата матча.
// Prior и New хранят JSON-снимки счёта/статуса до и после правки.
type MatchAuditEntry struct {
	ID        int             `json:"id"`
	MatchID   int             `json:"match_id"`
	AdminID   int             `json:"admin_id"`
	Prior     json.RawMessage `json:"prior"`
	New       json.RawMessage `json:"new"`
	Reason    string          `json:"reason"`
	CreatedAt time.Time       `json:"created_at"`
}

// MatchResultSnapshot - то, что попадает в Prior/New записи аудита.
type MatchResultSnapshot struct {
	Status         MatchStatus   `json:"status"`
	Team1Score     *int          `json:"team1_score,omitempty"`
	Team2Score     *int          `json:"team2_score,omitempty"`
	SetScores      []SetScore    `json:"set_scores,omitempty"`
	Outcome        *MatchOutcome `json:"outcome,omitempty"`
	WinnerUserID   *int          `json:"winner_user_id,omitempty"`
	IsWalkover     bool          `json:"is_walkover"`
	WalkoverReason *string       `json:"walkover_reason,omitempty"`
}
