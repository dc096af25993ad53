package models

import "time"

type NotificationStatus string

const (
	NotificationPending    NotificationStatus = "pending"
	NotificationProcessing NotificationStatus = "processing"
	NotificationSent       NotificationStatus = "sent"
	NotificationFailed     NotificationStatus = "failed"
)

type NotificationKind string

const (
	NotifyDisputeResolved     NotificationKind = "dispute_resolved"
	NotifyMatchOverridden     NotificationKind = "match_overridden"
	NotifyCancellationReview  NotificationKind = "cancellation_reviewed"
	NotifyPenaltyIssued       NotificationKind = "penalty_issued"
)

// Notification - строка outbox. Диспетчер атомарно захватывает pending/failed
// строки (processing) и доставляет их (websocket + email), помечая sent.
// Доставка at-least-once.
type Notification struct {
	ID              int                `json:"id"`
	DedupKey        string             `json:"dedup_key"`
	Kind            NotificationKind   `json:"kind"`
	RecipientUserID int                `json:"recipient_user_id"`
	LeagueID        int                `json:"league_id"`
	Subject         string             `json:"subject"`
	Body            string             `json:"body"`
	Status          NotificationStatus `json:"status"`
	Attempts        int                `json:"attempts"`
	CreatedAt       time.Time          `json:"created_at"`
	SentAt          *time.Time         `json:"sent_at,omitempty"`
}
