package models

import "time"

type CancellationStatus string

const (
	CancellationStatusPending  CancellationStatus = "pending"
	CancellationStatusApproved CancellationStatus = "approved"
	CancellationStatusDenied   CancellationStatus = "denied"
)

func (s CancellationStatus) Valid() bool {
	switch s {
	case CancellationStatusPending, CancellationStatusApproved, CancellationStatusDenied:
		return true
	}
	return false
}

// LateCancellation - отказ от матча внутри штрафного окна. Создаётся планировщиком,
// терминальна после одного решения админа.
type LateCancellation struct {
	ID             int                `json:"id"`
	MatchID        int                `json:"match_id"`
	CanceledByID   int                `json:"canceled_by_id"`
	Status         CancellationStatus `json:"status"`
	Reason         string             `json:"reason"`
	ReviewedByID   *int               `json:"reviewed_by_id,omitempty"`
	ReviewReason   *string            `json:"review_reason,omitempty"`
	PenaltyID      *int               `json:"penalty_id,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	ReviewedAt     *time.Time         `json:"reviewed_at,omitempty"`
}
