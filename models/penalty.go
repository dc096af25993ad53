package models

import "time"

type PenaltyType string

const (
	PenaltyRatingDeduction PenaltyType = "rating_deduction"
	PenaltySuspension      PenaltyType = "suspension"
	PenaltyWarning         PenaltyType = "warning"
)

func (t PenaltyType) Valid() bool {
	switch t {
	case PenaltyRatingDeduction, PenaltySuspension, PenaltyWarning:
		return true
	}
	return false
}

type PenaltySeverity string

const (
	SeverityMinor    PenaltySeverity = "minor"
	SeverityModerate PenaltySeverity = "moderate"
	SeveritySevere   PenaltySeverity = "severe"
)

func (s PenaltySeverity) Valid() bool {
	switch s {
	case SeverityMinor, SeverityModerate, SeveritySevere:
		return true
	}
	return false
}

// Penalty - запись санкции. После создания никогда не изменяется и не удаляется:
// исправления оформляются новой компенсирующей записью.
type Penalty struct {
	ID               int             `json:"id"`
	UserID           int             `json:"user_id"`
	IssuedByID       int             `json:"issued_by_id"`
	Type             PenaltyType     `json:"type"`
	Severity         PenaltySeverity `json:"severity"`
	PointsDeducted   *int            `json:"points_deducted,omitempty"`
	SuspensionDays   *int            `json:"suspension_days,omitempty"`
	RelatedMatchID   *int            `json:"related_match_id,omitempty"`
	RelatedDisputeID *int            `json:"related_dispute_id,omitempty"`
	Reason           string          `json:"reason"`
	EvidenceURL      *string         `json:"evidence_url,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}
