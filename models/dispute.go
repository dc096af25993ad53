package models

import "time"

type DisputeStatus string

const (
	DisputeStatusOpen     DisputeStatus = "open"
	DisputeStatusInReview DisputeStatus = "in_review"
	DisputeStatusResolved DisputeStatus = "resolved"
	DisputeStatusClosed   DisputeStatus = "closed"
)

func (s DisputeStatus) Valid() bool {
	switch s {
	case DisputeStatusOpen, DisputeStatusInReview, DisputeStatusResolved, DisputeStatusClosed:
		return true
	}
	return false
}

// Active сообщает, допускает ли дисвут ещё какие-либо решения админа.
func (s DisputeStatus) Active() bool {
	return s == DisputeStatusOpen || s == DisputeStatusInReview
}

type DisputeAction string

const (
	ActionUpholdOriginal  DisputeAction = "UPHOLD_ORIGINAL"
	ActionUpholdDisputer  DisputeAction = "UPHOLD_DISPUTER"
	ActionCustomScore     DisputeAction = "CUSTOM_SCORE"
	ActionVoidMatch       DisputeAction = "VOID_MATCH"
	ActionAwardWalkover   DisputeAction = "AWARD_WALKOVER"
	ActionRequestMoreInfo DisputeAction = "REQUEST_MORE_INFO"
)

func (a DisputeAction) Valid() bool {
	switch a {
	case ActionUpholdOriginal, ActionUpholdDisputer, ActionCustomScore,
		ActionVoidMatch, ActionAwardWalkover, ActionRequestMoreInfo:
		return true
	}
	return false
}

// Terminal: все действия закрывают диспут, кроме запроса дополнительной информации.
func (a DisputeAction) Terminal() bool {
	return a != ActionRequestMoreInfo
}

type DisputePriority string

const (
	PriorityLow    DisputePriority = "low"
	PriorityNormal DisputePriority = "normal"
	PriorityHigh   DisputePriority = "high"
	PriorityUrgent DisputePriority = "urgent"
)

func (p DisputePriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type Dispute struct {
	ID               int             `json:"id"`
	MatchID          int             `json:"match_id"`
	RaisedByUserID   int             `json:"raised_by_user_id"`
	Status           DisputeStatus   `json:"status"`
	Priority         DisputePriority `json:"priority"`
	ClaimedSetScores []SetScore      `json:"claimed_set_scores,omitempty"`
	Reason           string          `json:"reason"`
	ResolutionAction *DisputeAction  `json:"resolution_action,omitempty"`
	ResolutionReason *string         `json:"resolution_reason,omitempty"`
	ResolvedByID     *int            `json:"resolved_by_id,omitempty"`
	Notes            []*DisputeNote  `json:"notes,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	ResolvedAt       *time.Time      `json:"resolved_at,omitempty"`
}

type DisputeNote struct {
	ID             int       `json:"id"`
	DisputeID      int       `json:"dispute_id"`
	AuthorID       int       `json:"author_id"`
	Note           string    `json:"note"`
	IsInternalOnly bool      `json:"is_internal_only"`
	CreatedAt      time.Time `json:"created_at"`
}

type DisputeFilter struct {
	Status   *DisputeStatus
	Priority *DisputePriority
	MatchID  *int
	Page     int
	Limit    int
}

type DisputeListResponse struct {
	Disputes   []*Dispute `json:"disputes"`
	TotalCount int        `json:"total_count"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
}
