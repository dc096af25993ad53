package models

import "time"

type MatchStatus string

const (
	MatchStatusScheduled MatchStatus = "scheduled"
	MatchStatusCompleted MatchStatus = "completed"
	MatchStatusWalkover  MatchStatus = "walkover"
	MatchStatusVoid      MatchStatus = "void"
	MatchStatusCanceled  MatchStatus = "canceled"
)

type MatchOutcome string

const (
	OutcomeTeam1Win MatchOutcome = "team1_win"
	OutcomeTeam2Win MatchOutcome = "team2_win"
	OutcomeDraw     MatchOutcome = "draw"
	OutcomeWalkover MatchOutcome = "walkover"
	OutcomeVoid     MatchOutcome = "void"
)

func (s MatchStatus) Valid() bool {
	switch s {
	case MatchStatusScheduled, MatchStatusCompleted, MatchStatusWalkover, MatchStatusVoid, MatchStatusCanceled:
		return true
	}
	return false
}

func (o MatchOutcome) Valid() bool {
	switch o {
	case OutcomeTeam1Win, OutcomeTeam2Win, OutcomeDraw, OutcomeWalkover, OutcomeVoid:
		return true
	}
	return false
}

// SetScore - счёт одного сета (игры внутри сета с каждой стороны).
type SetScore struct {
	Team1 int `json:"team1"`
	Team2 int `json:"team2"`
}

type Match struct {
	ID                  int           `json:"id"`
	LeagueID            int           `json:"league_id"`
	SeasonID            int           `json:"season_id"`
	DivisionID          *int          `json:"division_id,omitempty"`
	Team1UserID         int           `json:"team1_user_id"`
	Team2UserID         int           `json:"team2_user_id"`
	Status              MatchStatus   `json:"status"`
	Team1Score          *int          `json:"team1_score,omitempty"`
	Team2Score          *int          `json:"team2_score,omitempty"`
	SetScores           []SetScore    `json:"set_scores,omitempty"`
	Outcome             *MatchOutcome `json:"outcome,omitempty"`
	WinnerUserID        *int          `json:"winner_user_id,omitempty"`
	IsWalkover          bool          `json:"is_walkover"`
	WalkoverReason      *string       `json:"walkover_reason,omitempty"`
	IsDisputed          bool          `json:"is_disputed"`
	HasLateCancellation bool          `json:"has_late_cancellation"`
	ScheduledAt         time.Time     `json:"scheduled_at"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// MatchFilter - параметры листинга матчей в админке.
type MatchFilter struct {
	LeagueID            *int
	SeasonID            *int
	DivisionID          *int
	Statuses            []MatchStatus
	StartDate           *time.Time
	EndDate             *time.Time
	Search              string
	IsDisputed          *bool
	HasLateCancellation *bool
	Page                int
	Limit               int
}

type MatchListResponse struct {
	Matches    []*Match `json:"matches"`
	TotalCount int      `json:"total_count"`
	Page       int      `json:"page"`
	Limit      int      `json:"limit"`
}
