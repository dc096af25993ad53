package models

type DashboardStats struct {
	OpenDisputes         int `json:"open_disputes"`
	PendingCancellations int `json:"pending_cancellations"`
	DisputedMatches      int `json:"disputed_matches"`
	PenaltiesLast30Days  int `json:"penalties_last_30_days"`
	MatchesLast30Days    int `json:"matches_last_30_days"`
}
