package model

// ProgressSnapshot is derived per request and never persisted.
type ProgressSnapshot struct {
	PercentComplete int    `json:"percentComplete"`
	EarnedTime      int    `json:"earnedTime"`
	TotalTime       int    `json:"totalTime"`
	EarnedPoints    int    `json:"earnedPoints"`
	TotalPoints     int    `json:"totalPoints"`
	Label           string `json:"label"`
}
