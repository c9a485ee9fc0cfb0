package models

import "time"

// Challenge is an entry of the static daily challenge catalog
type Challenge struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Metric      string `json:"metric" yaml:"metric"` // Event that advances the challenge
	Target      int    `json:"target" yaml:"target"`
	XPReward    int    `json:"xp_reward" yaml:"xp_reward"`
}

// DailyChallengeAssignment is the set of challenges drawn for a user on one day
type DailyChallengeAssignment struct {
	UserID       string         `json:"user_id"`
	Day          string         `json:"day"` // 2006-01-02
	ChallengeIDs []string       `json:"challenge_ids"`
	Progress     map[string]int `json:"progress"`
	Completed    []string       `json:"completed"`
	CreatedAt    time.Time      `json:"created_at"`
}

// IsCompleted reports whether the challenge was completed on this day
func (a *DailyChallengeAssignment) IsCompleted(id string) bool {
	for _, c := range a.Completed {
		if c == id {
			return true
		}
	}
	return false
}
