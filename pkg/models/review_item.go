package models

import "time"

// Default SM-2 values for a new card
const (
	DefaultEasinessFactor = 2.5
	MinEasinessFactor     = 1.3
)

// ReviewItem is a flashcard scheduled with SM-2
type ReviewItem struct {
	ID             string     `json:"id" db:"id"`
	UserID         string     `json:"user_id" db:"user_id"`
	CurriculumID   string     `json:"curriculum_id" db:"curriculum_id"`
	Front          string     `json:"front" db:"card_front"`
	Back           string     `json:"back" db:"card_back"`
	EasinessFactor float64    `json:"easiness_factor" db:"easiness_factor"`
	Interval       int        `json:"interval" db:"interval"`       // Days until next review
	Repetitions    int        `json:"repetitions" db:"repetitions"` // Consecutive successful recalls
	NextReview     time.Time  `json:"next_review" db:"next_review"`
	LastReview     *time.Time `json:"last_review,omitempty" db:"last_review"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}
