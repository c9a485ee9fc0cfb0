package spaced_repetition

import "errors"

var (
	// ErrInvalidQuality is returned for ratings outside 0..5
	ErrInvalidQuality = errors.New("spaced_repetition: quality must be between 0 and 5")
	// ErrItemNotFound is returned when a flashcard does not exist
	ErrItemNotFound = errors.New("spaced_repetition: review item not found")
)
