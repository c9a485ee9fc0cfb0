package challenges

import "errors"

var (
	// ErrDuplicateChallenge is returned when a catalog lists the same id twice
	ErrDuplicateChallenge = errors.New("duplicate challenge id")
	// ErrInvalidChallenge is returned for catalog entries without id, metric or a positive target
	ErrInvalidChallenge = errors.New("invalid challenge")
	// ErrInvalidDay is returned for days not in 2006-01-02 form
	ErrInvalidDay = errors.New("invalid challenge day")
)
