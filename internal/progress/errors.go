package progress

import "errors"

var (
	// ErrInvalidSection is returned for a section index outside the curriculum
	ErrInvalidSection = errors.New("invalid section index")
	// ErrNotMastered is returned when advancing past a quiz whose unit is not mastered
	ErrNotMastered = errors.New("unit quiz not mastered")
)

// ErrInvalidScore is returned for a quiz result with negative counts or more correct answers than questions
var ErrInvalidScore = errors.New("invalid quiz score")
