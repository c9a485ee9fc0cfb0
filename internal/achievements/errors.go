package achievements

import "errors"

var (
	ErrDuplicateBadge   = errors.New("achievements: duplicate badge id")
	ErrUnknownCondition = errors.New("achievements: unknown condition type")
	ErrInvalidBadge     = errors.New("achievements: invalid badge")
)
