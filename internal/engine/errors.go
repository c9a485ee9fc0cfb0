package engine

import "errors"

var (
	// ErrOffline is returned by operations that need the relational store when the engine runs on snapshots only
	ErrOffline = errors.New("engine: relational store unavailable")
	// ErrNoCurriculum is returned when challenge XP has no curriculum to go to
	ErrNoCurriculum = errors.New("engine: curriculum id required")
)
