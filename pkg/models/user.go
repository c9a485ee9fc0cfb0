package models

import "time"

// User represents a learner known to the engine
type User struct {
	ID          string         `json:"id" db:"id"`
	Username    string         `json:"username" db:"username"`
	PinHash     string         `json:"-" db:"pin_hash"`               // Optional credential hash, never serialized
	TotalXP     int            `json:"total_xp" db:"total_xp"`        // Sum of XP across all curricula (derived)
	Preferences map[string]any `json:"preferences" db:"-"`            // Free-form preference map
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	LastLogin   *time.Time     `json:"last_login,omitempty" db:"last_login"`
}

// HasPin reports whether a PIN credential is set
func (u *User) HasPin() bool {
	return u.PinHash != ""
}
