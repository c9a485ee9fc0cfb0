package database

import "errors"

var (
	// ErrNotFound is returned by updates and deletes that matched no row
	ErrNotFound = errors.New("database: record not found")
	// ErrMalformedRecord is returned when a stored field cannot be decoded
	ErrMalformedRecord = errors.New("database: malformed record")
	// ErrInvalidKey is returned when saving progress without a user or curriculum id
	ErrInvalidKey = errors.New("database: empty progress key")
	// ErrUnknownField is returned for update descriptors outside the allow-list
	ErrUnknownField = errors.New("database: unknown update field")
	// ErrUnsupportedDriver is returned by Open for drivers other than sqlite3 and postgres
	ErrUnsupportedDriver = errors.New("database: unsupported driver")
)
