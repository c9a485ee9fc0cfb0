package database

import "fmt"

// The schema is written in the subset of SQL shared by SQLite and PostgreSQL
var schema = []struct {
	name string
	ddl  string
}{
	{"users", `
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			pin_hash TEXT NOT NULL DEFAULT '',
			total_xp INTEGER NOT NULL DEFAULT 0,
			preferences TEXT NOT NULL DEFAULT '{}',
			created_at TIMESTAMP NOT NULL,
			last_login TIMESTAMP
		)`},
	{"curricula", `
		CREATE TABLE IF NOT EXISTS curricula (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			subject TEXT NOT NULL DEFAULT '',
			grade TEXT NOT NULL DEFAULT '',
			file_path TEXT NOT NULL DEFAULT '',
			created_by TEXT NOT NULL DEFAULT '',
			unit_titles TEXT NOT NULL DEFAULT '[]',
			created_at TIMESTAMP NOT NULL
		)`},
	{"progress", `
		CREATE TABLE IF NOT EXISTS progress (
			user_id TEXT NOT NULL,
			curriculum_id TEXT NOT NULL,
			current_section INTEGER NOT NULL DEFAULT 0,
			completed_sections TEXT NOT NULL DEFAULT '[]',
			xp INTEGER NOT NULL DEFAULT 0,
			level INTEGER NOT NULL DEFAULT 0,
			badges TEXT NOT NULL DEFAULT '[]',
			stats TEXT NOT NULL DEFAULT '{}',
			quiz_scores TEXT NOT NULL DEFAULT '{}',
			question_history TEXT NOT NULL DEFAULT '[]',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (user_id, curriculum_id)
		)`},
	{"review_items", `
		CREATE TABLE IF NOT EXISTS review_items (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			curriculum_id TEXT NOT NULL DEFAULT '',
			card_front TEXT NOT NULL,
			card_back TEXT NOT NULL,
			easiness_factor REAL NOT NULL DEFAULT 2.5,
			"interval" INTEGER NOT NULL DEFAULT 1,
			repetitions INTEGER NOT NULL DEFAULT 0,
			next_review TIMESTAMP NOT NULL,
			last_review TIMESTAMP,
			created_at TIMESTAMP NOT NULL
		)`},
	{"idx_review_items_due", `CREATE INDEX IF NOT EXISTS idx_review_items_due ON review_items(user_id, next_review)`},
	{"idx_progress_user", `CREATE INDEX IF NOT EXISTS idx_progress_user ON progress(user_id)`},
}

// initializeSchema creates necessary tables if they don't exist
func (s *Store) initializeSchema() error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt.ddl); err != nil {
			return fmt.Errorf("failed to create %s: %w", stmt.name, err)
		}
	}
	return nil
}
