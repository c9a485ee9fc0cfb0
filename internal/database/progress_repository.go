package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/learnstate/pkg/models"
)

// ProgressKey identifies one progress row
type ProgressKey struct {
	UserID       string `db:"user_id"`
	CurriculumID string `db:"curriculum_id"`
}

type progressRow struct {
	UserID            string    `db:"user_id"`
	CurriculumID      string    `db:"curriculum_id"`
	CurrentSection    int       `db:"current_section"`
	CompletedSections string    `db:"completed_sections"`
	XP                int       `db:"xp"`
	Level             int       `db:"level"`
	Badges            string    `db:"badges"`
	Stats             string    `db:"stats"`
	QuizScores        string    `db:"quiz_scores"`
	QuestionHistory   string    `db:"question_history"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

const progressColumnsSQL = `user_id, curriculum_id, current_section, completed_sections, xp, level,
	badges, stats, quiz_scores, question_history, created_at, updated_at`

// toModel decodes the JSON columns. Completed sections are parsed leniently;
// any other undecodable column makes the whole row malformed.
func (r progressRow) toModel() (*models.Progress, error) {
	p := models.NewProgress(r.UserID, r.CurriculumID, r.CreatedAt)
	p.CurrentSection = r.CurrentSection
	if p.CurrentSection < 0 {
		p.CurrentSection = 0
	}
	p.CompletedSections = models.ParseSections([]byte(r.CompletedSections))
	p.XP = r.XP
	p.Level = models.LevelFor(r.XP)
	p.LastUpdated = r.UpdatedAt

	fields := []struct {
		name string
		raw  string
		dest interface{}
	}{
		{"badges", r.Badges, &p.Badges},
		{"stats", r.Stats, &p.Stats},
		{"quiz_scores", r.QuizScores, &p.QuizScores},
		{"question_history", r.QuestionHistory, &p.QuestionHistory},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		if err := json.Unmarshal([]byte(f.raw), f.dest); err != nil {
			return nil, fmt.Errorf("%w: progress %s/%s %s", ErrMalformedRecord, r.UserID, r.CurriculumID, f.name)
		}
	}
	if p.Badges == nil {
		p.Badges = []string{}
	}
	if p.QuizScores == nil {
		p.QuizScores = make(map[int]models.QuizScore)
	}
	if p.QuestionHistory == nil {
		p.QuestionHistory = []bool{}
	}
	return p, nil
}

// GetProgress returns the progress record for a user and curriculum, or nil if absent
func (s *Store) GetProgress(ctx context.Context, userID, curriculumID string) (*models.Progress, error) {
	var row progressRow
	err := s.Get(ctx, &row,
		"SELECT "+progressColumnsSQL+" FROM progress WHERE user_id = ? AND curriculum_id = ?",
		userID, curriculumID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	return row.toModel()
}

// ListProgressByUser returns every progress record of a user.
// Rows that cannot be decoded are logged and skipped.
func (s *Store) ListProgressByUser(ctx context.Context, userID string) ([]*models.Progress, error) {
	var rows []progressRow
	err := s.Select(ctx, &rows,
		"SELECT "+progressColumnsSQL+" FROM progress WHERE user_id = ? ORDER BY curriculum_id", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	out := make([]*models.Progress, 0, len(rows))
	for _, r := range rows {
		p, err := r.toModel()
		if err != nil {
			log.Printf("database: skipping progress row: %v", err)
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// ListProgressKeys returns the keys of all progress rows
func (s *Store) ListProgressKeys(ctx context.Context) ([]ProgressKey, error) {
	var keys []ProgressKey
	err := s.Select(ctx, &keys, "SELECT user_id, curriculum_id FROM progress ORDER BY user_id, curriculum_id")
	if err != nil {
		return nil, fmt.Errorf("failed to list progress keys: %w", err)
	}
	return keys, nil
}

// SaveProgress upserts a progress record and, in the same transaction,
// recomputes the user's total XP across all curricula.
func (s *Store) SaveProgress(ctx context.Context, p *models.Progress) error {
	if p.UserID == "" || p.CurriculumID == "" {
		return fmt.Errorf("%w: %q/%q", ErrInvalidKey, p.UserID, p.CurriculumID)
	}
	encoded := make([]string, 0, 5)
	for _, v := range []interface{}{p.CompletedSections, p.Badges, p.Stats, p.QuizScores, p.QuestionHistory} {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal progress: %w", err)
		}
		encoded = append(encoded, string(b))
	}

	now := time.Now().UTC()
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := p.LastUpdated
	if updatedAt.IsZero() {
		updatedAt = now
	}

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO progress (`+progressColumnsSQL+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (user_id, curriculum_id) DO UPDATE SET
				current_section = excluded.current_section,
				completed_sections = excluded.completed_sections,
				xp = excluded.xp,
				level = excluded.level,
				badges = excluded.badges,
				stats = excluded.stats,
				quiz_scores = excluded.quiz_scores,
				question_history = excluded.question_history,
				updated_at = excluded.updated_at`),
			p.UserID, p.CurriculumID, p.CurrentSection, encoded[0], p.XP, models.LevelFor(p.XP),
			encoded[1], encoded[2], encoded[3], encoded[4], createdAt.UTC(), updatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to save progress: %w", err)
		}

		_, err = tx.ExecContext(ctx, s.rebind(`
			UPDATE users SET total_xp = (
				SELECT COALESCE(SUM(xp), 0) FROM progress WHERE user_id = ?
			) WHERE id = ?`), p.UserID, p.UserID)
		if err != nil {
			return fmt.Errorf("failed to update total xp: %w", err)
		}
		return nil
	})
}

// DeleteProgress removes a progress record and refreshes the user's total XP
func (s *Store) DeleteProgress(ctx context.Context, userID, curriculumID string) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, s.rebind("DELETE FROM progress WHERE user_id = ? AND curriculum_id = ?"), userID, curriculumID)
		if err != nil {
			return fmt.Errorf("failed to delete progress: %w", err)
		}
		if err := expectRows(result, "progress"); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, s.rebind(`
			UPDATE users SET total_xp = (
				SELECT COALESCE(SUM(xp), 0) FROM progress WHERE user_id = ?
			) WHERE id = ?`), userID, userID)
		if err != nil {
			return fmt.Errorf("failed to update total xp: %w", err)
		}
		return nil
	})
}
