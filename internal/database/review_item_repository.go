package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/learnstate/pkg/models"
)

type reviewItemRow struct {
	ID             string       `db:"id"`
	UserID         string       `db:"user_id"`
	CurriculumID   string       `db:"curriculum_id"`
	Front          string       `db:"card_front"`
	Back           string       `db:"card_back"`
	EasinessFactor float64      `db:"easiness_factor"`
	Interval       int          `db:"interval"`
	Repetitions    int          `db:"repetitions"`
	NextReview     time.Time    `db:"next_review"`
	LastReview     sql.NullTime `db:"last_review"`
	CreatedAt      time.Time    `db:"created_at"`
}

const reviewItemColumnsSQL = `id, user_id, curriculum_id, card_front, card_back, easiness_factor,
	"interval", repetitions, next_review, last_review, created_at`

func (r reviewItemRow) toModel() models.ReviewItem {
	item := models.ReviewItem{
		ID:             r.ID,
		UserID:         r.UserID,
		CurriculumID:   r.CurriculumID,
		Front:          r.Front,
		Back:           r.Back,
		EasinessFactor: r.EasinessFactor,
		Interval:       r.Interval,
		Repetitions:    r.Repetitions,
		NextReview:     r.NextReview.UTC(),
		CreatedAt:      r.CreatedAt.UTC(),
	}
	if r.LastReview.Valid {
		t := r.LastReview.Time.UTC()
		item.LastReview = &t
	}
	return item
}

// CreateReviewItem inserts a new flashcard, filling SM-2 defaults
func (s *Store) CreateReviewItem(ctx context.Context, item *models.ReviewItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	if item.NextReview.IsZero() {
		item.NextReview = now
	}
	if item.EasinessFactor < models.MinEasinessFactor {
		item.EasinessFactor = models.DefaultEasinessFactor
	}
	if item.Interval < 1 {
		item.Interval = 1
	}
	if item.Repetitions < 0 {
		item.Repetitions = 0
	}

	_, err := s.Exec(ctx, `
		INSERT INTO review_items (`+reviewItemColumnsSQL+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.UserID, item.CurriculumID, item.Front, item.Back, item.EasinessFactor,
		item.Interval, item.Repetitions, item.NextReview.UTC(), nullTime(item.LastReview), item.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create review item: %w", err)
	}
	return nil
}

// GetReviewItem returns a flashcard by ID, or nil if absent
func (s *Store) GetReviewItem(ctx context.Context, id string) (*models.ReviewItem, error) {
	var row reviewItemRow
	err := s.Get(ctx, &row, "SELECT "+reviewItemColumnsSQL+" FROM review_items WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review item: %w", err)
	}
	item := row.toModel()
	return &item, nil
}

// UpdateReviewSchedule writes the SM-2 fields of a flashcard in one statement
func (s *Store) UpdateReviewSchedule(ctx context.Context, item *models.ReviewItem) error {
	result, err := s.Exec(ctx, `
		UPDATE review_items SET
			easiness_factor = ?,
			"interval" = ?,
			repetitions = ?,
			next_review = ?,
			last_review = ?
		WHERE id = ?`,
		item.EasinessFactor, item.Interval, item.Repetitions, item.NextReview.UTC(), nullTime(item.LastReview), item.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update review item: %w", err)
	}
	return expectRows(result, "review item")
}

// DeleteReviewItem removes a user's flashcard
func (s *Store) DeleteReviewItem(ctx context.Context, userID, id string) error {
	result, err := s.Exec(ctx, "DELETE FROM review_items WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete review item: %w", err)
	}
	return expectRows(result, "review item")
}

// ListReviewItems returns a user's flashcards; an empty curriculumID matches all curricula
func (s *Store) ListReviewItems(ctx context.Context, userID, curriculumID string) ([]models.ReviewItem, error) {
	query := "SELECT " + reviewItemColumnsSQL + " FROM review_items WHERE user_id = ?"
	args := []interface{}{userID}
	if curriculumID != "" {
		query += " AND curriculum_id = ?"
		args = append(args, curriculumID)
	}
	query += " ORDER BY created_at"
	return s.selectReviewItems(ctx, query, args...)
}

// DueReviewItems returns up to limit flashcards with next_review <= now, earliest first
func (s *Store) DueReviewItems(ctx context.Context, userID, curriculumID string, now time.Time, limit int) ([]models.ReviewItem, error) {
	query := "SELECT " + reviewItemColumnsSQL + " FROM review_items WHERE user_id = ? AND next_review <= ?"
	args := []interface{}{userID, now.UTC()}
	if curriculumID != "" {
		query += " AND curriculum_id = ?"
		args = append(args, curriculumID)
	}
	query += " ORDER BY next_review ASC, id ASC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return s.selectReviewItems(ctx, query, args...)
}

// CountDue returns the number of flashcards due at now
func (s *Store) CountDue(ctx context.Context, userID, curriculumID string, now time.Time) (int, error) {
	query := "SELECT COUNT(*) FROM review_items WHERE user_id = ? AND next_review <= ?"
	args := []interface{}{userID, now.UTC()}
	if curriculumID != "" {
		query += " AND curriculum_id = ?"
		args = append(args, curriculumID)
	}
	var count int
	if err := s.Get(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count due review items: %w", err)
	}
	return count, nil
}

func (s *Store) selectReviewItems(ctx context.Context, query string, args ...interface{}) ([]models.ReviewItem, error) {
	var rows []reviewItemRow
	if err := s.Select(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get review items: %w", err)
	}
	items := make([]models.ReviewItem, len(rows))
	for i, r := range rows {
		items[i] = r.toModel()
	}
	return items, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
