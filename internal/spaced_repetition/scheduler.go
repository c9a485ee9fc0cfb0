package spaced_repetition

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/learnstate/pkg/models"
)

// ReviewStore is the storage the scheduler needs; *database.Store satisfies it
type ReviewStore interface {
	CreateReviewItem(ctx context.Context, item *models.ReviewItem) error
	GetReviewItem(ctx context.Context, id string) (*models.ReviewItem, error)
	UpdateReviewSchedule(ctx context.Context, item *models.ReviewItem) error
	DeleteReviewItem(ctx context.Context, userID, id string) error
	ListReviewItems(ctx context.Context, userID, curriculumID string) ([]models.ReviewItem, error)
	DueReviewItems(ctx context.Context, userID, curriculumID string, now time.Time, limit int) ([]models.ReviewItem, error)
	CountDue(ctx context.Context, userID, curriculumID string, now time.Time) (int, error)
}

// Scheduler applies SM-2 reviews to stored flashcards
type Scheduler struct {
	store ReviewStore
	sm2   *SM2
	now   func() time.Time
}

// NewScheduler creates a scheduler over store; a nil clock means time.Now
func NewScheduler(store ReviewStore, sm2 *SM2, clock func() time.Time) *Scheduler {
	if sm2 == nil {
		sm2 = NewSM2()
	}
	if clock == nil {
		clock = time.Now
	}
	return &Scheduler{store: store, sm2: sm2, now: clock}
}

// Create adds a new flashcard that is due immediately
func (s *Scheduler) Create(ctx context.Context, userID, curriculumID, front, back string) (*models.ReviewItem, error) {
	if strings.TrimSpace(front) == "" || strings.TrimSpace(back) == "" {
		return nil, fmt.Errorf("flashcard front and back are required")
	}
	item := &models.ReviewItem{
		UserID:         userID,
		CurriculumID:   curriculumID,
		Front:          front,
		Back:           back,
		EasinessFactor: models.DefaultEasinessFactor,
		Interval:       1,
		NextReview:     s.now().UTC(),
		CreatedAt:      s.now().UTC(),
	}
	if err := s.store.CreateReviewItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Review rates a flashcard and persists the new schedule in one write.
// If validation or the write fails the stored item is left as it was.
func (s *Scheduler) Review(ctx context.Context, id string, quality QualityResponse) (*models.ReviewItem, error) {
	if !quality.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuality, int(quality))
	}
	current, err := s.store.GetReviewItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}

	next, err := s.sm2.Next(*current, quality, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateReviewSchedule(ctx, &next); err != nil {
		return nil, fmt.Errorf("failed to persist review: %w", err)
	}
	return &next, nil
}

// Delete removes a user's flashcard
func (s *Scheduler) Delete(ctx context.Context, userID, id string) error {
	return s.store.DeleteReviewItem(ctx, userID, id)
}

// Due returns up to limit cards due now, earliest first
func (s *Scheduler) Due(ctx context.Context, userID, curriculumID string, limit int) ([]models.ReviewItem, error) {
	return s.store.DueReviewItems(ctx, userID, curriculumID, s.now(), limit)
}

// DueCount returns how many cards are due now
func (s *Scheduler) DueCount(ctx context.Context, userID, curriculumID string) (int, error) {
	return s.store.CountDue(ctx, userID, curriculumID, s.now())
}

// Summary counts a user's cards and how many are mastered
func (s *Scheduler) Summary(ctx context.Context, userID string) (total, mastered int, err error) {
	items, err := s.store.ListReviewItems(ctx, userID, "")
	if err != nil {
		return 0, 0, err
	}
	for _, item := range items {
		if s.sm2.IsMastered(item) {
			mastered++
		}
	}
	return len(items), mastered, nil
}
