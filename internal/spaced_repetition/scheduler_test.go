package spaced_repetition

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/learnstate/pkg/models"
)

type fakeReviewStore struct {
	items     map[string]models.ReviewItem
	updateErr error
	updates   int
}

func newFakeReviewStore() *fakeReviewStore {
	return &fakeReviewStore{items: make(map[string]models.ReviewItem)}
}

func (f *fakeReviewStore) CreateReviewItem(_ context.Context, item *models.ReviewItem) error {
	if item.ID == "" {
		item.ID = "card-" + item.Front
	}
	f.items[item.ID] = *item
	return nil
}

func (f *fakeReviewStore) GetReviewItem(_ context.Context, id string) (*models.ReviewItem, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (f *fakeReviewStore) UpdateReviewSchedule(_ context.Context, item *models.ReviewItem) error {
	f.updates++
	if f.updateErr != nil {
		return f.updateErr
	}
	f.items[item.ID] = *item
	return nil
}

func (f *fakeReviewStore) DeleteReviewItem(_ context.Context, userID, id string) error {
	item, ok := f.items[id]
	if !ok || item.UserID != userID {
		return errors.New("not found")
	}
	delete(f.items, id)
	return nil
}

func (f *fakeReviewStore) ListReviewItems(_ context.Context, userID, _ string) ([]models.ReviewItem, error) {
	var out []models.ReviewItem
	for _, item := range f.items {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeReviewStore) DueReviewItems(_ context.Context, userID, _ string, now time.Time, limit int) ([]models.ReviewItem, error) {
	var out []models.ReviewItem
	for _, item := range f.items {
		if item.UserID == userID && !item.NextReview.After(now) {
			out = append(out, item)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeReviewStore) CountDue(ctx context.Context, userID, curriculumID string, now time.Time) (int, error) {
	items, _ := f.DueReviewItems(ctx, userID, curriculumID, now, 0)
	return len(items), nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestSchedulerReviewPersists(t *testing.T) {
	store := newFakeReviewStore()
	s := NewScheduler(store, nil, fixedClock(t0))
	ctx := context.Background()

	item, err := s.Create(ctx, "u1", "c1", "2+2", "4")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if n, _ := s.DueCount(ctx, "u1", ""); n != 1 {
		t.Fatalf("expected new card to be due, got %d", n)
	}

	reviewed, err := s.Review(ctx, item.ID, QualityPerfect)
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	stored := store.items[item.ID]
	if stored.Repetitions != 1 || stored.Interval != 1 || stored.EasinessFactor != reviewed.EasinessFactor {
		t.Fatalf("unexpected stored item %+v", stored)
	}
	if n, _ := s.DueCount(ctx, "u1", ""); n != 0 {
		t.Fatalf("expected no due cards after review, got %d", n)
	}
}

func TestSchedulerReviewFailureLeavesItemUnchanged(t *testing.T) {
	store := newFakeReviewStore()
	s := NewScheduler(store, nil, fixedClock(t0))
	ctx := context.Background()

	item, _ := s.Create(ctx, "u1", "c1", "front", "back")
	before := store.items[item.ID]

	store.updateErr = errors.New("disk full")
	if _, err := s.Review(ctx, item.ID, QualityPerfect); err == nil {
		t.Fatal("expected error from failed write")
	}
	if store.items[item.ID] != before {
		t.Fatalf("item changed after failed write: %+v", store.items[item.ID])
	}
}

func TestSchedulerReviewRejectsInvalidQualityBeforeReading(t *testing.T) {
	store := newFakeReviewStore()
	s := NewScheduler(store, nil, fixedClock(t0))

	if _, err := s.Review(context.Background(), "missing", 9); !errors.Is(err, ErrInvalidQuality) {
		t.Fatalf("expected ErrInvalidQuality, got %v", err)
	}
	if store.updates != 0 {
		t.Fatalf("expected no writes, got %d", store.updates)
	}
	if _, err := s.Review(context.Background(), "missing", QualityPerfect); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestSchedulerCreateRequiresText(t *testing.T) {
	s := NewScheduler(newFakeReviewStore(), nil, fixedClock(t0))
	if _, err := s.Create(context.Background(), "u1", "c1", " ", "back"); err == nil {
		t.Fatal("expected error for empty front")
	}
}
