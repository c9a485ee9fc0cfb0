package challenges

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/learnstate/internal/database"
	"github.com/example/learnstate/pkg/models"
)

var t0 = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T, catalog *Catalog, perDay int) *Store {
	t.Helper()
	target := database.Target{Driver: database.DriverSQLite, DSN: filepath.Join(t.TempDir(), "challenges.db")}
	db, err := database.Open(target, database.Options{BusyTimeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	s := NewStore(db, catalog, perDay, func() time.Time { return t0 })
	if err := s.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	return s
}

func TestDefaultCatalogLoads(t *testing.T) {
	c := DefaultCatalog()
	if c.Len() < DefaultPerDay {
		t.Fatalf("catalog has %d challenges, need at least %d", c.Len(), DefaultPerDay)
	}
	if _, ok := c.Get("perfect_quiz"); !ok {
		t.Fatal("expected perfect_quiz challenge")
	}
}

func TestCatalogRejectsBadEntries(t *testing.T) {
	_, err := NewCatalog([]models.Challenge{
		{ID: "a", Metric: MetricShortAnswer, Target: 1},
		{ID: "a", Metric: MetricShortAnswer, Target: 2},
	})
	if !errors.Is(err, ErrDuplicateChallenge) {
		t.Fatalf("expected ErrDuplicateChallenge, got %v", err)
	}
	_, err = NewCatalog([]models.Challenge{{ID: "a", Metric: MetricShortAnswer}})
	if !errors.Is(err, ErrInvalidChallenge) {
		t.Fatalf("expected ErrInvalidChallenge, got %v", err)
	}
}

func TestDrawIsDeterministic(t *testing.T) {
	c := DefaultCatalog()
	a := Draw(c, "u1", "2026-05-01", 3)
	b := Draw(c, "u1", "2026-05-01", 3)
	if len(a) != 3 {
		t.Fatalf("expected 3 ids, got %v", a)
	}
	seen := map[string]bool{}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("draw not deterministic: %v vs %v", a, b)
		}
		if seen[a[i]] {
			t.Fatalf("duplicate id in draw %v", a)
		}
		seen[a[i]] = true
	}
	if all := Draw(c, "u1", "2026-05-01", 100); len(all) != c.Len() {
		t.Fatalf("draw larger than catalog should return all, got %d", len(all))
	}
}

func TestTodayIsStable(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, DefaultCatalog(), 0)

	first, err := s.Today(ctx, "u1", "2026-05-01")
	if err != nil {
		t.Fatalf("Today: %v", err)
	}
	if len(first.ChallengeIDs) != DefaultPerDay {
		t.Fatalf("expected %d challenges, got %v", DefaultPerDay, first.ChallengeIDs)
	}
	again, err := s.Today(ctx, "u1", "2026-05-01")
	if err != nil {
		t.Fatal(err)
	}
	for i := range first.ChallengeIDs {
		if first.ChallengeIDs[i] != again.ChallengeIDs[i] {
			t.Fatalf("assignment changed: %v vs %v", first.ChallengeIDs, again.ChallengeIDs)
		}
	}

	if _, err := s.Today(ctx, "u1", "05/01/2026"); !errors.Is(err, ErrInvalidDay) {
		t.Fatalf("expected ErrInvalidDay, got %v", err)
	}
}

func TestRecordCompletesOnce(t *testing.T) {
	ctx := context.Background()
	catalog, err := NewCatalog([]models.Challenge{
		{ID: "two_answers", Metric: MetricShortAnswer, Target: 2, XPReward: 10},
		{ID: "one_review", Metric: MetricFlashcardReviewed, Target: 1, XPReward: 5},
	})
	if err != nil {
		t.Fatal(err)
	}
	s := newTestStore(t, catalog, 2)
	day := "2026-05-01"

	done, err := s.Record(ctx, "u1", day, MetricShortAnswer, 1)
	if err != nil || len(done) != 0 {
		t.Fatalf("first answer: %v %v", done, err)
	}
	done, err = s.Record(ctx, "u1", day, MetricShortAnswer, 1)
	if err != nil || len(done) != 1 || done[0].ID != "two_answers" {
		t.Fatalf("second answer: %v %v", done, err)
	}
	done, err = s.Record(ctx, "u1", day, MetricShortAnswer, 5)
	if err != nil || len(done) != 0 {
		t.Fatalf("completed challenges must not complete again: %v %v", done, err)
	}

	a, err := s.Today(ctx, "u1", day)
	if err != nil {
		t.Fatal(err)
	}
	if a.Progress["two_answers"] != 2 || !a.IsCompleted("two_answers") || a.IsCompleted("one_review") {
		t.Fatalf("unexpected assignment %+v", a)
	}

	if done, err := s.Record(ctx, "u1", day, MetricTutorQuestion, 1); err != nil || done != nil {
		t.Fatalf("untracked metric: %v %v", done, err)
	}
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, DefaultCatalog(), 0)
	for _, day := range []string{"2026-04-01", "2026-04-20", "2026-05-01"} {
		if _, err := s.Today(ctx, "u1", day); err != nil {
			t.Fatal(err)
		}
	}

	n, err := s.Prune(ctx, "2026-04-21")
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 2 {
		t.Fatalf("pruned %d rows, want 2", n)
	}
	a, err := s.get(ctx, "u1", "2026-05-01")
	if err != nil || a == nil {
		t.Fatalf("recent assignment should survive: %v", err)
	}
}
