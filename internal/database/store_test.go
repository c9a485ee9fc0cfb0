package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/learnstate/pkg/models"
)

func sqliteTarget(t *testing.T, name string) Target {
	t.Helper()
	return Target{Driver: DriverSQLite, DSN: filepath.Join(t.TempDir(), name)}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(sqliteTarget(t, "test.db"), Options{BusyTimeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func createUser(t *testing.T, store *Store, id string) {
	t.Helper()
	err := store.CreateUser(context.Background(), &models.User{ID: id, Username: id, PinHash: "secret-hash"})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(Target{Driver: "mysql", DSN: "x"}, Options{})
	if !errors.Is(err, ErrUnsupportedDriver) {
		t.Fatalf("expected ErrUnsupportedDriver, got %v", err)
	}
}

func TestHandlesReuseAndSwitch(t *testing.T) {
	h := NewHandles(Options{})
	t.Cleanup(func() { _ = h.Close() })

	first := sqliteTarget(t, "a.db")
	second := sqliteTarget(t, "b.db")

	s1, err := h.For(first)
	if err != nil {
		t.Fatalf("For failed: %v", err)
	}
	again, err := h.For(first)
	if err != nil {
		t.Fatalf("For failed: %v", err)
	}
	if s1 != again {
		t.Fatalf("expected the same store for the same target")
	}

	s2, err := h.For(second)
	if err != nil {
		t.Fatalf("For failed: %v", err)
	}
	if s2 == s1 {
		t.Fatalf("expected a new store after switching targets")
	}
	if s2.Target() != second {
		t.Fatalf("unexpected target %v", s2.Target())
	}
	if err := s1.Ping(); err == nil {
		t.Fatalf("expected the previous store to be closed")
	}
}

func TestUserCRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := &models.User{Username: "ada", Preferences: map[string]any{"theme": "dark"}}
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if user.ID == "" {
		t.Fatalf("expected generated id")
	}

	got, err := store.GetUserByName(ctx, "ada")
	if err != nil || got == nil {
		t.Fatalf("GetUserByName failed: %v %v", got, err)
	}
	if got.Preferences["theme"] != "dark" {
		t.Fatalf("unexpected preferences %+v", got.Preferences)
	}

	if err := store.UpdateUser(ctx, user.ID, SetUsername("ada2"), SetPinHash("h"), SetPreferences(map[string]any{"sound": false})); err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := store.RecordLogin(ctx, user.ID, at); err != nil {
		t.Fatalf("RecordLogin failed: %v", err)
	}

	got, err = store.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if got.Username != "ada2" || !got.HasPin() || got.Preferences["sound"] != false {
		t.Fatalf("unexpected user %+v", got)
	}
	if got.LastLogin == nil || !got.LastLogin.Equal(at) {
		t.Fatalf("unexpected last login %v", got.LastLogin)
	}

	missing, err := store.GetUser(ctx, "nobody")
	if err != nil || missing != nil {
		t.Fatalf("expected absent user, got %v %v", missing, err)
	}

	if err := store.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	if err := store.DeleteUser(ctx, user.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateRejectsUnknownField(t *testing.T) {
	store := newTestStore(t)
	createUser(t, store, "u1")

	err := store.UpdateUser(context.Background(), "u1", UserUpdate{})
	if !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	err = store.UpdateCurriculum(context.Background(), "c1", CurriculumUpdate{})
	if !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestCurriculumCRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	c := &models.Curriculum{ID: "math-1", Title: "Fractions", Subject: "math", Grade: "4", UnitTitles: []string{"Halves", "Quarters"}}
	if err := store.SaveCurriculum(ctx, c); err != nil {
		t.Fatalf("SaveCurriculum failed: %v", err)
	}
	if err := store.UpdateCurriculum(ctx, "math-1", SetCurriculumTitle("Fractions I"), SetCurriculumUnitTitles([]string{"Halves", "Quarters", "Eighths"})); err != nil {
		t.Fatalf("UpdateCurriculum failed: %v", err)
	}

	got, err := store.GetCurriculum(ctx, "math-1")
	if err != nil || got == nil {
		t.Fatalf("GetCurriculum failed: %v %v", got, err)
	}
	if got.Title != "Fractions I" || got.TotalSections() != 18 {
		t.Fatalf("unexpected curriculum %+v", got)
	}

	all, err := store.ListCurricula(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("ListCurricula: %v %v", all, err)
	}
	if err := store.DeleteCurriculum(ctx, "math-1"); err != nil {
		t.Fatalf("DeleteCurriculum failed: %v", err)
	}
}

func TestProgressRoundTripAndTotalXP(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	createUser(t, store, "u1")

	created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	p := models.NewProgress("u1", "c1", created)
	p.CurrentSection = 4
	p.CompletedSections = models.SectionList{0, 1, 2, 3}
	p.AddXP(250)
	p.Badges = []string{"first_steps"}
	p.Stats = models.Stats{PerfectQuizzes: 1, CurrentStreak: 2, BestStreak: 3, LastStudyDate: "2026-03-01", TotalSectionsCompleted: 4}
	p.QuizScores[0] = models.QuizScore{Score: 1, Correct: 5, Total: 5, Attempts: 1, Mastered: true}
	p.QuestionHistory = []bool{true, false, true}

	if err := store.SaveProgress(ctx, p); err != nil {
		t.Fatalf("SaveProgress failed: %v", err)
	}
	other := models.NewProgress("u1", "c2", created)
	other.AddXP(40)
	if err := store.SaveProgress(ctx, other); err != nil {
		t.Fatalf("SaveProgress failed: %v", err)
	}

	got, err := store.GetProgress(ctx, "u1", "c1")
	if err != nil || got == nil {
		t.Fatalf("GetProgress failed: %v %v", got, err)
	}
	if got.XP != 250 || got.Level != 2 || got.CurrentSection != 4 {
		t.Fatalf("unexpected progress %+v", got)
	}
	if len(got.CompletedSections) != 4 || got.Stats != p.Stats || got.QuizScores[0] != p.QuizScores[0] {
		t.Fatalf("unexpected progress fields %+v", got)
	}
	if len(got.QuestionHistory) != 3 || !got.HasBadge("first_steps") || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected progress fields %+v", got)
	}

	user, err := store.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if user.TotalXP != 290 {
		t.Fatalf("expected total xp 290, got %d", user.TotalXP)
	}

	if err := store.DeleteProgress(ctx, "u1", "c2"); err != nil {
		t.Fatalf("DeleteProgress failed: %v", err)
	}
	user, _ = store.GetUser(ctx, "u1")
	if user.TotalXP != 250 {
		t.Fatalf("expected total xp 250 after delete, got %d", user.TotalXP)
	}

	keys, err := store.ListProgressKeys(ctx)
	if err != nil || len(keys) != 1 || keys[0].CurriculumID != "c1" {
		t.Fatalf("ListProgressKeys: %v %v", keys, err)
	}
}

func TestGetProgressAbsent(t *testing.T) {
	store := newTestStore(t)
	got, err := store.GetProgress(context.Background(), "u1", "c1")
	if err != nil || got != nil {
		t.Fatalf("expected absent progress, got %v %v", got, err)
	}
}

func TestGetProgressHealsSectionsAndRejectsMalformedFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := store.Exec(ctx, `INSERT INTO progress (user_id, curriculum_id, completed_sections, xp, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`, "u1", "legacy", `[0, "1", 1, "x", null, 2.5, 3]`, 120, now, now)
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	got, err := store.GetProgress(ctx, "u1", "legacy")
	if err != nil {
		t.Fatalf("GetProgress failed: %v", err)
	}
	want := []int{0, 1, 3}
	if len(got.CompletedSections) != len(want) {
		t.Fatalf("expected %v, got %v", want, got.CompletedSections)
	}
	for i := range want {
		if got.CompletedSections[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got.CompletedSections)
		}
	}
	if got.Level != 1 {
		t.Fatalf("expected level derived from xp, got %d", got.Level)
	}

	_, err = store.Exec(ctx, `INSERT INTO progress (user_id, curriculum_id, stats, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`, "u1", "broken", `{not json`, now, now)
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if _, err := store.GetProgress(ctx, "u1", "broken"); !errors.Is(err, ErrMalformedRecord) {
		t.Fatalf("expected ErrMalformedRecord, got %v", err)
	}

	all, err := store.ListProgressByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListProgressByUser failed: %v", err)
	}
	if len(all) != 1 || all[0].CurriculumID != "legacy" {
		t.Fatalf("expected only the readable row, got %d rows", len(all))
	}
}

func TestSaveProgressRejectsEmptyKey(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveProgress(ctx, models.NewProgress("u1", "", time.Now())); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
	if err := store.SaveProgress(ctx, models.NewProgress("", "c1", time.Now())); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
	keys, err := store.ListProgressKeys(ctx)
	if err != nil || len(keys) != 0 {
		t.Fatalf("expected no rows, got %v %v", keys, err)
	}
}

func TestReviewItemsDueOrdering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

	cards := []struct {
		front string
		due   time.Time
	}{
		{"later", now.Add(48 * time.Hour)},
		{"oldest", now.Add(-72 * time.Hour)},
		{"recent", now.Add(-1 * time.Hour)},
		{"exact", now},
	}
	for _, c := range cards {
		item := &models.ReviewItem{UserID: "u1", CurriculumID: "c1", Front: c.front, Back: "b", NextReview: c.due}
		if err := store.CreateReviewItem(ctx, item); err != nil {
			t.Fatalf("CreateReviewItem failed: %v", err)
		}
		if item.EasinessFactor != 2.5 || item.Interval != 1 {
			t.Fatalf("expected SM-2 defaults, got %+v", item)
		}
	}

	due, err := store.DueReviewItems(ctx, "u1", "", now, 10)
	if err != nil {
		t.Fatalf("DueReviewItems failed: %v", err)
	}
	if len(due) != 3 || due[0].Front != "oldest" || due[1].Front != "recent" || due[2].Front != "exact" {
		t.Fatalf("unexpected due order %+v", due)
	}

	limited, err := store.DueReviewItems(ctx, "u1", "c1", now, 2)
	if err != nil || len(limited) != 2 {
		t.Fatalf("expected 2 limited items, got %d %v", len(limited), err)
	}

	count, err := store.CountDue(ctx, "u1", "", now)
	if err != nil || count != 3 {
		t.Fatalf("expected 3 due, got %d %v", count, err)
	}

	item := due[0]
	item.Interval = 6
	item.Repetitions = 2
	item.EasinessFactor = 2.6
	item.NextReview = now.AddDate(0, 0, 6)
	item.LastReview = &now
	if err := store.UpdateReviewSchedule(ctx, &item); err != nil {
		t.Fatalf("UpdateReviewSchedule failed: %v", err)
	}
	got, err := store.GetReviewItem(ctx, item.ID)
	if err != nil || got == nil {
		t.Fatalf("GetReviewItem failed: %v %v", got, err)
	}
	if got.Interval != 6 || got.Repetitions != 2 || got.EasinessFactor != 2.6 || !got.NextReview.Equal(item.NextReview) {
		t.Fatalf("unexpected item %+v", got)
	}

	if err := store.DeleteReviewItem(ctx, "someone-else", item.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign delete, got %v", err)
	}
	if err := store.DeleteReviewItem(ctx, "u1", item.ID); err != nil {
		t.Fatalf("DeleteReviewItem failed: %v", err)
	}
	all, err := store.ListReviewItems(ctx, "u1", "c1")
	if err != nil || len(all) != 3 {
		t.Fatalf("expected 3 remaining items, got %d %v", len(all), err)
	}
}
