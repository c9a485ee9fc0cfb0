package snapshot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/example/learnstate/pkg/models"
)

func sampleProgress() *models.Progress {
	created := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	p := models.NewProgress("u1", "c1", created)
	p.CurrentSection = 7
	p.CompletedSections = models.SectionList{0, 1, 2, 5}
	p.AddXP(340)
	p.Badges = []string{"first_steps", "quiz_whiz"}
	p.Stats = models.Stats{PerfectQuizzes: 2, TutorQuestions: 1, CurrentStreak: 4, BestStreak: 6, LastStudyDate: "2026-02-03", TotalSectionsCompleted: 4}
	p.QuizScores[0] = models.QuizScore{Score: 0.8, Correct: 4, Total: 5, Attempts: 2, Mastered: true}
	p.QuestionHistory = []bool{true, true, false}
	p.LastUpdated = created.Add(time.Hour)
	return p
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := NewFileStore(t.TempDir())
	want := sampleProgress()

	if err := store.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, ok := store.Load("u1", "c1")
	if !ok {
		t.Fatal("expected snapshot to load")
	}
	if got.XP != want.XP || got.Level != want.Level || got.CurrentSection != want.CurrentSection {
		t.Fatalf("unexpected progress %+v", got)
	}
	if got.Stats != want.Stats || got.QuizScores[0] != want.QuizScores[0] {
		t.Fatalf("unexpected stats %+v %+v", got.Stats, got.QuizScores)
	}
	if len(got.CompletedSections) != 4 || len(got.Badges) != 2 || len(got.QuestionHistory) != 3 {
		t.Fatalf("unexpected collections %+v", got)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) || !got.LastUpdated.Equal(want.LastUpdated) {
		t.Fatalf("unexpected timestamps %v %v", got.CreatedAt, got.LastUpdated)
	}
}

func TestSnapshotFieldNames(t *testing.T) {
	store := NewFileStore(t.TempDir())
	if err := store.Save(sampleProgress()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(store.Path("u1", "c1"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, field := range []string{"curriculum_id", "user_id", "current_section", "completed_sections", "xp", "level",
		"badges", "stats", "quiz_scores", "question_history", "last_updated", "created_at"} {
		if !strings.Contains(string(data), `"`+field+`"`) {
			t.Errorf("snapshot is missing field %s", field)
		}
	}
}

func TestLoadMissingAndMalformed(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)

	if _, ok := store.Load("u1", "c1"); ok {
		t.Fatal("expected missing snapshot")
	}

	path := store.Path("u1", "c1")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok := store.Load("u1", "c1"); ok {
		t.Fatal("expected malformed snapshot to be treated as absent")
	}
}

func TestLoadRejectsOtherUsersFile(t *testing.T) {
	store := NewFileStore(t.TempDir())
	p := sampleProgress()
	if err := store.Save(p); err != nil {
		t.Fatal(err)
	}
	// copy u1's file into u2's slot
	data, _ := os.ReadFile(store.Path("u1", "c1"))
	other := store.Path("u2", "c1")
	_ = os.MkdirAll(filepath.Dir(other), 0o755)
	_ = os.WriteFile(other, data, 0o644)

	if _, ok := store.Load("u2", "c1"); ok {
		t.Fatal("expected foreign snapshot to be ignored")
	}
}

func TestLoadLegacyTagsUser(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	legacy := `{"curriculum_id": "c1", "current_section": 3, "completed_sections": [0, 1, 1, "2"], "xp": 150, "badges": ["first_steps"]}`
	if err := os.WriteFile(store.LegacyPath("c1"), []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}

	p, ok := store.LoadLegacy("u9", "c1")
	if !ok {
		t.Fatal("expected legacy snapshot")
	}
	if p.UserID != "u9" || p.XP != 150 || p.CurrentSection != 3 {
		t.Fatalf("unexpected legacy progress %+v", p)
	}
	if len(p.CompletedSections) != 3 {
		t.Fatalf("expected deduplicated sections, got %v", p.CompletedSections)
	}
}

func TestPathsStayInsideDir(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	path := store.Path("../../etc", "../passwd")
	rel, err := filepath.Rel(dir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		t.Fatalf("path escaped snapshot dir: %s", path)
	}
}

func TestDelete(t *testing.T) {
	store := NewFileStore(t.TempDir())
	if err := store.Save(sampleProgress()); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete("u1", "c1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete("u1", "c1"); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
	if _, ok := store.Load("u1", "c1"); ok {
		t.Fatal("expected snapshot to be gone")
	}
}
