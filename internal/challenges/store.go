// Package challenges assigns a few daily challenges per user and tracks their progress.
package challenges

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/example/learnstate/pkg/models"
)

// DefaultPerDay is how many challenges a user gets each day
const DefaultPerDay = 3

// DayLayout is the format of assignment days
const DayLayout = "2006-01-02"

// DB is the subset of the storage manager the challenge store runs on;
// *database.Store satisfies it
type DB interface {
	Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS daily_challenges (
		user_id TEXT NOT NULL,
		day TEXT NOT NULL,
		challenge_ids TEXT NOT NULL DEFAULT '[]',
		progress TEXT NOT NULL DEFAULT '{}',
		completed TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMP NOT NULL,
		PRIMARY KEY (user_id, day)
	)`

type assignmentRow struct {
	UserID       string    `db:"user_id"`
	Day          string    `db:"day"`
	ChallengeIDs string    `db:"challenge_ids"`
	Progress     string    `db:"progress"`
	Completed    string    `db:"completed"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r assignmentRow) toModel() (*models.DailyChallengeAssignment, error) {
	a := &models.DailyChallengeAssignment{UserID: r.UserID, Day: r.Day, CreatedAt: r.CreatedAt}
	if err := json.Unmarshal([]byte(r.ChallengeIDs), &a.ChallengeIDs); err != nil {
		return nil, fmt.Errorf("malformed challenge ids for %s on %s: %w", r.UserID, r.Day, err)
	}
	if err := json.Unmarshal([]byte(r.Progress), &a.Progress); err != nil {
		return nil, fmt.Errorf("malformed challenge progress for %s on %s: %w", r.UserID, r.Day, err)
	}
	if err := json.Unmarshal([]byte(r.Completed), &a.Completed); err != nil {
		return nil, fmt.Errorf("malformed completed challenges for %s on %s: %w", r.UserID, r.Day, err)
	}
	if a.Progress == nil {
		a.Progress = make(map[string]int)
	}
	if a.Completed == nil {
		a.Completed = []string{}
	}
	return a, nil
}

// Store persists daily assignments next to the other engine tables
type Store struct {
	db      DB
	catalog *Catalog
	perDay  int
	now     func() time.Time
}

// NewStore creates a challenge store; perDay <= 0 means DefaultPerDay
func NewStore(db DB, catalog *Catalog, perDay int, clock func() time.Time) *Store {
	if perDay <= 0 {
		perDay = DefaultPerDay
	}
	if clock == nil {
		clock = time.Now
	}
	return &Store{db: db, catalog: catalog, perDay: perDay, now: clock}
}

// EnsureSchema creates the daily_challenges table if needed
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create daily_challenges table: %w", err)
	}
	return nil
}

// Catalog returns the catalog assignments are drawn from
func (s *Store) Catalog() *Catalog {
	return s.catalog
}

// Today returns the user's assignment for day, drawing it on first access.
// The drawn set never changes for that user and day.
func (s *Store) Today(ctx context.Context, userID, day string) (*models.DailyChallengeAssignment, error) {
	if _, err := time.Parse(DayLayout, day); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDay, day)
	}

	a, err := s.get(ctx, userID, day)
	if err != nil || a != nil {
		return a, err
	}

	ids, err := json.Marshal(Draw(s.catalog, userID, day, s.perDay))
	if err != nil {
		return nil, fmt.Errorf("failed to encode challenge ids: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO daily_challenges (user_id, day, challenge_ids, progress, completed, created_at)
		VALUES (?, ?, ?, '{}', '[]', ?)
		ON CONFLICT (user_id, day) DO NOTHING`,
		userID, day, string(ids), s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to create daily challenges: %w", err)
	}

	a, err = s.get(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("daily challenges for %s on %s vanished after insert", userID, day)
	}
	return a, nil
}

// Record adds amount to every assigned challenge tracking metric and returns
// the challenges that reached their target with this call
func (s *Store) Record(ctx context.Context, userID, day, metric string, amount int) ([]models.Challenge, error) {
	a, err := s.Today(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, nil
	}

	var completed []models.Challenge
	changed := false
	for _, id := range a.ChallengeIDs {
		ch, ok := s.catalog.Get(id)
		if !ok || ch.Metric != metric || a.IsCompleted(id) {
			continue
		}
		a.Progress[id] += amount
		changed = true
		if a.Progress[id] >= ch.Target {
			a.Progress[id] = ch.Target
			a.Completed = append(a.Completed, id)
			completed = append(completed, ch)
		}
	}
	if !changed {
		return nil, nil
	}

	progress, err := json.Marshal(a.Progress)
	if err != nil {
		return nil, fmt.Errorf("failed to encode challenge progress: %w", err)
	}
	done, err := json.Marshal(a.Completed)
	if err != nil {
		return nil, fmt.Errorf("failed to encode completed challenges: %w", err)
	}
	_, err = s.db.Exec(ctx, "UPDATE daily_challenges SET progress = ?, completed = ? WHERE user_id = ? AND day = ?",
		string(progress), string(done), userID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to update daily challenges: %w", err)
	}
	return completed, nil
}

// Prune deletes assignments for days before the given day
func (s *Store) Prune(ctx context.Context, before string) (int64, error) {
	if _, err := time.Parse(DayLayout, before); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDay, before)
	}
	result, err := s.db.Exec(ctx, "DELETE FROM daily_challenges WHERE day < ?", before)
	if err != nil {
		return 0, fmt.Errorf("failed to prune daily challenges: %w", err)
	}
	return result.RowsAffected()
}

func (s *Store) get(ctx context.Context, userID, day string) (*models.DailyChallengeAssignment, error) {
	var row assignmentRow
	err := s.db.Get(ctx, &row,
		"SELECT user_id, day, challenge_ids, progress, completed, created_at FROM daily_challenges WHERE user_id = ? AND day = ?",
		userID, day)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily challenges: %w", err)
	}
	return row.toModel()
}

// Draw picks n challenge ids for a user and day. The same inputs always give
// the same ids.
func Draw(catalog *Catalog, userID, day string, n int) []string {
	all := catalog.challenges
	if n > len(all) {
		n = len(all)
	}
	h := fnv.New64a()
	h.Write([]byte(userID))
	h.Write([]byte{0})
	h.Write([]byte(day))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	ids := make([]string, 0, n)
	for _, i := range rng.Perm(len(all))[:n] {
		ids = append(ids, all[i].ID)
	}
	return ids
}
