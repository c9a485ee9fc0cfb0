package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/learnstate/internal/challenges"
	"github.com/example/learnstate/internal/database"
	"github.com/example/learnstate/internal/snapshot"
	"github.com/example/learnstate/internal/worker"
)

// Job names
const (
	JobSnapshotBackup = "snapshot-backup"
	JobChallengePrune = "challenge-prune"
)

// Defaults for maintenance jobs
const (
	DefaultBackupInterval         = 6 * time.Hour
	DefaultChallengeRetentionDays = 30
	pruneTime                     = "03:30"
)

// Submitter runs maintenance work in the background; *worker.Pool satisfies it
type Submitter interface {
	Submit(name string, fn worker.Func) (*worker.Task, error)
}

// Config tunes the maintenance jobs
type Config struct {
	BackupInterval         time.Duration
	ChallengeRetentionDays int
}

// Scheduler manages periodic maintenance for the engine
type Scheduler struct {
	scheduler *gocron.Scheduler
	pool      Submitter
	snapshots *snapshot.FileStore
	cfg       Config
	now       func() time.Time

	mu      sync.Mutex
	running map[string]*worker.Task
}

// New creates a new scheduler instance
func New(pool Submitter, snapshots *snapshot.FileStore, cfg Config) *Scheduler {
	if cfg.BackupInterval <= 0 {
		cfg.BackupInterval = DefaultBackupInterval
	}
	if cfg.ChallengeRetentionDays <= 0 {
		cfg.ChallengeRetentionDays = DefaultChallengeRetentionDays
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		pool:      pool,
		snapshots: snapshots,
		cfg:       cfg,
		now:       time.Now,
		running:   make(map[string]*worker.Task),
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(s.cfg.BackupInterval).Do(s.trigger, JobSnapshotBackup); err != nil {
		return fmt.Errorf("failed to schedule %s: %w", JobSnapshotBackup, err)
	}
	if _, err := s.scheduler.Every(1).Day().At(pruneTime).Do(s.trigger, JobChallengePrune); err != nil {
		return fmt.Errorf("failed to schedule %s: %w", JobChallengePrune, err)
	}

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates scheduling and cancels maintenance still running
func (s *Scheduler) Stop() {
	s.scheduler.Stop()

	s.mu.Lock()
	tasks := make([]*worker.Task, 0, len(s.running))
	for _, t := range s.running {
		tasks = append(tasks, t)
	}
	s.mu.Unlock()

	for _, t := range tasks {
		t.Cancel()
		<-t.Done()
	}
}

// RunNow submits a maintenance job immediately. A job that is still running
// is returned instead of being started twice.
func (s *Scheduler) RunNow(name string) (*worker.Task, error) {
	var fn worker.Func
	switch name {
	case JobSnapshotBackup:
		if s.snapshots == nil {
			return nil, fmt.Errorf("%s: no snapshot directory configured", name)
		}
		fn = BackupSnapshots(s.snapshots)
	case JobChallengePrune:
		fn = PruneChallenges(s.cfg.ChallengeRetentionDays, s.now)
	default:
		return nil, fmt.Errorf("unknown maintenance job %q", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.running[name]; ok {
		select {
		case <-t.Done():
		default:
			return t, nil
		}
	}

	t, err := s.pool.Submit(name, fn)
	if err != nil {
		return nil, err
	}
	s.running[name] = t
	go s.forget(name, t)
	return t, nil
}

func (s *Scheduler) trigger(name string) {
	if _, err := s.RunNow(name); err != nil {
		log.Printf("scheduler: failed to start %s: %v", name, err)
	}
}

func (s *Scheduler) forget(name string, t *worker.Task) {
	if err := t.Wait(); err != nil {
		log.Printf("scheduler: %s (%s) failed: %v", name, t.ID, err)
	}
	s.mu.Lock()
	if s.running[name] == t {
		delete(s.running, name)
	}
	s.mu.Unlock()
}

// BackupSnapshots rewrites the snapshot file of every relational progress
// record. Cancellation is checked between records.
func BackupSnapshots(files *snapshot.FileStore) worker.Func {
	return func(ctx context.Context, store *database.Store) error {
		keys, err := store.ListProgressKeys(ctx)
		if err != nil {
			return err
		}

		written := 0
		for _, key := range keys {
			if err := ctx.Err(); err != nil {
				log.Printf("scheduler: snapshot backup stopped after %d of %d records", written, len(keys))
				return err
			}
			p, err := store.GetProgress(ctx, key.UserID, key.CurriculumID)
			if err != nil {
				log.Printf("scheduler: skipping snapshot of %s/%s: %v", key.UserID, key.CurriculumID, err)
				continue
			}
			if p == nil {
				continue
			}
			if err := files.Save(p); err != nil {
				log.Printf("scheduler: snapshot of %s/%s failed: %v", key.UserID, key.CurriculumID, err)
				continue
			}
			written++
		}
		log.Printf("scheduler: snapshot backup wrote %d of %d records", written, len(keys))
		return nil
	}
}

// PruneChallenges deletes daily challenge assignments older than retentionDays
func PruneChallenges(retentionDays int, clock func() time.Time) worker.Func {
	return func(ctx context.Context, store *database.Store) error {
		cs := challenges.NewStore(store, nil, 0, clock)
		if err := cs.EnsureSchema(ctx); err != nil {
			return err
		}
		cutoff := clock().UTC().AddDate(0, 0, -retentionDays).Format(challenges.DayLayout)
		n, err := cs.Prune(ctx, cutoff)
		if err != nil {
			return err
		}
		log.Printf("scheduler: pruned %d daily challenge rows before %s", n, cutoff)
		return nil
	}
}
