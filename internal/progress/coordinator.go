package progress

import (
	"context"
	"log"
	"time"

	"github.com/example/learnstate/pkg/models"
)

// Source tells where a loaded record came from
type Source int

const (
	SourceDefaults Source = iota
	SourceRelational
	SourceSnapshot
	SourceLegacy
)

func (s Source) String() string {
	switch s {
	case SourceRelational:
		return "relational"
	case SourceSnapshot:
		return "snapshot"
	case SourceLegacy:
		return "legacy"
	}
	return "defaults"
}

// RelationalStore is the authoritative tier; *database.Store satisfies it
type RelationalStore interface {
	GetProgress(ctx context.Context, userID, curriculumID string) (*models.Progress, error)
	SaveProgress(ctx context.Context, p *models.Progress) error
}

// SnapshotStore is the local file tier; *snapshot.FileStore satisfies it
type SnapshotStore interface {
	Load(userID, curriculumID string) (*models.Progress, bool)
	LoadLegacy(userID, curriculumID string) (*models.Progress, bool)
	Save(p *models.Progress) error
}

// SaveStatus reports which tiers accepted a write
type SaveStatus struct {
	Snapshot   bool `json:"snapshot"`
	Relational bool `json:"relational"`
}

// OK is true when at least one tier holds the write
func (s SaveStatus) OK() bool {
	return s.Snapshot || s.Relational
}

// Durable is true when the authoritative tier holds the write
func (s SaveStatus) Durable() bool {
	return s.Relational
}

// Coordinator reads and writes progress records across both persistence tiers.
// The two writes of a save are independent best-effort attempts; on the next
// load the relational record wins over the snapshot.
type Coordinator struct {
	store     RelationalStore
	snapshots SnapshotStore
	badges    BadgeFilter
	now       func() time.Time
}

// NewCoordinator creates a coordinator. A nil store runs in offline mode on
// snapshots only; a nil clock means time.Now.
func NewCoordinator(store RelationalStore, snapshots SnapshotStore, badges BadgeFilter, clock func() time.Time) *Coordinator {
	if clock == nil {
		clock = time.Now
	}
	return &Coordinator{store: store, snapshots: snapshots, badges: badges, now: clock}
}

// Load returns the record for a user and curriculum. It never fails: sources
// that are unavailable or malformed are skipped and defaults are the last resort.
func (c *Coordinator) Load(ctx context.Context, userID, curriculumID string) (*models.Progress, Source) {
	if c.store != nil {
		p, err := c.store.GetProgress(ctx, userID, curriculumID)
		if err != nil {
			log.Printf("progress: relational load of %s/%s failed, falling back: %v", userID, curriculumID, err)
		} else if p != nil {
			Normalize(p, c.badges)
			return p, SourceRelational
		}
	}

	if c.snapshots != nil {
		if p, ok := c.snapshots.Load(userID, curriculumID); ok {
			c.fillDefaults(p)
			Normalize(p, c.badges)
			return p, SourceSnapshot
		}
		if p, ok := c.snapshots.LoadLegacy(userID, curriculumID); ok {
			c.fillDefaults(p)
			Normalize(p, c.badges)
			return p, SourceLegacy
		}
	}

	return models.NewProgress(userID, curriculumID, c.now().UTC()), SourceDefaults
}

// Save normalizes p in place and writes it to the snapshot file and then the
// relational store. A failure in one tier is logged and does not stop the other.
func (c *Coordinator) Save(ctx context.Context, p *models.Progress) SaveStatus {
	Normalize(p, c.badges)
	p.LastUpdated = c.now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = p.LastUpdated
	}

	var status SaveStatus
	if c.snapshots != nil {
		if err := c.snapshots.Save(p); err != nil {
			log.Printf("progress: snapshot write of %s/%s failed: %v", p.UserID, p.CurriculumID, err)
		} else {
			status.Snapshot = true
		}
	}
	if c.store != nil {
		if err := c.store.SaveProgress(ctx, p); err != nil {
			log.Printf("progress: relational write of %s/%s failed: %v", p.UserID, p.CurriculumID, err)
		} else {
			status.Relational = true
		}
	}
	return status
}

// Offline reports whether the coordinator runs without a relational store
func (c *Coordinator) Offline() bool {
	return c.store == nil
}

// fillDefaults completes fields that older snapshot files do not carry
func (c *Coordinator) fillDefaults(p *models.Progress) {
	now := c.now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.LastUpdated.IsZero() {
		p.LastUpdated = p.CreatedAt
	}
}
