package database

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// DefaultBusyTimeout bounds how long a statement waits on a locked database
const DefaultBusyTimeout = 30 * time.Second

// Target identifies a backing store
type Target struct {
	Driver string
	DSN    string
}

func (t Target) String() string {
	if t.Driver == DriverPostgres {
		// DSN may carry a password
		return t.Driver
	}
	return t.Driver + ":" + t.DSN
}

// Options tune a connection
type Options struct {
	BusyTimeout time.Duration
}

// Store owns one physical connection to a backing store.
// Reads may run concurrently with each other; writes are serialized.
type Store struct {
	db      *sqlx.DB
	target  Target
	writeMu sync.Mutex
}

// Open connects to the target and ensures the schema exists
func Open(target Target, opts Options) (*Store, error) {
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = DefaultBusyTimeout
	}

	var dsn string
	switch target.Driver {
	case DriverSQLite:
		if dir := filepath.Dir(target.DSN); dir != "." && !strings.HasPrefix(target.DSN, "file:") {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		dsn = sqliteDSN(target.DSN, opts.BusyTimeout)
	case DriverPostgres:
		dsn = target.DSN
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, target.Driver)
	}

	db, err := sqlx.Connect(target.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", target.Driver, err)
	}

	// One physical connection per store; concurrency comes from one store per worker
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if target.Driver == DriverPostgres {
		timeout := fmt.Sprintf("SET lock_timeout = %d", opts.BusyTimeout.Milliseconds())
		if _, err := db.Exec(timeout); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set lock timeout: %w", err)
		}
	}

	s := &Store{db: db, target: target}
	if err := s.initializeSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// sqliteDSN adds WAL journaling, the busy timeout and foreign keys to a plain path
func sqliteDSN(path string, busy time.Duration) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_journal_mode=WAL&_busy_timeout=%d&_foreign_keys=on", path, sep, busy.Milliseconds())
}

// Target returns the identity of the backing store
func (s *Store) Target() Target {
	return s.target
}

// Close closes the database connection
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks that the backing store is reachable
func (s *Store) Ping() error {
	return s.db.Ping()
}

// Handles hands out the Store of one worker context.
// A Handles value belongs to a single goroutine and must not be shared.
type Handles struct {
	opts    Options
	current *Store
}

// NewHandles creates an empty handle set for a worker context
func NewHandles(opts Options) *Handles {
	return &Handles{opts: opts}
}

// For returns the Store for target, reopening when the context switches targets
func (h *Handles) For(target Target) (*Store, error) {
	if h.current != nil && h.current.target == target {
		return h.current, nil
	}
	if h.current != nil {
		log.Printf("database: switching store from %s to %s", h.current.target, target)
		if err := h.current.Close(); err != nil {
			log.Printf("database: error closing store %s: %v", h.current.target, err)
		}
		h.current = nil
	}

	s, err := Open(target, h.opts)
	if err != nil {
		return nil, err
	}
	h.current = s
	return s, nil
}

// Close releases the current Store, if any
func (h *Handles) Close() error {
	if h.current == nil {
		return nil
	}
	err := h.current.Close()
	h.current = nil
	return err
}
