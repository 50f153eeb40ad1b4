package repository

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"qakit/pkg/schema"
)

const (
	suitesDir     = "suites"
	changelogFile = "changelog.yaml"

	// DefaultLockWait bounds how long a writer waits for another process.
	DefaultLockWait = 5 * time.Second
)

var (
	// ErrSuiteNotFound is returned when no suite file exists for an ID.
	ErrSuiteNotFound = errors.New("suite not found")
	// ErrInvalidSuiteID rejects IDs that could escape the suites directory.
	ErrInvalidSuiteID = errors.New("invalid suite id")
)

var suiteIDPattern = regexp.MustCompile(`^` + schema.SuiteIDPrefix + `[A-Za-z0-9_-]+$`)

// Repository stores suites as YAML files under a data directory:
//
//	<base>/suites/<id>.yaml
//	<base>/changelog.yaml
//
// Writers in one process are serialized by a mutex; across processes they
// hold a FileLock at <base>.lock for the duration of a transaction.
type Repository struct {
	baseDir  string
	owner    string
	lockWait time.Duration

	mu sync.Mutex
}

// Option configures a Repository.
type Option func(*Repository)

// WithOwner labels the lock metadata, e.g. "cli" or "server".
func WithOwner(owner string) Option {
	return func(r *Repository) { r.owner = owner }
}

// WithLockWait sets how long writers wait for the file lock. Zero fails
// at once when the lock is held.
func WithLockWait(d time.Duration) Option {
	return func(r *Repository) { r.lockWait = d }
}

// NewRepository creates a repository rooted at baseDir.
func NewRepository(baseDir string, opts ...Option) *Repository {
	r := &Repository{baseDir: baseDir, owner: "cli", lockWait: DefaultLockWait}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// BaseDir returns the data directory.
func (r *Repository) BaseDir() string {
	return r.baseDir
}

// LockPath returns the lock file location.
func (r *Repository) LockPath() string {
	return filepath.Clean(r.baseDir) + ".lock"
}

// SaveSuite writes the suite and appends a suite_saved event atomically.
func (r *Repository) SaveSuite(s *schema.Suite) error {
	if err := checkSuiteID(s.ID); err != nil {
		return err
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal suite: %w", err)
	}

	return r.update(func(tx *CopyOnWriteTx) error {
		if err := tx.WriteFile(suitePath(s.ID), data); err != nil {
			return fmt.Errorf("write suite: %w", err)
		}
		return appendEvent(tx, schema.EventSuiteSaved, s)
	})
}

// DeleteSuite removes a suite and records a suite_deleted event.
func (r *Repository) DeleteSuite(id string) error {
	s, err := r.ReadSuite(id)
	if err != nil {
		return err
	}

	return r.update(func(tx *CopyOnWriteTx) error {
		if err := tx.RemoveFile(suitePath(id)); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("%w: %s", ErrSuiteNotFound, id)
			}
			return fmt.Errorf("delete suite: %w", err)
		}
		return appendEvent(tx, schema.EventSuiteDeleted, s)
	})
}

// ReadSuite loads one suite by ID.
func (r *Repository) ReadSuite(id string) (*schema.Suite, error) {
	if err := checkSuiteID(id); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(r.baseDir, suitePath(id)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSuiteNotFound, id)
		}
		return nil, fmt.Errorf("read suite: %w", err)
	}

	var s schema.Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse suite %s: %w", id, err)
	}
	return &s, nil
}

// ListSuites returns every stored suite ordered by creation time, then ID.
func (r *Repository) ListSuites() ([]*schema.Suite, error) {
	entries, err := os.ReadDir(filepath.Join(r.baseDir, suitesDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []*schema.Suite{}, nil
		}
		return nil, fmt.Errorf("read suites directory: %w", err)
	}

	suites := make([]*schema.Suite, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".yaml") {
			continue
		}
		s, err := r.ReadSuite(strings.TrimSuffix(name, ".yaml"))
		if err != nil {
			return nil, err
		}
		suites = append(suites, s)
	}

	sort.Slice(suites, func(i, j int) bool {
		if !suites[i].CreatedAt.Equal(suites[j].CreatedAt) {
			return suites[i].CreatedAt.Before(suites[j].CreatedAt)
		}
		return suites[i].ID < suites[j].ID
	})
	return suites, nil
}

// History returns the changelog events in append order.
func (r *Repository) History() ([]schema.SuiteEvent, error) {
	data, err := os.ReadFile(filepath.Join(r.baseDir, changelogFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []schema.SuiteEvent{}, nil
		}
		return nil, fmt.Errorf("read changelog: %w", err)
	}

	var changelog schema.Changelog
	if err := yaml.Unmarshal(data, &changelog); err != nil {
		return nil, fmt.Errorf("parse changelog: %w", err)
	}
	if changelog.Events == nil {
		changelog.Events = []schema.SuiteEvent{}
	}
	return changelog.Events, nil
}

// update runs fn inside a locked copy-on-write transaction.
func (r *Repository) update(fn func(tx *CopyOnWriteTx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(filepath.Clean(r.baseDir)), 0o755); err != nil {
		return fmt.Errorf("create parent of data directory: %w", err)
	}

	lock := NewFileLock(r.LockPath(), r.owner)
	if err := lock.AcquireWithin(r.lockWait); err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			log.Printf("warning: release lock: %v", err)
		}
	}()

	tx := NewCopyOnWriteTx(r.baseDir)
	if err := tx.Begin(); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Printf("rollback failed: %v", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Printf("rollback failed: %v", rbErr)
		}
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func appendEvent(tx *CopyOnWriteTx, eventType schema.SuiteEventType, s *schema.Suite) error {
	var changelog schema.Changelog

	data, err := tx.ReadFile(changelogFile)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read changelog: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &changelog); err != nil {
			return fmt.Errorf("parse changelog: %w", err)
		}
	}

	eventID, err := schema.NewEventID()
	if err != nil {
		return fmt.Errorf("generate event id: %w", err)
	}
	changelog.Events = append(changelog.Events, schema.SuiteEvent{
		EventID:   eventID,
		Type:      eventType,
		SuiteID:   s.ID,
		Feature:   s.Feature,
		CaseCount: len(s.Cases),
		Timestamp: time.Now().UTC(),
	})

	out, err := yaml.Marshal(&changelog)
	if err != nil {
		return fmt.Errorf("marshal changelog: %w", err)
	}
	if err := tx.WriteFile(changelogFile, out); err != nil {
		return fmt.Errorf("write changelog: %w", err)
	}
	return nil
}

func suitePath(id string) string {
	return filepath.Join(suitesDir, id+".yaml")
}

func checkSuiteID(id string) error {
	if !suiteIDPattern.MatchString(id) {
		return fmt.Errorf("%w %q", ErrInvalidSuiteID, id)
	}
	return nil
}
