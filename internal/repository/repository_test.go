package repository

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qakit/pkg/schema"
)

func createTestRepository(t *testing.T) (*Repository, string) {
	t.Helper()
	baseDir := filepath.Join(t.TempDir(), ".qakit")
	return NewRepository(baseDir), baseDir
}

func testSuite(t *testing.T, feature string, created time.Time) *schema.Suite {
	t.Helper()
	id, err := schema.NewSuiteID()
	require.NoError(t, err)

	minLen := 8
	return &schema.Suite{
		ID:         id,
		Feature:    feature,
		Rule:       "Regra: " + feature,
		Target:     schema.SurfaceBackend,
		Categories: schema.AllCategoryFlags(),
		Signals: schema.Signals{
			Fields:   []string{"senha"},
			Required: []string{"senha"},
			Lengths:  schema.Lengths{Min: &minLen},
			Codes:    schema.Codes{Success: 201, Error: 400},
		},
		Cases: []schema.TestCase{{
			ID: schema.CaseID(1),
			Draft: schema.Draft{
				Kind:          schema.CategoryBoundary,
				Surface:       schema.SurfaceBackend,
				Category:      "Borda",
				Priority:      schema.PriorityMedium,
				Title:         "[Backend] Borda inferior minimo 8",
				Objective:     "Cobrir limite minimo na API.",
				Preconditions: []string{"Campo com regra minima."},
				Steps:         []string{"Testar 7, 8 e 9 caracteres."},
				Expected:      "Aceitar somente valores >= 8.",
			},
		}},
		CreatedAt: created,
	}
}

func TestRepository_SaveReadSuite(t *testing.T) {
	repo, baseDir := createTestRepository(t)
	s := testSuite(t, "Cadastro", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))

	require.NoError(t, repo.SaveSuite(s))

	_, err := os.Stat(filepath.Join(baseDir, "suites", s.ID+".yaml"))
	require.NoError(t, err)

	got, err := repo.ReadSuite(s.ID)
	require.NoError(t, err)
	assert.Equal(t, s, got)

	info, err := os.Stat(repo.LockPath())
	require.NoError(t, err)
	assert.Zero(t, info.Size(), "lock metadata cleared after save")
	next := NewFileLock(repo.LockPath(), "cli")
	require.NoError(t, next.Acquire(), "lock released after save")
	require.NoError(t, next.Release())
}

func TestRepository_ReadSuiteNotFound(t *testing.T) {
	repo, _ := createTestRepository(t)

	_, err := repo.ReadSuite("SUITE-missing")
	assert.ErrorIs(t, err, ErrSuiteNotFound)

	_, err = repo.ReadSuite("../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidSuiteID)
	assert.NotErrorIs(t, err, ErrSuiteNotFound)
}

func TestRepository_ListSuitesOrdered(t *testing.T) {
	repo, _ := createTestRepository(t)

	empty, err := repo.ListSuites()
	require.NoError(t, err)
	assert.Empty(t, empty)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	later := testSuite(t, "Login", base.Add(time.Hour))
	earlier := testSuite(t, "Cadastro", base)
	require.NoError(t, repo.SaveSuite(later))
	require.NoError(t, repo.SaveSuite(earlier))

	suites, err := repo.ListSuites()
	require.NoError(t, err)
	require.Len(t, suites, 2)
	assert.Equal(t, earlier.ID, suites[0].ID)
	assert.Equal(t, later.ID, suites[1].ID)
}

func TestRepository_DeleteSuite(t *testing.T) {
	repo, _ := createTestRepository(t)
	s := testSuite(t, "Cadastro", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, repo.SaveSuite(s))

	require.NoError(t, repo.DeleteSuite(s.ID))
	_, err := repo.ReadSuite(s.ID)
	assert.ErrorIs(t, err, ErrSuiteNotFound)

	assert.ErrorIs(t, repo.DeleteSuite(s.ID), ErrSuiteNotFound)
}

func TestRepository_History(t *testing.T) {
	repo, _ := createTestRepository(t)

	events, err := repo.History()
	require.NoError(t, err)
	assert.Empty(t, events)

	s := testSuite(t, "Cadastro", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, repo.SaveSuite(s))
	require.NoError(t, repo.DeleteSuite(s.ID))

	events, err = repo.History()
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, schema.EventSuiteSaved, events[0].Type)
	assert.Equal(t, s.ID, events[0].SuiteID)
	assert.Equal(t, "Cadastro", events[0].Feature)
	assert.Equal(t, 1, events[0].CaseCount)
	assert.Regexp(t, `^EVT-`, events[0].EventID)
	assert.Equal(t, schema.EventSuiteDeleted, events[1].Type)
}

func TestRepository_SaveFailsWhileLocked(t *testing.T) {
	repo := NewRepository(filepath.Join(t.TempDir(), ".qakit"), WithLockWait(50*time.Millisecond))

	other := NewFileLock(repo.LockPath(), "server")
	require.NoError(t, other.Acquire())
	defer other.Release()

	err := repo.SaveSuite(testSuite(t, "Cadastro", time.Now().UTC()))
	assert.ErrorIs(t, err, ErrLocked)

	suites, err := repo.ListSuites()
	require.NoError(t, err)
	assert.Empty(t, suites)
}

func TestRepository_SequentialWrites(t *testing.T) {
	repo, _ := createTestRepository(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.SaveSuite(testSuite(t, "Suite", base.Add(time.Duration(i)*time.Minute))))
	}

	suites, err := repo.ListSuites()
	require.NoError(t, err)
	assert.Len(t, suites, 5)

	events, err := repo.History()
	require.NoError(t, err)
	assert.Len(t, events, 5)
}

func TestRepository_WaitsForLock(t *testing.T) {
	repo, _ := createTestRepository(t)

	other := NewFileLock(repo.LockPath(), "server")
	require.NoError(t, other.Acquire())
	go func() {
		time.Sleep(100 * time.Millisecond)
		other.Release()
	}()

	require.NoError(t, repo.SaveSuite(testSuite(t, "Cadastro", time.Now().UTC())))

	suites, err := repo.ListSuites()
	require.NoError(t, err)
	assert.Len(t, suites, 1)
}

func TestRepository_ConcurrentWrites(t *testing.T) {
	tests := []struct {
		name      string
		instances int
	}{
		{"shared instance", 1},
		{"separate instances on one directory", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			baseDir := filepath.Join(t.TempDir(), ".qakit")
			repos := make([]*Repository, tt.instances)
			for i := range repos {
				repos[i] = NewRepository(baseDir, WithOwner(fmt.Sprintf("writer-%d", i)))
			}

			const n = 8
			base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
			suites := make([]*schema.Suite, n)
			for i := range suites {
				suites[i] = testSuite(t, "Suite", base.Add(time.Duration(i)*time.Minute))
			}

			errs := make(chan error, n)
			var wg sync.WaitGroup
			for i, s := range suites {
				wg.Add(1)
				go func() {
					defer wg.Done()
					errs <- repos[i%len(repos)].SaveSuite(s)
				}()
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				assert.NoError(t, err)
			}

			stored, err := repos[0].ListSuites()
			require.NoError(t, err)
			assert.Len(t, stored, n)

			events, err := repos[0].History()
			require.NoError(t, err)
			assert.Len(t, events, n)
		})
	}
}
