package archive

import (
	"context"
	"fmt"
	"sort"
	"sync"

	apperrors "engageboard/internal/errors"
	"engageboard/pkg/contracts/domain"
)

// MemoryStore keeps the most recent runs in memory. It backs the service when
// the SQLite archive is disabled.
type MemoryStore struct {
	mu       sync.RWMutex
	capacity int
	runs     map[string]*Run
	order    []string // oldest first
}

// NewMemoryStore keeps at most capacity runs; zero or less means 20
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = 20
	}
	return &MemoryStore{capacity: capacity, runs: make(map[string]*Run)}
}

// Save stores run, evicting the oldest entry when full
func (m *MemoryStore) Save(_ context.Context, run *Run) error {
	if run == nil || run.ID == "" {
		return apperrors.NewAppValidationError("run id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.runs[run.ID]; exists {
		return apperrors.NewStorageError(fmt.Sprintf("run %s already exists", run.ID), nil)
	}
	for len(m.order) >= m.capacity {
		delete(m.runs, m.order[0])
		m.order = m.order[1:]
	}
	m.runs[run.ID] = cloneRun(run)
	m.order = append(m.order, run.ID)
	return nil
}

// Get returns a copy of the run
func (m *MemoryStore) Get(_ context.Context, id string) (*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	run, ok := m.runs[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("leaderboard %s", id))
	}
	return cloneRun(run), nil
}

// Delete removes a run
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.runs[id]; !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("leaderboard %s", id))
	}
	delete(m.runs, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// Latest returns the newest run
func (m *MemoryStore) Latest(ctx context.Context) (*Run, error) {
	infos, _ := m.List(ctx, 1)
	if len(infos) == 0 {
		return nil, apperrors.NewNotFoundError("archived leaderboard")
	}
	return m.Get(ctx, infos[0].ID)
}

// List returns up to limit runs, newest first
func (m *MemoryStore) List(_ context.Context, limit int) ([]RunInfo, error) {
	if limit <= 0 {
		limit = 50
	}

	m.mu.RLock()
	infos := make([]RunInfo, 0, len(m.runs))
	for _, run := range m.runs {
		infos = append(infos, infoOf(run))
	}
	m.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})
	if len(infos) > limit {
		infos = infos[:limit]
	}
	return infos, nil
}

// PriorTable exposes a stored run as a prior-period table
func (m *MemoryStore) PriorTable(ctx context.Context, id string) (*domain.Table, error) {
	run, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return PriorTableFromRun(run), nil
}

// Ping always succeeds
func (m *MemoryStore) Ping(context.Context) error { return nil }

// Close drops every stored run
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = make(map[string]*Run)
	m.order = nil
	return nil
}

func infoOf(run *Run) RunInfo {
	info := RunInfo{
		ID:        run.ID,
		CreatedAt: run.CreatedAt,
		Label:     run.Label,
		Pages:     len(run.Rows),
		Posts:     run.Posts,
	}
	for _, r := range run.Rows {
		info.TotalEngagement += r.TotalEngagement
	}
	return info
}

func cloneRun(run *Run) *Run {
	c := *run
	c.Rows = append([]domain.LeaderboardRow(nil), run.Rows...)
	c.Daily = append([]domain.DailyAggregate(nil), run.Daily...)
	return &c
}
