package database

import (
	"context"
	"sort"
	"sync"

	"github.com/shortfactory/shortfactory/internal/core/workflow"
)

// MemoryStore is a mutex-guarded in-memory Store. It backs tests and the
// one-shot `run` command when no database is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	topics  map[string]TopicRecord
	scripts map[string]ScriptRecord
	jobs    map[string]JobRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		topics:  make(map[string]TopicRecord),
		scripts: make(map[string]ScriptRecord),
		jobs:    make(map[string]JobRecord),
	}
}

func (s *MemoryStore) UpsertTopic(_ context.Context, t TopicRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.topics[t.ID]; !ok {
		s.topics[t.ID] = t
	}
	return nil
}

func (s *MemoryStore) UpsertScript(_ context.Context, sc ScriptRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.scripts[sc.ID]; !ok {
		s.scripts[sc.ID] = sc
	}
	return nil
}

func (s *MemoryStore) UpsertJob(_ context.Context, j JobRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.jobs[j.ID]; ok {
		if j.ScriptID == "" {
			j.ScriptID = existing.ScriptID
		}
		j.CreatedAt = existing.CreatedAt
	}
	s.jobs[j.ID] = j
	return nil
}

func (s *MemoryStore) GetJob(_ context.Context, id string) (*JobRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &j, nil
}

func (s *MemoryStore) GetScript(_ context.Context, id string) (*ScriptRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.scripts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &sc, nil
}

func (s *MemoryStore) ListJobs(_ context.Context, limit, offset int32, status workflow.Status) ([]JobRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]JobRecord, 0, len(s.jobs))
	for _, j := range s.jobs {
		if status != "" && j.Status != status {
			continue
		}
		all = append(all, j)
	}
	sort.Slice(all, func(i, k int) bool { return all[i].CreatedAt.After(all[k].CreatedAt) })

	return paginate(all, limit, offset), nil
}

func (s *MemoryStore) ListScripts(_ context.Context, limit, offset int32) ([]ScriptRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]ScriptRecord, 0, len(s.scripts))
	for _, sc := range s.scripts {
		all = append(all, sc)
	}
	sort.Slice(all, func(i, k int) bool { return all[i].CreatedAt.After(all[k].CreatedAt) })

	return paginate(all, limit, offset), nil
}

func (s *MemoryStore) CountByStatus(_ context.Context) (StatusCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var counts StatusCounts
	for _, j := range s.jobs {
		counts.Total++
		switch j.Status {
		case workflow.StatusPending:
			counts.Pending++
		case workflow.StatusProcessing:
			counts.Processing++
		case workflow.StatusCompleted:
			counts.Completed++
		case workflow.StatusFailed:
			counts.Failed++
		}
	}
	return counts, nil
}

func paginate[T any](all []T, limit, offset int32) []T {
	if offset >= int32(len(all)) {
		return nil
	}
	all = all[offset:]
	if limit > 0 && limit < int32(len(all)) {
		all = all[:limit]
	}
	return all
}
