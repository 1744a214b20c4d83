package runstore

import (
	"context"
	"sync"
)

// MemoryStore keeps runs in process memory, newest last.
type MemoryStore struct {
	mu   sync.RWMutex
	runs []Run
	max  int
}

// NewMemoryStore keeps at most max runs; max <= 0 keeps everything.
func NewMemoryStore(max int) *MemoryStore { return &MemoryStore{max: max} }

func (m *MemoryStore) Save(_ context.Context, run Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.runs {
		if m.runs[i].RunID == run.RunID {
			m.runs = append(m.runs[:i], m.runs[i+1:]...)
			break
		}
	}
	m.runs = append(m.runs, run)
	if m.max > 0 && len(m.runs) > m.max {
		m.runs = append([]Run(nil), m.runs[len(m.runs)-m.max:]...)
	}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, runID string) (Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.runs {
		if r.RunID == runID {
			return r, nil
		}
	}
	return Run{}, ErrNotFound
}

func (m *MemoryStore) Latest(_ context.Context) (Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.runs) == 0 {
		return Run{}, ErrNotFound
	}
	return m.runs[len(m.runs)-1], nil
}

func (m *MemoryStore) List(_ context.Context, limit int) ([]Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := len(m.runs)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Run, 0, n)
	for i := len(m.runs) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.runs[i])
	}
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
