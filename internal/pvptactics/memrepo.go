package pvptactics

import (
	"context"
	"sort"
	"sync"

	"github.com/park285/squad-tactics/internal/domain"
)

// MemoryRepository is the ResultRepository used when no database is configured.
type MemoryRepository struct {
	mu      sync.RWMutex
	results map[string]*domain.GameResult
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{results: make(map[string]*domain.GameResult)}
}

func (m *MemoryRepository) SaveResult(ctx context.Context, r *domain.GameResult) error {
	if r == nil {
		return nil
	}
	c := *r
	c.Actions = append([]byte(nil), r.Actions...)
	m.mu.Lock()
	m.results[r.GameID] = &c
	m.mu.Unlock()
	return nil
}

func (m *MemoryRepository) RecentResults(ctx context.Context, player string, limit int) ([]*domain.GameResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.GameResult
	for _, r := range m.results {
		if r.Involves(player) {
			c := *r
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndedAt.After(out[j].EndedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryRepository) Close() error { return nil }
