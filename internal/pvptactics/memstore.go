package pvptactics

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/park285/squad-tactics/internal/tactics"
)

// MemoryStore is the in-process Store used when no Redis is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	games    map[string]*Game
	byPlayer map[string][]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games:    make(map[string]*Game),
		byPlayer: make(map[string][]string),
	}
}

func (m *MemoryStore) Create(ctx context.Context, g *Game) error {
	id := g.ID()
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("game id required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.games[id]; exists {
		return fmt.Errorf("game %s already exists", id)
	}
	m.games[id] = g.Clone()
	for _, p := range []string{g.Session.Player1, g.Session.Player2} {
		m.byPlayer[p] = append(m.byPlayer[p], id)
	}
	return nil
}

func (m *MemoryStore) Load(ctx context.Context, id string) (*Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[id]
	if !ok {
		return nil, nil
	}
	return g.Clone(), nil
}

func (m *MemoryStore) Update(ctx context.Context, id string, fn func(*Game) error) (*Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.games[id]
	if !ok {
		return nil, tactics.ErrNotFound
	}
	next := cur.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	m.games[id] = next
	return next.Clone(), nil
}

func (m *MemoryStore) ListByPlayer(ctx context.Context, player string) ([]*Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Game
	for _, id := range m.byPlayer[player] {
		if g, ok := m.games[id]; ok {
			out = append(out, g.Clone())
		}
	}
	sortByUpdated(out)
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }

func sortByUpdated(list []*Game) {
	sort.SliceStable(list, func(i, j int) bool { return list[i].UpdatedAt.After(list[j].UpdatedAt) })
}
