package pvptactics

import (
	"context"
	"errors"
)

// ErrContended is returned when optimistic updates keep losing to
// concurrent writers.
var ErrContended = errors.New("pvptactics: concurrent update retries exhausted")

// Store keeps live game records.
type Store interface {
	// Create stores a new record; an existing id is an error.
	Create(ctx context.Context, g *Game) error
	// Load returns nil, nil when the id is unknown.
	Load(ctx context.Context, id string) (*Game, error)
	// Update applies fn to a copy of the record and stores the copy only if
	// fn succeeds. Unknown ids yield tactics.ErrNotFound.
	Update(ctx context.Context, id string, fn func(*Game) error) (*Game, error)
	// ListByPlayer returns the player's records, most recently updated first.
	ListByPlayer(ctx context.Context, player string) ([]*Game, error)
	Close() error
}
