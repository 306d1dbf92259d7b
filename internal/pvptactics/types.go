package pvptactics

import (
	"time"

	"github.com/park285/squad-tactics/internal/tactics"
)

// Game is the stored record of one session: the aggregate, the layout it
// started from and every combat action applied to it.
type Game struct {
	Session   *tactics.Session `json:"session"`
	Layout    tactics.Layout   `json:"layout"`
	Actions   []tactics.Action `json:"actions"`
	Version   int64            `json:"version"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// ID is shorthand for the session id.
func (g *Game) ID() string {
	if g == nil || g.Session == nil {
		return ""
	}
	return g.Session.ID
}

// Clone returns a deep copy.
func (g *Game) Clone() *Game {
	if g == nil {
		return nil
	}
	c := *g
	c.Session = g.Session.Clone()
	c.Actions = append([]tactics.Action(nil), g.Actions...)
	return &c
}

// Replay re-executes the action log from the creation parameters.
func (g *Game) Replay() (*tactics.Session, error) {
	s := g.Session
	return tactics.Replay(s.ID, s.Player1, s.Player2,
		tactics.Options{Ranked: s.Ranked, MaxTurns: s.MaxTurns, Stake: s.Stake},
		g.Layout, g.Actions)
}
