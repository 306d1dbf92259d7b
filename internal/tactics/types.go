package tactics

// Side identifies one of the two player slots.
type Side string

const (
	Player1 Side = "player1"
	Player2 Side = "player2"
)

// Other returns the opposing side.
func (s Side) Other() Side {
	if s == Player1 {
		return Player2
	}
	return Player1
}

// Status represents a session lifecycle state.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusActive    Status = "ACTIVE"
	StatusFinished  Status = "FINISHED"
	StatusCancelled Status = "CANCELLED"
)

// Terminal reports whether no further transition can leave s.
func (s Status) Terminal() bool {
	return s == StatusFinished || s == StatusCancelled
}

// FinishReason explains how a session reached Finished.
type FinishReason string

const (
	ReasonHeroDefeated FinishReason = "hero_defeated"
	ReasonForfeit      FinishReason = "forfeit"
	ReasonTurnLimit    FinishReason = "turn_limit"
)

// Gameplay constants.
const (
	MaxMoveDistance = 2
	MinDamage       = 1
)

// Options are chosen by the creator of a session.
type Options struct {
	Ranked   bool   `json:"ranked"`
	MaxTurns int    `json:"max_turns"`
	Stake    uint64 `json:"stake,omitempty"`
}

// Unit is the mutable combat record of one squad slot.
type Unit struct {
	Index     int       `json:"index"`
	Owner     Side      `json:"owner"`
	Archetype Archetype `json:"archetype"`
	HP        int       `json:"hp"`
	MaxHP     int       `json:"max_hp"`
	Attack    int       `json:"attack"`
	Defense   int       `json:"defense"`
	Range     int       `json:"range"`
	Position  Position  `json:"position"`
	Defended  bool      `json:"defended"`
	Moved     bool      `json:"moved"`
	Acted     bool      `json:"acted"`
}

// Alive reports whether the unit still has hit points.
func (u Unit) Alive() bool { return u.HP > 0 }

// Session is the aggregate root of one match. Units is empty while the
// session is pending and holds UnitsPerGame records afterwards.
type Session struct {
	ID           string       `json:"id"`
	Player1      string       `json:"player1"`
	Player2      string       `json:"player2"`
	Status       Status       `json:"status"`
	CurrentTurn  Side         `json:"current_turn,omitempty"`
	TurnCount    int          `json:"turn_count"`
	MaxTurns     int          `json:"max_turns"`
	Ranked       bool         `json:"ranked"`
	Stake        uint64       `json:"stake,omitempty"`
	Units        []Unit       `json:"units,omitempty"`
	Winner       string       `json:"winner,omitempty"`
	FinishReason FinishReason `json:"finish_reason,omitempty"`
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.Units != nil {
		c.Units = append([]Unit(nil), s.Units...)
	}
	return &c
}

// PlayerFor returns the identity seated at side.
func (s *Session) PlayerFor(side Side) string {
	if side == Player2 {
		return s.Player2
	}
	return s.Player1
}

// SideOf returns the side a player is seated at.
func (s *Session) SideOf(player string) (Side, bool) {
	switch {
	case player == "":
		return "", false
	case player == s.Player1:
		return Player1, true
	case player == s.Player2:
		return Player2, true
	}
	return "", false
}

// RemainingHP sums the hit points of a side's units.
func (s *Session) RemainingHP(side Side) int {
	total := 0
	for _, u := range s.Units {
		if u.Owner == side {
			total += u.HP
		}
	}
	return total
}
