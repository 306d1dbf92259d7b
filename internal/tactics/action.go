package tactics

import (
	"fmt"
	"strconv"
	"strings"
)

// ActionKind names a combat action.
type ActionKind string

const (
	ActionMove    ActionKind = "move"
	ActionAttack  ActionKind = "attack"
	ActionDefend  ActionKind = "defend"
	ActionEndTurn ActionKind = "end_turn"
	ActionForfeit ActionKind = "forfeit"
)

// Action is one submitted combat action. Unit is the acting unit (or the
// attacker), Target the attacked unit and To the move destination; fields
// that the kind does not use are zero.
type Action struct {
	Kind   ActionKind `json:"kind"`
	Player string     `json:"player"`
	Unit   int        `json:"unit,omitempty"`
	Target int        `json:"target,omitempty"`
	To     Position   `json:"to"`
}

// Apply dispatches a to the matching rule.
func (s *Session) Apply(a Action) ([]Event, error) {
	switch a.Kind {
	case ActionMove:
		return s.Move(a.Player, a.Unit, a.To.X, a.To.Y)
	case ActionAttack:
		return s.Attack(a.Player, a.Unit, a.Target)
	case ActionDefend:
		return s.Defend(a.Player, a.Unit)
	case ActionEndTurn:
		return s.EndTurn(a.Player)
	case ActionForfeit:
		return s.Forfeit(a.Player)
	}
	return nil, NewError(CodeInvalidAction, "unknown action %q", a.Kind)
}

// Replay rebuilds a session from its creation parameters and action log.
// Independent replays of the same log yield identical sessions.
func Replay(id, player1, player2 string, opts Options, layout Layout, log []Action) (*Session, error) {
	s, _, err := NewSession(id, player1, player2, opts)
	if err != nil {
		return nil, err
	}
	if _, err := s.Join(s.Player2, layout); err != nil {
		return nil, err
	}
	for i, a := range log {
		if _, err := s.Apply(a); err != nil {
			return nil, fmt.Errorf("replay action %d (%s): %w", i, a.Kind, err)
		}
	}
	return s, nil
}

// Notation renders a in compact form: M<unit>@x,y, A<unit>><target>,
// D<unit>, E and F.
func (a Action) Notation() string {
	switch a.Kind {
	case ActionMove:
		return "M" + strconv.Itoa(a.Unit) + "@" + strconv.Itoa(a.To.X) + "," + strconv.Itoa(a.To.Y)
	case ActionAttack:
		return "A" + strconv.Itoa(a.Unit) + ">" + strconv.Itoa(a.Target)
	case ActionDefend:
		return "D" + strconv.Itoa(a.Unit)
	case ActionEndTurn:
		return "E"
	case ActionForfeit:
		return "F"
	}
	return "?"
}

// ParseNotation is the inverse of Notation for the given player.
func ParseNotation(player, text string) (Action, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Action{}, ErrInvalidAction
	}
	a := Action{Player: player}
	body := text[1:]
	var err error
	switch text[0] {
	case 'M', 'm':
		a.Kind = ActionMove
		unit, dest, ok := strings.Cut(body, "@")
		if !ok {
			return Action{}, NewError(CodeInvalidAction, "move %q lacks destination", text)
		}
		xs, ys, ok := strings.Cut(dest, ",")
		if !ok {
			return Action{}, NewError(CodeInvalidAction, "move %q lacks y coordinate", text)
		}
		if a.Unit, err = strconv.Atoi(unit); err != nil {
			break
		}
		if a.To.X, err = strconv.Atoi(xs); err != nil {
			break
		}
		a.To.Y, err = strconv.Atoi(ys)
	case 'A', 'a':
		a.Kind = ActionAttack
		unit, target, ok := strings.Cut(body, ">")
		if !ok {
			return Action{}, NewError(CodeInvalidAction, "attack %q lacks target", text)
		}
		if a.Unit, err = strconv.Atoi(unit); err != nil {
			break
		}
		a.Target, err = strconv.Atoi(target)
	case 'D', 'd':
		a.Kind = ActionDefend
		a.Unit, err = strconv.Atoi(body)
	case 'E', 'e', 'F', 'f':
		if body != "" {
			return Action{}, NewError(CodeInvalidAction, "unexpected operand in %q", text)
		}
		a.Kind = ActionEndTurn
		if text[0] == 'F' || text[0] == 'f' {
			a.Kind = ActionForfeit
		}
	default:
		return Action{}, NewError(CodeInvalidAction, "unknown action %q", text)
	}
	if err != nil {
		return Action{}, NewError(CodeInvalidAction, "malformed action %q: %v", text, err)
	}
	return a, nil
}
