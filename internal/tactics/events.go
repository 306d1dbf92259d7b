package tactics

// EventType names a domain event.
type EventType string

const (
	EventGameCreated   EventType = "game_created"
	EventGameStarted   EventType = "game_started"
	EventUnitMoved     EventType = "unit_moved"
	EventUnitAttacked  EventType = "unit_attacked"
	EventUnitDefended  EventType = "unit_defended"
	EventTurnEnded     EventType = "turn_ended"
	EventGameFinished  EventType = "game_finished"
	EventGameCancelled EventType = "game_cancelled"
)

// Event is emitted by every successful mutation. Exactly one payload field
// is set, matching Type; created/started/cancelled carry Players.
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	Actor     string    `json:"actor,omitempty"`
	TurnCount int       `json:"turn_count"`

	Players  *PlayersPayload  `json:"players,omitempty"`
	Moved    *MovedPayload    `json:"moved,omitempty"`
	Attacked *AttackedPayload `json:"attacked,omitempty"`
	Defended *DefendedPayload `json:"defended,omitempty"`
	Turn     *TurnPayload     `json:"turn,omitempty"`
	Finished *FinishedPayload `json:"finished,omitempty"`
}

type PlayersPayload struct {
	Player1  string `json:"player1"`
	Player2  string `json:"player2"`
	Ranked   bool   `json:"ranked"`
	MaxTurns int    `json:"max_turns"`
}

type MovedPayload struct {
	Unit int      `json:"unit"`
	From Position `json:"from"`
	To   Position `json:"to"`
}

type AttackedPayload struct {
	Attacker int  `json:"attacker"`
	Target   int  `json:"target"`
	Damage   int  `json:"damage"`
	TargetHP int  `json:"target_hp"`
	Halved   bool `json:"halved"`
	Killed   bool `json:"killed"`
}

type DefendedPayload struct {
	Unit int `json:"unit"`
}

type TurnPayload struct {
	Next Side `json:"next"`
}

type FinishedPayload struct {
	Winner string       `json:"winner,omitempty"`
	Reason FinishReason `json:"reason"`
}

func (s *Session) event(t EventType, actor string) Event {
	return Event{Type: t, SessionID: s.ID, Actor: actor, TurnCount: s.TurnCount}
}

func (s *Session) playersEvent(t EventType, actor string) Event {
	ev := s.event(t, actor)
	ev.Players = &PlayersPayload{
		Player1:  s.Player1,
		Player2:  s.Player2,
		Ranked:   s.Ranked,
		MaxTurns: s.MaxTurns,
	}
	return ev
}
