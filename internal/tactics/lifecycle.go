package tactics

import "strings"

// NewSession creates a pending session in which creator challenges opponent.
func NewSession(id, creator, opponent string, opts Options) (*Session, []Event, error) {
	creator = strings.TrimSpace(creator)
	opponent = strings.TrimSpace(opponent)
	if creator == "" {
		return nil, nil, ErrInvalidPlayer
	}
	if opponent == "" || opponent == creator {
		return nil, nil, NewError(CodeInvalidOpponent, "opponent %q cannot be challenged by %q", opponent, creator)
	}
	if opts.MaxTurns <= 0 {
		return nil, nil, NewError(CodeInvalidOptions, "max turns must be positive, got %d", opts.MaxTurns)
	}
	s := &Session{
		ID:       id,
		Player1:  creator,
		Player2:  opponent,
		Status:   StatusPending,
		MaxTurns: opts.MaxTurns,
		Ranked:   opts.Ranked,
		Stake:    opts.Stake,
	}
	return s, []Event{s.playersEvent(EventGameCreated, creator)}, nil
}

// Join activates a pending session: every unit is instantiated from its
// template at the layout cell and player 1 moves first.
func (s *Session) Join(joiner string, layout Layout) ([]Event, error) {
	if joiner != s.Player2 {
		return nil, NewError(CodeWrongOpponent, "%q is not the invited opponent", joiner)
	}
	switch {
	case s.Status == StatusActive:
		return nil, ErrAlreadyActive
	case s.Status.Terminal():
		return nil, ErrGameClosed
	}
	if err := layout.Validate(); err != nil {
		return nil, NewError(CodeInvalidOptions, "%v", err)
	}
	s.Units = newUnits(layout)
	s.Status = StatusActive
	s.CurrentTurn = Player1
	s.TurnCount = 0
	return []Event{s.playersEvent(EventGameStarted, joiner)}, nil
}

// Cancel withdraws a pending session. Either participant may cancel.
func (s *Session) Cancel(actor string) ([]Event, error) {
	if _, ok := s.SideOf(actor); !ok {
		return nil, ErrNotParticipant
	}
	switch {
	case s.Status.Terminal():
		return nil, ErrGameClosed
	case s.Status != StatusPending:
		return nil, ErrNotPending
	}
	s.Status = StatusCancelled
	return []Event{s.playersEvent(EventGameCancelled, actor)}, nil
}

func (s *Session) finish(winner string, reason FinishReason, actor string) Event {
	s.Status = StatusFinished
	s.Winner = winner
	s.FinishReason = reason
	ev := s.event(EventGameFinished, actor)
	ev.Finished = &FinishedPayload{Winner: winner, Reason: reason}
	return ev
}

// turnLimitWinner compares aggregate remaining hit points; equal totals draw.
func (s *Session) turnLimitWinner() string {
	p1, p2 := s.RemainingHP(Player1), s.RemainingHP(Player2)
	switch {
	case p1 > p2:
		return s.Player1
	case p2 > p1:
		return s.Player2
	}
	return ""
}
