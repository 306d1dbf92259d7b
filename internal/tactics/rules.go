package tactics

// Every action validates completely before touching the session, so a
// rejected action leaves it unchanged.

// Move relocates one of the actor's units by at most MaxMoveDistance cells.
// Each unit moves at most once per turn, and the turn does not pass.
func (s *Session) Move(actor string, unit, x, y int) ([]Event, error) {
	side, err := s.actingSide(actor)
	if err != nil {
		return nil, err
	}
	u, err := s.ownUnit(side, unit)
	if err != nil {
		return nil, err
	}
	if u.Moved {
		return nil, NewError(CodeAlreadyMoved, "unit %d has already moved this turn", unit)
	}
	if !InBounds(x, y) {
		return nil, NewError(CodeOutOfBounds, "destination (%d,%d) is off the board", x, y)
	}
	to := Position{X: x, Y: y}
	if d := ManhattanDistance(u.Position, to); d == 0 || d > MaxMoveDistance {
		return nil, NewError(CodeMoveOutOfRange, "move distance %d not in 1..%d", d, MaxMoveDistance)
	}
	if occ, ok := s.OccupantAt(x, y); ok {
		return nil, NewError(CodeCellOccupied, "destination %s is occupied by unit %d", to, occ)
	}

	from := u.Position
	u.Position = to
	u.Moved = true
	ev := s.event(EventUnitMoved, actor)
	ev.Moved = &MovedPayload{Unit: unit, From: from, To: to}
	return []Event{ev}, nil
}

// Attack strikes an enemy unit within the attacker's range. Attacking and
// defending share one action per unit per turn. Reducing the enemy hero to
// zero finishes the game immediately.
func (s *Session) Attack(actor string, attacker, target int) ([]Event, error) {
	side, err := s.actingSide(actor)
	if err != nil {
		return nil, err
	}
	a, err := s.ownUnit(side, attacker)
	if err != nil {
		return nil, err
	}
	if a.Acted {
		return nil, NewError(CodeAlreadyActed, "unit %d has already acted this turn", attacker)
	}
	if target < 0 || target >= len(s.Units) {
		return nil, NewError(CodeInvalidUnit, "target index %d out of range", target)
	}
	t := &s.Units[target]
	if t.Owner == side {
		return nil, NewError(CodeTargetNotEnemy, "unit %d is friendly", target)
	}
	if !t.Alive() {
		return nil, NewError(CodeTargetDead, "unit %d is already dead", target)
	}
	if d := ManhattanDistance(a.Position, t.Position); d > a.Range {
		return nil, NewError(CodeOutOfRange, "target at distance %d exceeds range %d", d, a.Range)
	}

	dmg, halved := Damage(*a, *t)
	a.Acted = true
	t.Defended = false
	t.HP -= dmg
	if t.HP < 0 {
		t.HP = 0
	}

	ev := s.event(EventUnitAttacked, actor)
	ev.Attacked = &AttackedPayload{
		Attacker: attacker,
		Target:   target,
		Damage:   dmg,
		TargetHP: t.HP,
		Halved:   halved,
		Killed:   !t.Alive(),
	}
	events := []Event{ev}
	if t.Archetype == Hero && t.HP == 0 {
		events = append(events, s.finish(actor, ReasonHeroDefeated, actor))
	}
	return events, nil
}

// Damage computes the hit attacker deals to target and whether the
// target's defence halved it. The result is never below MinDamage.
func Damage(attacker, target Unit) (int, bool) {
	dmg := attacker.Attack - target.Defense
	if dmg < MinDamage {
		dmg = MinDamage
	}
	if !target.Defended {
		return dmg, false
	}
	dmg /= 2
	if dmg < MinDamage {
		dmg = MinDamage
	}
	return dmg, true
}

// Defend braces a unit: the next incoming hit before its owner's next turn
// is halved.
func (s *Session) Defend(actor string, unit int) ([]Event, error) {
	side, err := s.actingSide(actor)
	if err != nil {
		return nil, err
	}
	u, err := s.ownUnit(side, unit)
	if err != nil {
		return nil, err
	}
	if u.Acted {
		return nil, NewError(CodeAlreadyActed, "unit %d has already acted this turn", unit)
	}
	u.Defended = true
	u.Acted = true
	ev := s.event(EventUnitDefended, actor)
	ev.Defended = &DefendedPayload{Unit: unit}
	return []Event{ev}, nil
}

// EndTurn passes control to the opponent and refreshes every unit's move
// and action. turnCount counts half-turns; when it reaches maxTurns the game
// finishes on remaining hit points.
func (s *Session) EndTurn(actor string) ([]Event, error) {
	side, err := s.actingSide(actor)
	if err != nil {
		return nil, err
	}
	next := side.Other()
	for i := range s.Units {
		u := &s.Units[i]
		u.Moved, u.Acted = false, false
		if u.Owner == next {
			u.Defended = false
		}
	}
	s.CurrentTurn = next
	s.TurnCount++

	ev := s.event(EventTurnEnded, actor)
	ev.Turn = &TurnPayload{Next: next}
	events := []Event{ev}
	if s.TurnCount >= s.MaxTurns {
		events = append(events, s.finish(s.turnLimitWinner(), ReasonTurnLimit, actor))
	}
	return events, nil
}

// Forfeit concedes the game to the opponent. It is accepted from either
// player regardless of whose turn it is.
func (s *Session) Forfeit(actor string) ([]Event, error) {
	if s.Status != StatusActive {
		return nil, ErrGameNotActive
	}
	side, ok := s.SideOf(actor)
	if !ok {
		return nil, ErrNotParticipant
	}
	return []Event{s.finish(s.PlayerFor(side.Other()), ReasonForfeit, actor)}, nil
}

func (s *Session) actingSide(actor string) (Side, error) {
	if s.Status != StatusActive {
		return "", ErrGameNotActive
	}
	side, ok := s.SideOf(actor)
	if !ok {
		return "", ErrNotParticipant
	}
	if side != s.CurrentTurn {
		return "", ErrNotYourTurn
	}
	return side, nil
}

func (s *Session) ownUnit(side Side, index int) (*Unit, error) {
	if index < 0 || index >= len(s.Units) {
		return nil, NewError(CodeInvalidUnit, "unit index %d out of range", index)
	}
	u := &s.Units[index]
	if u.Owner != side {
		return nil, NewError(CodeUnitNotOwned, "unit %d belongs to %s", index, u.Owner)
	}
	if !u.Alive() {
		return nil, NewError(CodeUnitDead, "unit %d is dead", index)
	}
	return u, nil
}
