package tactics

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// duelLayout puts both heroes next to each other: p1 hero (1,0), p2 hero (1,1).
var duelLayout = Layout{
	{X: 1, Y: 0}, {X: 0, Y: 0}, {X: 2, Y: 0}, {X: 0, Y: 1},
	{X: 1, Y: 1}, {X: 0, Y: 2}, {X: 1, Y: 2}, {X: 2, Y: 2},
}

func newActive(t *testing.T, layout Layout, maxTurns int) *Session {
	t.Helper()
	s, _, err := NewSession("g1", "alice", "bob", Options{MaxTurns: maxTurns})
	require.NoError(t, err)
	_, err = s.Join("bob", layout)
	require.NoError(t, err)
	return s
}

func TestMoveOnFirstTurn(t *testing.T) {
	s := newActive(t, DefaultLayout, 20)

	_, err := s.Move("bob", 4, 1, 1)
	require.ErrorIs(t, err, ErrNotYourTurn)

	events, err := s.Move("alice", 0, 1, 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, EventUnitMoved, events[0].Type)
	require.Equal(t, &MovedPayload{Unit: 0, From: Position{0, 0}, To: Position{1, 1}}, events[0].Moved)
	require.Equal(t, Position{1, 1}, s.Units[0].Position)
	require.Equal(t, Player1, s.CurrentTurn, "moving must not end the turn")
}

func TestMoveRejections(t *testing.T) {
	s := newActive(t, DefaultLayout, 20)

	cases := []struct {
		name    string
		unit    int
		x, y    int
		wantErr error
	}{
		{"hero to far corner", 0, 2, 2, ErrMoveOutOfRange},
		{"stay in place", 0, 0, 0, ErrMoveOutOfRange},
		{"onto own soldier", 0, 1, 0, ErrCellOccupied},
		{"off board", 2, 3, 0, ErrOutOfBounds},
		{"negative", 3, -1, 1, ErrOutOfBounds},
		{"enemy unit", 4, 1, 1, ErrUnitNotOwned},
		{"bad index", 8, 1, 1, ErrInvalidUnit},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			before := s.Clone()
			_, err := s.Move("alice", c.unit, c.x, c.y)
			require.ErrorIs(t, err, c.wantErr)
			require.Equal(t, before, s, "rejected move must not mutate the session")
		})
	}
}

func TestMoveDeadUnit(t *testing.T) {
	s := newActive(t, DefaultLayout, 20)
	s.Units[3].HP = 0
	_, err := s.Move("alice", 3, 1, 1)
	require.ErrorIs(t, err, ErrUnitDead)
}

func TestMoveIntoCellOfDeadUnit(t *testing.T) {
	s := newActive(t, DefaultLayout, 20)
	s.Units[1].HP = 0
	_, err := s.Move("alice", 0, 1, 0)
	require.NoError(t, err)
}

func TestAttackUndefendedHero(t *testing.T) {
	s := newActive(t, duelLayout, 20)

	events, err := s.Attack("alice", 0, 4)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, EventUnitAttacked, events[0].Type)
	require.Equal(t, &AttackedPayload{Attacker: 0, Target: 4, Damage: 5, TargetHP: 95}, events[0].Attacked)
	require.Equal(t, 95, s.Units[4].HP)
}

func TestAttackDefendedHeroIsHalvedOnce(t *testing.T) {
	s := newActive(t, duelLayout, 20)

	_, err := s.EndTurn("alice")
	require.NoError(t, err)
	_, err = s.Defend("bob", 4)
	require.NoError(t, err)
	_, err = s.EndTurn("bob")
	require.NoError(t, err)
	require.True(t, s.Units[4].Defended, "defence lasts until its owner's next turn")

	events, err := s.Attack("alice", 0, 4)
	require.NoError(t, err)
	require.Equal(t, 2, events[0].Attacked.Damage)
	require.True(t, events[0].Attacked.Halved)
	require.Equal(t, 98, s.Units[4].HP)
	require.False(t, s.Units[4].Defended, "defence is consumed by the hit")

	_, err = s.EndTurn("alice")
	require.NoError(t, err)
	_, err = s.EndTurn("bob")
	require.NoError(t, err)
	events, err = s.Attack("alice", 0, 4)
	require.NoError(t, err)
	require.Equal(t, 5, events[0].Attacked.Damage)
	require.Equal(t, 93, s.Units[4].HP)
}

func TestUnitMovesAndActsOncePerTurn(t *testing.T) {
	s := newActive(t, duelLayout, 20)

	_, err := s.Move("alice", 2, 2, 1)
	require.NoError(t, err)
	before := s.Clone()
	_, err = s.Move("alice", 2, 2, 0)
	require.ErrorIs(t, err, ErrAlreadyMoved)
	require.Equal(t, before, s)

	_, err = s.Attack("alice", 0, 4)
	require.NoError(t, err)
	before = s.Clone()
	_, err = s.Attack("alice", 0, 4)
	require.ErrorIs(t, err, ErrAlreadyActed)
	_, err = s.Defend("alice", 0)
	require.ErrorIs(t, err, ErrAlreadyActed)
	require.Equal(t, before, s)
	require.Equal(t, 95, s.Units[4].HP, "one hit per unit per turn")

	_, err = s.Defend("alice", 3)
	require.NoError(t, err)
	_, err = s.Attack("alice", 3, 4)
	require.ErrorIs(t, err, ErrAlreadyActed, "defending uses the unit's action")

	// the hero has acted but may still move
	_, err = s.Move("alice", 0, 2, 0)
	require.NoError(t, err)

	_, err = s.EndTurn("alice")
	require.NoError(t, err)
	for _, u := range s.Units {
		require.False(t, u.Moved, "unit %d", u.Index)
		require.False(t, u.Acted, "unit %d", u.Index)
	}
	require.True(t, s.Units[3].Defended, "defence outlives the refresh")

	_, err = s.EndTurn("bob")
	require.NoError(t, err)
	_, err = s.Move("alice", 0, 1, 0)
	require.NoError(t, err)
	_, err = s.Attack("alice", 0, 4)
	require.NoError(t, err)
	require.Equal(t, 90, s.Units[4].HP)
}

func TestDefendClearedAtOwnersNextTurn(t *testing.T) {
	s := newActive(t, duelLayout, 20)

	_, err := s.Defend("alice", 1)
	require.NoError(t, err)
	_, err = s.EndTurn("alice")
	require.NoError(t, err)
	require.True(t, s.Units[1].Defended)
	_, err = s.EndTurn("bob")
	require.NoError(t, err)
	require.False(t, s.Units[1].Defended)
}

func TestMinimumDamage(t *testing.T) {
	s := newActive(t, duelLayout, 20)

	// archer (atk 10) against hero (def 10)
	events, err := s.Attack("alice", 3, 4)
	require.NoError(t, err)
	require.Equal(t, MinDamage, events[0].Attacked.Damage)

	archer := s.Units[3]
	hero := s.Units[4]
	hero.Defended = true
	dmg, halved := Damage(archer, hero)
	require.True(t, halved)
	require.Equal(t, MinDamage, dmg, "halving never drops below the floor")
}

func TestAttackRejections(t *testing.T) {
	s := newActive(t, DefaultLayout, 20)

	_, err := s.Attack("alice", 0, 4)
	require.ErrorIs(t, err, ErrOutOfRange)
	_, err = s.Attack("alice", 0, 1)
	require.ErrorIs(t, err, ErrTargetNotEnemy)
	_, err = s.Attack("alice", 0, 9)
	require.ErrorIs(t, err, ErrInvalidUnit)
	_, err = s.Attack("bob", 4, 0)
	require.ErrorIs(t, err, ErrNotYourTurn)
	_, err = s.Attack("carol", 0, 4)
	require.ErrorIs(t, err, ErrNotParticipant)

	s.Units[6].HP = 0
	before := s.Clone()
	_, err = s.Attack("alice", 3, 6)
	require.ErrorIs(t, err, ErrTargetDead)
	require.Equal(t, before, s)
}

func TestArcherRange(t *testing.T) {
	s := newActive(t, DefaultLayout, 20)
	// p1 archer at (0,1), p2 hero at (2,2): distance 3
	_, err := s.Attack("alice", 3, 4)
	require.NoError(t, err)
}

func TestHeroDefeatFinishesGame(t *testing.T) {
	s := newActive(t, duelLayout, 20)
	s.Units[4].HP = 5

	events, err := s.Attack("alice", 0, 4)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.True(t, events[0].Attacked.Killed)
	require.Equal(t, EventGameFinished, events[1].Type)
	require.Equal(t, &FinishedPayload{Winner: "alice", Reason: ReasonHeroDefeated}, events[1].Finished)
	require.Equal(t, StatusFinished, s.Status)
	require.Equal(t, "alice", s.Winner)

	_, err = s.Move("alice", 1, 1, 1)
	require.ErrorIs(t, err, ErrGameNotActive)
	_, err = s.EndTurn("alice")
	require.ErrorIs(t, err, ErrGameNotActive)
	_, err = s.Forfeit("bob")
	require.ErrorIs(t, err, ErrGameNotActive)
}

func TestKillingSoldierDoesNotFinish(t *testing.T) {
	s := newActive(t, duelLayout, 20)
	s.Units[4].Position = Position{X: 2, Y: 1}
	s.Units[5].Position = Position{X: 1, Y: 1}
	s.Units[5].HP = 1

	events, err := s.Attack("alice", 0, 5)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, 0, s.Units[5].HP)
	require.Equal(t, StatusActive, s.Status)
}

func TestEndTurnAlternates(t *testing.T) {
	s := newActive(t, DefaultLayout, 20)

	_, err := s.EndTurn("bob")
	require.ErrorIs(t, err, ErrNotYourTurn)

	events, err := s.EndTurn("alice")
	require.NoError(t, err)
	require.Equal(t, Player2, s.CurrentTurn)
	require.Equal(t, 1, s.TurnCount)
	require.Equal(t, &TurnPayload{Next: Player2}, events[0].Turn)

	_, err = s.EndTurn("bob")
	require.NoError(t, err)
	require.Equal(t, Player1, s.CurrentTurn)
	require.Equal(t, 2, s.TurnCount)
}

func TestTurnLimitTiebreak(t *testing.T) {
	s := newActive(t, duelLayout, 2)
	_, err := s.Attack("alice", 0, 4)
	require.NoError(t, err)
	_, err = s.EndTurn("alice")
	require.NoError(t, err)

	events, err := s.EndTurn("bob")
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, StatusFinished, s.Status)
	require.Equal(t, ReasonTurnLimit, s.FinishReason)
	require.Equal(t, "alice", s.Winner)
}

func TestTurnLimitDraw(t *testing.T) {
	s := newActive(t, DefaultLayout, 1)
	events, err := s.EndTurn("alice")
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, StatusFinished, s.Status)
	require.Empty(t, s.Winner)
	require.Equal(t, &FinishedPayload{Reason: ReasonTurnLimit}, events[1].Finished)
}

func TestForfeit(t *testing.T) {
	s := newActive(t, DefaultLayout, 20)
	events, err := s.Forfeit("alice")
	require.NoError(t, err)
	require.Equal(t, StatusFinished, s.Status)
	require.Equal(t, "bob", s.Winner)
	require.Equal(t, ReasonForfeit, events[0].Finished.Reason)

	s = newActive(t, DefaultLayout, 20)
	_, err = s.Forfeit("bob")
	require.NoError(t, err, "forfeit does not need the turn")
	require.Equal(t, "alice", s.Winner)

	s = newActive(t, DefaultLayout, 20)
	_, err = s.Forfeit("mallory")
	require.ErrorIs(t, err, ErrNotParticipant)
}

func TestApplyUnknownAction(t *testing.T) {
	s := newActive(t, DefaultLayout, 20)
	_, err := s.Apply(Action{Kind: "teleport", Player: "alice"})
	require.ErrorIs(t, err, ErrInvalidAction)
}

// Random legal and illegal actions must never stack alive units, deal less
// than the minimum damage, or leave the turn unchanged after EndTurn.
func TestRandomPlayKeepsInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for game := 0; game < 50; game++ {
		s := newActive(t, DefaultLayout, 40)
		for step := 0; step < 400 && s.Status == StatusActive; step++ {
			actor := s.PlayerFor(s.CurrentTurn)
			if rng.Intn(10) == 0 {
				actor = s.PlayerFor(s.CurrentTurn.Other())
			}
			a := Action{Player: actor, Unit: rng.Intn(UnitsPerGame), Target: rng.Intn(UnitsPerGame),
				To: Position{X: rng.Intn(5) - 1, Y: rng.Intn(4)}}
			switch rng.Intn(5) {
			case 0:
				a.Kind = ActionMove
			case 1, 2:
				a.Kind = ActionAttack
			case 3:
				a.Kind = ActionDefend
			default:
				a.Kind = ActionEndTurn
			}
			turnBefore := s.CurrentTurn
			before := s.Clone()
			events, err := s.Apply(a)
			if err != nil {
				require.Equal(t, before, s)
				continue
			}
			for _, ev := range events {
				if ev.Attacked != nil {
					require.GreaterOrEqual(t, ev.Attacked.Damage, MinDamage)
				}
			}
			if a.Kind == ActionEndTurn {
				require.NotEqual(t, turnBefore, s.CurrentTurn)
			}
			seen := map[Position]bool{}
			for _, u := range s.Units {
				require.GreaterOrEqual(t, u.HP, 0)
				require.LessOrEqual(t, u.HP, u.MaxHP)
				if !u.Alive() {
					continue
				}
				require.False(t, seen[u.Position], "two alive units on %s", u.Position)
				seen[u.Position] = true
			}
		}
		if s.Status == StatusFinished && s.FinishReason == ReasonHeroDefeated {
			loser := s.Units[HeroIndex(Player1)]
			if s.Winner == s.Player1 {
				loser = s.Units[HeroIndex(Player2)]
			}
			require.Equal(t, 0, loser.HP)
		}
	}
}
