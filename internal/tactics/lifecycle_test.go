package tactics

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSessionValidation(t *testing.T) {
	_, _, err := NewSession("g", "  ", "bob", Options{MaxTurns: 10})
	require.ErrorIs(t, err, ErrInvalidPlayer)

	_, _, err = NewSession("g", "alice", "alice", Options{MaxTurns: 10})
	require.ErrorIs(t, err, ErrInvalidOpponent)

	_, _, err = NewSession("g", "alice", "", Options{MaxTurns: 10})
	require.ErrorIs(t, err, ErrInvalidOpponent)

	_, _, err = NewSession("g", "alice", "bob", Options{})
	require.ErrorIs(t, err, ErrInvalidOptions)
}

func TestNewSessionIsPending(t *testing.T) {
	s, events, err := NewSession("g1", " alice ", "bob", Options{MaxTurns: 30, Ranked: true, Stake: 50})
	require.NoError(t, err)
	require.Equal(t, StatusPending, s.Status)
	require.Equal(t, "alice", s.Player1)
	require.Empty(t, s.Units)
	require.Equal(t, uint64(50), s.Stake)
	require.Len(t, events, 1)
	require.Equal(t, EventGameCreated, events[0].Type)
	require.Equal(t, &PlayersPayload{Player1: "alice", Player2: "bob", Ranked: true, MaxTurns: 30}, events[0].Players)

	_, err = s.Move("alice", 0, 1, 1)
	require.ErrorIs(t, err, ErrGameNotActive)
}

func TestJoin(t *testing.T) {
	s, _, err := NewSession("g1", "alice", "bob", Options{MaxTurns: 30})
	require.NoError(t, err)

	_, err = s.Join("carol", DefaultLayout)
	require.ErrorIs(t, err, ErrWrongOpponent)
	_, err = s.Join("alice", DefaultLayout)
	require.ErrorIs(t, err, ErrWrongOpponent)

	bad := DefaultLayout
	bad[1] = bad[0]
	_, err = s.Join("bob", bad)
	require.ErrorIs(t, err, ErrInvalidOptions)
	require.Equal(t, StatusPending, s.Status)

	events, err := s.Join("bob", DefaultLayout)
	require.NoError(t, err)
	require.Equal(t, EventGameStarted, events[0].Type)
	require.Equal(t, StatusActive, s.Status)
	require.Equal(t, Player1, s.CurrentTurn)
	require.Zero(t, s.TurnCount)
	require.Len(t, s.Units, UnitsPerGame)
	for i, u := range s.Units {
		require.Equal(t, DefaultLayout[i], u.Position)
		require.Equal(t, u.MaxHP, u.HP)
	}

	_, err = s.Join("bob", DefaultLayout)
	require.ErrorIs(t, err, ErrAlreadyActive)
}

func TestCancel(t *testing.T) {
	s, _, err := NewSession("g1", "alice", "bob", Options{MaxTurns: 30})
	require.NoError(t, err)

	_, err = s.Cancel("carol")
	require.ErrorIs(t, err, ErrNotParticipant)

	events, err := s.Cancel("bob")
	require.NoError(t, err)
	require.Equal(t, EventGameCancelled, events[0].Type)
	require.Equal(t, StatusCancelled, s.Status)
	require.True(t, s.Status.Terminal())

	_, err = s.Cancel("alice")
	require.ErrorIs(t, err, ErrGameClosed)
	_, err = s.Join("bob", DefaultLayout)
	require.ErrorIs(t, err, ErrGameClosed)
}

func TestCancelActiveGame(t *testing.T) {
	s := newActive(t, DefaultLayout, 30)
	_, err := s.Cancel("alice")
	require.ErrorIs(t, err, ErrNotPending)
	require.Equal(t, StatusActive, s.Status)
}

func TestErrorCodes(t *testing.T) {
	var err error = NewError(CodeCellOccupied, "cell %s busy", Position{1, 1})
	require.ErrorIs(t, err, ErrCellOccupied)
	require.NotErrorIs(t, err, ErrOutOfBounds)
	require.Equal(t, CodeCellOccupied, CodeOf(err))

	_, err = Replay("g", "alice", "bob", Options{MaxTurns: 5}, DefaultLayout, []Action{{Kind: ActionEndTurn, Player: "bob"}})
	require.Equal(t, CodeNotYourTurn, CodeOf(err))
	require.Empty(t, CodeOf(nil))
}

func TestIsCode(t *testing.T) {
	require.True(t, IsCode("NOT_YOUR_TURN"))
	require.True(t, IsCode(string(CodeGameClosed)))
	require.False(t, IsCode("INTERNAL"))
	require.False(t, IsCode(""))
}
