package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/park285/squad-tactics/internal/tactics"
)

func recv(t *testing.T, ch <-chan tactics.Event) tactics.Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "subscription closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event")
	}
	return tactics.Event{}
}

func TestPublishSubscribeInOrder(t *testing.T) {
	bus := New()
	t.Cleanup(func() { _ = bus.Close() })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	all, err := bus.Subscribe(ctx, "")
	require.NoError(t, err)
	only, err := bus.Subscribe(ctx, "g2")
	require.NoError(t, err)

	events := []tactics.Event{
		{Type: tactics.EventUnitAttacked, SessionID: "g1", Attacked: &tactics.AttackedPayload{Attacker: 0, Target: 4, Damage: 5, TargetHP: 95}},
		{Type: tactics.EventGameFinished, SessionID: "g1", Finished: &tactics.FinishedPayload{Winner: "alice", Reason: tactics.ReasonHeroDefeated}},
		{Type: tactics.EventTurnEnded, SessionID: "g2", Turn: &tactics.TurnPayload{Next: tactics.Player2}},
	}
	require.NoError(t, bus.Publish(ctx, events))

	for _, want := range events {
		require.Equal(t, want, recv(t, all))
	}
	require.Equal(t, events[2], recv(t, only))
}

func TestSubscriptionClosesOnCancel(t *testing.T) {
	bus := New()
	t.Cleanup(func() { _ = bus.Close() })
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := bus.Subscribe(ctx, "")
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		require.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatalf("subscription not closed after cancel")
	}
}

func TestLaggingSubscriberDoesNotBlockOtherSessions(t *testing.T) {
	bus := New()
	t.Cleanup(func() { _ = bus.Close() })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stalled, err := bus.Subscribe(ctx, "g1")
	require.NoError(t, err)
	other, err := bus.Subscribe(ctx, "g2")
	require.NoError(t, err)

	publish := func(ev tactics.Event) {
		t.Helper()
		done := make(chan error, 1)
		go func() { done <- bus.Publish(ctx, []tactics.Event{ev}) }()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatalf("publish of %s for %s blocked", ev.Type, ev.SessionID)
		}
	}

	for i := 0; i < SubscriberBuffer+5; i++ {
		publish(tactics.Event{Type: tactics.EventTurnEnded, SessionID: "g1", TurnCount: i + 1, Turn: &tactics.TurnPayload{Next: tactics.Player2}})
	}
	want := tactics.Event{Type: tactics.EventTurnEnded, SessionID: "g2", TurnCount: 1, Turn: &tactics.TurnPayload{Next: tactics.Player2}}
	publish(want)
	require.Equal(t, want, recv(t, other))

	// the stalled reader keeps what was buffered, then sees the close
	for i := 0; i < SubscriberBuffer; i++ {
		require.Equal(t, i+1, recv(t, stalled).TurnCount)
	}
	select {
	case _, ok := <-stalled:
		require.False(t, ok, "lagging subscriber should be dropped")
	case <-time.After(2 * time.Second):
		t.Fatalf("lagging subscriber was not closed")
	}
}
