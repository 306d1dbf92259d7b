package pvptactics

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/squad-tactics/internal/domain"
	"github.com/park285/squad-tactics/internal/obslog"
	"github.com/park285/squad-tactics/internal/tactics"
)

const defaultMaxTurns = 60

// EventSink receives the events of every successful mutation, in order.
type EventSink interface {
	Publish(ctx context.Context, events []tactics.Event) error
}

// Option configures a Manager.
type Option func(*Manager)

// WithLayout overrides the starting layout used for new sessions.
func WithLayout(l tactics.Layout) Option { return func(m *Manager) { m.layout = l } }

// WithIDGenerator overrides session id generation.
func WithIDGenerator(fn func() string) Option { return func(m *Manager) { m.newID = fn } }

// WithClock overrides the record timestamps source.
func WithClock(fn func() time.Time) Option { return func(m *Manager) { m.now = fn } }

// WithEventSink publishes emitted events to sink.
func WithEventSink(sink EventSink) Option { return func(m *Manager) { m.sink = sink } }

// WithDefaultMaxTurns sets the turn limit used when a creator leaves it unset.
func WithDefaultMaxTurns(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.defaultMaxTurns = n
		}
	}
}

// Manager runs the session operations against a Store. Operations on one
// session are serialised; different sessions proceed in parallel.
type Manager struct {
	store           Store
	repo            ResultRepository
	sink            EventSink
	layout          tactics.Layout
	newID           func() string
	now             func() time.Time
	defaultMaxTurns int
	locks           keyedLocker
}

func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:           store,
		layout:          tactics.DefaultLayout,
		newID:           func() string { return "tac-" + uuid.NewString() },
		now:             time.Now,
		defaultMaxTurns: defaultMaxTurns,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AttachRepository wires a repository for archiving finished games.
func (m *Manager) AttachRepository(r ResultRepository) {
	if m != nil {
		m.repo = r
	}
}

func (m *Manager) Close() error {
	if m == nil || m.store == nil {
		return nil
	}
	return m.store.Close()
}

// CreateGame opens a pending session in which creator challenges opponent.
// A zero MaxTurns takes the manager default.
func (m *Manager) CreateGame(ctx context.Context, creator, opponent string, opts tactics.Options) (*tactics.Session, error) {
	if opts.MaxTurns == 0 {
		opts.MaxTurns = m.defaultMaxTurns
	}
	s, events, err := tactics.NewSession(m.newID(), creator, opponent, opts)
	if err != nil {
		return nil, err
	}
	now := m.now()
	g := &Game{Session: s, Layout: m.layout, Actions: []tactics.Action{}, CreatedAt: now, UpdatedAt: now}
	if err := m.store.Create(ctx, g); err != nil {
		return nil, err
	}
	m.publish(ctx, events)
	obslog.L().Info("tactics_game_create",
		zap.String("game_id", s.ID),
		zap.String("player1", s.Player1),
		zap.String("player2", s.Player2),
		zap.Bool("ranked", s.Ranked),
		zap.Int("max_turns", s.MaxTurns),
	)
	return s.Clone(), nil
}

// JoinGame lets the invited opponent activate the session.
func (m *Manager) JoinGame(ctx context.Context, id, joiner string) (*tactics.Session, error) {
	return m.mutate(ctx, id, "tactics_join", nil, func(g *Game) ([]tactics.Event, error) {
		return g.Session.Join(strings.TrimSpace(joiner), g.Layout)
	})
}

// CancelGame withdraws a pending session.
func (m *Manager) CancelGame(ctx context.Context, id, actor string) (*tactics.Session, error) {
	return m.mutate(ctx, id, "tactics_cancel", nil, func(g *Game) ([]tactics.Event, error) {
		return g.Session.Cancel(actor)
	})
}

func (m *Manager) Move(ctx context.Context, id, player string, unit, x, y int) (*tactics.Session, error) {
	return m.Apply(ctx, id, tactics.Action{Kind: tactics.ActionMove, Player: player, Unit: unit, To: tactics.Position{X: x, Y: y}})
}

func (m *Manager) Attack(ctx context.Context, id, player string, attacker, target int) (*tactics.Session, error) {
	return m.Apply(ctx, id, tactics.Action{Kind: tactics.ActionAttack, Player: player, Unit: attacker, Target: target})
}

func (m *Manager) Defend(ctx context.Context, id, player string, unit int) (*tactics.Session, error) {
	return m.Apply(ctx, id, tactics.Action{Kind: tactics.ActionDefend, Player: player, Unit: unit})
}

func (m *Manager) EndTurn(ctx context.Context, id, player string) (*tactics.Session, error) {
	return m.Apply(ctx, id, tactics.Action{Kind: tactics.ActionEndTurn, Player: player})
}

func (m *Manager) Forfeit(ctx context.Context, id, player string) (*tactics.Session, error) {
	return m.Apply(ctx, id, tactics.Action{Kind: tactics.ActionForfeit, Player: player})
}

// Apply executes one combat action and appends it to the session's log.
func (m *Manager) Apply(ctx context.Context, id string, a tactics.Action) (*tactics.Session, error) {
	return m.mutate(ctx, id, "tactics_"+string(a.Kind), &a, func(g *Game) ([]tactics.Event, error) {
		return g.Session.Apply(a)
	})
}

// GetState returns a snapshot of the session.
func (m *Manager) GetState(ctx context.Context, id string) (*tactics.Session, error) {
	g, err := m.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}
	return g.Session, nil
}

// GetGame returns the full stored record including the action log.
func (m *Manager) GetGame(ctx context.Context, id string) (*Game, error) {
	g, err := m.store.Load(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, tactics.ErrNotFound
	}
	return g, nil
}

// GamesByPlayer lists the live sessions of player, most recently updated first.
func (m *Manager) GamesByPlayer(ctx context.Context, player string) ([]*tactics.Session, error) {
	player = strings.TrimSpace(player)
	if player == "" {
		return nil, tactics.ErrInvalidPlayer
	}
	games, err := m.store.ListByPlayer(ctx, player)
	if err != nil {
		return nil, err
	}
	out := make([]*tactics.Session, 0, len(games))
	for _, g := range games {
		out = append(out, g.Session)
	}
	return out, nil
}

// RecentResults returns archived results for player, newest first. Without a
// repository the history is empty.
func (m *Manager) RecentResults(ctx context.Context, player string, limit int) ([]*domain.GameResult, error) {
	if m.repo == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	return m.repo.RecentResults(ctx, strings.TrimSpace(player), limit)
}

func (m *Manager) mutate(ctx context.Context, id, logEvent string, record *tactics.Action, apply func(*Game) ([]tactics.Event, error)) (*tactics.Session, error) {
	id = strings.TrimSpace(id)
	unlock := m.locks.lock(id)
	defer unlock()

	var events []tactics.Event
	g, err := m.store.Update(ctx, id, func(g *Game) error {
		evs, err := apply(g)
		if err != nil {
			return err
		}
		if record != nil {
			g.Actions = append(g.Actions, *record)
		}
		g.Version++
		g.UpdatedAt = m.now()
		events = evs
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.publish(ctx, events)
	fields := []zap.Field{
		zap.String("game_id", id),
		zap.String("status", string(g.Session.Status)),
		zap.Int("turn_count", g.Session.TurnCount),
		zap.Int64("version", g.Version),
	}
	if record != nil {
		fields = append(fields, zap.String("player", record.Player), zap.String("action", record.Notation()))
	}
	obslog.L().Info(logEvent, fields...)

	if g.Session.Status == tactics.StatusFinished {
		obslog.L().Info("tactics_game_finished",
			zap.String("game_id", id),
			zap.String("winner", g.Session.Winner),
			zap.String("reason", string(g.Session.FinishReason)),
		)
		m.persistIfFinal(ctx, g)
	}
	return g.Session.Clone(), nil
}

func (m *Manager) publish(ctx context.Context, events []tactics.Event) {
	if m.sink == nil || len(events) == 0 {
		return
	}
	if err := m.sink.Publish(ctx, events); err != nil {
		obslog.L().Warn("tactics_event_publish_error", zap.String("game_id", events[0].SessionID), zap.Error(err))
	}
}

// persistIfFinal archives the finished game when a repository is attached.
// A failed save is logged and does not fail the action, which has already
// been committed.
func (m *Manager) persistIfFinal(ctx context.Context, g *Game) {
	if m.repo == nil || g.Session.Status != tactics.StatusFinished {
		return
	}
	if err := m.repo.SaveResult(ctx, NewResult(g)); err != nil {
		obslog.L().Error("tactics_result_persist_error", zap.String("game_id", g.ID()), zap.Error(err))
		return
	}
	obslog.L().Info("tactics_result_persist", zap.String("game_id", g.ID()), zap.String("reason", string(g.Session.FinishReason)))
}
