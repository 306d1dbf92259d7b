package pvptactics

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/park285/squad-tactics/internal/domain"
	"github.com/park285/squad-tactics/internal/tactics"
)

// ResultRepository archives finished games.
type ResultRepository interface {
	SaveResult(ctx context.Context, r *domain.GameResult) error
	RecentResults(ctx context.Context, player string, limit int) ([]*domain.GameResult, error)
	Close() error
}

const schema = `CREATE TABLE IF NOT EXISTS tactics_games (
    game_id     TEXT PRIMARY KEY,
    player1     TEXT NOT NULL,
    player2     TEXT NOT NULL,
    winner      TEXT NOT NULL DEFAULT '',
    reason      TEXT NOT NULL,
    ranked      BOOLEAN NOT NULL DEFAULT FALSE,
    stake       BIGINT NOT NULL DEFAULT 0,
    turn_count  INTEGER NOT NULL,
    max_turns   INTEGER NOT NULL,
    actions     JSONB NOT NULL,
    transcript  TEXT NOT NULL,
    started_at  TIMESTAMPTZ NOT NULL,
    ended_at    TIMESTAMPTZ NOT NULL,
    duration_ms BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS tactics_games_player1_idx ON tactics_games (player1, ended_at DESC);
CREATE INDEX IF NOT EXISTS tactics_games_player2_idx ON tactics_games (player2, ended_at DESC);`

// Repository is the Postgres ResultRepository.
type Repository struct {
	db *sql.DB
}

func NewRepository(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repository{db: db}, nil
}

// EnsureSchema creates the results table when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure tactics schema: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// SaveResult upserts a finished game keyed by its id.
func (r *Repository) SaveResult(ctx context.Context, res *domain.GameResult) error {
	if r == nil || r.db == nil || res == nil {
		return nil
	}
	q := `INSERT INTO tactics_games (
        game_id, player1, player2, winner, reason, ranked, stake,
        turn_count, max_turns, actions, transcript,
        started_at, ended_at, duration_ms
      ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14
      ) ON CONFLICT (game_id) DO UPDATE SET
        player1=EXCLUDED.player1,
        player2=EXCLUDED.player2,
        winner=EXCLUDED.winner,
        reason=EXCLUDED.reason,
        ranked=EXCLUDED.ranked,
        stake=EXCLUDED.stake,
        turn_count=EXCLUDED.turn_count,
        max_turns=EXCLUDED.max_turns,
        actions=EXCLUDED.actions,
        transcript=EXCLUDED.transcript,
        started_at=EXCLUDED.started_at,
        ended_at=EXCLUDED.ended_at,
        duration_ms=EXCLUDED.duration_ms`

	_, err := r.db.ExecContext(ctx, q,
		res.GameID, res.Player1, res.Player2, res.Winner, res.Reason,
		res.Ranked, int64(res.Stake), res.TurnCount, res.MaxTurns,
		string(res.Actions), res.Transcript,
		res.StartedAt, res.EndedAt, res.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("save result %s: %w", res.GameID, err)
	}
	return nil
}

func (r *Repository) RecentResults(ctx context.Context, player string, limit int) ([]*domain.GameResult, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT
        game_id, player1, player2, winner, reason, ranked, stake,
        turn_count, max_turns, actions, transcript,
        started_at, ended_at, duration_ms
      FROM tactics_games
      WHERE player1 = $1 OR player2 = $1
      ORDER BY ended_at DESC
      LIMIT $2`, player, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.GameResult
	for rows.Next() {
		var (
			res     domain.GameResult
			stake   int64
			actions string
			durMs   int64
		)
		if err := rows.Scan(
			&res.GameID, &res.Player1, &res.Player2, &res.Winner, &res.Reason,
			&res.Ranked, &stake, &res.TurnCount, &res.MaxTurns,
			&actions, &res.Transcript,
			&res.StartedAt, &res.EndedAt, &durMs,
		); err != nil {
			return nil, err
		}
		res.Stake = uint64(stake)
		res.Actions = []byte(actions)
		res.Duration = time.Duration(durMs) * time.Millisecond
		out = append(out, &res)
	}
	return out, rows.Err()
}

// NewResult builds the archive record of a finished game.
func NewResult(g *Game) *domain.GameResult {
	s := g.Session
	actions, _ := json.Marshal(g.Actions)
	d := g.UpdatedAt.Sub(g.CreatedAt)
	if d < 0 {
		d = 0
	}
	return &domain.GameResult{
		GameID:     s.ID,
		Player1:    s.Player1,
		Player2:    s.Player2,
		Winner:     s.Winner,
		Reason:     string(s.FinishReason),
		Ranked:     s.Ranked,
		Stake:      s.Stake,
		TurnCount:  s.TurnCount,
		MaxTurns:   s.MaxTurns,
		Actions:    actions,
		Transcript: buildTranscript(g),
		StartedAt:  g.CreatedAt,
		EndedAt:    g.UpdatedAt,
		Duration:   d,
	}
}

// buildTranscript renders a header block followed by one numbered line per
// half-turn holding that side's actions in compact notation.
func buildTranscript(g *Game) string {
	s := g.Session
	var b strings.Builder
	date := g.UpdatedAt
	if date.IsZero() {
		date = time.Now()
	}
	b.WriteString("[Event \"SquadTactics\"]\n")
	b.WriteString(fmt.Sprintf("[Date \"%04d.%02d.%02d\"]\n", date.Year(), int(date.Month()), date.Day()))
	b.WriteString(fmt.Sprintf("[Player1 \"%s\"]\n", sanitizeHeader(s.Player1)))
	b.WriteString(fmt.Sprintf("[Player2 \"%s\"]\n", sanitizeHeader(s.Player2)))
	if s.Ranked {
		b.WriteString("[Ranked \"yes\"]\n")
	}
	if s.FinishReason != "" {
		b.WriteString(fmt.Sprintf("[Termination \"%s\"]\n", s.FinishReason))
	}
	b.WriteString(fmt.Sprintf("[Result \"%s\"]\n\n", resultToken(s)))

	half := 1
	var line []string
	flush := func() {
		if len(line) == 0 {
			return
		}
		b.WriteString(fmt.Sprintf("%d. %s\n", half, strings.Join(line, " ")))
		line = line[:0]
	}
	for _, a := range g.Actions {
		line = append(line, a.Notation())
		if a.Kind == tactics.ActionEndTurn {
			flush()
			half++
		}
	}
	flush()
	b.WriteString(resultToken(s))
	return b.String()
}

func resultToken(s *tactics.Session) string {
	switch {
	case s.Status != tactics.StatusFinished:
		return "*"
	case s.Winner == "":
		return "1/2-1/2"
	case s.Winner == s.Player1:
		return "1-0"
	}
	return "0-1"
}

func sanitizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.TrimSpace(s)
}
