package domain

import "time"

// GameResult is the archived record of a finished tactics match.
type GameResult struct {
	GameID     string
	Player1    string
	Player2    string
	Winner     string
	Reason     string
	Ranked     bool
	Stake      uint64
	TurnCount  int
	MaxTurns   int
	Actions    []byte // JSON action log
	Transcript string
	StartedAt  time.Time
	EndedAt    time.Time
	Duration   time.Duration
}

// Draw reports whether the match ended without a winner.
func (r *GameResult) Draw() bool { return r.Winner == "" }

// Involves reports whether player took part in the match.
func (r *GameResult) Involves(player string) bool {
	return player != "" && (r.Player1 == player || r.Player2 == player)
}
