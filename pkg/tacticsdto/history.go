package tacticsdto

import "time"

type GamesResponse struct {
	Games []SessionState `json:"games"`
}

type GameResult struct {
	GameID     string    `json:"game_id"`
	Player1    string    `json:"player1"`
	Player2    string    `json:"player2"`
	Winner     string    `json:"winner,omitempty"`
	Reason     string    `json:"reason"`
	Ranked     bool      `json:"ranked"`
	TurnCount  int       `json:"turn_count"`
	Transcript string    `json:"transcript"`
	EndedAt    time.Time `json:"ended_at"`
	DurationMs int64     `json:"duration_ms"`
}

type ResultsResponse struct {
	Results []GameResult `json:"results"`
}

// ActionLog is the replayable history of one live session.
type ActionLog struct {
	GameID  string   `json:"game_id"`
	Version int64    `json:"version"`
	Actions []string `json:"actions"`
}
