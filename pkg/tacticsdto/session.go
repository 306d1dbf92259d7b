package tacticsdto

type UnitState struct {
	Index     int    `json:"index"`
	Owner     string `json:"owner"`
	Archetype string `json:"archetype"`
	HP        int    `json:"hp"`
	MaxHP     int    `json:"max_hp"`
	Attack    int    `json:"attack"`
	Defense   int    `json:"defense"`
	Range     int    `json:"range"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Alive     bool   `json:"alive"`
	Defended  bool   `json:"defended"`
	Moved     bool   `json:"moved"`
	Acted     bool   `json:"acted"`
}

// SessionState is the public snapshot of a session. Board[y][x] holds the
// index of the alive unit on that cell or -1.
type SessionState struct {
	ID            string      `json:"id"`
	Player1       string      `json:"player1"`
	Player2       string      `json:"player2"`
	Status        string      `json:"status"`
	CurrentTurn   string      `json:"current_turn,omitempty"`
	CurrentPlayer string      `json:"current_player,omitempty"`
	TurnCount     int         `json:"turn_count"`
	MaxTurns      int         `json:"max_turns"`
	Ranked        bool        `json:"ranked"`
	Stake         uint64      `json:"stake,omitempty"`
	Units         []UnitState `json:"units,omitempty"`
	Board         [][]int     `json:"board,omitempty"`
	Winner        string      `json:"winner,omitempty"`
	FinishReason  string      `json:"finish_reason,omitempty"`
}
