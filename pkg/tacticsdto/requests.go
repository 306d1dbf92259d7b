package tacticsdto

// PlayerHeader names the acting player on every mutating request.
const PlayerHeader = "X-Player-Id"

type CreateGameRequest struct {
	Opponent string `json:"opponent"`
	Ranked   bool   `json:"ranked,omitempty"`
	MaxTurns int    `json:"max_turns,omitempty"`
	Stake    uint64 `json:"stake,omitempty"`
}

type MoveRequest struct {
	Unit int `json:"unit"`
	X    int `json:"x"`
	Y    int `json:"y"`
}

type AttackRequest struct {
	Attacker int `json:"attacker"`
	Target   int `json:"target"`
}

type DefendRequest struct {
	Unit int `json:"unit"`
}
