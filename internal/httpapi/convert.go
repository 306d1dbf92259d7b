package httpapi

import (
	"github.com/park285/squad-tactics/internal/domain"
	"github.com/park285/squad-tactics/internal/tactics"
	"github.com/park285/squad-tactics/pkg/tacticsdto"
)

func toSessionState(s *tactics.Session) tacticsdto.SessionState {
	out := tacticsdto.SessionState{
		ID:           s.ID,
		Player1:      s.Player1,
		Player2:      s.Player2,
		Status:       string(s.Status),
		TurnCount:    s.TurnCount,
		MaxTurns:     s.MaxTurns,
		Ranked:       s.Ranked,
		Stake:        s.Stake,
		Winner:       s.Winner,
		FinishReason: string(s.FinishReason),
	}
	if s.Status == tactics.StatusActive {
		out.CurrentTurn = string(s.CurrentTurn)
		out.CurrentPlayer = s.PlayerFor(s.CurrentTurn)
	}
	if len(s.Units) == 0 {
		return out
	}
	out.Board = make([][]int, tactics.GridSize)
	for y := range out.Board {
		row := make([]int, tactics.GridSize)
		for x := range row {
			row[x] = -1
			if idx, ok := s.OccupantAt(x, y); ok {
				row[x] = idx
			}
		}
		out.Board[y] = row
	}
	for _, u := range s.Units {
		out.Units = append(out.Units, tacticsdto.UnitState{
			Index:     u.Index,
			Owner:     string(u.Owner),
			Archetype: string(u.Archetype),
			HP:        u.HP,
			MaxHP:     u.MaxHP,
			Attack:    u.Attack,
			Defense:   u.Defense,
			Range:     u.Range,
			X:         u.Position.X,
			Y:         u.Position.Y,
			Alive:     u.Alive(),
			Defended:  u.Defended,
			Moved:     u.Moved,
			Acted:     u.Acted,
		})
	}
	return out
}

func toResult(r *domain.GameResult) tacticsdto.GameResult {
	return tacticsdto.GameResult{
		GameID:     r.GameID,
		Player1:    r.Player1,
		Player2:    r.Player2,
		Winner:     r.Winner,
		Reason:     r.Reason,
		Ranked:     r.Ranked,
		TurnCount:  r.TurnCount,
		Transcript: r.Transcript,
		EndedAt:    r.EndedAt,
		DurationMs: r.Duration.Milliseconds(),
	}
}
