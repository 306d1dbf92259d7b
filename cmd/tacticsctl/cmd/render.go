package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/park285/squad-tactics/internal/tactics"
	"github.com/park285/squad-tactics/pkg/tacticsdto"
)

// RenderState draws the board and unit roster as plain text. Player 1
// units are upper case (H0), player 2 units lower case (h4).
func RenderState(st *tacticsdto.SessionState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s vs %s  [%s]", st.ID, st.Player1, st.Player2, st.Status)
	switch {
	case st.CurrentPlayer != "":
		fmt.Fprintf(&b, "  turn %d/%d, %s to act", st.TurnCount, st.MaxTurns, st.CurrentPlayer)
	case st.Status == "FINISHED" && st.Winner != "":
		fmt.Fprintf(&b, "  %s wins (%s)", st.Winner, st.FinishReason)
	case st.Status == "FINISHED":
		fmt.Fprintf(&b, "  draw (%s)", st.FinishReason)
	}
	b.WriteString("\n")
	if len(st.Board) == 0 {
		return b.String()
	}

	byIndex := make(map[int]tacticsdto.UnitState, len(st.Units))
	for _, u := range st.Units {
		byIndex[u.Index] = u
	}
	b.WriteString("\n    ")
	for x := range st.Board[0] {
		fmt.Fprintf(&b, " %-3d", x)
	}
	b.WriteString("\n")
	for y, row := range st.Board {
		fmt.Fprintf(&b, " %d  ", y)
		for _, idx := range row {
			cell := "."
			if u, ok := byIndex[idx]; ok && idx >= 0 {
				cell = unitLabel(u)
			}
			fmt.Fprintf(&b, " %-3s", cell)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	for _, u := range st.Units {
		state := fmt.Sprintf("(%d,%d)", u.X, u.Y)
		if !u.Alive {
			state = "down"
		} else {
			if u.Defended {
				state += " defended"
			}
			if u.Moved {
				state += " moved"
			}
			if u.Acted {
				state += " acted"
			}
		}
		fmt.Fprintf(&b, "  %-3s %-8s %-7s hp %3d/%-3d %s\n", unitLabel(u), u.Archetype, u.Owner, u.HP, u.MaxHP, state)
	}
	return b.String()
}

func unitLabel(u tacticsdto.UnitState) string {
	letter := "?"
	if u.Archetype != "" {
		letter = u.Archetype[:1]
	}
	if u.Owner == string(tactics.Player1) {
		letter = strings.ToUpper(letter)
	} else {
		letter = strings.ToLower(letter)
	}
	return fmt.Sprintf("%s%d", letter, u.Index)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
