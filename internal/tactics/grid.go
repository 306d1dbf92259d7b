package tactics

import "fmt"

// GridSize is the width and height of the square board.
const GridSize = 3

// Position is a board cell. Both coordinates are in [0, GridSize).
type Position struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

func (p Position) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }

// InBounds reports whether (x, y) lies on the board.
func InBounds(x, y int) bool {
	return x >= 0 && x < GridSize && y >= 0 && y < GridSize
}

// ManhattanDistance returns |ax-bx| + |ay-by|.
func ManhattanDistance(a, b Position) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

// OccupantAt returns the index of the first alive unit standing on (x, y).
// Dead units never occupy a cell.
func (s *Session) OccupantAt(x, y int) (int, bool) {
	if s == nil {
		return 0, false
	}
	for i := range s.Units {
		u := &s.Units[i]
		if u.Alive() && u.Position.X == x && u.Position.Y == y {
			return i, true
		}
	}
	return 0, false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
