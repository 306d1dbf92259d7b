package tactics

import "fmt"

// Archetype identifies a unit class.
type Archetype string

const (
	Hero    Archetype = "hero"
	Soldier Archetype = "soldier"
	Archer  Archetype = "archer"
)

// UnitTemplate holds the base stats a unit is instantiated from.
type UnitTemplate struct {
	HP      int `json:"hp"`
	Attack  int `json:"attack"`
	Defense int `json:"defense"`
	Range   int `json:"range"`
}

const (
	// UnitsPerSide is the squad size of one player.
	UnitsPerSide = 4
	// UnitsPerGame is the number of unit slots in an active session.
	UnitsPerGame = 2 * UnitsPerSide
)

var templates = map[Archetype]UnitTemplate{
	Hero:    {HP: 100, Attack: 15, Defense: 10, Range: 1},
	Soldier: {HP: 40, Attack: 12, Defense: 8, Range: 1},
	Archer:  {HP: 30, Attack: 10, Defense: 5, Range: 3},
}

// Squad is the archetype of each slot within one side, in slot order.
var Squad = [UnitsPerSide]Archetype{Hero, Soldier, Soldier, Archer}

// TemplateFor returns the base stats of an archetype.
func TemplateFor(a Archetype) (UnitTemplate, error) {
	t, ok := templates[a]
	if !ok {
		return UnitTemplate{}, fmt.Errorf("unknown archetype %q", a)
	}
	return t, nil
}

// Layout is the starting cell of every unit slot, indexed 0-7.
type Layout [UnitsPerGame]Position

// DefaultLayout fills each back row and one flank cell; player 2 is player 1
// mirrored through the centre, which stays empty.
var DefaultLayout = Layout{
	{X: 0, Y: 0}, // p1 hero
	{X: 1, Y: 0}, // p1 soldier
	{X: 2, Y: 0}, // p1 soldier
	{X: 0, Y: 1}, // p1 archer
	{X: 2, Y: 2}, // p2 hero
	{X: 1, Y: 2}, // p2 soldier
	{X: 0, Y: 2}, // p2 soldier
	{X: 2, Y: 1}, // p2 archer
}

// Validate checks that every slot is on the board and no two slots share a cell.
func (l Layout) Validate() error {
	seen := make(map[Position]int, UnitsPerGame)
	for i, p := range l {
		if !InBounds(p.X, p.Y) {
			return fmt.Errorf("layout slot %d: %s out of bounds", i, p)
		}
		if prev, ok := seen[p]; ok {
			return fmt.Errorf("layout slot %d: %s already used by slot %d", i, p, prev)
		}
		seen[p] = i
	}
	return nil
}

// OwnerOf returns the side that owns a unit slot.
func OwnerOf(index int) Side {
	if index < UnitsPerSide {
		return Player1
	}
	return Player2
}

// HeroIndex returns the slot of a side's hero.
func HeroIndex(side Side) int {
	if side == Player2 {
		return UnitsPerSide
	}
	return 0
}

func newUnits(layout Layout) []Unit {
	units := make([]Unit, UnitsPerGame)
	for i := range units {
		arch := Squad[i%UnitsPerSide]
		t := templates[arch]
		units[i] = Unit{
			Index:     i,
			Owner:     OwnerOf(i),
			Archetype: arch,
			HP:        t.HP,
			MaxHP:     t.HP,
			Attack:    t.Attack,
			Defense:   t.Defense,
			Range:     t.Range,
			Position:  layout[i],
		}
	}
	return units
}
