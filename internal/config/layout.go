package config

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/park285/squad-tactics/internal/tactics"
)

// layoutFile lists each side's cells in squad order: hero, soldier,
// soldier, archer.
type layoutFile struct {
	Player1 []tactics.Position `yaml:"player1"`
	Player2 []tactics.Position `yaml:"player2"`
}

// LoadLayout reads a starting layout. An empty path yields the default.
func LoadLayout(path string) (tactics.Layout, error) {
	if path == "" {
		return tactics.DefaultLayout, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return tactics.Layout{}, fmt.Errorf("read layout: %w", err)
	}
	return ParseLayout(raw)
}

func ParseLayout(raw []byte) (tactics.Layout, error) {
	var f layoutFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return tactics.Layout{}, fmt.Errorf("parse layout: %w", err)
	}
	if len(f.Player1) != tactics.UnitsPerSide || len(f.Player2) != tactics.UnitsPerSide {
		return tactics.Layout{}, fmt.Errorf("layout needs %d cells per side, got %d and %d",
			tactics.UnitsPerSide, len(f.Player1), len(f.Player2))
	}
	var l tactics.Layout
	copy(l[:tactics.UnitsPerSide], f.Player1)
	copy(l[tactics.UnitsPerSide:], f.Player2)
	if err := l.Validate(); err != nil {
		return tactics.Layout{}, err
	}
	return l, nil
}
