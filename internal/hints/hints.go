// Package hints carries the built-in quirks of the shipped player characters.
package hints

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/player-randomizer/internal/catalog"
)

//go:embed hints.yaml
var builtin []byte

// #region types

// Hint lists the dependency declarations and suppressed helper skills of one character.
type Hint struct {
	Dependencies []catalog.Dependency `yaml:"dependencies"`
	Suppressed   []string             `yaml:"suppressed"`
}

// Set maps character names to hints.
type Set struct {
	Characters map[string]Hint `yaml:"characters"`
}

// #endregion types

// #region load

// Load parses the built-in hint set.
func Load() (Set, error) {
	return Parse(builtin)
}

// Parse decodes a YAML hint document.
func Parse(raw []byte) (Set, error) {
	var s Set
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return Set{}, fmt.Errorf("parse hints: %w", err)
	}
	for name, h := range s.Characters {
		for i, d := range h.Dependencies {
			if len(d.Providers) == 0 {
				return Set{}, fmt.Errorf("hint %s: dependency %d (%s) has no providers", name, i, d.Label)
			}
		}
	}
	return s, nil
}

// Names returns the hinted character names in sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s.Characters))
	for name := range s.Characters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// #endregion load

// #region apply

// Apply attaches hint dependencies to characters that declare none and merges
// suppressed names. Returns the number of characters changed.
func (s Set) Apply(f *catalog.File) int {
	changed := 0
	for i := range f.Characters {
		fc := &f.Characters[i]
		h, ok := s.Characters[fc.Name]
		if !ok {
			continue
		}
		touched := false
		if len(fc.Dependencies) == 0 && len(h.Dependencies) > 0 {
			fc.Dependencies = append([]catalog.Dependency(nil), h.Dependencies...)
			touched = true
		}
		known := make(map[string]bool, len(fc.Suppressed))
		for _, name := range fc.Suppressed {
			known[name] = true
		}
		for _, name := range h.Suppressed {
			if !known[name] {
				fc.Suppressed = append(fc.Suppressed, name)
				known[name] = true
				touched = true
			}
		}
		if touched {
			changed++
		}
	}
	return changed
}

// #endregion apply

// LoadCatalog reads a catalog file, applies the built-in hints and builds it.
// Returns the number of characters the hints changed.
func LoadCatalog(path string) (*catalog.Catalog, int, error) {
	f, err := catalog.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	s, err := Load()
	if err != nil {
		return nil, 0, err
	}
	changed := s.Apply(f)
	cat, err := f.Build()
	if err != nil {
		return nil, 0, fmt.Errorf("build catalog %s: %w", path, err)
	}
	return cat, changed, nil
}
