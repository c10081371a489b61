package bridge

import (
	"context"

	"github.com/danielpatrickdp/player-randomizer/internal/classmod"
	"github.com/danielpatrickdp/player-randomizer/internal/tree"
)

// Recorder keeps every write in memory instead of sending it anywhere.
type Recorder struct {
	Trees []tree.Tree
	Mods  []classmod.Assignment
}

// ApplyTree records t.
func (r *Recorder) ApplyTree(_ context.Context, t tree.Tree) error {
	r.Trees = append(r.Trees, t.Clone())
	return nil
}

// ApplyClassMods records a copy of a.
func (r *Recorder) ApplyClassMods(_ context.Context, a classmod.Assignment) error {
	cp := make(classmod.Assignment, len(a))
	for id, slots := range a {
		s := make(map[int]string, len(slots))
		for i, name := range slots {
			s[i] = name
		}
		cp[id] = s
	}
	r.Mods = append(r.Mods, cp)
	return nil
}

// LastTree returns the most recent tree written.
func (r *Recorder) LastTree() (tree.Tree, bool) {
	if len(r.Trees) == 0 {
		return tree.Tree{}, false
	}
	return r.Trees[len(r.Trees)-1], true
}

// LastMods returns the most recent assignment written.
func (r *Recorder) LastMods() (classmod.Assignment, bool) {
	if len(r.Mods) == 0 {
		return nil, false
	}
	return r.Mods[len(r.Mods)-1], true
}
