// Package classmod re-points the skill slots of a character's class mods at
// skills from the generated tree and restores them on revert.
package classmod

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/danielpatrickdp/player-randomizer/internal/catalog"
	"github.com/danielpatrickdp/player-randomizer/internal/diag"
	"github.com/danielpatrickdp/player-randomizer/internal/rng"
)

// legendarySlots is the slot count that marks a legendary mod.
const legendarySlots = 4

// #region patcher
// Patcher holds the captured originals of the mods it may rewrite.
type Patcher struct {
	records   []Record
	protected map[string]bool
	special   string
}

// NewPatcher creates an empty patcher.
func NewPatcher() *Patcher {
	return &Patcher{protected: make(map[string]bool)}
}

// Capture records the current slots of mods, replacing earlier records.
// Records are kept sorted by mod id.
func (p *Patcher) Capture(mods []catalog.ClassMod) {
	p.records = p.records[:0]
	p.protected = make(map[string]bool)
	p.special = ""
	for _, m := range mods {
		rec := Record{ModID: m.ID, Class: m.Class, Slots: make(map[int]string, len(m.Slots))}
		for _, s := range m.Slots {
			rec.Slots[s.Index] = s.Skill
		}
		p.records = append(p.records, rec)
		if m.Protected {
			p.protected[m.ID] = true
		}
	}
	sort.Slice(p.records, func(i, j int) bool { return p.records[i].ModID < p.records[j].ModID })
}

// Records returns a copy of the captured originals.
func (p *Patcher) Records() []Record {
	out := make([]Record, len(p.records))
	for i, rec := range p.records {
		out[i] = Record{ModID: rec.ModID, Class: rec.Class, Slots: make(map[int]string, len(rec.Slots))}
		for k, v := range rec.Slots {
			out[i].Slots[k] = v
		}
	}
	return out
}

// Special is the mod chosen by the last Assign, or "" if none was.
func (p *Patcher) Special() string { return p.special }

// #endregion patcher

// #region assign

// Assign draws new slot skills for every captured mod of class. One
// unprotected mod is chosen to carry the forced skills; it must be legendary
// when more than three are forced and ordinary otherwise. Slots of the same
// mod never repeat a skill.
func (p *Patcher) Assign(skills []catalog.Skill, r *rand.Rand, class string, forced []string) (Assignment, []diag.Warning, error) {
	if len(skills) < MinSkills {
		return nil, nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientPool, len(skills), MinSkills)
	}

	var mods []Record
	for _, rec := range p.records {
		if rec.Class == class {
			mods = append(mods, rec)
		}
	}

	pending := append([]string(nil), forced...)
	sort.Strings(pending)

	var warnings []diag.Warning
	p.special = p.pickSpecial(mods, len(pending), r)
	if p.special == "" && len(mods) > 0 {
		warnings = append(warnings, diag.Warning{
			Kind:      diag.NoSpecialMod,
			Character: class,
			Message:   fmt.Sprintf("no unprotected class mod fits %d forced skills", len(pending)),
		})
	}

	out := make(Assignment, len(mods))
	for _, rec := range mods {
		slots := sortedSlots(rec.Slots)
		used := make(map[string]bool, len(slots))
		assigned := make(map[int]string, len(slots))
		for _, slot := range slots {
			if rec.ModID == p.special && len(pending) > 0 {
				name := pending[0]
				pending = pending[1:]
				used[name] = true
				assigned[slot] = name
				continue
			}
			name, ok := drawUnused(skills, used, r)
			if !ok {
				break
			}
			used[name] = true
			assigned[slot] = name
		}
		out[rec.ModID] = assigned
	}
	return out, warnings, nil
}

// pickSpecial rejection-samples the mod that carries the forced skills.
func (p *Patcher) pickSpecial(mods []Record, forced int, r *rand.Rand) string {
	fits := func(rec Record) bool {
		if p.protected[rec.ModID] {
			return false
		}
		if forced > 3 {
			return len(rec.Slots) >= legendarySlots
		}
		return len(rec.Slots) < legendarySlots
	}
	eligible := false
	for _, rec := range mods {
		if fits(rec) {
			eligible = true
			break
		}
	}
	if !eligible {
		return ""
	}
	for {
		rec := rng.Choice(r, mods)
		if fits(rec) {
			return rec.ModID
		}
	}
}

// drawUnused draws uniformly from skills until it finds one not in used.
func drawUnused(skills []catalog.Skill, used map[string]bool, r *rand.Rand) (string, bool) {
	free := false
	for _, s := range skills {
		if !used[s.Name] {
			free = true
			break
		}
	}
	if !free {
		return "", false
	}
	for {
		s := rng.Choice(r, skills)
		if !used[s.Name] {
			return s.Name, true
		}
	}
}

// #endregion assign

// #region revert

// Revert returns the original slot skills of every captured mod and drops
// the records.
func (p *Patcher) Revert() Assignment {
	out := Restore(p.records)
	p.records = nil
	p.special = ""
	return out
}

// Restore builds the assignment that puts records back in place.
func Restore(records []Record) Assignment {
	if len(records) == 0 {
		return nil
	}
	out := make(Assignment, len(records))
	for _, rec := range records {
		slots := make(map[int]string, len(rec.Slots))
		for k, v := range rec.Slots {
			slots[k] = v
		}
		out[rec.ModID] = slots
	}
	return out
}

// #endregion revert

func sortedSlots(slots map[int]string) []int {
	out := make([]int, 0, len(slots))
	for k := range slots {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
