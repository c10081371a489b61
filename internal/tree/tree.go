package tree

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/danielpatrickdp/player-randomizer/internal/catalog"
)

// FromDef converts a harvested tree definition. Missing branches and tiers
// stay empty.
func FromDef(character, actionSkill string, def catalog.TreeDef) Tree {
	t := Tree{Character: character, ActionSkill: actionSkill}
	for b := 0; b < len(t.Branches) && b < len(def.Branches); b++ {
		bd := def.Branches[b]
		t.Branches[b].Name = bd.Name
		t.Branches[b].LayoutName = bd.LayoutName
		for i := 0; i < Tiers && i < len(bd.Tiers); i++ {
			t.Branches[b].Tiers[i] = Tier{
				Skills:         append([]string(nil), bd.Tiers[i].Skills...),
				Layout:         bd.Tiers[i].Layout,
				PointsToUnlock: bd.Tiers[i].PointsToUnlock,
			}
		}
	}
	return t
}

// Clone returns a deep copy.
func (t Tree) Clone() Tree {
	out := t
	for b := range out.Branches {
		for i := range out.Branches[b].Tiers {
			out.Branches[b].Tiers[i].Skills = append([]string(nil), t.Branches[b].Tiers[i].Skills...)
		}
	}
	return out
}

// Find returns the branch and tier holding name.
func (t Tree) Find(name string) (branch, tier int, ok bool) {
	for b, br := range t.Branches {
		for i, tr := range br.Tiers {
			for _, s := range tr.Skills {
				if s == name {
					return b, i, true
				}
			}
		}
	}
	return -1, -1, false
}

// Skills returns every branch skill in branch, tier, slot order.
func (t Tree) Skills() []string {
	var out []string
	for _, br := range t.Branches {
		for _, tr := range br.Tiers {
			out = append(out, tr.Skills...)
		}
	}
	return out
}

// Digest is the sha256 of the canonical JSON encoding.
func (t Tree) Digest() string {
	raw, err := json.Marshal(t)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
