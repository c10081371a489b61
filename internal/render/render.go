// Package render prints skill trees as text.
package render

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ddddddO/gtree"

	"github.com/danielpatrickdp/player-randomizer/internal/catalog"
	"github.com/danielpatrickdp/player-randomizer/internal/tree"
)

// Namer maps a unique skill name to the text shown for it.
type Namer func(name string) string

// DisplayNames resolves names through cat, falling back to the unique name.
func DisplayNames(cat *catalog.Catalog) Namer {
	return func(name string) string {
		if cat == nil {
			return name
		}
		if s, ok := cat.Skill(name); ok {
			return s.DisplayName
		}
		return name
	}
}

// Tree writes t as an indented tree: action skill, branches, tiers, skills.
// A nil name prints unique names.
func Tree(w io.Writer, t tree.Tree, name Namer) error {
	if name == nil {
		name = DisplayNames(nil)
	}
	root := gtree.NewRoot(fmt.Sprintf("%s (action: %s)", t.Character, name(t.ActionSkill)))
	for b, br := range t.Branches {
		label := br.Name
		if label == "" {
			label = fmt.Sprintf("Branch %d", b+1)
		}
		bn := root.Add(label)
		for i, tier := range br.Tiers {
			tn := bn.Add(fmt.Sprintf("Tier %d [%s] unlock %d", i+1, layout(tier.Layout), tier.PointsToUnlock))
			for _, s := range tier.Skills {
				tn.Add(name(s))
			}
		}
	}
	if err := gtree.OutputProgrammably(w, root); err != nil {
		return fmt.Errorf("render tree: %w", err)
	}
	return nil
}

// String renders t to a string.
func String(t tree.Tree, name Namer) (string, error) {
	var buf bytes.Buffer
	if err := Tree(&buf, t, name); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func layout(l [tree.Slots]bool) string {
	out := make([]byte, len(l))
	for i, used := range l {
		out[i] = '.'
		if used {
			out[i] = 'x'
		}
	}
	return string(out)
}
