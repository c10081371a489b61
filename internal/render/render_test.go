package render

import (
	"strings"
	"testing"

	"github.com/danielpatrickdp/player-randomizer/internal/catalog/catalogtest"
	"github.com/danielpatrickdp/player-randomizer/internal/tree"
)

func kriegTree() tree.Tree {
	k := catalogtest.Krieg()
	return tree.FromDef(k.Name, k.ActionSkill.Name, k.Tree)
}

func TestTreeDisplayNames(t *testing.T) {
	out, err := String(kriegTree(), DisplayNames(catalogtest.New(t)))
	if err != nil {
		t.Fatalf("String: %v", err)
	}
	for _, want := range []string{"Krieg (action: Buzz Axe Rampage)", "Bloodlust", "Tier 1 [x.x] unlock 5", "Mania 3-0"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "GD_Lilac_Skills.") {
		t.Errorf("unique names leaked into output:\n%s", out)
	}
}

func TestTreeUniqueNames(t *testing.T) {
	out, err := String(kriegTree(), nil)
	if err != nil {
		t.Fatalf("String: %v", err)
	}
	if !strings.Contains(out, catalogtest.SkillName("GD_Lilac_Skills", "Hellborn", 5, 0)) {
		t.Errorf("expected unique names:\n%s", out)
	}
}

func TestTreeUnnamedBranch(t *testing.T) {
	tr := kriegTree()
	tr.Branches[2].Name = ""
	out, err := String(tr, nil)
	if err != nil {
		t.Fatalf("String: %v", err)
	}
	if !strings.Contains(out, "Branch 3") {
		t.Errorf("expected fallback branch label:\n%s", out)
	}
}
