package classmod

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/danielpatrickdp/player-randomizer/internal/catalog"
	"github.com/danielpatrickdp/player-randomizer/internal/catalog/catalogtest"
	"github.com/danielpatrickdp/player-randomizer/internal/diag"
)

// #region helpers
func capturedPatcher(t *testing.T) (*Patcher, *catalog.Catalog) {
	t.Helper()
	cat := catalogtest.New(t)
	p := NewPatcher()
	p.Capture(append(cat.ClassMods("Soldier"), cat.ClassMods("Psycho")...))
	return p, cat
}

func upgradable(n int) []catalog.Skill {
	ax := catalogtest.Axton()
	var out []catalog.Skill
	for _, s := range ax.Passive {
		if s.IsUpgradable() && len(out) < n {
			out = append(out, s)
		}
	}
	return out
}

// #endregion helpers

func TestAssignInsufficientPool(t *testing.T) {
	p, _ := capturedPatcher(t)
	_, _, err := p.Assign(upgradable(4), rand.New(rand.NewSource(1)), "Soldier", nil)
	if !errors.Is(err, ErrInsufficientPool) {
		t.Fatalf("expected ErrInsufficientPool, got %v", err)
	}
}

func TestAssignFillsEveryMod(t *testing.T) {
	p, _ := capturedPatcher(t)
	skills := upgradable(8)
	allowed := make(map[string]bool)
	for _, s := range skills {
		allowed[s.Name] = true
	}

	got, warnings, err := p.Assign(skills, rand.New(rand.NewSource(7)), "Soldier", nil)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if len(got) != 7 {
		t.Fatalf("assigned %d mods, want 7", len(got))
	}
	for _, rec := range p.Records() {
		if rec.Class != "Soldier" {
			if _, ok := got[rec.ModID]; ok {
				t.Errorf("assigned foreign mod %s", rec.ModID)
			}
			continue
		}
		slots := got[rec.ModID]
		if len(slots) != len(rec.Slots) {
			t.Errorf("%s: %d of %d slots", rec.ModID, len(slots), len(rec.Slots))
		}
		seen := make(map[string]bool)
		for _, name := range slots {
			if !allowed[name] {
				t.Errorf("%s: %s not from the upgradable list", rec.ModID, name)
			}
			if seen[name] {
				t.Errorf("%s: %s repeated", rec.ModID, name)
			}
			seen[name] = true
		}
	}
	if p.Special() == "" || strings.HasPrefix(p.Special(), "GD_Aster") {
		t.Errorf("special = %q", p.Special())
	}
}

func TestAssignForcedOrdinary(t *testing.T) {
	p, _ := capturedPatcher(t)
	forced := []string{"Z.Forced.B", "Z.Forced.A"}
	got, _, err := p.Assign(upgradable(8), rand.New(rand.NewSource(3)), "Soldier", forced)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	special := got[p.Special()]
	if len(special) != 3 {
		t.Fatalf("special mod %s has %d slots", p.Special(), len(special))
	}
	if special[0] != "Z.Forced.A" || special[1] != "Z.Forced.B" {
		t.Errorf("forced skills not popped in order: %v", special)
	}
}

func TestAssignForcedLegendary(t *testing.T) {
	p, _ := capturedPatcher(t)
	forced := []string{"F1", "F2", "F3", "F4"}
	got, _, err := p.Assign(upgradable(8), rand.New(rand.NewSource(3)), "Soldier", forced)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if p.Special() != "GD_ClassMods.Soldier.Legendary" {
		t.Fatalf("special = %s, want the legendary mod", p.Special())
	}
	for i, name := range forced {
		if got[p.Special()][i] != name {
			t.Errorf("slot %d = %s, want %s", i, got[p.Special()][i], name)
		}
	}
}

func TestAssignNoEligibleSpecial(t *testing.T) {
	cat := catalogtest.New(t)
	var mods []catalog.ClassMod
	for _, m := range cat.ClassMods("Soldier") {
		if m.Protected || len(m.Slots) >= 4 {
			mods = append(mods, m)
		}
	}
	p := NewPatcher()
	p.Capture(mods)

	_, warnings, err := p.Assign(upgradable(6), rand.New(rand.NewSource(1)), "Soldier", []string{"F1"})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if p.Special() != "" {
		t.Errorf("special = %q", p.Special())
	}
	if len(warnings) != 1 || warnings[0].Kind != diag.NoSpecialMod {
		t.Errorf("warnings = %v", warnings)
	}
}

func TestAssignDeterministic(t *testing.T) {
	run := func() string {
		p, _ := capturedPatcher(t)
		got, _, err := p.Assign(upgradable(10), rand.New(rand.NewSource(11)), "Soldier", []string{"F1"})
		if err != nil {
			t.Fatalf("Assign: %v", err)
		}
		return got.Digest()
	}
	if a, b := run(), run(); a != b {
		t.Errorf("digests differ: %s vs %s", a, b)
	}
}

func TestRevertRestoresCapture(t *testing.T) {
	p, cat := capturedPatcher(t)
	if _, _, err := p.Assign(upgradable(8), rand.New(rand.NewSource(5)), "Soldier", nil); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	restored := p.Revert()
	for _, m := range cat.ClassMods("Soldier") {
		slots, ok := restored[m.ID]
		if !ok {
			t.Fatalf("%s not restored", m.ID)
		}
		for _, s := range m.Slots {
			if slots[s.Index] != s.Skill {
				t.Errorf("%s slot %d = %s, want %s", m.ID, s.Index, slots[s.Index], s.Skill)
			}
		}
	}
	if len(p.Records()) != 0 {
		t.Error("records not dropped")
	}
	if p.Revert() != nil {
		t.Error("second revert should be empty")
	}
}

func TestAssignmentDigest(t *testing.T) {
	if d := (Assignment{}).Digest(); d != "" {
		t.Errorf("empty digest = %q", d)
	}
	a := Assignment{"ModA": {0: "S1", 1: "S2"}, "ModB": {0: "S3"}}
	b := Assignment{"ModB": {0: "S3"}, "ModA": {1: "S2", 0: "S1"}}
	if a.Digest() == "" || a.Digest() != b.Digest() {
		t.Errorf("digest not canonical: %q vs %q", a.Digest(), b.Digest())
	}
	b["ModB"][0] = "S4"
	if a.Digest() == b.Digest() {
		t.Error("different assignments share a digest")
	}
}
