// Package catalogtest builds small catalogs for tests.
package catalogtest

import (
	"fmt"
	"testing"

	"github.com/danielpatrickdp/player-randomizer/internal/catalog"
)

// tierSizes is the number of skills per tier in every sample branch.
var tierSizes = [6]int{2, 3, 2, 3, 2, 1}

const (
	AxtonAction   = "GD_Soldier_Skills.Scorpio.Skill_Scorpio"
	KriegAction   = "GD_Lilac_SkillsBase.ActionSkill.Skill_Psycho"
	BloodlustBuff = "GD_Lilac_Skills_Bloodlust.Skills._Bloodlust"
	KriegHidden   = "GD_Lilac_Skills_Mania.Skills.Hidden"
	KriegHelper   = "GD_Lilac_Skills_Bloodlust.Skills.BloodBathChild"
)

// SkillName returns the unique name of a sample passive skill.
func SkillName(prefix, branch string, tier, i int) string {
	return fmt.Sprintf("%s.%s.S%d%d", prefix, branch, tier, i)
}

func branchSkills(prefix string, branches [3]string) ([]catalog.Skill, catalog.TreeDef) {
	var skills []catalog.Skill
	var tree catalog.TreeDef
	for _, branch := range branches {
		def := catalog.BranchDef{Name: branch, LayoutName: branch + "Layout"}
		for t, n := range tierSizes {
			tier := catalog.TierDef{PointsToUnlock: 5}
			for i := 0; i < n; i++ {
				grade := 5
				if t == 5 {
					grade = 1
				}
				s := catalog.Skill{
					Name:        SkillName(prefix, branch, t, i),
					DisplayName: fmt.Sprintf("%s %d-%d", branch, t, i),
					MaxGrade:    grade,
				}
				skills = append(skills, s)
				tier.Skills = append(tier.Skills, s.Name)
			}
			tier.Layout = [3]bool{n > 1, n&1 > 0, n > 1}
			def.Tiers = append(def.Tiers, tier)
		}
		tree.Branches = append(tree.Branches, def)
	}
	return skills, tree
}

// Axton returns a soldier whose action skill is required by three passives.
func Axton() catalog.Character {
	prefix := "GD_Soldier_Skills"
	passive, tree := branchSkills(prefix, [3]string{"Guerrilla", "Gunpowder", "Survival"})
	return catalog.Character{
		Name:        "Axton",
		Class:       "Soldier",
		ActionSkill: catalog.Skill{Name: AxtonAction, DisplayName: "Sabre Turret", MaxGrade: 1},
		Passive:     passive,
		Dependencies: []catalog.Dependency{{
			Label:     "Scorpio",
			Providers: []string{AxtonAction},
			Dependers: []string{
				SkillName(prefix, "Guerrilla", 1, 0),
				SkillName(prefix, "Gunpowder", 1, 0),
				SkillName(prefix, "Survival", 1, 0),
			},
		}},
		Tree: tree,
	}
}

// Krieg returns a psycho with a passive-provided dependency that grants an
// extra skill, wanters of the action skill and two undocumented skills.
func Krieg() catalog.Character {
	prefix := "GD_Lilac_Skills"
	passive, tree := branchSkills(prefix, [3]string{"Bloodlust", "Mania", "Hellborn"})
	return catalog.Character{
		Name:          "Krieg",
		Class:         "Psycho",
		ActionSkill:   catalog.Skill{Name: KriegAction, DisplayName: "Buzz Axe Rampage", MaxGrade: 1},
		Passive:       passive,
		Extra:         []catalog.Skill{{Name: BloodlustBuff, DisplayName: "Bloodlust", MaxGrade: 1}},
		Misdocumented: []catalog.Skill{{Name: KriegHidden, DisplayName: "Hidden Rage", MaxGrade: 5}},
		Suppressed:    []catalog.Skill{{Name: KriegHelper, DisplayName: "Blood Bath Child", MaxGrade: 1}},
		Dependencies: []catalog.Dependency{
			{
				Label:     "BuzzAxe",
				Providers: []string{KriegAction},
				Dependers: []string{SkillName(prefix, "Mania", 3, 0)},
				Wanters:   []string{SkillName(prefix, "Mania", 1, 0), SkillName(prefix, "Mania", 1, 1)},
			},
			{
				Label:     "Bloodlust",
				Providers: []string{SkillName(prefix, "Bloodlust", 0, 0), SkillName(prefix, "Bloodlust", 0, 1)},
				Dependers: []string{
					SkillName(prefix, "Bloodlust", 2, 0),
					SkillName(prefix, "Bloodlust", 2, 1),
					SkillName(prefix, "Bloodlust", 3, 0),
				},
				Grants: []string{BloodlustBuff},
			},
		},
		Tree: tree,
	}
}

// ClassMods returns five ordinary mods, one four-slot mod and one protected
// mod for the character.
func ClassMods(ch catalog.Character) []catalog.ClassMod {
	var mods []catalog.ClassMod
	pick := func(n, offset int) []catalog.ModSlot {
		slots := make([]catalog.ModSlot, n)
		for i := range slots {
			slots[i] = catalog.ModSlot{Index: i, Skill: ch.Passive[(offset+i*3)%len(ch.Passive)].Name}
		}
		return slots
	}
	for i := 0; i < 5; i++ {
		mods = append(mods, catalog.ClassMod{
			ID:    fmt.Sprintf("GD_ClassMods.%s.Mod%d", ch.Class, i),
			Class: ch.Class,
			Slots: pick(3, i),
		})
	}
	mods = append(mods,
		catalog.ClassMod{ID: fmt.Sprintf("GD_ClassMods.%s.Legendary", ch.Class), Class: ch.Class, Slots: pick(4, 7)},
		catalog.ClassMod{ID: fmt.Sprintf("GD_Aster_ClassMods.%s.Dragon", ch.Class), Class: ch.Class, Protected: true, Slots: pick(3, 2)},
	)
	return mods
}

// New builds the two-character sample catalog.
func New(t testing.TB) *catalog.Catalog {
	t.Helper()
	ax, kr := Axton(), Krieg()
	mods := append(ClassMods(ax), ClassMods(kr)...)
	cat, err := catalog.New([]catalog.Character{ax, kr}, mods)
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return cat
}
