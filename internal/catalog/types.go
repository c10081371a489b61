package catalog

// #region visibility
// Visibility selects which undocumented skills join the active pool.
type Visibility string

const (
	VisibilityNone          Visibility = "None"          // documented skills only; wanters are treated as dependers
	VisibilityMisdocumented Visibility = "Misdocumented" // + misdocumented skills
	VisibilityAll           Visibility = "All"           // + suppressed skills; no dependency blocking
)

// Strict reports whether wanters must be handled like dependers.
func (v Visibility) Strict() bool {
	return v == VisibilityNone
}

// Valid reports whether v is one of the known policies.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityNone, VisibilityMisdocumented, VisibilityAll:
		return true
	}
	return false
}

// #endregion visibility

// #region skill
// Skill is one skill definition harvested from the game data.
type Skill struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Character   string `json:"character"`
	MaxGrade    int    `json:"max_grade"`
	IsAction    bool   `json:"is_action,omitempty"`
}

// IsUpgradable reports whether the skill can take points or class mod boosts.
func (s Skill) IsUpgradable() bool {
	return s.MaxGrade > 1
}

// #endregion skill

// #region dependency
// Dependency declares how a group of skills relate to each other.
type Dependency struct {
	Label     string   `json:"label" yaml:"label"`
	Providers []string `json:"providers" yaml:"providers"`
	Dependers []string `json:"dependers,omitempty" yaml:"dependers"`
	Wanters   []string `json:"wanters,omitempty" yaml:"wanters"`
	Grants    []string `json:"grants,omitempty" yaml:"grants"`
}

// Themed returns the skills steered together once the dependency is consumed.
// Wanters are only included for strict policies.
func (d *Dependency) Themed(strict bool) []string {
	out := make([]string, 0, len(d.Providers)+len(d.Dependers)+len(d.Wanters))
	out = append(out, d.Providers...)
	out = append(out, d.Dependers...)
	if strict {
		out = append(out, d.Wanters...)
	}
	return out
}

// Blocks reports whether name must be substituted by a provider while d is unsatisfied.
func (d *Dependency) Blocks(name string, strict bool) bool {
	if contains(d.Dependers, name) {
		return true
	}
	return strict && contains(d.Wanters, name)
}

// #endregion dependency

// #region tree-def
// TierDef is one tier of a branch as it exists in the game.
type TierDef struct {
	Skills         []string `json:"skills"`
	Layout         [3]bool  `json:"layout"`
	PointsToUnlock int      `json:"points_to_unlock"`
}

// BranchDef is one of the three skill tree branches.
type BranchDef struct {
	Name       string    `json:"name"`
	LayoutName string    `json:"layout_name,omitempty"`
	Tiers      []TierDef `json:"tiers"`
}

// TreeDef is the skill tree a character ships with.
type TreeDef struct {
	Branches []BranchDef `json:"branches"`
}

// #endregion tree-def

// #region character
// Character groups the skills and quirks of one playable class.
type Character struct {
	Name          string
	Class         string
	ActionSkill   Skill
	Passive       []Skill
	Extra         []Skill
	Misdocumented []Skill
	Suppressed    []Skill
	Dependencies  []Dependency
	Tree          TreeDef
}

// #endregion character

// #region class-mod
// ModSlot is one skill boost on a class mod.
type ModSlot struct {
	Index int    `json:"index"`
	Skill string `json:"skill"`
}

// ClassMod is a class mod item definition with its skill slots.
type ClassMod struct {
	ID        string    `json:"id"`
	Class     string    `json:"class"`
	Protected bool      `json:"protected,omitempty"`
	Slots     []ModSlot `json:"slots"`
}

// #endregion class-mod

func contains(list []string, name string) bool {
	for _, s := range list {
		if s == name {
			return true
		}
	}
	return false
}
