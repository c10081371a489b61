package tree

import (
	"github.com/danielpatrickdp/player-randomizer/internal/catalog"
	"github.com/danielpatrickdp/player-randomizer/internal/diag"
	"github.com/danielpatrickdp/player-randomizer/internal/pool"
)

// #region shape
const (
	Tiers     = 6
	Slots     = 3
	MaxSkills = Tiers * Slots * pool.Branches // 54
)

// Action skill sources besides a character name.
const (
	ActionDefault = "Default"
	ActionRandom  = "Random"
)

// #endregion shape

// #region branch
// Tier is one row of a branch.
type Tier struct {
	Skills         []string    `json:"skills"`
	Layout         [Slots]bool `json:"layout"`
	PointsToUnlock int         `json:"points_to_unlock"`
}

// Branch is one of the three columns of a skill tree.
type Branch struct {
	Name       string      `json:"name"`
	LayoutName string      `json:"layout_name,omitempty"`
	Tiers      [Tiers]Tier `json:"tiers"`
}

// Tree is a full skill tree: the action skill plus three branches.
type Tree struct {
	Character   string                `json:"character"`
	ActionSkill string                `json:"action_skill"`
	Branches    [pool.Branches]Branch `json:"branches"`
}

// #endregion branch

// #region request
// Forced is a skill that must appear no later than MaxTier (0-based).
type Forced struct {
	Skill    string `json:"skill"`
	MaxTier  int    `json:"max_tier"`
	ClassMod bool   `json:"class_mod,omitempty"`
}

// Request holds the parameters of one synthesis.
type Request struct {
	Character      string             `json:"character"`
	Enabled        []string           `json:"enabled"`
	Visibility     catalog.Visibility `json:"visibility"`
	ActionSource   string             `json:"action_source"`
	StrictAction   bool               `json:"strict_action,omitempty"`
	Density        float64            `json:"density"`
	RandomizeTiers bool               `json:"randomize_tiers,omitempty"`
	Forced         []Forced           `json:"forced,omitempty"`
}

// #endregion request

// #region result
// Result is the outcome of one synthesis.
type Result struct {
	Tree             Tree
	ActionCharacter  string
	EffectiveDensity float64
	ClassModSkills   []catalog.Skill
	MinWeight        float64
	Warnings         []diag.Warning
}

// #endregion result
