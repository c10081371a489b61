// Package params holds the user-facing generation parameters.
package params

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/player-randomizer/internal/catalog"
	"github.com/danielpatrickdp/player-randomizer/internal/tree"
)

// #region types
// ForcedSkill is a skill that must appear in the generated tree.
type ForcedSkill struct {
	Skill    string `yaml:"skill" json:"skill" validate:"required"`
	MaxTier  int    `yaml:"max_tier" json:"max_tier" validate:"gte=0,lte=5"`
	ClassMod bool   `yaml:"class_mod" json:"class_mod,omitempty"`
}

// Params are the generation parameters of one player.
type Params struct {
	Seed              int64              `yaml:"seed" json:"seed"`
	Sources           []string           `yaml:"sources" json:"sources" validate:"dive,required"`
	Visibility        catalog.Visibility `yaml:"visibility" json:"visibility" validate:"oneof=None Misdocumented All"`
	ActionSkill       string             `yaml:"action_skill" json:"action_skill" validate:"required"`
	StrictActionSkill bool               `yaml:"strict_action_skill" json:"strict_action_skill"`
	Density           float64            `yaml:"density" json:"density" validate:"gte=0,lte=100"`
	RandomizeTiers    bool               `yaml:"randomize_tiers" json:"randomize_tiers"`
	RandomizeComs     bool               `yaml:"randomize_coms" json:"randomize_coms"`
	ForcedSkills      []ForcedSkill      `yaml:"forced_skills" json:"forced_skills" validate:"dive"`
}

// #endregion types

// Default returns the parameters used when no file is given.
func Default() Params {
	return Params{
		Visibility:    catalog.VisibilityNone,
		ActionSkill:   tree.ActionDefault,
		Density:       63,
		RandomizeComs: true,
	}
}

// #region load
// Load reads a YAML parameter file over the defaults, normalizes and
// validates it.
func Load(path string) (Params, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Params{}, fmt.Errorf("read params %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes YAML parameters over the defaults.
func Parse(raw []byte) (Params, error) {
	p := Default()
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Params{}, fmt.Errorf("parse params: %w", err)
	}
	p.Normalize()
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// ParseJSON decodes parameters stored with a run.
func ParseJSON(s string) (Params, error) {
	p := Default()
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return Params{}, fmt.Errorf("parse params json: %w", err)
	}
	return p, nil
}

// JSON returns the canonical JSON form stored with each run.
func (p Params) JSON() string {
	raw, _ := json.Marshal(p)
	return string(raw)
}

// #endregion load

// #region validate
var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field ranges and enumerations.
func (p Params) Validate() error {
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s: failed %s", fe.Namespace(), fe.Tag())
			}
			return fmt.Errorf("invalid params: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}

// Normalize trims names and drops empty or repeated forced skills, keeping
// the first entry of each.
func (p *Params) Normalize() {
	p.ActionSkill = strings.TrimSpace(p.ActionSkill)
	seen := make(map[string]bool, len(p.ForcedSkills))
	out := p.ForcedSkills[:0]
	for _, f := range p.ForcedSkills {
		f.Skill = strings.TrimSpace(f.Skill)
		key := strings.ToLower(f.Skill)
		if f.Skill == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f)
	}
	p.ForcedSkills = out
}

// #endregion validate

// #region request
// Request builds the synthesis request for the player playing character.
// Forced skills are resolved by unique or display name; an empty source list
// enables every catalog character.
func (p Params) Request(cat *catalog.Catalog, character string) (tree.Request, error) {
	enabled := p.Sources
	if len(enabled) == 0 {
		enabled = cat.Names()
	}
	req := tree.Request{
		Character:      character,
		Enabled:        append([]string(nil), enabled...),
		Visibility:     p.Visibility,
		ActionSource:   p.ActionSkill,
		StrictAction:   p.StrictActionSkill,
		Density:        p.Density,
		RandomizeTiers: p.RandomizeTiers,
	}

	seen := make(map[string]bool)
	for _, f := range p.ForcedSkills {
		s, err := cat.Lookup(f.Skill)
		if err != nil {
			var unlisted *catalog.UnlistedSkillError
			if errors.As(err, &unlisted) {
				unlisted.Context = "forced_skills"
			}
			return tree.Request{}, err
		}
		if seen[s.Name] {
			continue
		}
		seen[s.Name] = true
		req.Forced = append(req.Forced, tree.Forced{Skill: s.Name, MaxTier: f.MaxTier, ClassMod: f.ClassMod})
	}
	return req, nil
}

// #endregion request
