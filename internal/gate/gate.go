// Package gate rejects generation requests that can never succeed before any
// synthesis or writer runs.
package gate

import (
	"fmt"

	"github.com/danielpatrickdp/player-randomizer/internal/catalog"
	"github.com/danielpatrickdp/player-randomizer/internal/tree"
)

// #region gate
// Gate evaluates whether a generation request may proceed.
type Gate struct {
	config GateConfig
}

// NewGate creates a gate with the given configuration.
func NewGate(config GateConfig) *Gate {
	return &Gate{config: config}
}

// Evaluate runs every hard veto against req and reports all that fire.
func (g *Gate) Evaluate(cat *catalog.Catalog, req tree.Request) GateDecision {
	var vetoes []VetoSignal

	// 1. Sources
	var enabled []string
	for _, name := range req.Enabled {
		if _, ok := cat.Character(name); !ok {
			vetoes = append(vetoes, VetoSignal{
				Type:   VetoUnknownSource,
				Reason: fmt.Sprintf("character %q is not in the catalog", name),
			})
			continue
		}
		enabled = append(enabled, name)
	}
	if len(enabled) == 0 {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoNoSources,
			Reason: "no enabled skill sources",
		})
	}

	// 2. Visibility and density
	if !req.Visibility.Valid() {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoConstraint,
			Reason: fmt.Sprintf("unknown visibility %q", req.Visibility),
		})
	}
	if req.Density < g.config.MinDensity || req.Density > g.config.MaxDensity {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoConstraint,
			Reason: fmt.Sprintf("density %.2f outside [%.0f, %.0f]", req.Density, g.config.MinDensity, g.config.MaxDensity),
		})
	}

	// 3. Forced skills
	if g.config.MaxForced > 0 && len(req.Forced) > g.config.MaxForced {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoConstraint,
			Reason: fmt.Sprintf("%d forced skills exceeds cap %d", len(req.Forced), g.config.MaxForced),
		})
	}
	active := make(map[string]bool)
	for _, s := range cat.Active(enabled, req.Visibility) {
		active[s.Name] = true
	}
	for _, f := range req.Forced {
		if f.MaxTier < 0 || f.MaxTier >= tree.Tiers {
			vetoes = append(vetoes, VetoSignal{
				Type:   VetoConstraint,
				Reason: fmt.Sprintf("forced skill %s max tier %d outside [0, %d]", f.Skill, f.MaxTier, tree.Tiers-1),
			})
		}
		if !active[f.Skill] {
			vetoes = append(vetoes, VetoSignal{
				Type:   VetoUnlistedSkill,
				Reason: fmt.Sprintf("forced skill %s is not in the active pool", f.Skill),
			})
		}
	}

	// 4. Action skill source
	if req.StrictAction && len(enabled) > 0 {
		if want, ok := actionSource(req, enabled); !ok {
			vetoes = append(vetoes, VetoSignal{
				Type:   VetoActionSource,
				Reason: fmt.Sprintf("action skill source %q is not an enabled character", want),
			})
		}
	}

	if len(vetoes) > 0 {
		return GateDecision{
			Action:      "reject",
			Reason:      fmt.Sprintf("hard veto: %s", vetoes[0].Reason),
			Vetoed:      true,
			VetoSignals: vetoes,
		}
	}

	return GateDecision{
		Action: "commit",
		Reason: fmt.Sprintf("passed gate: %d sources, %d forced", len(enabled), len(req.Forced)),
	}
}

// #endregion gate

// actionSource names the character the action skill would come from and
// whether it is enabled. Random is always satisfiable.
func actionSource(req tree.Request, enabled []string) (string, bool) {
	want := req.ActionSource
	switch want {
	case tree.ActionRandom:
		return want, true
	case "", tree.ActionDefault:
		want = req.Character
	}
	for _, name := range enabled {
		if name == want {
			return want, true
		}
	}
	return want, false
}
