// Package eval validates a synthesized tree before it is applied.
package eval

import (
	"fmt"

	"github.com/danielpatrickdp/player-randomizer/internal/tree"
)

// #region eval-harness
// EvalHarness runs the structural checks on a synthesis result.
type EvalHarness struct {
	config EvalConfig
}

// NewEvalHarness creates an eval harness with the given configuration.
func NewEvalHarness(config EvalConfig) *EvalHarness {
	return &EvalHarness{config: config}
}

// Run checks res against the properties every generated tree must hold.
func (h *EvalHarness) Run(res tree.Result, req tree.Request) EvalResult {
	var metrics []EvalMetric
	var hardFails, softFails []string

	check := func(name string, value float64, pass, hard bool, why string) {
		metrics = append(metrics, EvalMetric{Name: name, Value: value, Pass: pass, Hard: hard})
		if pass {
			return
		}
		if hard {
			hardFails = append(hardFails, why)
		} else {
			softFails = append(softFails, why)
		}
	}

	t := res.Tree
	counts := make(map[string]int)
	placed := 0
	asymmetric, mismatched, negative := 0, 0, 0
	for _, br := range t.Branches {
		for i, tier := range br.Tiers {
			for _, s := range tier.Skills {
				counts[s]++
			}
			placed += len(tier.Skills)
			if tier.Layout[0] != tier.Layout[2] {
				asymmetric++
			}
			occupied := 0
			for _, o := range tier.Layout {
				if o {
					occupied++
				}
			}
			// Granted skills may follow the drawn ones in the final tier.
			if (i < tree.Tiers-1 && occupied != len(tier.Skills)) || occupied > len(tier.Skills) {
				mismatched++
			}
			if tier.PointsToUnlock < 0 {
				negative++
			}
		}
	}
	duplicates := 0
	for _, n := range counts {
		if n > 1 {
			duplicates += n - 1
		}
	}

	// 1. Action skill
	_, inBranch := counts[t.ActionSkill]
	check("action_skill", boolValue(t.ActionSkill != ""), t.ActionSkill != "" && !inBranch, true,
		fmt.Sprintf("action skill %q missing or placed in a branch", t.ActionSkill))

	// 2. No duplicate draws
	check("duplicates", float64(duplicates), duplicates == 0, true,
		fmt.Sprintf("%d duplicate placements", duplicates))

	// 3. Layout shape
	check("layout_symmetry", float64(asymmetric), asymmetric == 0, true,
		fmt.Sprintf("%d asymmetric tiers", asymmetric))
	check("layout_count", float64(mismatched), mismatched == 0, true,
		fmt.Sprintf("%d tiers whose layout disagrees with their skills", mismatched))

	// 4. Weights and thresholds
	check("min_weight", res.MinWeight, res.MinWeight >= 0, true,
		fmt.Sprintf("negative weight %.4f", res.MinWeight))
	check("unlock_points", float64(negative), negative == 0, true,
		fmt.Sprintf("%d negative unlock thresholds", negative))

	// 5. Forced placement
	missed := 0
	for _, f := range req.Forced {
		_, tier, ok := t.Find(f.Skill)
		if !ok || tier > f.MaxTier || counts[f.Skill] != 1 {
			missed++
		}
	}
	check("forced_placement", float64(missed), missed == 0, h.config.ForcedHard,
		fmt.Sprintf("%d forced skills missed their tier", missed))

	// 6. Placement volume, informational
	check("placed", float64(placed), placed >= h.config.MinPlacement, false,
		fmt.Sprintf("only %d skills placed", placed))

	reason := "all checks passed"
	switch {
	case len(hardFails) > 1:
		reason = fmt.Sprintf("eval failed: %d checks: %s", len(hardFails), hardFails[0])
	case len(hardFails) == 1:
		reason = fmt.Sprintf("eval failed: %s", hardFails[0])
	case len(softFails) > 0:
		reason = fmt.Sprintf("soft check failed: %s", softFails[0])
	}

	return EvalResult{
		Passed:     len(hardFails) == 0,
		SoftPassed: len(softFails) == 0,
		Metrics:    metrics,
		Reason:     reason,
	}
}

// #endregion eval-harness

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
