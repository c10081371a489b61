// Package tree synthesizes randomized skill trees.
package tree

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/danielpatrickdp/player-randomizer/internal/catalog"
	"github.com/danielpatrickdp/player-randomizer/internal/diag"
	"github.com/danielpatrickdp/player-randomizer/internal/pool"
	"github.com/danielpatrickdp/player-randomizer/internal/rng"
)

var (
	// ErrNoSources is returned when no character is enabled.
	ErrNoSources = errors.New("no enabled skill sources")
	// ErrUnknownSource is returned when an enabled character is not in the catalog.
	ErrUnknownSource = errors.New("unknown skill source")
)

// #region synthesize

// Synthesize fills three branches of six tiers from the pooled skills of the
// enabled characters. Branch names and layout names are kept from original.
// The same catalog, request and generator state always yield the same result.
func Synthesize(cat *catalog.Catalog, original Tree, req Request, r *rand.Rand) (Result, error) {
	enabled, err := enabledSources(cat, req.Enabled)
	if err != nil {
		return Result{}, err
	}

	p := pool.New(cat, enabled, req.Visibility, r)

	forced := append([]Forced(nil), req.Forced...)
	sort.SliceStable(forced, func(i, j int) bool { return forced[i].Skill < forced[j].Skill })
	for _, f := range forced {
		if !p.Has(f.Skill) {
			return Result{}, &catalog.UnlistedSkillError{
				Skill:      f.Skill,
				Suggestion: cat.Suggest(f.Skill),
				Context:    "forced skill is not in the active pool",
			}
		}
	}

	s := &synth{cat: cat, pool: p, r: r, req: req, forced: forced, placed: make(map[string]bool)}

	action, err := s.actionCharacter(enabled)
	if err != nil {
		return Result{}, err
	}

	density := req.Density
	if density < 0 {
		density = 0
	}
	if density > 100 {
		density = 100
	}
	if float64(p.Len())*100 < MaxSkills*density {
		clamped := 100 * float64(p.Len()) / MaxSkills
		s.warn(diag.Warning{
			Kind:    diag.DensityClamped,
			Message: fmt.Sprintf("density %.2f needs more than %d pooled skills; using %.2f", density, p.Len(), clamped),
		})
		density = clamped
	}

	out := original.Clone()
	out.Character = req.Character
	out.ActionSkill = action.ActionSkill.Name
	p.Resolve(action.ActionSkill, -1)

	budgets := branchBudgets(MaxSkills * density / 100)
	var states [pool.Branches]branchState
	for b := range states {
		states[b] = branchState{expected: budgets[b], slotsLeft: Tiers * Slots}
	}

	for t := 0; t < Tiers; t++ {
		for b := 0; b < pool.Branches; b++ {
			out.Branches[b].Tiers[t] = s.fillTier(&states[b], b, t)
		}
	}

	for _, f := range forced {
		if _, tier, ok := out.Find(f.Skill); !ok || tier > f.MaxTier {
			s.warn(diag.Warning{
				Kind:    diag.ForcedUnplaced,
				Skill:   f.Skill,
				Message: fmt.Sprintf("forced skill not placed by tier %d", f.MaxTier),
			})
		}
	}

	return Result{
		Tree:             out,
		ActionCharacter:  action.Name,
		EffectiveDensity: density,
		ClassModSkills:   p.ClassModSkills(),
		MinWeight:        p.MinWeight(),
		Warnings:         append(s.warnings, p.Warnings()...),
	}, nil
}

// #endregion synthesize

// #region synth-state

type branchState struct {
	expected  int
	count     int
	slotsLeft int
}

type synth struct {
	cat      *catalog.Catalog
	pool     *pool.Pool
	r        *rand.Rand
	req      Request
	forced   []Forced
	placed   map[string]bool
	warnings []diag.Warning
}

func (s *synth) warn(w diag.Warning) {
	s.warnings = append(s.warnings, w)
}

// #endregion synth-state

// #region action-skill

func (s *synth) actionCharacter(enabled []string) (catalog.Character, error) {
	src := s.req.ActionSource
	if src == "" {
		src = ActionDefault
	}

	want := src
	switch src {
	case ActionRandom:
		return s.randomCharacter(enabled), nil
	case ActionDefault:
		want = s.req.Character
	}

	if ch, ok := s.cat.Character(want); ok && containsString(enabled, want) {
		return ch, nil
	}

	if s.req.StrictAction {
		return catalog.Character{}, &catalog.UnlistedSkillError{
			Skill:   want,
			Context: "action skill source is not an enabled character",
		}
	}
	ch := s.randomCharacter(enabled)
	s.warn(diag.Warning{
		Kind:      diag.ActionFallback,
		Character: ch.Name,
		Message:   fmt.Sprintf("action skill source %q (%s) not enabled; using %s", src, want, ch.Name),
	})
	return ch, nil
}

func (s *synth) randomCharacter(enabled []string) catalog.Character {
	ch, _ := s.cat.Character(rng.Choice(s.r, enabled))
	return ch
}

// #endregion action-skill

// #region fill-tier

func (s *synth) fillTier(st *branchState, b, t int) Tier {
	due := s.weightForced(b, t)

	density := float64(st.expected-st.count) / float64(st.slotsLeft)
	n := TierCount(density, s.r)
	if n < due {
		n = due
		if n > Slots {
			n = Slots
		}
	}

	var tier Tier
	maxGrade, totalGrade := 0, 0
	for k := 0; k < n; k++ {
		sk, err := s.pool.Draw(b)
		if err != nil {
			s.warn(diag.Warning{
				Kind:    diag.PoolExhausted,
				Message: fmt.Sprintf("branch %d tier %d: placed %d of %d skills: %v", b, t, k, n, err),
			})
			break
		}
		tier.Skills = append(tier.Skills, sk.Name)
		s.placed[sk.Name] = true
		totalGrade += sk.MaxGrade
		if sk.MaxGrade > maxGrade {
			maxGrade = sk.MaxGrade
		}
	}
	drawn := len(tier.Skills)
	tier.Layout = Layout(drawn)
	tier.PointsToUnlock = UnlockPoints(maxGrade, totalGrade, s.req.RandomizeTiers, s.r)

	st.count += drawn
	st.slotsLeft -= Slots

	if t == Tiers-1 {
		for _, name := range s.pool.TakeExtraSkills() {
			if !s.placed[name] {
				s.placed[name] = true
				s.pool.Consume(name)
				tier.Skills = append(tier.Skills, name)
			}
		}
	}
	return tier
}

// weightForced re-weights the forced skills still drawable in branch b before
// the draws of tier t. Returns how many of them are due at priority.
func (s *synth) weightForced(b, t int) int {
	due := 0
	for _, f := range s.forced {
		i, _ := s.pool.Index(f.Skill)
		w := s.pool.Weight(b, i)
		if w == 0 {
			continue
		}
		rest := s.pool.TotalWeight(b) - w
		if rest <= 0 {
			if f.MaxTier <= t {
				due++
			}
			continue
		}

		var nw float64
		priority := false
		switch {
		case f.MaxTier < t:
			priority = true
		case s.restricted(i, b):
			if t == f.MaxTier {
				priority = true
			} else {
				nw = rest / float64(f.MaxTier-t)
			}
		default:
			if t == f.MaxTier && b == pool.Branches-1 {
				priority = true
			} else {
				nw = rest / float64(Slots*(f.MaxTier-t)+pool.Branches-1-b)
			}
		}
		if priority {
			nw = rest * pool.PriorityWeight
			due++
		}
		s.pool.SetWeight(b, i, nw)
	}
	return due
}

// restricted reports whether skill i has already been steered away from
// every branch but b.
func (s *synth) restricted(i, b int) bool {
	for other := 0; other < pool.Branches; other++ {
		if other != b && s.pool.Weight(other, i) == 0 {
			return true
		}
	}
	return false
}

// #endregion fill-tier

func enabledSources(cat *catalog.Catalog, names []string) ([]string, error) {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		if _, ok := cat.Character(name); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSource, name)
		}
		out = append(out, name)
	}
	if len(out) == 0 {
		return nil, ErrNoSources
	}
	sort.Strings(out)
	return out, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
