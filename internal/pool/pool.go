// Package pool implements the dependency-aware weighted draw without
// replacement that fills a skill tree.
package pool

import (
	"fmt"
	"math/rand"

	"github.com/danielpatrickdp/player-randomizer/internal/catalog"
	"github.com/danielpatrickdp/player-randomizer/internal/diag"
	"github.com/danielpatrickdp/player-randomizer/internal/rng"
)

// #region pool
// Pool holds the active skills, per-branch weights and the live dependency
// registry of one synthesis run. A Pool is not safe for concurrent use.
type Pool struct {
	strict bool
	r      *rand.Rand

	skills []catalog.Skill
	index  map[string]int

	weights [Branches][]float64
	totals  [Branches]float64

	// deps maps every provider of an unsatisfied dependency to its shared record.
	deps     map[string]*catalog.Dependency
	depOrder []string

	extra     []string
	classMod  []catalog.Skill
	minWeight float64
	warnings  []diag.Warning
	warned    map[string]bool
}

// New builds the pool for the enabled characters. Every active skill starts
// with weight 1.0 in every branch.
func New(cat *catalog.Catalog, enabled []string, v catalog.Visibility, r *rand.Rand) *Pool {
	p := &Pool{
		strict:    v.Strict(),
		r:         r,
		skills:    cat.Active(enabled, v),
		deps:      make(map[string]*catalog.Dependency),
		minWeight: 1,
		warned:    make(map[string]bool),
	}
	p.index = make(map[string]int, len(p.skills))
	for i, s := range p.skills {
		p.index[s.Name] = i
	}
	for b := 0; b < Branches; b++ {
		p.weights[b] = make([]float64, len(p.skills))
		for i := range p.weights[b] {
			p.weights[b][i] = 1
		}
		p.totals[b] = float64(len(p.skills))
	}

	for _, d := range cat.Dependencies(enabled) {
		rec := d
		for _, prov := range rec.Providers {
			if _, seen := p.deps[prov]; !seen {
				p.depOrder = append(p.depOrder, prov)
			}
			p.deps[prov] = &rec
		}
	}
	return p
}

// #endregion pool

// #region accessors

// Len is the number of skills in the pool.
func (p *Pool) Len() int { return len(p.skills) }

// Skill returns the skill at position i of the sorted order.
func (p *Pool) Skill(i int) catalog.Skill { return p.skills[i] }

// Index returns the position of a skill in the sorted order.
func (p *Pool) Index(name string) (int, bool) {
	i, ok := p.index[name]
	return i, ok
}

// Has reports whether the skill is in the active pool.
func (p *Pool) Has(name string) bool {
	_, ok := p.index[name]
	return ok
}

// Weight returns the current weight of skill i in branch b.
func (p *Pool) Weight(b, i int) float64 { return p.weights[b][i] }

// TotalWeight returns the running weight sum of branch b.
func (p *Pool) TotalWeight(b int) float64 { return p.totals[b] }

// SetWeight replaces the weight of skill i in branch b and adjusts the
// branch total by the difference.
func (p *Pool) SetWeight(b, i int, w float64) {
	p.totals[b] += w - p.weights[b][i]
	p.weights[b][i] = w
	if w < p.minWeight {
		p.minWeight = w
	}
}

// MinWeight is the smallest weight ever assigned.
func (p *Pool) MinWeight() float64 { return p.minWeight }

// Consume zeroes the weight of name in every branch so it cannot be drawn.
// Used for skills placed without a draw. Returns whether name was pooled.
func (p *Pool) Consume(name string) bool {
	i, ok := p.index[name]
	if !ok {
		return false
	}
	for b := 0; b < Branches; b++ {
		p.SetWeight(b, i, 0)
	}
	return true
}

// Pending reports whether name still provides an unsatisfied dependency.
func (p *Pool) Pending(name string) bool {
	_, ok := p.deps[name]
	return ok
}

// TakeExtraSkills drains the queue of granted skills, without duplicates.
func (p *Pool) TakeExtraSkills() []string {
	seen := make(map[string]bool, len(p.extra))
	var out []string
	for _, name := range p.extra {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	p.extra = nil
	return out
}

// ClassModSkills returns the drawn upgradable skills in draw order.
func (p *Pool) ClassModSkills() []catalog.Skill {
	return append([]catalog.Skill(nil), p.classMod...)
}

// Warnings returns the diagnostics collected so far.
func (p *Pool) Warnings() []diag.Warning {
	return append([]diag.Warning(nil), p.warnings...)
}

// #endregion accessors

// #region resolve

// Resolve records that s was placed in branch (-1 for the action skill).
// If s provides an unsatisfied dependency, the dependency's themed skills are
// steered into branch and the dependency is consumed. Returns whether a
// dependency was consumed and the skills it granted.
func (p *Pool) Resolve(s catalog.Skill, branch int) (bool, []string) {
	consumed := false
	var granted []string

	if d, ok := p.deps[s.Name]; ok {
		consumed = true
		seen := make(map[string]bool)
		for _, name := range d.Themed(p.strict) {
			i, ok := p.index[name]
			if !ok || seen[name] {
				continue
			}
			seen[name] = true
			for b := 0; b < Branches; b++ {
				w := p.weights[b][i]
				switch {
				case branch < 0:
					w *= ActionWeight
				case b == branch:
					w *= ThemeWeight
				default:
					w = 0
				}
				p.SetWeight(b, i, w)
			}
		}
		granted = append(granted, d.Grants...)
		p.extra = append(p.extra, d.Grants...)
		for _, prov := range d.Providers {
			delete(p.deps, prov)
		}
	}

	if i, ok := p.index[s.Name]; ok {
		for b := 0; b < Branches; b++ {
			p.SetWeight(b, i, 0)
		}
		if s.IsUpgradable() {
			p.classMod = append(p.classMod, s)
		}
	}
	return consumed, granted
}

// #endregion resolve

// #region draw

type exclusion struct {
	i int
	w float64
}

// Draw samples one skill for branch and resolves it. A skill that depends on
// an unsatisfied dependency is replaced by one of the dependency's providers;
// when no provider can be placed in this branch the skill is set aside for the
// rest of this draw.
func (p *Pool) Draw(branch int) (catalog.Skill, error) {
	var excluded []exclusion
	restore := func() {
		for _, e := range excluded {
			p.SetWeight(branch, e.i, e.w)
		}
		excluded = nil
	}

	for {
		i := rng.WeightedIndex(p.r, p.weights[branch], p.totals[branch])
		if i < 0 {
			restore()
			return catalog.Skill{}, ErrPoolExhausted
		}
		s := p.skills[i]

		d := p.blocking(s.Name)
		if d == nil {
			restore()
			p.Resolve(s, branch)
			return s, nil
		}

		sub := rng.Choice(p.r, d.Providers)
		if j, ok := p.index[sub]; ok && p.weights[branch][j] > 0 {
			restore()
			ps := p.skills[j]
			p.Resolve(ps, branch)
			return ps, nil
		}

		if !p.placeable(d, branch) {
			if !p.warned[s.Name] {
				p.warned[s.Name] = true
				p.warnings = append(p.warnings, diag.Warning{
					Kind:      diag.UnresolvableDependency,
					Skill:     s.Name,
					Character: s.Character,
					Message:   fmt.Sprintf("no provider of %q can be placed in branch %d", d.Label, branch),
				})
			}
			excluded = append(excluded, exclusion{i: i, w: p.weights[branch][i]})
			p.SetWeight(branch, i, 0)
		}
	}
}

// blocking returns the first live dependency that name must wait for.
func (p *Pool) blocking(name string) *catalog.Dependency {
	checked := make(map[*catalog.Dependency]bool)
	for _, key := range p.depOrder {
		d, ok := p.deps[key]
		if !ok || checked[d] {
			continue
		}
		checked[d] = true
		if d.Blocks(name, p.strict) {
			return d
		}
	}
	return nil
}

func (p *Pool) placeable(d *catalog.Dependency, branch int) bool {
	for _, prov := range d.Providers {
		if j, ok := p.index[prov]; ok && p.weights[branch][j] > 0 {
			return true
		}
	}
	return false
}

// #endregion draw
