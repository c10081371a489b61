// Package graph analyses the dependency declarations of a catalog.
package graph

import (
	"fmt"
	"sort"

	"github.com/danielpatrickdp/player-randomizer/internal/catalog"
)

// #region types
// Edge types.
const (
	EdgeDepends = "depends"
	EdgeWants   = "wants"
	EdgeGrants  = "grants"
)

// Edge links a provider to a skill that needs, wants or is granted by it.
type Edge struct {
	SourceID string
	TargetID string
	EdgeType string
	Label    string
}

// WalkResult holds an ordered path from a graph walk.
type WalkResult struct {
	IDs    []string // node IDs in walk order
	Depths []int    // hop count of each node from the entry
}

// Graph is the provider graph of one catalog.
type Graph struct {
	cat   *catalog.Catalog
	deps  []catalog.Dependency
	edges map[string][]Edge
}

// #endregion types

// #region constructor
// New builds the graph from the dependencies of every catalog character.
func New(cat *catalog.Catalog) *Graph {
	g := &Graph{cat: cat, edges: make(map[string][]Edge)}
	g.deps = cat.Dependencies(cat.Names())
	for _, d := range g.deps {
		for _, p := range d.Providers {
			g.addEdges(p, d.Dependers, EdgeDepends, d.Label)
			g.addEdges(p, d.Wanters, EdgeWants, d.Label)
			g.addEdges(p, d.Grants, EdgeGrants, d.Label)
		}
	}
	return g
}

func (g *Graph) addEdges(source string, targets []string, edgeType, label string) {
	for _, t := range targets {
		g.edges[source] = append(g.edges[source], Edge{SourceID: source, TargetID: t, EdgeType: edgeType, Label: label})
	}
}

// #endregion constructor

// Neighbors returns the edges leaving nodeID in declaration order.
func (g *Graph) Neighbors(nodeID string) []Edge {
	return append([]Edge(nil), g.edges[nodeID]...)
}

// #region walk
// Walk performs a BFS from entryID up to maxDepth hops and maxNodes total.
// Returns the skills the entry unlocks, directly or through granted and
// dependent providers, in visit order.
func (g *Graph) Walk(entryID string, maxDepth, maxNodes int) WalkResult {
	if maxDepth <= 0 {
		maxDepth = 5
	}
	if maxNodes <= 0 {
		maxNodes = 10
	}

	result := WalkResult{IDs: []string{entryID}, Depths: []int{0}}
	visited := map[string]bool{entryID: true}

	type queueItem struct {
		id    string
		depth int
	}
	queue := []queueItem{{entryID, 0}}

	for len(queue) > 0 && len(result.IDs) < maxNodes {
		current := queue[0]
		queue = queue[1:]
		if current.depth >= maxDepth {
			continue
		}
		for _, edge := range g.edges[current.id] {
			if len(result.IDs) >= maxNodes {
				break
			}
			if visited[edge.TargetID] {
				continue
			}
			visited[edge.TargetID] = true
			result.IDs = append(result.IDs, edge.TargetID)
			result.Depths = append(result.Depths, current.depth+1)
			queue = append(queue, queueItem{edge.TargetID, current.depth + 1})
		}
	}
	return result
}

// #endregion walk

// #region lint
// Dangling lists dependency references to skills the catalog does not know,
// as "label: role name".
func (g *Graph) Dangling() []string {
	var out []string
	check := func(label, role string, names []string) {
		for _, n := range names {
			if _, ok := g.cat.Skill(n); !ok {
				out = append(out, fmt.Sprintf("%s: %s %s", label, role, n))
			}
		}
	}
	for _, d := range g.deps {
		check(d.Label, "provider", d.Providers)
		check(d.Label, "depender", d.Dependers)
		check(d.Label, "wanter", d.Wanters)
		check(d.Label, "grant", d.Grants)
	}
	return out
}

// Unreachable lists the active dependers of the enabled characters whose
// providers are all missing from both the active pool and the enabled action
// skills. They can never be placed. Sorted by name.
func (g *Graph) Unreachable(enabled []string, v catalog.Visibility) []string {
	available := make(map[string]bool)
	for _, s := range g.cat.Active(enabled, v) {
		available[s.Name] = true
	}
	active := make(map[string]bool, len(available))
	for name := range available {
		active[name] = true
	}
	for _, name := range enabled {
		if ch, ok := g.cat.Character(name); ok {
			available[ch.ActionSkill.Name] = true
		}
	}

	seen := make(map[string]bool)
	var out []string
	for _, d := range g.cat.Dependencies(enabled) {
		satisfiable := false
		for _, p := range d.Providers {
			if available[p] {
				satisfiable = true
				break
			}
		}
		if satisfiable {
			continue
		}
		for _, dep := range d.Dependers {
			if active[dep] && !seen[dep] {
				seen[dep] = true
				out = append(out, dep)
			}
		}
	}
	sort.Strings(out)
	return out
}

// #endregion lint
