package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/player-randomizer/internal/catalog"
	"github.com/danielpatrickdp/player-randomizer/internal/config"
	"github.com/danielpatrickdp/player-randomizer/internal/graph"
	"github.com/danielpatrickdp/player-randomizer/internal/hints"
)

// #region main
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	catalogPath := flag.String("catalog", cfg.CatalogPath, "catalog file")
	walk := flag.String("walk", "", "print what the given skill unlocks")
	depth := flag.Int("depth", 5, "max walk depth")
	flag.Parse()

	fmt.Println("=== Catalog Lint ===")
	fmt.Printf("  Catalog: %s\n", *catalogPath)

	cat, hinted, err := hints.LoadCatalog(*catalogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load catalog: %v\n", err)
		os.Exit(1)
	}
	names := cat.Names()
	fmt.Printf("  %d characters, %d filled from hints, digest %s\n", len(names), hinted, cat.Digest())

	g := graph.New(cat)
	problems := 0

	dangling := g.Dangling()
	fmt.Printf("\nDangling references: %d\n", len(dangling))
	for _, d := range dangling {
		fmt.Printf("  %s\n", d)
	}
	problems += len(dangling)

	// Per character, the dependers that can never be placed when it is the only source.
	fmt.Printf("\nUnreachable dependers (single source, visibility None):\n")
	for _, name := range names {
		for _, s := range g.Unreachable([]string{name}, catalog.VisibilityNone) {
			fmt.Printf("  %s: %s\n", name, s)
			problems++
		}
	}

	fmt.Printf("\nClass mods:\n")
	for _, name := range names {
		ch, _ := cat.Character(name)
		mods := cat.ClassMods(ch.Class)
		fmt.Printf("  %-12s %d mods\n", name, len(mods))
	}

	if *walk != "" {
		s, err := cat.Lookup(*walk)
		if err != nil {
			fmt.Fprintf(os.Stderr, "walk: %v\n", err)
			os.Exit(1)
		}
		res := g.Walk(s.Name, *depth, 100)
		fmt.Printf("\nWalk from %s:\n", s.DisplayName)
		for i, id := range res.IDs[1:] {
			display := id
			if sk, ok := cat.Skill(id); ok {
				display = sk.DisplayName
			}
			fmt.Printf("  %*s%s\n", 2*(res.Depths[i+1]-1), "", display)
		}
	}

	if problems > 0 {
		fmt.Printf("\n%d problems found.\n", problems)
		os.Exit(1)
	}
	fmt.Println("\nOK")
}

// #endregion main
