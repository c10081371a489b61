package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/danielpatrickdp/player-randomizer/internal/catalog"
	"github.com/danielpatrickdp/player-randomizer/internal/config"
	"github.com/danielpatrickdp/player-randomizer/internal/hints"
	"github.com/danielpatrickdp/player-randomizer/internal/logging"
	"github.com/danielpatrickdp/player-randomizer/internal/render"
	"github.com/danielpatrickdp/player-randomizer/internal/state"
	"github.com/danielpatrickdp/player-randomizer/internal/tree"
)

// #region main

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	dbPath := flag.String("db", cfg.DBPath, "path to randomizer.db")
	last := flag.Int("last", 20, "show N most recent runs")
	runID := flag.String("run", "", "show single run detail")
	original := flag.Bool("original", false, "render the original tree instead of the generated one")
	catalogPath := flag.String("catalog", "", "catalog file for display names")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	store, err := state.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	var cat *catalog.Catalog
	if *catalogPath != "" {
		if cat, _, err = hints.LoadCatalog(*catalogPath); err != nil {
			fmt.Fprintf(os.Stderr, "load catalog: %v\n", err)
			os.Exit(1)
		}
	}

	if *runID != "" {
		err = runDetailMode(store, cat, *runID, *original, *jsonOut)
	} else {
		err = runListMode(store, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	RunID      string `json:"run_id"`
	ParentID   string `json:"parent_id,omitempty"`
	Character  string `json:"character"`
	Seed       int64  `json:"seed"`
	Decision   string `json:"decision"`
	TreeDigest string `json:"tree_digest"`
	Reverted   bool   `json:"reverted"`
	CreatedAt  string `json:"created_at"`
}

func runListMode(store *state.Store, last int, jsonOut bool) error {
	runs, err := store.ListRunsWithProvenance(last)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found")
		return nil
	}

	// Store returns DESC, reverse for chronological
	rows := make([]listRow, len(runs))
	for i, rp := range runs {
		rows[len(runs)-1-i] = listRow{
			RunID:      rp.RunID,
			ParentID:   rp.ParentID,
			Character:  rp.Character,
			Seed:       rp.Seed,
			Decision:   rp.Decision,
			TreeDigest: rp.TreeDigest,
			Reverted:   rp.Reverted(),
			CreatedAt:  rp.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-8s  %-8s  %-10s  %20s  %-8s  %-8s  %-8s  %s\n",
		"Run", "Parent", "Character", "Seed", "Decision", "Digest", "Reverted", "Time")
	fmt.Printf("%-8s+-%-8s+-%-10s+-%20s+-%-8s+-%-8s+-%-8s+-%s\n",
		"--------", "--------", "----------", "--------------------", "--------", "--------", "--------", "--------------------")
	for _, r := range rows {
		parent := "-"
		if r.ParentID != "" {
			parent = shortID(r.ParentID)
		}
		fmt.Printf("%-8s  %-8s  %-10s  %20d  %-8s  %-8s  %-8v  %s\n",
			shortID(r.RunID), parent, r.Character, r.Seed, r.Decision, shortID(r.TreeDigest), r.Reverted, r.CreatedAt)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	RunID      string                    `json:"run_id"`
	ParentID   string                    `json:"parent_id,omitempty"`
	Character  string                    `json:"character"`
	Seed       int64                     `json:"seed"`
	CreatedAt  string                    `json:"created_at"`
	RevertedAt string                    `json:"reverted_at,omitempty"`
	Decision   string                    `json:"decision"`
	Reason     string                    `json:"reason"`
	Params     json.RawMessage           `json:"params"`
	Tree       tree.Tree                 `json:"tree"`
	Mods       map[string]map[int]string `json:"mods,omitempty"`
	Record     *logging.GenerationRecord `json:"record,omitempty"`
}

func runDetailMode(store *state.Store, cat *catalog.Catalog, runID string, original, jsonOut bool) error {
	rp, err := store.GetRunWithProvenance(runID)
	if err != nil {
		return err
	}

	out := detailOutput{
		RunID:     rp.RunID,
		ParentID:  rp.ParentID,
		Character: rp.Character,
		Seed:      rp.Seed,
		CreatedAt: rp.CreatedAt.Format("2006-01-02T15:04:05Z"),
		Decision:  rp.Decision,
		Reason:    rp.Reason,
		Params:    json.RawMessage(rp.ParamsJSON),
		Tree:      rp.Tree,
		Mods:      rp.Mods,
	}
	if original {
		out.Tree = rp.Original
	}
	if rp.Reverted() {
		out.RevertedAt = rp.RevertedAt.Format("2006-01-02T15:04:05Z")
	}
	if rp.DetailJSON != "" {
		if rec, err := logging.ParseGenerationRecord(rp.DetailJSON); err == nil {
			out.Record = &rec
		}
	}

	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("Run:        %s\n", out.RunID)
	fmt.Printf("Parent:     %s\n", out.ParentID)
	fmt.Printf("Character:  %s\n", out.Character)
	fmt.Printf("Seed:       %d\n", out.Seed)
	fmt.Printf("Created:    %s\n", out.CreatedAt)
	if out.RevertedAt != "" {
		fmt.Printf("Reverted:   %s\n", out.RevertedAt)
	}
	fmt.Printf("Decision:   %s\n", out.Decision)
	fmt.Printf("Reason:     %s\n", out.Reason)
	fmt.Printf("Digest:     %s\n", rp.TreeDigest)

	if out.Record != nil {
		fmt.Printf("\nAttempts:\n")
		for i, a := range out.Record.Attempts {
			mark := " "
			if i == out.Record.Accepted {
				mark = "*"
			}
			fmt.Printf(" %s %-8s passed=%-5v soft=%-5v density=%.2f %s\n", mark, a.Label, a.Passed, a.SoftPassed, a.EffectiveDensity, a.Error)
		}
		if len(out.Record.Warnings) > 0 {
			fmt.Printf("\nWarnings:\n")
			for _, w := range out.Record.Warnings {
				fmt.Printf("  %s\n", w)
			}
		}
	}

	fmt.Println()
	if err := render.Tree(os.Stdout, out.Tree, render.DisplayNames(cat)); err != nil {
		return err
	}

	if len(out.Mods) > 0 {
		fmt.Printf("\nClass mods:\n")
		ids := make([]string, 0, len(out.Mods))
		for id := range out.Mods {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		name := render.DisplayNames(cat)
		for _, id := range ids {
			slots := out.Mods[id]
			idx := make([]int, 0, len(slots))
			for i := range slots {
				idx = append(idx, i)
			}
			sort.Ints(idx)
			fmt.Printf("  %s\n", id)
			for _, i := range idx {
				fmt.Printf("    %d: %s\n", i, name(slots[i]))
			}
		}
	}
	return nil
}

// #endregion detail-mode

// #region output

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
