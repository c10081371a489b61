package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/danielpatrickdp/player-randomizer/internal/catalog"
	"github.com/danielpatrickdp/player-randomizer/internal/config"
	"github.com/danielpatrickdp/player-randomizer/internal/hints"
	"github.com/danielpatrickdp/player-randomizer/internal/replay"
	"github.com/danielpatrickdp/player-randomizer/internal/state"
)

// #region main

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	dbPath := flag.String("db", "", "path to randomizer.db (DB mode)")
	fixturePath := flag.String("fixture", "", "path to fixture JSON (fixture mode)")
	catalogPath := flag.String("catalog", cfg.CatalogPath, "catalog file")
	limit := flag.Int("limit", 50, "max runs to replay in DB mode")
	flag.Parse()

	if (*dbPath == "" && *fixturePath == "") || (*dbPath != "" && *fixturePath != "") {
		fmt.Fprintln(os.Stderr, "usage: replay --db path/to/randomizer.db [--catalog catalog.json]")
		fmt.Fprintln(os.Stderr, "       replay --fixture path/to/fixture.json [--catalog catalog.json]")
		os.Exit(2)
	}

	var exitCode int
	if *fixturePath != "" {
		exitCode = runFixtureMode(*fixturePath, *catalogPath)
	} else {
		exitCode = runDBMode(*dbPath, *catalogPath, *limit)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region db-mode

func runDBMode(dbPath, catalogPath string, limit int) int {
	cat, _, err := hints.LoadCatalog(catalogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load catalog: %v\n", err)
		return 2
	}

	store, err := state.NewStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 2
	}
	defer store.Close()

	runs, err := store.ListRuns(limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list runs: %v\n", err)
		return 2
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found in generation_runs")
		return 2
	}

	labels := make([]string, 0, len(runs))
	expected := make([]string, 0, len(runs))
	results := make([]replay.ReplayResult, 0, len(runs))
	for _, run := range runs {
		f, err := replay.FromRun(run)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skip run %s: %v\n", run.RunID, err)
			continue
		}
		labels = append(labels, run.RunID)
		expected = append(expected, run.TreeDigest)
		results = append(results, replay.Run(f, cat))
	}
	return printComparison(labels, expected, results)
}

// #endregion db-mode

// #region output

func runFixtureMode(path, catalogPath string) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}
	if f.Catalog != "" {
		catalogPath = f.Catalog
		if !filepath.IsAbs(catalogPath) {
			catalogPath = filepath.Join(filepath.Dir(path), catalogPath)
		}
	}

	var cat *catalog.Catalog
	if cat, _, err = hints.LoadCatalog(catalogPath); err != nil {
		fmt.Fprintf(os.Stderr, "load catalog: %v\n", err)
		return 2
	}

	r := replay.Run(f, cat)
	return printComparison([]string{f.Description}, []string{f.Expected.TreeDigest}, []replay.ReplayResult{r})
}

// printComparison outputs a comparison table and returns the exit code.
func printComparison(labels, expected []string, results []replay.ReplayResult) int {
	fmt.Printf("%-38s| %-14s| %-14s| %s\n", "Run", "Expected", "Replayed", "Match")
	fmt.Printf("%-38s+%-15s+%-15s+%s\n",
		"--------------------------------------", "---------------", "---------------", "------")

	for i, r := range results {
		got := r.TreeDigest
		if r.Action != "commit" {
			got = r.Action
		}
		match := "DIFF"
		if r.Matched() {
			match = "OK"
		}
		fmt.Printf("%-38s| %-14s| %-14s| %s\n", short(labels[i], 38), short(expected[i], 12), short(got, 12), match)
		if r.Action != "commit" {
			fmt.Printf("    %s\n", r.Reason)
		}
	}

	s := replay.Summarize(results)
	fmt.Printf("\nSummary: %d total, %d match, %d diverge, %d error\n", s.Total, s.Matched, s.Mismatched, s.Errors)

	if s.Mismatched > 0 || s.Errors > 0 {
		return 1
	}
	return 0
}

func short(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// #endregion output
