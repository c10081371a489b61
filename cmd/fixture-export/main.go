package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/player-randomizer/internal/config"
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

	dbPath := flag.String("db", cfg.DBPath, "path to randomizer.db")
	runID := flag.String("run", "", "run to export (default: the active run)")
	outPath := flag.String("out", "", "output fixture JSON path")
	catalogPath := flag.String("catalog", "", "catalog path recorded in the fixture")
	flag.Parse()

	if *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --out path/to/fixture.json [--db path/to/db] [--run id] [--catalog path]")
		os.Exit(2)
	}

	if err := run(*dbPath, *runID, *outPath, *catalogPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region extract

func run(dbPath, runID, outPath, catalogPath string) error {
	store, err := state.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	var rec state.RunRecord
	if runID == "" {
		rec, err = store.GetActive()
		if errors.Is(err, state.ErrNoActiveRun) {
			return errors.New("no active run; pass --run")
		}
	} else {
		rec, err = store.GetRun(runID)
	}
	if err != nil {
		return err
	}

	f, err := replay.FromRun(rec)
	if err != nil {
		return err
	}
	f.Catalog = catalogPath

	if err := f.Save(outPath); err != nil {
		return err
	}
	fmt.Printf("Exported run %s (seed %d, %s) to %s\n", rec.RunID, rec.Seed, rec.Character, outPath)
	return nil
}

// #endregion extract
