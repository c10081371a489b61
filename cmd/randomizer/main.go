package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/danielpatrickdp/player-randomizer/internal/bridge"
	"github.com/danielpatrickdp/player-randomizer/internal/catalog"
	"github.com/danielpatrickdp/player-randomizer/internal/config"
	"github.com/danielpatrickdp/player-randomizer/internal/hints"
	"github.com/danielpatrickdp/player-randomizer/internal/orchestrator"
	"github.com/danielpatrickdp/player-randomizer/internal/params"
	"github.com/danielpatrickdp/player-randomizer/internal/render"
	"github.com/danielpatrickdp/player-randomizer/internal/state"
	"github.com/danielpatrickdp/player-randomizer/internal/tree"
)

// writer is both sinks of the bridge.
type writer interface {
	orchestrator.TreeWriter
	orchestrator.ModWriter
}

// #region main
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	cat, hinted, err := hints.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("failed to load catalog: %v", err)
	}

	p := params.Default()
	if cfg.ParamsPath != "" {
		if p, err = params.Load(cfg.ParamsPath); err != nil {
			log.Fatalf("failed to load params: %v", err)
		}
	}

	store, err := state.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	var sink writer
	if cfg.BridgeAddr != "" {
		client, err := bridge.NewClient(cfg.BridgeAddr, cfg.BridgeTimeout)
		if err != nil {
			log.Fatalf("failed to connect to bridge at %s: %v", cfg.BridgeAddr, err)
		}
		defer client.Close()
		sink = client
	} else {
		sink = &bridge.Recorder{}
	}

	ocfg := orchestrator.DefaultConfig()
	ocfg.ClassMods = p.RandomizeComs
	orch := orchestrator.New(cat, sink, sink, store, ocfg)

	bridgeDesc := cfg.BridgeAddr
	if bridgeDesc == "" {
		bridgeDesc = "dry run"
	}
	fmt.Println("Player randomizer ready.")
	fmt.Printf("  DB: %s | Catalog: %s (%d characters, %d hinted) | Bridge: %s\n",
		cfg.DBPath, cfg.CatalogPath, len(cat.Names()), hinted, bridgeDesc)
	fmt.Println("Commands: spawn <character>, reroll, show, disable, quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		ctx := context.Background()
		switch fields[0] {
		case "quit", "exit":
			return
		case "spawn":
			if len(fields) < 2 {
				fmt.Println("usage: spawn <character>")
				continue
			}
			spawn(ctx, orch, cat, p, fields[1], p.Seed)
		case "reroll":
			run, live := orch.Active()
			if !live {
				fmt.Println("no active run to reroll")
				continue
			}
			spawn(ctx, orch, cat, p, run.Character, 0)
		case "show":
			run, live := orch.Active()
			if !live {
				fmt.Println("no active run")
				continue
			}
			if err := render.Tree(os.Stdout, run.Tree, render.DisplayNames(cat)); err != nil {
				log.Printf("render error: %v", err)
			}
		case "disable":
			run, err := orch.Disable(ctx)
			if errors.Is(err, state.ErrNoActiveRun) {
				fmt.Println("nothing to disable")
				continue
			}
			if err != nil {
				log.Printf("disable error: %v", err)
				continue
			}
			fmt.Printf("[disable] reverted run %s\n", run.RunID)
		default:
			fmt.Printf("unknown command %q\n", fields[0])
		}
	}
}

// #endregion main

// #region helpers
func spawn(ctx context.Context, orch *orchestrator.Orchestrator, cat *catalog.Catalog, p params.Params, character string, seed int64) {
	ch, ok := cat.Character(character)
	if !ok {
		fmt.Printf("unknown character %q\n", character)
		return
	}
	req, err := p.Request(cat, ch.Name)
	if err != nil {
		log.Printf("params error: %v", err)
		return
	}
	act, err := orch.Activate(ctx, orchestrator.ActivateRequest{
		Seed:       seed,
		Request:    req,
		Original:   tree.FromDef(ch.Name, ch.ActionSkill.Name, ch.Tree),
		ParamsJSON: p.JSON(),
	})
	if err != nil {
		log.Printf("spawn error: %v", err)
		return
	}
	fmt.Printf("[spawn] decision=%s run=%s seed=%d action=%s density=%.2f\n",
		act.Decision, act.Run.RunID, act.Run.Seed, act.Result.ActionCharacter, act.Result.EffectiveDensity)
	for _, w := range act.Result.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
}

// #endregion helpers
