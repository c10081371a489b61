// Package replay re-runs recorded generations and checks they reproduce.
package replay

import (
	"context"
	"fmt"

	"github.com/danielpatrickdp/player-randomizer/internal/bridge"
	"github.com/danielpatrickdp/player-randomizer/internal/catalog"
	"github.com/danielpatrickdp/player-randomizer/internal/logging"
	"github.com/danielpatrickdp/player-randomizer/internal/orchestrator"
	"github.com/danielpatrickdp/player-randomizer/internal/tree"
)

// #region types

// ReplayResult captures the outcome of replaying one fixture.
type ReplayResult struct {
	Description string
	Action      string // "commit" | "reject" | "error"
	Reason      string

	TreeDigest     string
	ActionSkill    string
	ClassModDigest string

	TreeMatch   bool
	ActionMatch bool
	ModsMatch   bool

	Activation orchestrator.Activation
}

// Matched reports whether every expected digest was reproduced.
func (r ReplayResult) Matched() bool {
	return r.Action == logging.DecisionCommit && r.TreeMatch && r.ActionMatch && r.ModsMatch
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	Total      int
	Matched    int
	Mismatched int
	Errors     int
}

// #endregion types

// #region replay

// Run replays f against cat entirely in memory. Writes go to recorders and
// nothing is persisted.
func Run(f *Fixture, cat *catalog.Catalog) ReplayResult {
	res := ReplayResult{Description: f.Description}

	req, err := f.Params.Request(cat, f.Character)
	if err != nil {
		res.Action, res.Reason = "error", err.Error()
		return res
	}

	var original tree.Tree
	if f.Original != nil {
		original = *f.Original
	} else {
		ch, ok := cat.Character(f.Character)
		if !ok {
			res.Action, res.Reason = "error", fmt.Sprintf("unknown character %q", f.Character)
			return res
		}
		original = tree.FromDef(ch.Name, ch.ActionSkill.Name, ch.Tree)
	}

	cfg := orchestrator.DefaultConfig()
	cfg.ClassMods = f.Params.RandomizeComs
	rec := &bridge.Recorder{}
	orch := orchestrator.New(cat, rec, rec, nil, cfg)

	act, err := orch.Activate(context.Background(), orchestrator.ActivateRequest{
		Seed:       f.Seed,
		Request:    req,
		Original:   original,
		ParamsJSON: f.Params.JSON(),
		Trigger:    logging.TriggerReplay,
	})
	res.Activation = act
	res.Action = act.Decision
	res.Reason = act.Reason
	if err != nil {
		if res.Action == "" {
			res.Action = "error"
		}
		res.Reason = err.Error()
		return res
	}

	res.TreeDigest = act.Run.TreeDigest
	res.ActionSkill = act.Run.Tree.ActionSkill
	res.ClassModDigest = act.Run.ModDigest
	res.TreeMatch = f.Expected.TreeDigest == "" || f.Expected.TreeDigest == res.TreeDigest
	res.ActionMatch = f.Expected.ActionSkill == "" || f.Expected.ActionSkill == res.ActionSkill
	res.ModsMatch = f.Expected.ClassModDigest == "" || f.Expected.ClassModDigest == res.ClassModDigest
	return res
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []ReplayResult) ReplaySummary {
	s := ReplaySummary{Total: len(results)}
	for _, r := range results {
		switch {
		case r.Action != logging.DecisionCommit:
			s.Errors++
		case r.Matched():
			s.Matched++
		default:
			s.Mismatched++
		}
	}
	return s
}

// #endregion replay
