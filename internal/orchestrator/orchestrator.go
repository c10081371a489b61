// Package orchestrator runs one activation of the randomizer end to end:
// gate, synthesis with retry, validation, class mods, writers and persistence.
package orchestrator

// #region imports
import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/danielpatrickdp/player-randomizer/internal/catalog"
	"github.com/danielpatrickdp/player-randomizer/internal/classmod"
	"github.com/danielpatrickdp/player-randomizer/internal/diag"
	"github.com/danielpatrickdp/player-randomizer/internal/eval"
	"github.com/danielpatrickdp/player-randomizer/internal/gate"
	"github.com/danielpatrickdp/player-randomizer/internal/logging"
	"github.com/danielpatrickdp/player-randomizer/internal/rng"
	"github.com/danielpatrickdp/player-randomizer/internal/state"
	"github.com/danielpatrickdp/player-randomizer/internal/tree"
)

// #endregion

// #region orchestrator-struct

// Orchestrator is the top-level coordinator for activations and reverts.
// It is not safe for concurrent use; the game delivers one event at a time.
type Orchestrator struct {
	cat   *catalog.Catalog
	trees TreeWriter
	mods  ModWriter
	store RunStore // nil keeps runs in memory only

	gate      *gate.Gate
	eval      *eval.EvalHarness
	retry     *RetryEngine
	patcher   *classmod.Patcher
	classMods bool

	active *state.RunRecord // live run when store is nil
	now    func() time.Time
}

// #endregion

// #region constructor

// New creates a fully wired orchestrator. mods and store may be nil.
func New(cat *catalog.Catalog, trees TreeWriter, mods ModWriter, store RunStore, cfg Config) *Orchestrator {
	return &Orchestrator{
		cat:       cat,
		trees:     trees,
		mods:      mods,
		store:     store,
		gate:      gate.NewGate(cfg.Gate),
		eval:      eval.NewEvalHarness(cfg.Eval),
		retry:     NewRetryEngine(rng.LabelTree),
		patcher:   classmod.NewPatcher(),
		classMods: cfg.ClassMods && mods != nil,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// #endregion

// #region activate

// Activate generates, validates and applies a tree for req. Nothing is
// written when the gate vetoes the request or every attempt fails a hard
// check.
func (o *Orchestrator) Activate(ctx context.Context, req ActivateRequest) (Activation, error) {
	trigger := req.Trigger
	if trigger == "" {
		trigger = logging.TriggerSpawn
	}

	seed := req.Seed
	if seed == 0 {
		s, err := rng.NewSeed()
		if err != nil {
			return Activation{}, err
		}
		seed = s
	}
	record := logging.GenerationRecord{
		Seed:         seed,
		TreeSeed:     rng.Derive(seed, rng.LabelTree),
		ClassModSeed: rng.Derive(seed, rng.LabelClassMod),
		Character:    req.Request.Character,
		Accepted:     -1,
	}

	// 1. Gate
	decision := o.gate.Evaluate(o.cat, req.Request)
	record.GateReason = decision.Reason
	if decision.Vetoed {
		for _, v := range decision.VetoSignals {
			record.GateVetoes = append(record.GateVetoes, v.Reason)
		}
		log.Printf("[ORCH] gate: %s", decision.Reason)
		o.logProvenance("", trigger, logging.DecisionReject, decision.Reason, record)
		return Activation{Decision: logging.DecisionReject, Reason: decision.Reason, Record: record},
			fmt.Errorf("%w: %s", ErrVetoed, decision.Reason)
	}

	// 2. Original snapshot: the live run's original, so rerolls revert to the game's tree.
	parent, live := o.liveRun()
	original := req.Original
	if live && parent.Character == req.Request.Character {
		original = parent.Original
	}

	// 3. Synthesis with retry
	var attempts []Attempt
	label := o.retry.Label(0)
	for {
		a := Attempt{Label: label}
		a.Result, a.Err = tree.Synthesize(o.cat, original, req.Request, rng.New(seed, label))
		if a.Err == nil {
			a.Eval = o.eval.Run(a.Result, req.Request)
		}
		attempts = append(attempts, a)
		record.Attempts = append(record.Attempts, attemptRecord(a))

		log.Printf("[ORCH] attempt %s: passed=%v soft=%v err=%v", a.Label, a.Eval.Passed, a.Eval.SoftPassed, a.Err)

		retry, next := o.retry.ShouldRetry(attempts)
		if !retry {
			break
		}
		label = next
	}

	chosen := -1
	for i, a := range attempts {
		if a.Err == nil && a.Eval.Passed {
			chosen = i
		}
	}
	for i, a := range attempts {
		if a.Err == nil && a.Eval.Passed && a.Eval.SoftPassed {
			chosen = i
			break
		}
	}
	if chosen < 0 {
		last := attempts[len(attempts)-1]
		reason := last.Eval.Reason
		if last.Err != nil {
			reason = last.Err.Error()
		}
		o.logProvenance("", trigger, logging.DecisionReject, reason, record)
		return Activation{Decision: logging.DecisionReject, Reason: reason, Record: record, Attempts: attempts},
			fmt.Errorf("%w: %s", ErrRejected, reason)
	}
	record.Accepted = chosen
	best := attempts[chosen]
	res := best.Result
	warnings := append([]diag.Warning(nil), res.Warnings...)
	if !best.Eval.SoftPassed {
		warnings = append(warnings, diag.Warning{
			Kind:      diag.ValidationSoftFail,
			Character: req.Request.Character,
			Message:   best.Eval.Reason,
		})
	}

	// 4. Class mods
	var assignment classmod.Assignment
	var modRecords []classmod.Record
	if o.classMods {
		a, w, reason := o.assignClassMods(seed, req.Request, res)
		warnings = append(warnings, w...)
		record.ClassModReason = reason
		if a != nil {
			assignment = a
			modRecords = o.patcher.Records()
			record.SpecialMod = o.patcher.Special()
			record.ModDigest = assignment.Digest()
		}
	}
	record.Warnings = warnings
	for _, w := range warnings {
		log.Printf("[ORCH] warning: %s", w)
	}

	// 5. Writers
	if err := o.trees.ApplyTree(ctx, res.Tree); err != nil {
		o.logProvenance("", trigger, logging.DecisionReject, "tree writer: "+err.Error(), record)
		return Activation{Decision: logging.DecisionReject, Record: record, Attempts: attempts},
			fmt.Errorf("apply tree: %w", err)
	}
	if len(assignment) > 0 {
		if err := o.mods.ApplyClassMods(ctx, assignment); err != nil {
			if rerr := o.trees.ApplyTree(ctx, original); rerr != nil {
				log.Printf("[ORCH] failed to restore tree after mod writer error: %v", rerr)
			}
			o.logProvenance("", trigger, logging.DecisionReject, "mod writer: "+err.Error(), record)
			return Activation{Decision: logging.DecisionReject, Record: record, Attempts: attempts},
				fmt.Errorf("apply class mods: %w", err)
		}
	}

	// 6. Persist
	run := state.RunRecord{
		Seed:       seed,
		Character:  req.Request.Character,
		ParamsJSON: req.ParamsJSON,
		Tree:       res.Tree,
		Original:   original,
		Mods:       assignment,
		ModRecords: modRecords,
		TreeDigest: res.Tree.Digest(),
		ModDigest:  assignment.Digest(),
		CreatedAt:  o.now(),
	}
	if live {
		run.ParentID = parent.RunID
	}
	committed, err := o.commit(run)
	if err != nil {
		return Activation{Decision: logging.DecisionReject, Record: record, Attempts: attempts},
			fmt.Errorf("persist run: %w", err)
	}
	reason := fmt.Sprintf("attempt %s: %s", best.Label, best.Eval.Reason)
	o.logProvenance(committed.RunID, trigger, logging.DecisionCommit, reason, record)

	log.Printf("[ORCH] committed run %s seed=%d action=%s density=%.2f", committed.RunID, seed, res.ActionCharacter, res.EffectiveDensity)
	res.Warnings = warnings
	return Activation{
		Decision: logging.DecisionCommit,
		Reason:   reason,
		Run:      committed,
		Result:   res,
		Mods:     assignment,
		Record:   record,
		Attempts: attempts,
	}, nil
}

// assignClassMods runs the class mod pass on its own stream. A nil
// assignment with a reason means the pass was skipped.
func (o *Orchestrator) assignClassMods(seed int64, req tree.Request, res tree.Result) (classmod.Assignment, []diag.Warning, string) {
	ch, ok := o.cat.Character(req.Character)
	if !ok {
		return nil, []diag.Warning{{
			Kind:      diag.InsufficientPool,
			Character: req.Character,
			Message:   "player character not in catalog; class mods left alone",
		}}, "unknown player class"
	}

	var forced []string
	for _, f := range req.Forced {
		if f.ClassMod {
			forced = append(forced, f.Skill)
		}
	}

	o.patcher.Capture(o.cat.ClassMods(ch.Class))
	a, warnings, err := o.patcher.Assign(res.ClassModSkills, rng.New(seed, rng.LabelClassMod), ch.Class, forced)
	if errors.Is(err, classmod.ErrInsufficientPool) {
		return nil, []diag.Warning{{
			Kind:      diag.InsufficientPool,
			Character: ch.Name,
			Message:   err.Error(),
		}}, err.Error()
	}
	return a, warnings, ""
}

// #endregion

// #region disable

// Disable writes the original tree and class mod slots of the live run back
// and marks it reverted. Returns state.ErrNoActiveRun when nothing is live.
func (o *Orchestrator) Disable(ctx context.Context) (state.RunRecord, error) {
	run, live := o.liveRun()
	if !live {
		o.logProvenance("", logging.TriggerDisable, logging.DecisionSkip, "no active run", logging.GenerationRecord{Accepted: -1})
		return state.RunRecord{}, state.ErrNoActiveRun
	}

	if err := o.trees.ApplyTree(ctx, run.Original); err != nil {
		return run, fmt.Errorf("restore tree: %w", err)
	}
	if restore := classmod.Restore(run.ModRecords); len(restore) > 0 && o.mods != nil {
		if err := o.mods.ApplyClassMods(ctx, restore); err != nil {
			return run, fmt.Errorf("restore class mods: %w", err)
		}
	}
	o.patcher.Revert()

	run.RevertedAt = o.now()
	if o.store != nil {
		if err := o.store.MarkReverted(run.RunID, run.RevertedAt); err != nil {
			return run, fmt.Errorf("mark reverted: %w", err)
		}
	}
	o.active = nil

	o.logProvenance(run.RunID, logging.TriggerDisable, logging.DecisionRevert, "restored original tree", logging.GenerationRecord{
		Seed:      run.Seed,
		Character: run.Character,
		Accepted:  -1,
		ModDigest: run.ModDigest,
	})
	log.Printf("[ORCH] reverted run %s", run.RunID)
	return run, nil
}

// Active returns the live run, if any.
func (o *Orchestrator) Active() (state.RunRecord, bool) {
	return o.liveRun()
}

// #endregion

// #region helpers

func (o *Orchestrator) liveRun() (state.RunRecord, bool) {
	if o.store == nil {
		if o.active == nil {
			return state.RunRecord{}, false
		}
		return *o.active, true
	}
	run, err := o.store.GetActive()
	if err != nil {
		if !errors.Is(err, state.ErrNoActiveRun) {
			log.Printf("[ORCH] failed to read active run: %v", err)
		}
		return state.RunRecord{}, false
	}
	return run, true
}

func (o *Orchestrator) commit(run state.RunRecord) (state.RunRecord, error) {
	if o.store != nil {
		return o.store.CommitRun(run)
	}
	if run.RunID == "" {
		run.RunID = fmt.Sprintf("mem-%d", run.Seed)
	}
	o.active = &run
	return run, nil
}

func (o *Orchestrator) logProvenance(runID, trigger, decision, reason string, rec logging.GenerationRecord) {
	if o.store == nil {
		return
	}
	err := logging.LogDecision(o.store.DB(), logging.ProvenanceEntry{
		RunID:       runID,
		TriggerType: trigger,
		DetailJSON:  rec.JSON(),
		Decision:    decision,
		Reason:      reason,
		CreatedAt:   o.now(),
	})
	if err != nil {
		log.Printf("[ORCH] failed to log provenance: %v", err)
	}
}

func attemptRecord(a Attempt) logging.AttemptRecord {
	rec := logging.AttemptRecord{
		Label:      a.Label,
		Passed:     a.Eval.Passed,
		SoftPassed: a.Eval.SoftPassed,
		Metrics:    a.Eval.Metrics,
	}
	if a.Err != nil {
		rec.Error = a.Err.Error()
		return rec
	}
	rec.TreeDigest = a.Result.Tree.Digest()
	rec.ActionCharacter = a.Result.ActionCharacter
	rec.EffectiveDensity = a.Result.EffectiveDensity
	return rec
}

// #endregion
