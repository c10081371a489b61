package orchestrator

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/danielpatrickdp/player-randomizer/internal/catalog"
	"github.com/danielpatrickdp/player-randomizer/internal/catalog/catalogtest"
	"github.com/danielpatrickdp/player-randomizer/internal/classmod"
	"github.com/danielpatrickdp/player-randomizer/internal/diag"
	"github.com/danielpatrickdp/player-randomizer/internal/state"
	"github.com/danielpatrickdp/player-randomizer/internal/tree"
)

// #region fakes
type fakeTrees struct {
	applied []tree.Tree
	err     error
}

func (f *fakeTrees) ApplyTree(_ context.Context, t tree.Tree) error {
	if f.err != nil {
		return f.err
	}
	f.applied = append(f.applied, t.Clone())
	return nil
}

type fakeMods struct {
	applied []classmod.Assignment
	err     error
}

func (f *fakeMods) ApplyClassMods(_ context.Context, a classmod.Assignment) error {
	if f.err != nil {
		return f.err
	}
	f.applied = append(f.applied, a)
	return nil
}

// #endregion fakes

// #region helpers
type harness struct {
	orch  *Orchestrator
	trees *fakeTrees
	mods  *fakeMods
	store *state.Store
	cat   *catalog.Catalog
}

func newHarness(t *testing.T, persist bool) *harness {
	t.Helper()
	h := &harness{trees: &fakeTrees{}, mods: &fakeMods{}, cat: catalogtest.New(t)}
	var store RunStore
	if persist {
		s, err := state.NewStore(filepath.Join(t.TempDir(), "runs.db"))
		if err != nil {
			t.Fatalf("NewStore: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		h.store = s
		store = s
	}
	h.orch = New(h.cat, h.trees, h.mods, store, DefaultConfig())
	return h
}

func original() tree.Tree {
	k := catalogtest.Krieg()
	return tree.FromDef(k.Name, k.ActionSkill.Name, k.Tree)
}

func activateRequest(seed int64) ActivateRequest {
	return ActivateRequest{
		Seed: seed,
		Request: tree.Request{
			Character:    "Krieg",
			Enabled:      []string{"Axton", "Krieg"},
			Visibility:   catalog.VisibilityNone,
			ActionSource: tree.ActionDefault,
			Density:      63,
		},
		Original:   original(),
		ParamsJSON: `{"density":63}`,
	}
}

func hasWarning(ws []diag.Warning, kind diag.Kind) bool {
	for _, w := range ws {
		if w.Kind == kind {
			return true
		}
	}
	return false
}

// #endregion helpers

// #region activate-tests
func TestActivateCommitsAndWrites(t *testing.T) {
	h := newHarness(t, true)

	act, err := h.orch.Activate(context.Background(), activateRequest(7))
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if act.Decision != "commit" {
		t.Fatalf("decision = %s: %s", act.Decision, act.Reason)
	}
	if len(h.trees.applied) != 1 || h.trees.applied[0].Digest() != act.Run.TreeDigest {
		t.Fatal("tree writer did not receive the committed tree")
	}
	if len(h.mods.applied) != 1 || h.mods.applied[0].Digest() != act.Run.ModDigest {
		t.Fatal("mod writer did not receive the committed assignment")
	}
	if act.Record.TreeSeed == 0 || act.Record.ClassModSeed == act.Record.TreeSeed {
		t.Errorf("sub-seeds not derived: %+v", act.Record)
	}

	stored, err := h.store.GetActive()
	if err != nil {
		t.Fatalf("GetActive: %v", err)
	}
	if stored.RunID != act.Run.RunID || stored.Seed != 7 {
		t.Errorf("stored run = %s seed %d", stored.RunID, stored.Seed)
	}
	if len(stored.ModRecords) != 7 {
		t.Errorf("expected 7 captured mods, got %d", len(stored.ModRecords))
	}

	var decision string
	h.store.DB().QueryRow(`SELECT decision FROM provenance_log WHERE run_id = ?`, act.Run.RunID).Scan(&decision)
	if decision != "commit" {
		t.Errorf("provenance decision = %q", decision)
	}
}

func TestActivateDeterministic(t *testing.T) {
	a, err := newHarness(t, false).orch.Activate(context.Background(), activateRequest(1234))
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	b, err := newHarness(t, false).orch.Activate(context.Background(), activateRequest(1234))
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if a.Run.TreeDigest != b.Run.TreeDigest || a.Run.ModDigest != b.Run.ModDigest {
		t.Fatal("same seed produced different output")
	}
}

func TestActivateClassModsOff(t *testing.T) {
	h := &harness{trees: &fakeTrees{}, mods: &fakeMods{}, cat: catalogtest.New(t)}
	cfg := DefaultConfig()
	cfg.ClassMods = false
	h.orch = New(h.cat, h.trees, h.mods, nil, cfg)

	act, err := h.orch.Activate(context.Background(), activateRequest(3))
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if len(h.mods.applied) != 0 || act.Run.ModDigest != "" {
		t.Error("class mods written while disabled")
	}
}

func TestActivateVetoWritesNothing(t *testing.T) {
	h := newHarness(t, true)
	req := activateRequest(7)
	req.Request.Enabled = nil

	act, err := h.orch.Activate(context.Background(), req)
	if !errors.Is(err, ErrVetoed) {
		t.Fatalf("expected ErrVetoed, got %v", err)
	}
	if act.Decision != "reject" || len(act.Record.GateVetoes) == 0 {
		t.Errorf("activation = %+v", act)
	}
	if len(h.trees.applied) != 0 || len(h.mods.applied) != 0 {
		t.Fatal("vetoed request reached a writer")
	}
	var n int
	h.store.DB().QueryRow(`SELECT COUNT(*) FROM provenance_log WHERE run_id IS NULL AND decision = 'reject'`).Scan(&n)
	if n != 1 {
		t.Errorf("expected 1 reject row, got %d", n)
	}
}

func TestActivateSoftFailureCommitsLastAttempt(t *testing.T) {
	h := newHarness(t, false)
	req := activateRequest(9)
	// Needs Axton's action skill, which is never in the pool when Krieg's is chosen.
	req.Request.Forced = []tree.Forced{{Skill: catalogtest.SkillName("GD_Soldier_Skills", "Guerrilla", 1, 0), MaxTier: 1}}

	act, err := h.orch.Activate(context.Background(), req)
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if len(act.Attempts) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(act.Attempts))
	}
	if act.Record.Accepted != 2 {
		t.Errorf("accepted attempt = %d, want 2", act.Record.Accepted)
	}
	if act.Attempts[1].Label != "tree/1" || act.Attempts[2].Label != "tree/2" {
		t.Errorf("attempt labels = %s, %s", act.Attempts[1].Label, act.Attempts[2].Label)
	}
	if !hasWarning(act.Result.Warnings, diag.ValidationSoftFail) {
		t.Error("expected soft failure warning")
	}
}

func TestActivateTreeWriterFails(t *testing.T) {
	h := newHarness(t, true)
	h.trees.err = errors.New("bridge down")

	if _, err := h.orch.Activate(context.Background(), activateRequest(7)); err == nil {
		t.Fatal("expected writer error")
	}
	if _, err := h.store.GetActive(); !errors.Is(err, state.ErrNoActiveRun) {
		t.Fatalf("failed activation left a live run: %v", err)
	}
	if len(h.mods.applied) != 0 {
		t.Error("mods written after tree writer failure")
	}
}

func TestActivateModWriterFailsRestoresTree(t *testing.T) {
	h := newHarness(t, false)
	h.mods.err = errors.New("bridge down")

	if _, err := h.orch.Activate(context.Background(), activateRequest(7)); err == nil {
		t.Fatal("expected writer error")
	}
	if len(h.trees.applied) != 2 || h.trees.applied[1].Digest() != original().Digest() {
		t.Fatal("original tree not written back")
	}
	if _, live := h.orch.Active(); live {
		t.Error("failed activation left a live run")
	}
}

func TestRerollKeepsFirstOriginal(t *testing.T) {
	h := newHarness(t, true)
	first, err := h.orch.Activate(context.Background(), activateRequest(1))
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}

	req := activateRequest(2)
	req.Original = first.Result.Tree
	second, err := h.orch.Activate(context.Background(), req)
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if second.Run.ParentID != first.Run.RunID {
		t.Errorf("parent = %q, want %q", second.Run.ParentID, first.Run.RunID)
	}
	if second.Run.Original.Digest() != original().Digest() {
		t.Error("reroll replaced the original snapshot")
	}
}

// #endregion activate-tests

// #region disable-tests
func TestDisableRestoresOriginal(t *testing.T) {
	h := newHarness(t, true)
	act, err := h.orch.Activate(context.Background(), activateRequest(5))
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}

	run, err := h.orch.Disable(context.Background())
	if err != nil {
		t.Fatalf("Disable: %v", err)
	}
	if run.RunID != act.Run.RunID {
		t.Errorf("reverted %s, want %s", run.RunID, act.Run.RunID)
	}
	last := h.trees.applied[len(h.trees.applied)-1]
	if last.Digest() != original().Digest() {
		t.Fatal("original tree not restored")
	}

	restored := h.mods.applied[len(h.mods.applied)-1]
	for _, m := range h.cat.ClassMods("Psycho") {
		for _, s := range m.Slots {
			if restored[m.ID][s.Index] != s.Skill {
				t.Fatalf("%s slot %d = %q, want %q", m.ID, s.Index, restored[m.ID][s.Index], s.Skill)
			}
		}
	}

	if _, err := h.store.GetActive(); !errors.Is(err, state.ErrNoActiveRun) {
		t.Errorf("expected no active run, got %v", err)
	}
	stored, _ := h.store.GetRun(act.Run.RunID)
	if !stored.Reverted() {
		t.Error("run not marked reverted")
	}
}

func TestDisableWithoutRun(t *testing.T) {
	h := newHarness(t, false)
	if _, err := h.orch.Disable(context.Background()); !errors.Is(err, state.ErrNoActiveRun) {
		t.Fatalf("expected ErrNoActiveRun, got %v", err)
	}
	if len(h.trees.applied) != 0 {
		t.Error("disable without a run wrote a tree")
	}
}

// #endregion disable-tests
