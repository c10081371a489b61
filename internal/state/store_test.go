package state

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielpatrickdp/player-randomizer/internal/catalog/catalogtest"
	"github.com/danielpatrickdp/player-randomizer/internal/classmod"
	"github.com/danielpatrickdp/player-randomizer/internal/tree"
	_ "modernc.org/sqlite"
)

func tempDB(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := NewStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRun(createdAt time.Time) RunRecord {
	k := catalogtest.Krieg()
	orig := tree.FromDef(k.Name, k.ActionSkill.Name, k.Tree)
	gen := orig.Clone()
	gen.Branches[0].Tiers[0].Skills = []string{gen.Branches[0].Tiers[0].Skills[1]}
	gen.Branches[0].Tiers[0].Layout = tree.Layout(1)
	return RunRecord{
		Seed:       42,
		Character:  k.Name,
		ParamsJSON: `{"density":63}`,
		Tree:       gen,
		Original:   orig,
		Mods:       classmod.Assignment{"GD_ClassMods.Psycho.Mod0": {0: "a", 1: "b", 2: "c"}},
		ModRecords: []classmod.Record{{ModID: "GD_ClassMods.Psycho.Mod0", Class: "Psycho", Slots: map[int]string{0: "x", 1: "y", 2: "z"}}},
		TreeDigest: gen.Digest(),
		ModDigest:  "mods",
		CreatedAt:  createdAt,
	}
}

func TestCommitAndGetActive(t *testing.T) {
	s := tempDB(t)
	rec, err := s.CommitRun(sampleRun(time.Time{}))
	if err != nil {
		t.Fatalf("CommitRun: %v", err)
	}
	if rec.RunID == "" || rec.CreatedAt.IsZero() {
		t.Fatalf("expected generated id and timestamp, got %+v", rec)
	}

	cur, err := s.GetActive()
	if err != nil {
		t.Fatalf("GetActive: %v", err)
	}
	if cur.RunID != rec.RunID {
		t.Fatalf("expected %s, got %s", rec.RunID, cur.RunID)
	}
	if cur.Tree.Digest() != rec.TreeDigest {
		t.Error("tree did not survive the round trip")
	}
	if cur.Original.Digest() != rec.Original.Digest() {
		t.Error("original tree did not survive the round trip")
	}
	if cur.Mods.Digest() != rec.Mods.Digest() {
		t.Error("mods did not survive the round trip")
	}
	if len(cur.ModRecords) != 1 || cur.ModRecords[0].Slots[2] != "z" {
		t.Errorf("mod records = %+v", cur.ModRecords)
	}
	if cur.Seed != 42 || cur.ParamsJSON != `{"density":63}` || cur.Reverted() {
		t.Errorf("unexpected record fields: %+v", cur)
	}
}

func TestGetActiveNoRun(t *testing.T) {
	s := tempDB(t)
	if _, err := s.GetActive(); !errors.Is(err, ErrNoActiveRun) {
		t.Fatalf("expected ErrNoActiveRun, got %v", err)
	}
}

func TestCommitWithoutMods(t *testing.T) {
	s := tempDB(t)
	run := sampleRun(time.Now().UTC())
	run.Mods, run.ModRecords, run.ModDigest = nil, nil, ""

	rec, err := s.CommitRun(run)
	if err != nil {
		t.Fatalf("CommitRun: %v", err)
	}
	got, err := s.GetRun(rec.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Mods != nil || got.ModRecords != nil || got.ModDigest != "" {
		t.Errorf("expected empty mod fields, got %+v %+v %q", got.Mods, got.ModRecords, got.ModDigest)
	}
}

func TestMarkRevertedClearsActive(t *testing.T) {
	s := tempDB(t)
	rec, _ := s.CommitRun(sampleRun(time.Time{}))

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := s.MarkReverted(rec.RunID, at); err != nil {
		t.Fatalf("MarkReverted: %v", err)
	}
	if _, err := s.GetActive(); !errors.Is(err, ErrNoActiveRun) {
		t.Fatalf("expected ErrNoActiveRun after revert, got %v", err)
	}
	got, err := s.GetRun(rec.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if !got.RevertedAt.Equal(at) {
		t.Errorf("reverted_at = %v, want %v", got.RevertedAt, at)
	}
}

func TestMarkRevertedNonExistent(t *testing.T) {
	s := tempDB(t)
	if err := s.MarkReverted("nope", time.Time{}); err == nil {
		t.Fatal("expected error for unknown run")
	}
}

func TestCommitChainsParent(t *testing.T) {
	s := tempDB(t)
	base := time.Now().UTC()
	first, _ := s.CommitRun(sampleRun(base))

	next := sampleRun(base.Add(time.Second))
	next.ParentID = first.RunID
	second, err := s.CommitRun(next)
	if err != nil {
		t.Fatalf("CommitRun: %v", err)
	}

	if err := s.MarkReverted(first.RunID, time.Time{}); err != nil {
		t.Fatalf("MarkReverted: %v", err)
	}
	cur, err := s.GetActive()
	if err != nil {
		t.Fatalf("GetActive: %v", err)
	}
	if cur.RunID != second.RunID || cur.ParentID != first.RunID {
		t.Errorf("active = %s parent %s", cur.RunID, cur.ParentID)
	}
}

func TestListRuns(t *testing.T) {
	s := tempDB(t)
	base := time.Now().UTC()
	for i := 0; i < 3; i++ {
		run := sampleRun(base.Add(time.Duration(i) * time.Second))
		run.Seed = int64(i)
		if _, err := s.CommitRun(run); err != nil {
			t.Fatalf("CommitRun: %v", err)
		}
	}

	runs, err := s.ListRuns(2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Seed != 2 || runs[1].Seed != 1 {
		t.Errorf("expected newest first, got seeds %d, %d", runs[0].Seed, runs[1].Seed)
	}
}

func TestListRunsWithProvenance(t *testing.T) {
	s := tempDB(t)
	base := time.Now().UTC()
	withLog, _ := s.CommitRun(sampleRun(base))
	s.CommitRun(sampleRun(base.Add(time.Second)))

	for _, decision := range []string{"commit", "revert"} {
		_, err := s.DB().Exec(
			`INSERT INTO provenance_log (run_id, trigger_type, detail_json, decision, reason, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			withLog.RunID, "spawn", `{"seed":42}`, decision, decision+" reason", base.Format(time.RFC3339Nano),
		)
		if err != nil {
			t.Fatalf("insert provenance: %v", err)
		}
	}

	runs, err := s.ListRunsWithProvenance(10)
	if err != nil {
		t.Fatalf("ListRunsWithProvenance: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Decision != "" {
		t.Errorf("run without provenance has decision %q", runs[0].Decision)
	}
	if runs[1].RunID != withLog.RunID || runs[1].Decision != "revert" || runs[1].TriggerType != "spawn" {
		t.Errorf("expected latest provenance row, got %+v", runs[1])
	}
	if runs[1].DetailJSON != `{"seed":42}` {
		t.Errorf("detail = %q", runs[1].DetailJSON)
	}
}

func TestGetRunWithProvenance(t *testing.T) {
	s := tempDB(t)
	rec, _ := s.CommitRun(sampleRun(time.Now().UTC()))
	_, err := s.DB().Exec(
		`INSERT INTO provenance_log (run_id, trigger_type, decision, reason, created_at)
		 VALUES (?, 'spawn', 'commit', 'ok', ?)`,
		rec.RunID, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		t.Fatalf("insert provenance: %v", err)
	}

	rp, err := s.GetRunWithProvenance(rec.RunID)
	if err != nil {
		t.Fatalf("GetRunWithProvenance: %v", err)
	}
	if rp.Decision != "commit" || rp.Reason != "ok" || rp.DetailJSON != "" {
		t.Errorf("provenance = %+v", rp)
	}
	if rp.TreeDigest != rec.TreeDigest {
		t.Error("run fields not scanned")
	}
	if _, err := s.GetRunWithProvenance("missing"); err == nil {
		t.Error("expected error for unknown run")
	}
}

func TestBlobRoundTrip(t *testing.T) {
	in := map[string]int{"a": 1, "b": 2}
	b, err := encodeBlob(in)
	if err != nil {
		t.Fatalf("encodeBlob: %v", err)
	}
	var out map[string]int
	if err := decodeBlob(b, &out); err != nil {
		t.Fatalf("decodeBlob: %v", err)
	}
	if out["a"] != 1 || out["b"] != 2 {
		t.Errorf("round trip = %v", out)
	}
	if err := decodeBlob([]byte("not zstd"), &out); err == nil {
		t.Error("expected error for garbage blob")
	}
}

func TestDBAccessor(t *testing.T) {
	s := tempDB(t)
	if s.DB() == nil {
		t.Fatal("DB() returned nil")
	}
}

// corruptDB opens an in-memory SQLite with the full schema.
// Returns the Store and raw *sql.DB so tests can drop tables / insert bad data.
func corruptDB(t *testing.T) (*Store, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	s := NewStoreWithDB(db)
	t.Cleanup(func() { db.Close() })
	return s, db
}

func TestGetRun_CorruptBlob(t *testing.T) {
	s, db := corruptDB(t)
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := db.Exec(
		`INSERT INTO generation_runs (run_id, seed, character, params_json, tree_blob, original_blob, tree_digest, created_at)
		 VALUES (?, 1, 'Krieg', '{}', ?, ?, 'x', ?)`, "bad-blob", []byte("junk"), []byte("junk"), now,
	)
	if err != nil {
		t.Fatalf("seed row: %v", err)
	}

	if _, err := s.GetRun("bad-blob"); err == nil {
		t.Fatal("expected decode error for corrupt blob")
	}
}

func TestCommitRun_InsertFails(t *testing.T) {
	s, db := corruptDB(t)
	db.Exec("DROP TABLE active_run")
	db.Exec("DROP TABLE provenance_log")
	db.Exec("DROP TABLE generation_runs")

	if _, err := s.CommitRun(sampleRun(time.Time{})); err == nil {
		t.Fatal("expected error when generation_runs table is missing")
	}
}

func TestCommitRun_SetActiveFails(t *testing.T) {
	s, db := corruptDB(t)
	db.Exec("DROP TABLE active_run")

	if _, err := s.CommitRun(sampleRun(time.Time{})); err == nil {
		t.Fatal("expected error when active_run table is missing")
	}
	var n int
	db.QueryRow(`SELECT COUNT(*) FROM generation_runs`).Scan(&n)
	if n != 0 {
		t.Errorf("failed commit left %d rows", n)
	}
}

func TestGetRunNotFound(t *testing.T) {
	s := tempDB(t)
	if _, err := s.GetRun("nonexistent"); err == nil {
		t.Fatal("expected error for unknown run")
	}
}

func TestOperationsOnClosedDB(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	s.Close()

	if _, err := s.CommitRun(sampleRun(time.Time{})); err == nil {
		t.Error("CommitRun: expected error on closed DB")
	}
	if _, err := s.GetActive(); err == nil || errors.Is(err, ErrNoActiveRun) {
		t.Errorf("GetActive: expected database error, got %v", err)
	}
	if _, err := s.ListRuns(1); err == nil {
		t.Error("ListRuns: expected error on closed DB")
	}
	if err := s.MarkReverted("x", time.Time{}); err == nil {
		t.Error("MarkReverted: expected error on closed DB")
	}
}

func TestNewStore_CorruptDB(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "corrupt.db")
	os.WriteFile(dbPath, []byte("not a sqlite database"), 0644)

	if _, err := NewStore(dbPath); err == nil {
		t.Fatal("expected error for corrupted DB file")
	}
}
