package logging

import (
	"database/sql"
	"testing"
	"time"

	"github.com/danielpatrickdp/player-randomizer/internal/diag"
	"github.com/danielpatrickdp/player-randomizer/internal/eval"
	_ "modernc.org/sqlite"
)

// #region helpers
func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	_, err = db.Exec(`CREATE TABLE provenance_log (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id       TEXT,
		trigger_type TEXT NOT NULL,
		detail_json  TEXT,
		decision     TEXT NOT NULL,
		reason       TEXT,
		created_at   TEXT NOT NULL
	)`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

// #endregion helpers

// #region log-decision-tests
func TestLogDecision_Success(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	entry := ProvenanceEntry{
		RunID:       "run-1",
		TriggerType: TriggerSpawn,
		DetailJSON:  `{"seed":7}`,
		Decision:    DecisionCommit,
		Reason:      "passed eval",
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	if err := LogDecision(db, entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM provenance_log").Scan(&count)
	if count != 1 {
		t.Errorf("expected 1 row, got %d", count)
	}

	var runID, decision string
	db.QueryRow("SELECT run_id, decision FROM provenance_log").Scan(&runID, &decision)
	if runID != "run-1" {
		t.Errorf("expected run_id 'run-1', got %q", runID)
	}
	if decision != DecisionCommit {
		t.Errorf("expected decision 'commit', got %q", decision)
	}
}

func TestLogDecision_ZeroCreatedAt(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	before := time.Now().UTC()
	if err := LogDecision(db, ProvenanceEntry{TriggerType: TriggerDisable, Decision: DecisionSkip}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var createdAtStr string
	db.QueryRow("SELECT created_at FROM provenance_log").Scan(&createdAtStr)
	createdAt, err := time.Parse(time.RFC3339Nano, createdAtStr)
	if err != nil {
		t.Fatalf("parse created_at: %v", err)
	}
	if createdAt.Before(before) {
		t.Error("expected auto-filled created_at to be >= test start time")
	}
}

func TestLogDecision_EmptyOptionalFields(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	entry := ProvenanceEntry{
		TriggerType: TriggerSpawn,
		Decision:    DecisionReject,
		CreatedAt:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := LogDecision(db, entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var runID, detail, reason sql.NullString
	db.QueryRow("SELECT run_id, detail_json, reason FROM provenance_log").Scan(&runID, &detail, &reason)
	if runID.Valid {
		t.Error("expected NULL run_id for a rejected activation")
	}
	if detail.Valid {
		t.Error("expected NULL detail_json for empty string")
	}
	if reason.Valid {
		t.Error("expected NULL reason for empty string")
	}
}

func TestLogDecision_Error(t *testing.T) {
	db := setupDB(t)
	db.Close() // close to force error

	err := LogDecision(db, ProvenanceEntry{RunID: "run-4", TriggerType: TriggerSpawn, Decision: DecisionCommit})
	if err == nil {
		t.Fatal("expected error on closed db")
	}
}

// #endregion log-decision-tests

// #region generation-record-tests
func TestGenerationRecordRoundTrip(t *testing.T) {
	rec := GenerationRecord{
		Seed:      99,
		TreeSeed:  -5,
		Character: "Krieg",
		Accepted:  1,
		Attempts: []AttemptRecord{
			{Label: "tree", Error: "boom"},
			{Label: "tree/1", TreeDigest: "abc", Passed: true, Metrics: []eval.EvalMetric{{Name: "duplicates", Pass: true, Hard: true}}},
		},
		Warnings: []diag.Warning{{Kind: diag.DensityClamped, Message: "clamped"}},
	}

	got, err := ParseGenerationRecord(rec.JSON())
	if err != nil {
		t.Fatalf("ParseGenerationRecord: %v", err)
	}
	if got.Seed != 99 || got.TreeSeed != -5 || got.Accepted != 1 {
		t.Errorf("record = %+v", got)
	}
	if len(got.Attempts) != 2 || got.Attempts[1].Metrics[0].Name != "duplicates" {
		t.Errorf("attempts = %+v", got.Attempts)
	}
	if len(got.Warnings) != 1 || got.Warnings[0].Kind != diag.DensityClamped {
		t.Errorf("warnings = %+v", got.Warnings)
	}
}

func TestParseGenerationRecord_Invalid(t *testing.T) {
	if _, err := ParseGenerationRecord("not json"); err == nil {
		t.Fatal("expected error")
	}
}

// #endregion generation-record-tests

// #region null-if-empty-tests
func TestNullIfEmpty_Empty(t *testing.T) {
	result := nullIfEmpty("")
	if result != nil {
		t.Errorf("expected nil for empty string, got %v", result)
	}
}

func TestNullIfEmpty_NonEmpty(t *testing.T) {
	result := nullIfEmpty("hello")
	if result != "hello" {
		t.Errorf("expected 'hello', got %v", result)
	}
}

// #endregion null-if-empty-tests
