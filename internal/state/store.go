package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS generation_runs (
	run_id           TEXT PRIMARY KEY,
	parent_id        TEXT,
	seed             INTEGER NOT NULL,
	character        TEXT NOT NULL,
	params_json      TEXT NOT NULL,
	tree_blob        BLOB NOT NULL,
	original_blob    BLOB NOT NULL,
	mods_blob        BLOB,
	mod_records_blob BLOB,
	tree_digest      TEXT NOT NULL,
	mod_digest       TEXT,
	created_at       TEXT NOT NULL,
	reverted_at      TEXT,
	FOREIGN KEY (parent_id) REFERENCES generation_runs(run_id)
);

CREATE TABLE IF NOT EXISTS provenance_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id        TEXT,
	trigger_type  TEXT NOT NULL,
	detail_json   TEXT,
	decision      TEXT NOT NULL,
	reason        TEXT,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES generation_runs(run_id)
);

CREATE TABLE IF NOT EXISTS active_run (
	id            INTEGER PRIMARY KEY CHECK (id = 1),
	run_id        TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES generation_runs(run_id)
);
`

// timeFormat keeps a fixed width so stored timestamps sort as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

const runColumns = `run_id, parent_id, seed, character, params_json, tree_blob, original_blob,
	mods_blob, mod_records_blob, tree_digest, mod_digest, created_at, reverted_at`

const provenanceColumns = `r.run_id, r.parent_id, r.seed, r.character, r.params_json, r.tree_blob, r.original_blob,
	r.mods_blob, r.mod_records_blob, r.tree_digest, r.mod_digest, r.created_at, r.reverted_at,
	COALESCE(p.trigger_type, ''), COALESCE(p.decision, ''), COALESCE(p.reason, ''), COALESCE(p.detail_json, '')`

// #endregion schema

// #region store-struct
// Store persists generation runs in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStoreWithDB wraps a database that already carries the schema.
func NewStoreWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// #endregion constructor

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #region commit-run
// CommitRun inserts a run and makes it the active one atomically. A missing
// run id or creation time is filled in; the stored record is returned.
func (s *Store) CommitRun(rec RunRecord) (RunRecord, error) {
	if rec.RunID == "" {
		rec.RunID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.ParamsJSON == "" {
		rec.ParamsJSON = "{}"
	}

	treeBlob, err := encodeBlob(rec.Tree)
	if err != nil {
		return RunRecord{}, fmt.Errorf("encode tree: %w", err)
	}
	origBlob, err := encodeBlob(rec.Original)
	if err != nil {
		return RunRecord{}, fmt.Errorf("encode original: %w", err)
	}
	var modsBlob, recordsBlob []byte
	if len(rec.Mods) > 0 {
		if modsBlob, err = encodeBlob(rec.Mods); err != nil {
			return RunRecord{}, fmt.Errorf("encode mods: %w", err)
		}
	}
	if len(rec.ModRecords) > 0 {
		if recordsBlob, err = encodeBlob(rec.ModRecords); err != nil {
			return RunRecord{}, fmt.Errorf("encode mod records: %w", err)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return RunRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO generation_runs (`+runColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, nullIfEmpty(rec.ParentID), rec.Seed, rec.Character, rec.ParamsJSON,
		treeBlob, origBlob, modsBlob, recordsBlob,
		rec.TreeDigest, nullIfEmpty(rec.ModDigest),
		rec.CreatedAt.Format(timeFormat), nullTime(rec.RevertedAt),
	)
	if err != nil {
		return RunRecord{}, fmt.Errorf("insert run: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO active_run (id, run_id) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET run_id = excluded.run_id`,
		rec.RunID,
	)
	if err != nil {
		return RunRecord{}, fmt.Errorf("set active: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return RunRecord{}, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

// #endregion commit-run

// #region get-active
// GetActive reads the live run. Returns ErrNoActiveRun when nothing has been
// committed or the last run was reverted.
func (s *Store) GetActive() (RunRecord, error) {
	var runID string
	err := s.db.QueryRow(`SELECT run_id FROM active_run WHERE id = 1`).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, ErrNoActiveRun
	}
	if err != nil {
		return RunRecord{}, fmt.Errorf("get active: %w", err)
	}
	return s.GetRun(runID)
}

// #endregion get-active

// #region get-run
// GetRun retrieves a run by id.
func (s *Store) GetRun(id string) (RunRecord, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM generation_runs WHERE run_id = ?`, id)
	rec, err := scanRun(row)
	if err != nil {
		return RunRecord{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return rec, nil
}

// #endregion get-run

// #region mark-reverted
// MarkReverted stamps the run as undone and clears the active pointer if it
// points at the run.
func (s *Store) MarkReverted(id string, at time.Time) error {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`UPDATE generation_runs SET reverted_at = ? WHERE run_id = ?`,
		at.Format(timeFormat), id,
	)
	if err != nil {
		return fmt.Errorf("mark reverted: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	if _, err := tx.Exec(`DELETE FROM active_run WHERE id = 1 AND run_id = ?`, id); err != nil {
		return fmt.Errorf("clear active: %w", err)
	}
	return tx.Commit()
}

// #endregion mark-reverted

// #region list-runs
// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+runColumns+` FROM generation_runs ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ListRunsWithProvenance returns the most recent runs joined with their
// latest provenance row.
func (s *Store) ListRunsWithProvenance(limit int) ([]RunWithProvenance, error) {
	rows, err := s.db.Query(
		`SELECT `+provenanceColumns+`
		 FROM generation_runs r
		 LEFT JOIN provenance_log p ON p.id = (
		     SELECT MAX(id) FROM provenance_log WHERE run_id = r.run_id
		 )
		 ORDER BY r.created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs with provenance: %w", err)
	}
	defer rows.Close()

	var out []RunWithProvenance
	for rows.Next() {
		var rp RunWithProvenance
		rec, err := scanRun(rows, &rp.TriggerType, &rp.Decision, &rp.Reason, &rp.DetailJSON)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		rp.RunRecord = rec
		out = append(out, rp)
	}
	return out, rows.Err()
}

// GetRunWithProvenance retrieves a run joined with its latest provenance row.
func (s *Store) GetRunWithProvenance(id string) (RunWithProvenance, error) {
	row := s.db.QueryRow(
		`SELECT `+provenanceColumns+`
		 FROM generation_runs r
		 LEFT JOIN provenance_log p ON p.id = (
		     SELECT MAX(id) FROM provenance_log WHERE run_id = r.run_id
		 )
		 WHERE r.run_id = ?`, id,
	)
	var rp RunWithProvenance
	rec, err := scanRun(row, &rp.TriggerType, &rp.Decision, &rp.Reason, &rp.DetailJSON)
	if err != nil {
		return RunWithProvenance{}, fmt.Errorf("get run %s: %w", id, err)
	}
	rp.RunRecord = rec
	return rp, nil
}

// #endregion list-runs

// #region scan
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRun reads the runColumns of one row followed by any extra columns.
func scanRun(row rowScanner, extra ...any) (RunRecord, error) {
	var rec RunRecord
	var parentID, modDigest, revertedStr sql.NullString
	var treeBlob, origBlob, modsBlob, recordsBlob []byte
	var createdStr string

	dest := []any{
		&rec.RunID, &parentID, &rec.Seed, &rec.Character, &rec.ParamsJSON,
		&treeBlob, &origBlob, &modsBlob, &recordsBlob,
		&rec.TreeDigest, &modDigest, &createdStr, &revertedStr,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return RunRecord{}, err
	}

	rec.ParentID = parentID.String
	rec.ModDigest = modDigest.String
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	if revertedStr.Valid {
		rec.RevertedAt, _ = time.Parse(time.RFC3339Nano, revertedStr.String)
	}
	if err := decodeBlob(treeBlob, &rec.Tree); err != nil {
		return RunRecord{}, fmt.Errorf("decode tree: %w", err)
	}
	if err := decodeBlob(origBlob, &rec.Original); err != nil {
		return RunRecord{}, fmt.Errorf("decode original: %w", err)
	}
	if err := decodeBlob(modsBlob, &rec.Mods); err != nil {
		return RunRecord{}, fmt.Errorf("decode mods: %w", err)
	}
	if err := decodeBlob(recordsBlob, &rec.ModRecords); err != nil {
		return RunRecord{}, fmt.Errorf("decode mod records: %w", err)
	}
	return rec, nil
}

// #endregion scan

// #region helpers
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(timeFormat)
}

// #endregion helpers
