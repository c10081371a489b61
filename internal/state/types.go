package state

import (
	"errors"
	"time"

	"github.com/danielpatrickdp/player-randomizer/internal/classmod"
	"github.com/danielpatrickdp/player-randomizer/internal/tree"
)

// ErrNoActiveRun is returned when no committed, unreverted run is active.
var ErrNoActiveRun = errors.New("no active run")

// #region run-record
// RunRecord is one committed generation: what was written to the game and
// the snapshot needed to undo it.
type RunRecord struct {
	RunID      string
	ParentID   string
	Seed       int64
	Character  string
	ParamsJSON string

	Tree       tree.Tree
	Original   tree.Tree
	Mods       classmod.Assignment
	ModRecords []classmod.Record

	TreeDigest string
	ModDigest  string
	CreatedAt  time.Time
	RevertedAt time.Time // zero while the run is live
}

// Reverted reports whether the run has been undone.
func (r RunRecord) Reverted() bool { return !r.RevertedAt.IsZero() }

// #endregion run-record

// #region run-with-provenance
// RunWithProvenance pairs a run with its latest provenance row fields.
type RunWithProvenance struct {
	RunRecord
	TriggerType string
	Decision    string
	Reason      string
	DetailJSON  string
}

// #endregion run-with-provenance
