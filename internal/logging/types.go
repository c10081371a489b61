package logging

import (
	"encoding/json"
	"time"

	"github.com/danielpatrickdp/player-randomizer/internal/diag"
	"github.com/danielpatrickdp/player-randomizer/internal/eval"
)

// Trigger types.
const (
	TriggerSpawn   = "spawn"
	TriggerDisable = "disable"
	TriggerReplay  = "replay"
)

// Decisions.
const (
	DecisionCommit = "commit"
	DecisionReject = "reject"
	DecisionRevert = "revert"
	DecisionSkip   = "skip"
)

// #region provenance-entry
// ProvenanceEntry is a single row in the provenance_log table.
type ProvenanceEntry struct {
	RunID       string // empty for rejected activations
	TriggerType string
	DetailJSON  string
	Decision    string
	Reason      string
	CreatedAt   time.Time
}

// #endregion provenance-entry

// #region generation-record
// GenerationRecord captures everything needed to replay one activation.
// Serialized as JSON into provenance_log.detail_json.
type GenerationRecord struct {
	Seed         int64  `json:"seed"`
	TreeSeed     int64  `json:"tree_seed"`
	ClassModSeed int64  `json:"class_mod_seed"`
	Character    string `json:"character"`

	Attempts       []AttemptRecord `json:"attempts,omitempty"`
	Accepted       int             `json:"accepted"` // index into Attempts, -1 if none
	GateReason     string          `json:"gate_reason,omitempty"`
	GateVetoes     []string        `json:"gate_vetoes,omitempty"`
	SpecialMod     string          `json:"special_mod,omitempty"`
	ModDigest      string          `json:"mod_digest,omitempty"`
	ClassModReason string          `json:"class_mod_reason,omitempty"`

	Warnings []diag.Warning `json:"warnings,omitempty"`
}

// AttemptRecord is one synthesis attempt within an activation.
type AttemptRecord struct {
	Label            string            `json:"label"`
	TreeDigest       string            `json:"tree_digest,omitempty"`
	ActionCharacter  string            `json:"action_character,omitempty"`
	EffectiveDensity float64           `json:"effective_density"`
	Error            string            `json:"error,omitempty"`
	Passed           bool              `json:"passed"`
	SoftPassed       bool              `json:"soft_passed"`
	Metrics          []eval.EvalMetric `json:"metrics,omitempty"`
}

// JSON encodes the record for DetailJSON.
func (r GenerationRecord) JSON() string {
	raw, err := json.Marshal(r)
	if err != nil {
		return ""
	}
	return string(raw)
}

// ParseGenerationRecord decodes a DetailJSON value.
func ParseGenerationRecord(s string) (GenerationRecord, error) {
	var r GenerationRecord
	err := json.Unmarshal([]byte(s), &r)
	return r, err
}

// #endregion generation-record
