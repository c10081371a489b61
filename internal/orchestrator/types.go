package orchestrator

// #region imports
import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/danielpatrickdp/player-randomizer/internal/classmod"
	"github.com/danielpatrickdp/player-randomizer/internal/eval"
	"github.com/danielpatrickdp/player-randomizer/internal/gate"
	"github.com/danielpatrickdp/player-randomizer/internal/logging"
	"github.com/danielpatrickdp/player-randomizer/internal/state"
	"github.com/danielpatrickdp/player-randomizer/internal/tree"
)

// #endregion

var (
	// ErrVetoed is returned when the gate rejects a request.
	ErrVetoed = errors.New("activation vetoed")
	// ErrRejected is returned when no synthesis attempt passed the hard checks.
	ErrRejected = errors.New("activation rejected")
)

// #region interfaces

// TreeWriter applies all three branches and the action skill as one unit.
type TreeWriter interface {
	ApplyTree(ctx context.Context, t tree.Tree) error
}

// ModWriter applies class mod slot assignments.
type ModWriter interface {
	ApplyClassMods(ctx context.Context, a classmod.Assignment) error
}

// RunStore persists committed runs. *state.Store satisfies it.
type RunStore interface {
	CommitRun(rec state.RunRecord) (state.RunRecord, error)
	GetActive() (state.RunRecord, error)
	MarkReverted(id string, at time.Time) error
	DB() *sql.DB
}

// #endregion

// #region config

// Config holds the stage settings of the pipeline.
type Config struct {
	Gate      gate.GateConfig
	Eval      eval.EvalConfig
	ClassMods bool // randomize class mods after the tree
}

// DefaultConfig returns the settings used by the commands.
func DefaultConfig() Config {
	return Config{
		Gate:      gate.DefaultGateConfig(),
		Eval:      eval.DefaultEvalConfig(),
		ClassMods: true,
	}
}

// #endregion

// #region attempt

// Attempt records one synthesis attempt within an activation.
type Attempt struct {
	Label  string
	Result tree.Result
	Err    error
	Eval   eval.EvalResult
}

// #endregion

// #region activate-request

// ActivateRequest is one spawn of the randomized character.
type ActivateRequest struct {
	Seed       int64 // 0 rolls a new master seed
	Request    tree.Request
	Original   tree.Tree // used when no run is live
	ParamsJSON string
	Trigger    string // defaults to logging.TriggerSpawn
}

// Activation is the outcome of Activate.
type Activation struct {
	Decision string
	Reason   string
	Run      state.RunRecord
	Result   tree.Result
	Mods     classmod.Assignment
	Record   logging.GenerationRecord
	Attempts []Attempt
}

// #endregion
