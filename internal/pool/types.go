package pool

import "errors"

// #region weights
const (
	Branches = 3

	PriorityWeight = 1000.0 // forced skill that must land now
	ActionWeight   = 3.0    // themed skills when the action skill provides a dependency
	ThemeWeight    = 5.0    // themed skills in the branch that consumed a dependency
)

// #endregion weights

// ErrPoolExhausted is returned by Draw when nothing in the branch can be drawn.
var ErrPoolExhausted = errors.New("pool exhausted")
