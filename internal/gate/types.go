package gate

// #region veto-type
// VetoType enumerates hard veto categories.
type VetoType string

const (
	VetoNoSources     VetoType = "no_sources"
	VetoUnknownSource VetoType = "unknown_source"
	VetoUnlistedSkill VetoType = "unlisted_skill"
	VetoActionSource  VetoType = "action_source"
	VetoConstraint    VetoType = "constraint_violation"
)

// #endregion veto-type

// #region veto-signal
// VetoSignal represents a detected hard veto condition.
type VetoSignal struct {
	Type   VetoType
	Reason string
}

// #endregion veto-signal

// #region gate-config
// GateConfig holds the limits a request must stay within.
type GateConfig struct {
	MinDensity float64 // inclusive
	MaxDensity float64 // inclusive
	MaxForced  int     // forced skill entries per request, 0 for no cap
}

// DefaultGateConfig returns the limits of the settings menu.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		MinDensity: 0,
		MaxDensity: 100,
		MaxForced:  0,
	}
}

// #endregion gate-config

// #region gate-decision
// GateDecision is the output of the gate evaluation.
type GateDecision struct {
	Action      string // "commit" | "reject"
	Reason      string
	Vetoed      bool
	VetoSignals []VetoSignal // non-empty if vetoed
}

// #endregion gate-decision
