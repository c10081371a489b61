package eval

// #region eval-config
// EvalConfig selects which checks block a synthesis attempt.
type EvalConfig struct {
	ForcedHard   bool // treat a missed forced placement as a hard failure
	MinPlacement int  // soft: warn when fewer branch skills are placed
}

// DefaultEvalConfig returns the checks used by the activation pipeline.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		ForcedHard:   false,
		MinPlacement: 1,
	}
}

// #endregion eval-config

// #region eval-metric
// EvalMetric captures a single validation check result.
type EvalMetric struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Pass  bool    `json:"pass"`
	Hard  bool    `json:"hard"`
}

// #endregion eval-metric

// #region eval-result
// EvalResult is the output of post-synthesis validation. Passed covers the
// hard checks only; SoftPassed covers the rest.
type EvalResult struct {
	Passed     bool         `json:"passed"`
	SoftPassed bool         `json:"soft_passed"`
	Metrics    []EvalMetric `json:"metrics"`
	Reason     string       `json:"reason"`
}

// #endregion eval-result
