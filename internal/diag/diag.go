// Package diag holds non-fatal diagnostics reported by the synthesis stages.
package diag

import "fmt"

// Kind classifies a diagnostic.
type Kind string

const (
	UnresolvableDependency Kind = "unresolvable_dependency"
	PoolExhausted          Kind = "pool_exhausted"
	ActionFallback         Kind = "action_skill_fallback"
	DensityClamped         Kind = "density_clamped"
	InsufficientPool       Kind = "insufficient_pool"
	NoSpecialMod           Kind = "no_special_mod"
	ForcedUnplaced         Kind = "forced_unplaced"
	ValidationSoftFail     Kind = "validation_soft_fail"
)

// Warning is one non-fatal condition with enough context to diagnose it.
type Warning struct {
	Kind      Kind   `json:"kind"`
	Skill     string `json:"skill,omitempty"`
	Character string `json:"character,omitempty"`
	Message   string `json:"message"`
}

func (w Warning) String() string {
	s := string(w.Kind)
	if w.Character != "" {
		s += " [" + w.Character + "]"
	}
	if w.Skill != "" {
		s += " " + w.Skill
	}
	return fmt.Sprintf("%s: %s", s, w.Message)
}
