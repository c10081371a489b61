package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// ErrUnlistedSkill is returned when a referenced skill is not available.
var ErrUnlistedSkill = errors.New("unlisted skill")

// UnlistedSkillError names the missing skill and the closest known one.
type UnlistedSkillError struct {
	Skill      string
	Suggestion string
	Context    string
}

func (e *UnlistedSkillError) Error() string {
	msg := fmt.Sprintf("unlisted skill %q", e.Skill)
	if e.Context != "" {
		msg += " (" + e.Context + ")"
	}
	if e.Suggestion != "" {
		msg += fmt.Sprintf("; did you mean %q?", e.Suggestion)
	}
	return msg
}

func (e *UnlistedSkillError) Unwrap() error { return ErrUnlistedSkill }

// #region lookup
// Lookup resolves a skill reference given either its unique name or its
// display name. Display names match case-insensitively; when several skills
// share a display name the one with the smallest unique name wins.
func (c *Catalog) Lookup(ref string) (Skill, error) {
	if s, ok := c.skills[ref]; ok {
		return s, nil
	}

	want := strings.ToLower(strings.TrimSpace(ref))
	var matches []Skill
	for _, s := range c.skills {
		if strings.ToLower(s.DisplayName) == want {
			matches = append(matches, s)
		}
	}
	if len(matches) > 0 {
		sort.Slice(matches, func(i, j int) bool { return matches[i].Name < matches[j].Name })
		return matches[0], nil
	}

	return Skill{}, &UnlistedSkillError{Skill: ref, Suggestion: c.Suggest(ref)}
}

// Suggest returns the display name closest to ref by edit distance, or "" when
// nothing is reasonably close.
func (c *Catalog) Suggest(ref string) string {
	want := strings.ToLower(ref)
	best := ""
	bestDist := -1
	names := make([]string, 0, len(c.skills))
	for _, s := range c.skills {
		names = append(names, s.DisplayName)
	}
	sort.Strings(names)
	for _, name := range names {
		d := levenshtein.ComputeDistance(want, strings.ToLower(name))
		if bestDist < 0 || d < bestDist {
			best, bestDist = name, d
		}
	}
	if bestDist < 0 || bestDist > len(want)/2+1 {
		return ""
	}
	return best
}

// #endregion lookup
