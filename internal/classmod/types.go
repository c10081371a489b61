package classmod

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
)

// MinSkills is the fewest upgradable skills a class mod pass needs.
const MinSkills = 5

// ErrInsufficientPool is returned by Assign when there are fewer than
// MinSkills upgradable skills.
var ErrInsufficientPool = errors.New("insufficient upgradable skills for class mods")

// #region records
// Record is the original skill of every skill slot of one class mod.
type Record struct {
	ModID string         `json:"mod_id"`
	Class string         `json:"class"`
	Slots map[int]string `json:"slots"`
}

// Assignment maps a class mod id to slot index to skill name.
type Assignment map[string]map[int]string

// Digest is the sha256 of the canonical JSON encoding, or "" when empty.
func (a Assignment) Digest() string {
	if len(a) == 0 {
		return ""
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// #endregion records
