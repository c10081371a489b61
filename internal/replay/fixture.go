package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/player-randomizer/internal/params"
	"github.com/danielpatrickdp/player-randomizer/internal/state"
	"github.com/danielpatrickdp/player-randomizer/internal/tree"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string        `json:"description"`
	Seed        int64         `json:"seed"`
	Character   string        `json:"character"`
	Catalog     string        `json:"catalog,omitempty"`
	Params      params.Params `json:"params"`
	Original    *tree.Tree    `json:"original,omitempty"`
	Expected    Expected      `json:"expected"`
}

// Expected holds the digests a replay must reproduce. Empty fields are not
// checked.
type Expected struct {
	TreeDigest     string `json:"tree_digest"`
	ActionSkill    string `json:"action_skill"`
	ClassModDigest string `json:"class_mod_digest"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	f := &Fixture{Params: params.Default()}
	if err := json.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if f.Seed == 0 {
		return nil, fmt.Errorf("fixture %s: seed is required", path)
	}
	return f, nil
}

// Save writes the fixture as indented JSON.
func (f *Fixture) Save(path string) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// FromRun builds a fixture that reproduces a stored run.
func FromRun(run state.RunRecord) (*Fixture, error) {
	p, err := params.ParseJSON(run.ParamsJSON)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", run.RunID, err)
	}
	original := run.Original.Clone()
	return &Fixture{
		Description: fmt.Sprintf("exported from run %s", run.RunID),
		Seed:        run.Seed,
		Character:   run.Character,
		Params:      p,
		Original:    &original,
		Expected: Expected{
			TreeDigest:     run.TreeDigest,
			ActionSkill:    run.Tree.ActionSkill,
			ClassModDigest: run.ModDigest,
		},
	}, nil
}

// #endregion fixture-loader
