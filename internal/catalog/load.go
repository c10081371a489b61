package catalog

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed catalog.schema.json
var schemaJSON string

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString("catalog.schema.json", schemaJSON)
	})
	return schema, schemaErr
}

// #region file-types

// File is the on-disk catalog document before hints are applied.
type File struct {
	Characters []FileCharacter `json:"characters"`
	ClassMods  []ClassMod      `json:"class_mods,omitempty"`

	// Digest is the sha256 of the raw document.
	Digest string `json:"-"`
}

// FileCharacter is one character entry of a catalog document.
type FileCharacter struct {
	Name         string       `json:"name"`
	Class        string       `json:"class,omitempty"`
	ActionSkill  Skill        `json:"action_skill"`
	Passive      []Skill      `json:"passive_skills,omitempty"`
	Extra        []Skill      `json:"extra_skills,omitempty"`
	Undocumented []Skill      `json:"undocumented_skills,omitempty"`
	Suppressed   []string     `json:"suppressed,omitempty"`
	Dependencies []Dependency `json:"dependencies,omitempty"`
	Tree         TreeDef      `json:"tree"`
}

// #endregion file-types

// #region load

// Load reads, validates and builds a catalog file without hints.
func Load(path string) (*Catalog, error) {
	f, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return f.Build()
}

// ReadFile reads and validates a catalog document.
func ReadFile(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	f, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return f, nil
}

// Parse validates raw against the catalog schema and decodes it.
func Parse(raw []byte) (*File, error) {
	s, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compile catalog schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return nil, fmt.Errorf("validate catalog: %w", err)
	}

	var f File
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	sum := sha256.Sum256(raw)
	f.Digest = hex.EncodeToString(sum[:])
	return &f, nil
}

// #endregion load

// #region build

// Build splits undocumented skills by the suppressed list and builds the catalog.
func (f *File) Build() (*Catalog, error) {
	chars := make([]Character, 0, len(f.Characters))
	for _, fc := range f.Characters {
		suppressed := make(map[string]bool, len(fc.Suppressed))
		for _, name := range fc.Suppressed {
			suppressed[name] = true
		}

		ch := Character{
			Name:         fc.Name,
			Class:        fc.Class,
			ActionSkill:  fc.ActionSkill,
			Passive:      fc.Passive,
			Extra:        fc.Extra,
			Dependencies: fc.Dependencies,
			Tree:         fc.Tree,
		}
		for _, s := range fc.Undocumented {
			if suppressed[s.Name] {
				ch.Suppressed = append(ch.Suppressed, s)
			} else {
				ch.Misdocumented = append(ch.Misdocumented, s)
			}
		}
		chars = append(chars, ch)
	}
	return New(chars, f.ClassMods)
}

// #endregion build
