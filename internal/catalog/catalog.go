package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// #region catalog
// Catalog is the immutable skill and class mod data for every known character.
type Catalog struct {
	characters map[string]Character
	byClass    map[string]string
	names      []string
	skills     map[string]Skill
	classMods  map[string][]ClassMod
	digest     string
}

// New validates the characters and class mods and builds an immutable catalog.
func New(characters []Character, mods []ClassMod) (*Catalog, error) {
	c := &Catalog{
		characters: make(map[string]Character, len(characters)),
		byClass:    make(map[string]string, len(characters)),
		skills:     make(map[string]Skill),
		classMods:  make(map[string][]ClassMod),
	}

	for _, ch := range characters {
		if ch.Name == "" {
			return nil, fmt.Errorf("character with class %q has no name", ch.Class)
		}
		if _, dup := c.characters[ch.Name]; dup {
			return nil, fmt.Errorf("duplicate character %q", ch.Name)
		}
		if ch.ActionSkill.Name == "" {
			return nil, fmt.Errorf("character %s: missing action skill", ch.Name)
		}

		ch.ActionSkill.IsAction = true
		ch.ActionSkill = normalize(ch.ActionSkill, ch.Name)
		if err := c.addSkill(ch.ActionSkill); err != nil {
			return nil, fmt.Errorf("character %s: %w", ch.Name, err)
		}
		for _, group := range []*[]Skill{&ch.Passive, &ch.Extra, &ch.Misdocumented, &ch.Suppressed} {
			list := make([]Skill, len(*group))
			for i, s := range *group {
				if s.IsAction {
					return nil, fmt.Errorf("character %s: %s: second action skill", ch.Name, s.Name)
				}
				list[i] = normalize(s, ch.Name)
				if err := c.addSkill(list[i]); err != nil {
					return nil, fmt.Errorf("character %s: %w", ch.Name, err)
				}
			}
			*group = list
		}

		c.characters[ch.Name] = ch
		if ch.Class != "" {
			c.byClass[ch.Class] = ch.Name
		}
		c.names = append(c.names, ch.Name)
	}
	sort.Strings(c.names)

	for _, m := range mods {
		if m.ID == "" {
			return nil, fmt.Errorf("class mod for %q has no id", m.Class)
		}
		slots := append([]ModSlot(nil), m.Slots...)
		sort.Slice(slots, func(i, j int) bool { return slots[i].Index < slots[j].Index })
		m.Slots = slots
		c.classMods[m.Class] = append(c.classMods[m.Class], m)
	}
	for class := range c.classMods {
		list := c.classMods[class]
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	}

	digest, err := contentDigest(c)
	if err != nil {
		return nil, err
	}
	c.digest = digest
	return c, nil
}

func (c *Catalog) addSkill(s Skill) error {
	if s.Name == "" {
		return fmt.Errorf("skill with empty name")
	}
	if s.MaxGrade < 1 {
		return fmt.Errorf("skill %s: max grade %d < 1", s.Name, s.MaxGrade)
	}
	if _, dup := c.skills[s.Name]; dup {
		return fmt.Errorf("duplicate skill %s", s.Name)
	}
	c.skills[s.Name] = s
	return nil
}

func normalize(s Skill, character string) Skill {
	s.Character = character
	if s.DisplayName == "" {
		s.DisplayName = s.Name
	}
	return s
}

// #endregion catalog

// #region accessors

// Names returns every character name in sorted order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.names...)
}

// Character returns a character by name.
func (c *Catalog) Character(name string) (Character, bool) {
	ch, ok := c.characters[name]
	return ch, ok
}

// CharacterByClass returns the character playing the given base class.
func (c *Catalog) CharacterByClass(class string) (Character, bool) {
	name, ok := c.byClass[class]
	if !ok {
		return Character{}, false
	}
	return c.Character(name)
}

// Skill returns a skill by its unique name.
func (c *Catalog) Skill(name string) (Skill, bool) {
	s, ok := c.skills[name]
	return s, ok
}

// ClassMods returns the class mods of a base class sorted by ID.
func (c *Catalog) ClassMods(class string) []ClassMod {
	return append([]ClassMod(nil), c.classMods[class]...)
}

// Digest identifies the catalog content.
func (c *Catalog) Digest() string {
	return c.digest
}

// #endregion accessors

// #region active-set
// Active returns the active skill set for the enabled characters under v.
// Skills are de-duplicated and ordered by name.
func (c *Catalog) Active(enabled []string, v Visibility) []Skill {
	seen := make(map[string]bool)
	var out []Skill
	add := func(list []Skill) {
		for _, s := range list {
			if seen[s.Name] {
				continue
			}
			seen[s.Name] = true
			out = append(out, s)
		}
	}
	for _, name := range enabled {
		ch, ok := c.characters[name]
		if !ok {
			continue
		}
		add(ch.Passive)
		if v != VisibilityNone {
			add(ch.Misdocumented)
		}
		if v == VisibilityAll {
			add(ch.Suppressed)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Dependencies returns the declarations of the enabled characters in
// registration order.
func (c *Catalog) Dependencies(enabled []string) []Dependency {
	var out []Dependency
	for _, name := range enabled {
		if ch, ok := c.characters[name]; ok {
			out = append(out, ch.Dependencies...)
		}
	}
	return out
}

// #endregion active-set

func contentDigest(c *Catalog) (string, error) {
	snapshot := struct {
		Characters []Character
		ClassMods  map[string][]ClassMod
	}{ClassMods: c.classMods}
	for _, name := range c.names {
		snapshot.Characters = append(snapshot.Characters, c.characters[name])
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("marshal catalog digest: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
