package checkpoint

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"squadxp/internal/domain/category"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Domain errors
var (
	ErrEmptyID      = errors.New("checkpoint ID cannot be empty")
	ErrNegativeXP   = errors.New("checkpoint XP cannot be negative")
	ErrDuplicateID  = errors.New("checkpoint ID must be unique within its category")
	ErrNoCompletion = errors.New("attendance needs exactly one completion checkpoint")
)

// Definition is a static, fixed-XP checkpoint.
type Definition struct {
	ID        string            `yaml:"id" json:"id"`
	Category  category.Category `yaml:"-" json:"category"`
	Label     string            `yaml:"label" json:"label"`
	Emoji     string            `yaml:"emoji" json:"emoji,omitempty"`
	XP        int               `yaml:"xp" json:"xp"`
	Auto      bool              `yaml:"auto" json:"auto"`           // tier-1: set automatically on presence
	Standout  bool              `yaml:"standout" json:"standout"`   // hand-awarded by a coach only
	Completes bool              `yaml:"completes" json:"completes"` // counts as "attended and did the minimum"
}

// Quest is a longer-running goal cycled pending -> active -> done.
type Quest struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
	XP    int    `yaml:"xp" json:"xp"`
}

// Catalog indexes definitions by category and id.
type Catalog struct {
	byCategory map[category.Category][]Definition
	quests     []Quest
}

type catalogFile struct {
	Checkpoints map[string][]Definition `yaml:"checkpoints"`
	Quests      []Quest                 `yaml:"quests"`
}

// Default returns the embedded catalog.
// POST: panics only if the embedded file is malformed (a build defect)
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded checkpoint catalog: %v", err))
	}
	return c
}

// Parse loads a catalog from YAML.
// PRE: data is a YAML document with checkpoints and quests
// POST: Returns a validated catalog or an error
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	c := &Catalog{byCategory: map[category.Category][]Definition{}, quests: f.Quests}
	for key, defs := range f.Checkpoints {
		cat, err := category.Parse(key)
		if err != nil {
			return nil, fmt.Errorf("catalog section %q: %w", key, err)
		}
		seen := map[string]bool{}
		for i := range defs {
			defs[i].Category = cat
			if err := defs[i].Validate(); err != nil {
				return nil, fmt.Errorf("catalog %s[%d]: %w", key, i, err)
			}
			if seen[defs[i].ID] {
				return nil, fmt.Errorf("catalog %s/%s: %w", key, defs[i].ID, ErrDuplicateID)
			}
			seen[defs[i].ID] = true
		}
		c.byCategory[cat] = defs
	}
	if _, ok := c.Completion(category.Attendance); !ok {
		return nil, ErrNoCompletion
	}
	return c, nil
}

// Validate checks if the Definition has valid data.
// PRE: Definition struct is populated
// POST: Returns nil if valid, error otherwise
func (d *Definition) Validate() error {
	if d.ID == "" {
		return ErrEmptyID
	}
	if d.XP < 0 {
		return ErrNegativeXP
	}
	if !d.Category.Valid() {
		return category.ErrUnknown
	}
	return nil
}

// List returns the definitions for c in catalog order.
func (c *Catalog) List(cat category.Category) []Definition {
	return c.byCategory[cat]
}

// Lookup finds a checkpoint by category and id.
func (c *Catalog) Lookup(cat category.Category, id string) (Definition, bool) {
	for _, d := range c.byCategory[cat] {
		if d.ID == id {
			return d, true
		}
	}
	return Definition{}, false
}

// Auto returns the tier-1 checkpoints set automatically on presence.
// Standout checkpoints are never included.
func (c *Catalog) Auto(cat category.Category) []Definition {
	var out []Definition
	for _, d := range c.byCategory[cat] {
		if d.Auto && !d.Standout {
			out = append(out, d)
		}
	}
	return out
}

// Completion returns the checkpoint whose check credits the day's streak.
func (c *Catalog) Completion(cat category.Category) (Definition, bool) {
	for _, d := range c.byCategory[cat] {
		if d.Completes {
			return d, true
		}
	}
	return Definition{}, false
}

// Quests returns every quest definition.
func (c *Catalog) Quests() []Quest {
	return c.quests
}

// Quest finds a quest by id.
func (c *Catalog) Quest(id string) (Quest, bool) {
	for _, q := range c.quests {
		if q.ID == id {
			return q, true
		}
	}
	return Quest{}, false
}
