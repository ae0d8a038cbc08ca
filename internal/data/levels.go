package data

import (
	"fmt"
	"os"
	"sort"

	"github.com/shardfall/server/internal/component"
	"gopkg.in/yaml.v3"
)

// ObjectiveDef is one objective of a level.
type ObjectiveDef struct {
	ID     uint32  `yaml:"id"`
	Name   string  `yaml:"name"`
	Target float32 `yaml:"target"` // progress value at which the objective completes
}

// CheckpointDef is a respawn point inside a level.
type CheckpointDef struct {
	ID       uint32     `yaml:"id"`
	Position [3]float32 `yaml:"position"`
}

// LevelDef is the static definition of one level.
type LevelDef struct {
	ID                 uint32          `yaml:"id"`
	Name               string          `yaml:"name"`
	RequiredObjectives uint16          `yaml:"required_objectives"`
	Fragments          uint16          `yaml:"fragments"`
	ResonanceThreshold uint16          `yaml:"resonance_threshold"`
	TimeLimit          float32         `yaml:"time_limit"` // seconds, 0 = none
	Objectives         []ObjectiveDef  `yaml:"objectives"`
	Checkpoints        []CheckpointDef `yaml:"checkpoints"`
}

// Objective returns the objective with id, or nil. A nil def has none.
func (d *LevelDef) Objective(id uint32) *ObjectiveDef {
	if d == nil {
		return nil
	}
	for i := range d.Objectives {
		if d.Objectives[i].ID == id {
			return &d.Objectives[i]
		}
	}
	return nil
}

// Checkpoint returns the checkpoint with id, or nil.
func (d *LevelDef) Checkpoint(id uint32) *CheckpointDef {
	if d == nil {
		return nil
	}
	for i := range d.Checkpoints {
		if d.Checkpoints[i].ID == id {
			return &d.Checkpoints[i]
		}
	}
	return nil
}

type levelListFile struct {
	Levels []LevelDef `yaml:"levels"`
}

// LevelTable holds level definitions indexed by level ID.
type LevelTable struct {
	levels map[uint32]*LevelDef
}

// NewLevelTable indexes defs. Later duplicates replace earlier ones.
func NewLevelTable(defs []LevelDef) *LevelTable {
	t := &LevelTable{levels: make(map[uint32]*LevelDef, len(defs))}
	for i := range defs {
		d := &defs[i]
		if d.RequiredObjectives == 0 {
			d.RequiredObjectives = uint16(len(d.Objectives))
		}
		if d.ResonanceThreshold == 0 {
			d.ResonanceThreshold = d.Fragments
		}
		t.levels[d.ID] = d
	}
	return t
}

// Get returns the level with id, or nil if none defined.
func (t *LevelTable) Get(id uint32) *LevelDef {
	if t == nil {
		return nil
	}
	return t.levels[id]
}

// Count returns the number of levels loaded.
func (t *LevelTable) Count() int {
	if t == nil {
		return 0
	}
	return len(t.levels)
}

// IDs returns every level ID in ascending order.
func (t *LevelTable) IDs() []uint32 {
	if t == nil {
		return nil
	}
	ids := make([]uint32, 0, len(t.levels))
	for id := range t.levels {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// LoadLevelTable loads level definitions from a YAML file.
func LoadLevelTable(path string) (*LevelTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read level list: %w", err)
	}
	return ParseLevelTable(raw)
}

func ParseLevelTable(raw []byte) (*LevelTable, error) {
	var f levelListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse level list: %w", err)
	}
	for _, d := range f.Levels {
		if d.ID == 0 {
			return nil, fmt.Errorf("parse level list: level %q has no id", d.Name)
		}
		if d.ResonanceThreshold > d.Fragments {
			return nil, fmt.Errorf("parse level list: level %d resonance_threshold %d exceeds fragments %d",
				d.ID, d.ResonanceThreshold, d.Fragments)
		}
		if len(d.Objectives) > component.MaxObjectives {
			return nil, fmt.Errorf("parse level list: level %d has %d objectives, at most %d are tracked",
				d.ID, len(d.Objectives), component.MaxObjectives)
		}
		if d.Fragments > component.MaxFragments {
			return nil, fmt.Errorf("parse level list: level %d has %d fragments, at most %d are tracked",
				d.ID, d.Fragments, component.MaxFragments)
		}
	}
	return NewLevelTable(f.Levels), nil
}
