// SPDX-License-Identifier: Apache-2.0

// Package schema describes the shape of a store at each declared version and
// computes the difference between two versions. The diff decides whether a
// transition can be auto-mapped to generated DDL or needs a hand-written
// transform: that three-way answer is what the planner consumes.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/joomcode/errorx"
)

var (
	ErrNamespace = errorx.NewNamespace("schema")

	// UnknownDefinitionError indicates a version with no definition in the catalog.
	UnknownDefinitionError = ErrNamespace.NewType("unknown_definition", errorx.NotFound())

	// InvalidDefinitionError indicates a malformed schema definition file.
	InvalidDefinitionError = ErrNamespace.NewType("invalid_definition")
)

// Attribute types map one-to-one onto SQLite column affinities.
const (
	TypeText    = "text"
	TypeInteger = "integer"
	TypeReal    = "real"
	TypeBlob    = "blob"
	TypeNumeric = "numeric"
)

var knownTypes = map[string]struct{}{
	TypeText:    {},
	TypeInteger: {},
	TypeReal:    {},
	TypeBlob:    {},
	TypeNumeric: {},
}

// Attribute is one column of an entity.
type Attribute struct {
	Name       string `yaml:"name" toml:"name" json:"name"`
	Type       string `yaml:"type" toml:"type" json:"type"`
	Nullable   bool   `yaml:"nullable" toml:"nullable" json:"nullable"`
	Default    string `yaml:"default" toml:"default" json:"default"`
	PrimaryKey bool   `yaml:"primaryKey" toml:"primaryKey" json:"primaryKey"`
	// RenamedFrom names the attribute this one replaces in the previous
	// version. Renames carry data, so they always need a custom transform.
	RenamedFrom string `yaml:"renamedFrom" toml:"renamedFrom" json:"renamedFrom"`
}

// Index is a secondary index over one entity.
type Index struct {
	Name    string   `yaml:"name" toml:"name" json:"name"`
	Columns []string `yaml:"columns" toml:"columns" json:"columns"`
	Unique  bool     `yaml:"unique" toml:"unique" json:"unique"`
}

// Entity is one table of the store.
type Entity struct {
	Name        string      `yaml:"name" toml:"name" json:"name"`
	Attributes  []Attribute `yaml:"attributes" toml:"attributes" json:"attributes"`
	Indexes     []Index     `yaml:"indexes" toml:"indexes" json:"indexes"`
	RenamedFrom string      `yaml:"renamedFrom" toml:"renamedFrom" json:"renamedFrom"`
}

func (e *Entity) attribute(name string) (*Attribute, bool) {
	for i := range e.Attributes {
		if e.Attributes[i].Name == name {
			return &e.Attributes[i], true
		}
	}
	return nil, false
}

func (e *Entity) index(name string) (*Index, bool) {
	for i := range e.Indexes {
		if e.Indexes[i].Name == name {
			return &e.Indexes[i], true
		}
	}
	return nil, false
}

// Definition is the full declared shape of the store at one version.
type Definition struct {
	Version  string   `yaml:"version" toml:"version" json:"version"`
	Entities []Entity `yaml:"entities" toml:"entities" json:"entities"`
}

func (d *Definition) entity(name string) (*Entity, bool) {
	for i := range d.Entities {
		if d.Entities[i].Name == name {
			return &d.Entities[i], true
		}
	}
	return nil, false
}

// Validate checks structural soundness of a definition: a version identifier,
// unique entity and attribute names, and known attribute types.
func (d *Definition) Validate() error {
	if strings.TrimSpace(d.Version) == "" {
		return InvalidDefinitionError.New("definition is missing a version identifier")
	}

	entities := make(map[string]struct{}, len(d.Entities))
	for _, e := range d.Entities {
		if e.Name == "" {
			return InvalidDefinitionError.New("version %q declares an unnamed entity", d.Version)
		}
		if _, dup := entities[e.Name]; dup {
			return InvalidDefinitionError.New("version %q declares entity %q twice", d.Version, e.Name)
		}
		entities[e.Name] = struct{}{}

		attrs := make(map[string]struct{}, len(e.Attributes))
		for _, a := range e.Attributes {
			if a.Name == "" {
				return InvalidDefinitionError.New("entity %q in version %q declares an unnamed attribute", e.Name, d.Version)
			}
			if _, dup := attrs[a.Name]; dup {
				return InvalidDefinitionError.New("entity %q in version %q declares attribute %q twice", e.Name, d.Version, a.Name)
			}
			attrs[a.Name] = struct{}{}
			if _, ok := knownTypes[strings.ToLower(a.Type)]; !ok {
				return InvalidDefinitionError.New("attribute %q of entity %q has unknown type %q", a.Name, e.Name, a.Type)
			}
		}

		for _, idx := range e.Indexes {
			if idx.Name == "" {
				return InvalidDefinitionError.New("entity %q in version %q declares an unnamed index", e.Name, d.Version)
			}
			for _, col := range idx.Columns {
				if _, ok := attrs[col]; !ok {
					return InvalidDefinitionError.New("index %q of entity %q references unknown attribute %q", idx.Name, e.Name, col)
				}
			}
		}
	}

	return nil
}

// Diff is the structural difference between two schema versions. Blockers list
// every reason the transition cannot be auto-mapped; an empty blocker list
// means generated DDL suffices.
type Diff struct {
	Source      string
	Destination string

	AddedEntities     []string
	DroppedEntities   []string
	AddedAttributes   map[string][]string
	DroppedAttributes map[string][]string
	AddedIndexes      map[string][]string
	DroppedIndexes    map[string][]string

	Blockers []string
}

// Inferable reports whether the transition can be auto-mapped.
func (d *Diff) Inferable() bool {
	return len(d.Blockers) == 0
}

func (d *Diff) block(format string, args ...interface{}) {
	d.Blockers = append(d.Blockers, fmt.Sprintf(format, args...))
}

// Compare computes the difference from src to dst. It is a pure function of
// the two definitions: no I/O, no side effects.
func Compare(src, dst *Definition) *Diff {
	d := &Diff{
		Source:            src.Version,
		Destination:       dst.Version,
		AddedAttributes:   map[string][]string{},
		DroppedAttributes: map[string][]string{},
		AddedIndexes:      map[string][]string{},
		DroppedIndexes:    map[string][]string{},
	}

	for _, e := range dst.Entities {
		if e.RenamedFrom != "" && e.RenamedFrom != e.Name {
			d.block("entity %q is renamed from %q", e.Name, e.RenamedFrom)
			continue
		}

		old, ok := src.entity(e.Name)
		if !ok {
			d.AddedEntities = append(d.AddedEntities, e.Name)
			continue
		}

		compareEntity(d, old, &e)
	}

	for _, e := range src.Entities {
		if _, ok := dst.entity(e.Name); !ok && !renamedAway(dst, e.Name) {
			d.DroppedEntities = append(d.DroppedEntities, e.Name)
		}
	}

	sort.Strings(d.AddedEntities)
	sort.Strings(d.DroppedEntities)
	return d
}

func renamedAway(dst *Definition, oldName string) bool {
	for _, e := range dst.Entities {
		if e.RenamedFrom == oldName {
			return true
		}
	}
	return false
}

func compareEntity(d *Diff, old, next *Entity) {
	for _, a := range next.Attributes {
		if a.RenamedFrom != "" && a.RenamedFrom != a.Name {
			d.block("attribute %q of entity %q is renamed from %q", a.Name, next.Name, a.RenamedFrom)
			continue
		}

		prev, ok := old.attribute(a.Name)
		if !ok {
			if !a.Nullable && a.Default == "" {
				d.block("new attribute %q of entity %q is non-nullable without a default", a.Name, next.Name)
				continue
			}
			d.AddedAttributes[next.Name] = append(d.AddedAttributes[next.Name], a.Name)
			continue
		}

		if !strings.EqualFold(prev.Type, a.Type) {
			d.block("attribute %q of entity %q changes type from %q to %q", a.Name, next.Name, prev.Type, a.Type)
		}
		if prev.PrimaryKey != a.PrimaryKey {
			d.block("attribute %q of entity %q changes its primary key role", a.Name, next.Name)
		}
		if prev.Nullable && !a.Nullable {
			d.block("attribute %q of entity %q becomes non-nullable", a.Name, next.Name)
		}
	}

	for _, a := range old.Attributes {
		if _, ok := next.attribute(a.Name); ok || attrRenamedAway(next, a.Name) {
			continue
		}
		// SQLite cannot DROP a primary-key column without rebuilding the
		// table, so the transition needs a hand-written transform.
		if a.PrimaryKey {
			d.block("dropped attribute %q of entity %q is the primary key", a.Name, next.Name)
			continue
		}
		d.DroppedAttributes[next.Name] = append(d.DroppedAttributes[next.Name], a.Name)
	}

	for _, idx := range next.Indexes {
		if prev, ok := old.index(idx.Name); !ok {
			d.AddedIndexes[next.Name] = append(d.AddedIndexes[next.Name], idx.Name)
		} else if prev.Unique != idx.Unique || !equalColumns(prev.Columns, idx.Columns) {
			d.DroppedIndexes[next.Name] = append(d.DroppedIndexes[next.Name], idx.Name)
			d.AddedIndexes[next.Name] = append(d.AddedIndexes[next.Name], idx.Name)
		}
	}
	for _, idx := range old.Indexes {
		if _, ok := next.index(idx.Name); !ok {
			d.DroppedIndexes[next.Name] = append(d.DroppedIndexes[next.Name], idx.Name)
		}
	}
}

func attrRenamedAway(e *Entity, oldName string) bool {
	for _, a := range e.Attributes {
		if a.RenamedFrom == oldName {
			return true
		}
	}
	return false
}

func equalColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
