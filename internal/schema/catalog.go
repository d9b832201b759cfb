// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/automa-saga/logx"
	"github.com/joomcode/errorx"
	"gopkg.in/yaml.v3"
)

// Catalog holds the definition of every declared schema version.
type Catalog struct {
	defs map[string]*Definition
}

// NewCatalog builds a catalog from in-memory definitions. Every definition
// must validate and version identifiers must be unique.
func NewCatalog(defs ...*Definition) (*Catalog, error) {
	c := &Catalog{defs: make(map[string]*Definition, len(defs))}
	for _, d := range defs {
		if err := c.add(d); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) add(d *Definition) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if _, dup := c.defs[d.Version]; dup {
		return InvalidDefinitionError.New("version %q is defined more than once", d.Version)
	}
	c.defs[d.Version] = d
	return nil
}

// Definition returns the definition for version, if declared.
func (c *Catalog) Definition(version string) (*Definition, bool) {
	d, ok := c.defs[version]
	return d, ok
}

// Require returns the definition for version or an UnknownDefinitionError.
func (c *Catalog) Require(version string) (*Definition, error) {
	d, ok := c.defs[version]
	if !ok {
		return nil, UnknownDefinitionError.New("no schema definition for version %q", version)
	}
	return d, nil
}

// Versions lists the declared versions, sorted for stable output.
func (c *Catalog) Versions() []string {
	out := make([]string, 0, len(c.defs))
	for v := range c.defs {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Inferable reports whether the transition from src to dst can be auto-mapped.
// Both versions must be declared in the catalog.
func (c *Catalog) Inferable(src, dst string) (bool, error) {
	from, err := c.Require(src)
	if err != nil {
		return false, err
	}
	to, err := c.Require(dst)
	if err != nil {
		return false, err
	}
	return Compare(from, to).Inferable(), nil
}

// LoadCatalog reads every .yaml, .yml and .toml definition file in dir.
// Other files are ignored.
func LoadCatalog(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, InvalidDefinitionError.Wrap(err, "cannot read schema catalog directory %q", dir)
	}

	c := &Catalog{defs: map[string]*Definition{}}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		var d *Definition
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml":
			d, err = loadYAML(path)
		case ".toml":
			d, err = loadTOML(path)
		default:
			continue
		}
		if err != nil {
			return nil, err
		}

		if err := c.add(d); err != nil {
			return nil, errorx.Decorate(err, "in definition file %q", path)
		}
	}

	logx.As().Debug().
		Str("dir", dir).
		Int("versions", len(c.defs)).
		Msg("Loaded schema catalog")

	return c, nil
}

func loadYAML(path string) (*Definition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, InvalidDefinitionError.Wrap(err, "cannot read definition file %q", path)
	}

	var d Definition
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, InvalidDefinitionError.Wrap(err, "cannot parse definition file %q", path)
	}
	return &d, nil
}

func loadTOML(path string) (*Definition, error) {
	var d Definition
	if _, err := toml.DecodeFile(path, &d); err != nil {
		return nil, InvalidDefinitionError.Wrap(err, "cannot parse definition file %q", path)
	}
	return &d, nil
}
