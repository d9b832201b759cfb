// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"fmt"
	"strings"
)

// CreateStatements generates the DDL that materializes def in an empty store.
func CreateStatements(def *Definition) []string {
	var stmts []string
	for _, e := range def.Entities {
		stmts = append(stmts, createTable(&e))
		for _, idx := range e.Indexes {
			stmts = append(stmts, createIndex(e.Name, &idx))
		}
	}
	return stmts
}

// Statements generates the DDL for an inferable transition from src to dst.
// It fails when the diff has blockers: those transitions need a hand-written
// transform instead of generated statements.
func Statements(src, dst *Definition) ([]string, error) {
	diff := Compare(src, dst)
	if !diff.Inferable() {
		return nil, InvalidDefinitionError.New(
			"transition %q -> %q cannot be auto-mapped: %s",
			src.Version, dst.Version, strings.Join(diff.Blockers, "; "))
	}

	var stmts []string

	for _, name := range diff.DroppedEntities {
		stmts = append(stmts, fmt.Sprintf("DROP TABLE IF EXISTS %q", name))
	}

	for _, name := range diff.AddedEntities {
		e, _ := dst.entity(name)
		stmts = append(stmts, createTable(e))
		for _, idx := range e.Indexes {
			stmts = append(stmts, createIndex(e.Name, &idx))
		}
	}

	for _, e := range dst.Entities {
		for _, idxName := range diff.DroppedIndexes[e.Name] {
			stmts = append(stmts, fmt.Sprintf("DROP INDEX IF EXISTS %q", idxName))
		}
		for _, attrName := range diff.DroppedAttributes[e.Name] {
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %q DROP COLUMN %q", e.Name, attrName))
		}
		for _, attrName := range diff.AddedAttributes[e.Name] {
			a, _ := e.attribute(attrName)
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %q ADD COLUMN %s", e.Name, columnSQL(a)))
		}
		for _, idxName := range diff.AddedIndexes[e.Name] {
			idx, _ := e.index(idxName)
			stmts = append(stmts, createIndex(e.Name, idx))
		}
	}

	return stmts, nil
}

func createTable(e *Entity) string {
	cols := make([]string, 0, len(e.Attributes))
	for i := range e.Attributes {
		cols = append(cols, columnSQL(&e.Attributes[i]))
	}
	return fmt.Sprintf("CREATE TABLE %q (%s)", e.Name, strings.Join(cols, ", "))
}

func createIndex(table string, idx *Index) string {
	unique := ""
	if idx.Unique {
		unique = "UNIQUE "
	}
	cols := make([]string, 0, len(idx.Columns))
	for _, c := range idx.Columns {
		cols = append(cols, fmt.Sprintf("%q", c))
	}
	return fmt.Sprintf("CREATE %sINDEX %q ON %q (%s)", unique, idx.Name, table, strings.Join(cols, ", "))
}

func columnSQL(a *Attribute) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%q %s", a.Name, strings.ToUpper(a.Type))
	if a.PrimaryKey {
		b.WriteString(" PRIMARY KEY")
	}
	if !a.Nullable && !a.PrimaryKey {
		b.WriteString(" NOT NULL")
	}
	if a.Default != "" {
		fmt.Fprintf(&b, " DEFAULT %s", a.Default)
	}
	return b.String()
}
