// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defV1() *Definition {
	return &Definition{
		Version: "1.0.0",
		Entities: []Entity{
			{
				Name: "users",
				Attributes: []Attribute{
					{Name: "id", Type: TypeInteger, PrimaryKey: true},
					{Name: "email", Type: TypeText},
				},
				Indexes: []Index{
					{Name: "idx_users_email", Columns: []string{"email"}, Unique: true},
				},
			},
		},
	}
}

func defV2() *Definition {
	return &Definition{
		Version: "2.0.0",
		Entities: []Entity{
			{
				Name: "users",
				Attributes: []Attribute{
					{Name: "id", Type: TypeInteger, PrimaryKey: true},
					{Name: "email", Type: TypeText},
					{Name: "nickname", Type: TypeText, Nullable: true},
				},
				Indexes: []Index{
					{Name: "idx_users_email", Columns: []string{"email"}, Unique: true},
				},
			},
			{
				Name: "posts",
				Attributes: []Attribute{
					{Name: "id", Type: TypeInteger, PrimaryKey: true},
					{Name: "user_id", Type: TypeInteger},
					{Name: "body", Type: TypeText, Nullable: true},
				},
			},
		},
	}
}

func TestDefinition_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Definition)
		wantErr string
	}{
		{name: "valid", mutate: func(d *Definition) {}},
		{
			name:    "missing version",
			mutate:  func(d *Definition) { d.Version = " " },
			wantErr: "missing a version",
		},
		{
			name: "duplicate entity",
			mutate: func(d *Definition) {
				d.Entities = append(d.Entities, d.Entities[0])
			},
			wantErr: "twice",
		},
		{
			name: "unknown type",
			mutate: func(d *Definition) {
				d.Entities[0].Attributes[1].Type = "varchar"
			},
			wantErr: "unknown type",
		},
		{
			name: "index over unknown attribute",
			mutate: func(d *Definition) {
				d.Entities[0].Indexes[0].Columns = []string{"missing"}
			},
			wantErr: "unknown attribute",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := defV1()
			tt.mutate(d)
			err := d.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCompare_InferableAdditions(t *testing.T) {
	diff := Compare(defV1(), defV2())

	require.True(t, diff.Inferable(), "blockers: %v", diff.Blockers)
	assert.Equal(t, []string{"posts"}, diff.AddedEntities)
	assert.Equal(t, []string{"nickname"}, diff.AddedAttributes["users"])
	assert.Empty(t, diff.DroppedEntities)
}

func TestCompare_DropsAreInferable(t *testing.T) {
	diff := Compare(defV2(), defV1())

	require.True(t, diff.Inferable(), "blockers: %v", diff.Blockers)
	assert.Equal(t, []string{"posts"}, diff.DroppedEntities)
	assert.Equal(t, []string{"nickname"}, diff.DroppedAttributes["users"])
}

func TestCompare_Blockers(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Definition)
		want   string
	}{
		{
			name: "attribute rename",
			mutate: func(d *Definition) {
				d.Entities[0].Attributes[1].Name = "mail"
				d.Entities[0].Attributes[1].RenamedFrom = "email"
				d.Entities[0].Indexes[0].Columns = []string{"mail"}
			},
			want: "renamed from",
		},
		{
			name: "type change",
			mutate: func(d *Definition) {
				d.Entities[0].Attributes[1].Type = TypeBlob
			},
			want: "changes type",
		},
		{
			name: "entity rename",
			mutate: func(d *Definition) {
				d.Entities[0].Name = "accounts"
				d.Entities[0].RenamedFrom = "users"
			},
			want: "renamed from",
		},
		{
			name: "new non-nullable attribute without default",
			mutate: func(d *Definition) {
				d.Entities[0].Attributes = append(d.Entities[0].Attributes,
					Attribute{Name: "score", Type: TypeInteger})
			},
			want: "non-nullable without a default",
		},
		{
			name: "new non-nullable attribute with default is fine",
			mutate: func(d *Definition) {
				d.Entities[0].Attributes = append(d.Entities[0].Attributes,
					Attribute{Name: "bio", Type: TypeText, Nullable: false, Default: "''"})
			},
		},
		{
			name: "dropped primary key",
			mutate: func(d *Definition) {
				d.Entities[0].Attributes = []Attribute{
					{Name: "email", Type: TypeText},
				}
				d.Entities[0].Indexes = nil
			},
			want: "is the primary key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := defV1()
			dst := defV1()
			dst.Version = "1.1.0"
			tt.mutate(dst)

			diff := Compare(src, dst)
			if tt.want == "" {
				assert.True(t, diff.Inferable(), "blockers: %v", diff.Blockers)
				return
			}
			require.False(t, diff.Inferable())
			assert.Contains(t, diff.Blockers[0], tt.want)
		})
	}
}

func TestStatements_GeneratedDDL(t *testing.T) {
	stmts, err := Statements(defV1(), defV2())
	require.NoError(t, err)

	joined := ""
	for _, s := range stmts {
		joined += s + "\n"
	}
	assert.Contains(t, joined, `CREATE TABLE "posts"`)
	assert.Contains(t, joined, `ALTER TABLE "users" ADD COLUMN "nickname" TEXT`)
}

func TestStatements_RefusesBlockedTransition(t *testing.T) {
	dst := defV1()
	dst.Version = "1.1.0"
	dst.Entities[0].Attributes[1].Type = TypeBlob

	_, err := Statements(defV1(), dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be auto-mapped")
}

func TestCreateStatements(t *testing.T) {
	stmts := CreateStatements(defV1())
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[0], `CREATE TABLE "users"`)
	assert.Contains(t, stmts[0], `"id" INTEGER PRIMARY KEY`)
	assert.Contains(t, stmts[1], `CREATE UNIQUE INDEX "idx_users_email"`)
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()

	yamlDef := `
version: "1.0.0"
entities:
  - name: users
    attributes:
      - name: id
        type: integer
        primaryKey: true
      - name: email
        type: text
`
	tomlDef := `
version = "2.0.0"

[[entities]]
name = "users"

  [[entities.attributes]]
  name = "id"
  type = "integer"
  primaryKey = true

  [[entities.attributes]]
  name = "email"
  type = "text"

  [[entities.attributes]]
  name = "nickname"
  type = "text"
  nullable = true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "v1.yaml"), []byte(yamlDef), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "v2.toml"), []byte(tomlDef), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	c, err := LoadCatalog(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.0.0", "2.0.0"}, c.Versions())

	ok, err := c.Inferable("1.0.0", "2.0.0")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = c.Inferable("1.0.0", "9.9.9")
	require.Error(t, err)
}

func TestCatalog_DuplicateVersion(t *testing.T) {
	_, err := NewCatalog(defV1(), defV1())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than once")
}
