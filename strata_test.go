// SPDX-License-Identifier: Apache-2.0

package strata_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratahq/strata"
)

// End-to-end through the public surface: declare a chain, register a
// transform, migrate a store across an inferable and a custom step.
func TestMigrateThroughPublicSurface(t *testing.T) {
	ctx := context.Background()

	catalog, err := strata.NewCatalog(
		&strata.Definition{
			Version: "1.0.0",
			Entities: []strata.Entity{{
				Name: "notes",
				Attributes: []strata.Attribute{
					{Name: "id", Type: "integer", PrimaryKey: true},
					{Name: "body", Type: "text"},
				},
			}},
		},
		&strata.Definition{
			Version: "1.1.0",
			Entities: []strata.Entity{{
				Name: "notes",
				Attributes: []strata.Attribute{
					{Name: "id", Type: "integer", PrimaryKey: true},
					{Name: "body", Type: "text"},
					{Name: "pinned", Type: "integer", Nullable: true},
				},
			}},
		},
		&strata.Definition{
			Version: "2.0.0",
			Entities: []strata.Entity{{
				Name: "notes",
				Attributes: []strata.Attribute{
					{Name: "id", Type: "integer", PrimaryKey: true},
					{Name: "content", Type: "text", RenamedFrom: "body"},
					{Name: "pinned", Type: "integer", Nullable: true},
				},
			}},
		},
	)
	require.NoError(t, err)

	ch := strata.ChainFromVersions("1.0.0", "1.1.0", "2.0.0")
	require.NoError(t, ch.Validate())

	transforms := strata.NewTransforms().
		Register("1.1.0", "2.0.0", func(ctx context.Context, tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `ALTER TABLE "notes" RENAME COLUMN "body" TO "content"`)
			return err
		})

	st, err := strata.Open(ctx, filepath.Join(t.TempDir(), "notes.db"))
	require.NoError(t, err)
	defer st.Close()

	// Seed a store at 1.0.0 with a row.
	def, err := catalog.Require("1.0.0")
	require.NoError(t, err)
	require.NoError(t, st.Initialize(ctx, def))
	_, err = st.DB().Exec(`INSERT INTO "notes" (id, body) VALUES (1, 'hello')`)
	require.NoError(t, err)

	m := strata.NewMigrator(catalog, strata.WithTransforms(transforms))
	require.NoError(t, m.Migrate(ctx, st, ch, "2.0.0"))

	version, ok, err := st.RecordedVersion(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2.0.0", version)

	var content string
	require.NoError(t, st.DB().QueryRow(`SELECT content FROM "notes" WHERE id = 1`).Scan(&content))
	assert.Equal(t, "hello", content)
}
