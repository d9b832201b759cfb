package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp("", "strata-config-*.yaml")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Remove(tmpFile.Name()) })

	_, err = tmpFile.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, tmpFile.Close())
	return tmpFile.Name()
}

func TestInitialize_LoadsMigrationBlock(t *testing.T) {
	path := writeTempConfig(t, `
log:
  level: "Info"
store:
  path: "/var/lib/strata/app.db"
schema:
  dir: "/etc/strata/schemas"
migration:
  versions: ["1.0.0", "1.1.0", "2.0.0"]
  target: "2.0.0"
  resetOnMismatch: true
`)

	require.NoError(t, Initialize(path))

	cfg := Get()
	assert.Equal(t, "/var/lib/strata/app.db", cfg.Store.Path)
	assert.Equal(t, "/etc/strata/schemas", cfg.Schema.Dir)
	assert.Equal(t, []string{"1.0.0", "1.1.0", "2.0.0"}, cfg.Migration.Versions)
	assert.Equal(t, "2.0.0", cfg.Migration.Target)
	assert.True(t, cfg.Migration.ResetOnMismatch)
	assert.False(t, cfg.Migration.AllowDowngrade)

	ch := cfg.Migration.Chain()
	require.NoError(t, ch.Validate())
	assert.Equal(t, []string{"2.0.0"}, ch.Leaves())
}

func TestInitialize_EnvOverride_StorePath(t *testing.T) {
	path := writeTempConfig(t, `
store:
  path: "original.db"
`)

	envKey := "STRATA_STORE_PATH"
	expected := "/data/strata.db"
	orig := os.Getenv(envKey)
	require.NoError(t, os.Setenv(envKey, expected))
	defer func() {
		_ = os.Setenv(envKey, orig)
	}()

	require.NoError(t, Initialize(path))
	assert.Equal(t, expected, Get().Store.Path)
}

func TestInitialize_MissingFile(t *testing.T) {
	err := Initialize("/nonexistent/strata.yaml")
	require.Error(t, err)
}

func TestMigrationConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     MigrationConfig
		wantErr bool
	}{
		{
			name: "versions only",
			cfg:  MigrationConfig{Versions: []string{"1.0.0", "2.0.0"}},
		},
		{
			name: "edges only",
			cfg:  MigrationConfig{Edges: []EdgeConfig{{From: "1.0.0", To: "2.0.0"}}},
		},
		{
			name: "both versions and edges",
			cfg: MigrationConfig{
				Versions: []string{"1.0.0"},
				Edges:    []EdgeConfig{{From: "1.0.0", To: "2.0.0"}},
			},
			wantErr: true,
		},
		{
			name:    "edge missing endpoint",
			cfg:     MigrationConfig{Edges: []EdgeConfig{{From: "1.0.0"}}},
			wantErr: true,
		},
		{
			name: "opaque version identifiers",
			cfg:  MigrationConfig{Versions: []string{"V1", "V2"}, Target: "V2"},
		},
		{
			name: "target without a declared chain",
			cfg:  MigrationConfig{Target: "latest"},
		},
		{
			name: "target in declared chain",
			cfg:  MigrationConfig{Versions: []string{"1.0.0", "2.0.0"}, Target: "2.0.0"},
		},
		{
			name:    "target outside declared chain",
			cfg:     MigrationConfig{Versions: []string{"1.0.0", "2.0.0"}, Target: "3.0.0"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestMigrationConfig_Chain_FromEdges(t *testing.T) {
	cfg := MigrationConfig{Edges: []EdgeConfig{
		{From: "1.0.0", To: "1.1.0"},
		{From: "1.1.0", To: "2.0.0"},
	}}

	ch := cfg.Chain()
	require.NoError(t, ch.Validate())
	next, ok := ch.Next("1.0.0")
	require.True(t, ok)
	assert.Equal(t, "1.1.0", next)
}

func TestMigrationConfig_Chain_Undeclared(t *testing.T) {
	ch := MigrationConfig{}.Chain()
	require.NoError(t, ch.Validate())
	assert.Zero(t, ch.Len())
}
