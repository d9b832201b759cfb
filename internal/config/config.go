// SPDX-License-Identifier: Apache-2.0

package config

import (
	"strings"

	"github.com/automa-saga/logx"
	"github.com/joomcode/errorx"
	"github.com/spf13/viper"

	"github.com/stratahq/strata/internal/chain"
)

// Config holds the global configuration for the application.
type Config struct {
	Log       logx.LoggingConfig `yaml:"log" json:"log"`
	Store     StoreConfig        `yaml:"store" json:"store"`
	Schema    SchemaConfig       `yaml:"schema" json:"schema"`
	Migration MigrationConfig    `yaml:"migration" json:"migration"`
}

// StoreConfig represents the `store` configuration block.
type StoreConfig struct {
	Path string `yaml:"path" json:"path"` // Store file path
}

// SchemaConfig represents the `schema` configuration block.
type SchemaConfig struct {
	Dir string `yaml:"dir" json:"dir"` // Directory of schema definition files
}

// EdgeConfig is one declared version transition.
type EdgeConfig struct {
	From string `yaml:"from" json:"from"`
	To   string `yaml:"to" json:"to"`
}

// MigrationConfig represents the `migration` configuration block. A chain is
// declared either as an ordered version list or as explicit edges, never both.
type MigrationConfig struct {
	Versions        []string     `yaml:"versions" json:"versions"`
	Edges           []EdgeConfig `yaml:"edges" json:"edges"`
	Target          string       `yaml:"target" json:"target"`
	ResetOnMismatch bool         `yaml:"resetOnMismatch" json:"resetOnMismatch"`
	AllowDowngrade  bool         `yaml:"allowDowngrade" json:"allowDowngrade"`
}

// Validate validates migration configuration fields that are set.
func (c MigrationConfig) Validate() error {
	if len(c.Versions) > 0 && len(c.Edges) > 0 {
		return errorx.IllegalArgument.New(
			"migration chain must be declared as either versions or edges, not both")
	}
	for i, e := range c.Edges {
		if e.From == "" || e.To == "" {
			return errorx.IllegalArgument.New(
				"migration edge[%d]: both from and to are required", i)
		}
	}
	// Version identifiers are opaque strings; the only sensible check on a
	// target is membership in the declared chain.
	if c.Target != "" {
		if ch := c.Chain(); ch.Len() > 0 && !ch.Contains(c.Target) {
			return errorx.IllegalArgument.New(
				"target version %q is not declared in the migration chain", c.Target)
		}
	}
	return nil
}

// Chain builds the declared version chain. An undeclared chain is empty,
// which permits only direct jumps.
func (c MigrationConfig) Chain() *chain.Chain {
	if len(c.Edges) > 0 {
		edges := make([]chain.Edge, 0, len(c.Edges))
		for _, e := range c.Edges {
			edges = append(edges, chain.Edge{Source: e.From, Destination: e.To})
		}
		return chain.FromEdges(edges)
	}
	if len(c.Versions) > 0 {
		return chain.FromVersions(c.Versions...)
	}
	return chain.Empty()
}

// Validate validates all configuration fields.
func (c Config) Validate() error {
	if err := c.Migration.Validate(); err != nil {
		return err
	}
	return nil
}

var globalConfig = Config{
	Log: logx.LoggingConfig{
		Level:          "Debug",
		ConsoleLogging: true,
		FileLogging:    false,
	},
	Store: StoreConfig{
		Path: "strata.db",
	},
	Schema: SchemaConfig{
		Dir: "schemas",
	},
}

// Initialize loads the configuration from the specified file.
//
// Parameters:
//   - path: The path to the configuration file.
//
// Returns:
//   - An error if the configuration cannot be loaded.
func Initialize(path string) error {
	if path != "" {
		globalConfig = Config{}
		viper.Reset()
		viper.SetConfigFile(path)
		viper.SetEnvPrefix("STRATA")
		viper.AutomaticEnv()
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

		err := viper.ReadInConfig()
		if err != nil {
			return NotFoundError.Wrap(err, "failed to read config file: %s", path).
				WithProperty(errorx.PropertyPayload(), path)
		}

		if err := viper.Unmarshal(&globalConfig); err != nil {
			return errorx.IllegalFormat.Wrap(err, "failed to parse configuration").
				WithProperty(errorx.PropertyPayload(), path)
		}
	}

	return nil
}

// Get returns the loaded configuration.
//
// Returns:
//   - The global configuration.
func Get() Config {
	return globalConfig
}

func Set(c *Config) error {
	globalConfig = *c
	return nil
}

// OverrideMigrationConfig updates the migration configuration with provided
// overrides. Empty string values are ignored (not applied).
func OverrideMigrationConfig(overrides MigrationConfig) {
	if overrides.Target != "" {
		globalConfig.Migration.Target = overrides.Target
	}
	if len(overrides.Versions) > 0 {
		globalConfig.Migration.Versions = overrides.Versions
	}
	if len(overrides.Edges) > 0 {
		globalConfig.Migration.Edges = overrides.Edges
	}
}
