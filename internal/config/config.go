// Package config loads srcf-sync settings from a YAML file and checks them
// against the embedded CUE schema.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/srcf/srcf-sync/internal/contract"
)

//go:embed schema.cue
var schemaSource string

// Config holds settings shared by every command. Command-line flags
// override whatever a file sets.
type Config struct {
	OutRoot string `yaml:"out_root" json:"out_root"`
	System  string `yaml:"system" json:"system"`
	Format  string `yaml:"format" json:"format"`
	Workers int    `yaml:"workers" json:"workers"` // 0 means GOMAXPROCS
	Source  Source `yaml:"source" json:"source"`
}

// Source describes the upstream database for mirror runs.
type Source struct {
	Driver   string `yaml:"driver" json:"driver"`
	DSN      string `yaml:"dsn" json:"dsn"`
	IDColumn string `yaml:"id_column" json:"id_column"`
}

// Defaults returns the configuration used when no file is given.
func Defaults() Config {
	return Config{
		OutRoot: ".",
		System:  contract.DefaultSystem,
		Format:  "text",
		Source:  Source{IDColumn: "id"},
	}
}

// Load reads the YAML file at path over Defaults and validates the result.
// An empty path returns Defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate unifies cfg with the #Config schema and requires every field
// to be concrete.
func (cfg Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	value := ctx.Encode(cfg)
	if err := value.Err(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return schema.Unify(value).Validate(cue.Concrete(true))
}
