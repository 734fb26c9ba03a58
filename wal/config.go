package wal

import (
	"os"

	"github.com/goccy/go-yaml"
)

// Config configures an evaluator host. Grounded on the teacher's
// functional-option ParseOptions shape (lang/ast.go), generalized into a
// file-backed form because WAL embedders beyond this core (CXXRTL server,
// WAWK, CLI — all out of scope here) need a shared config shape.
type Config struct {
	// ScopeSeparator separates a trace id from a signal name in
	// cross-trace queries. Default "^" (spec.md 9, design note (c)).
	ScopeSeparator string `yaml:"scope_separator"`

	// MaxExpansionDepth bounds recursive macro expansion (spec.md 9).
	MaxExpansionDepth int `yaml:"max_expansion_depth"`

	// MaxDefinitionDepth bounds nested let/fn scope depth during resolve,
	// reusing the teacher's DefaultMaxDepth idiom for recursion guards.
	MaxDefinitionDepth int `yaml:"max_definition_depth"`

	// LibraryPaths is the search path for require/eval-file, fed by
	// append-library-path.
	LibraryPaths []string `yaml:"library_paths"`
}

// DefaultScopeSeparator is "^", per spec.md design note (c): an earlier
// version used ";", which collides with the comment character.
const DefaultScopeSeparator = "^"

// DefaultMaxExpansionDepth guards against non-terminating macros.
const DefaultMaxExpansionDepth = 10000

// DefaultMaxDefinitionDepth guards nested let/fn recursion.
const DefaultMaxDefinitionDepth = 10000

// DefaultConfig returns the zero-config defaults.
func DefaultConfig() Config {
	return Config{
		ScopeSeparator:     DefaultScopeSeparator,
		MaxExpansionDepth:  DefaultMaxExpansionDepth,
		MaxDefinitionDepth: DefaultMaxDefinitionDepth,
	}
}

// LoadConfig unmarshals a YAML file at path, filling unset fields with
// DefaultConfig's values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, ErrReadInput.Wrap(err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, WrapError(err)
	}

	if cfg.ScopeSeparator == "" {
		cfg.ScopeSeparator = DefaultScopeSeparator
	}

	if cfg.MaxExpansionDepth == 0 {
		cfg.MaxExpansionDepth = DefaultMaxExpansionDepth
	}

	if cfg.MaxDefinitionDepth == 0 {
		cfg.MaxDefinitionDepth = DefaultMaxDefinitionDepth
	}

	return cfg, nil
}
