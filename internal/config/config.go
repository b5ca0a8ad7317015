// Package config loads the command line tool's settings from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"yarrrml-compiler/internal/prefix"
	"yarrrml-compiler/internal/rdfio"
)

// Output formats.
const (
	FormatRML   = "rml"
	FormatR2RML = "r2rml"
	FormatYAML  = "yaml"
)

// Config represents the complete tool configuration.
type Config struct {
	Output OutputConfig `yaml:"output"`
	// Base is the base IRI used when a document declares none.
	Base string `yaml:"base"`
	// Prefixes extends the built-in prefix table, in declaration order.
	Prefixes Prefixes    `yaml:"prefixes"`
	Watch    WatchConfig `yaml:"watch"`
}

// OutputConfig selects what gets written.
type OutputConfig struct {
	// Format is rml, r2rml or yaml (decompile).
	Format string `yaml:"format"`
	// Syntax is the RDF serialization of compiled output.
	Syntax string `yaml:"syntax"`
	// PreserveDialect writes "dialect: r2rml" when decompiling R2RML.
	PreserveDialect bool `yaml:"preserve_dialect"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	// Debounce is how long a burst of file events is coalesced.
	Debounce time.Duration `yaml:"debounce"`
}

// Prefix is one label/namespace binding.
type Prefix struct {
	Label     string
	Namespace string
}

// Prefixes keeps the order of a YAML prefix mapping.
type Prefixes []Prefix

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *Prefixes) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: prefixes must be a mapping", node.Line)
	}

	out := make(Prefixes, 0, len(node.Content)/2)

	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: prefix %q must map to a namespace", v.Line, k.Value)
		}

		out = append(out, Prefix{Label: k.Value, Namespace: v.Value})
	}

	*p = out

	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (p Prefixes) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}

	for _, b := range p {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: b.Label},
			&yaml.Node{Kind: yaml.ScalarNode, Value: b.Namespace},
		)
	}

	return node, nil
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Format: FormatRML,
			Syntax: rdfio.Turtle.String(),
		},
		Watch: WatchConfig{
			Debounce: 200 * time.Millisecond,
		},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	switch c.Output.Format {
	case FormatRML, FormatR2RML, FormatYAML:
	default:
		errs = append(errs, fmt.Errorf("output.format must be rml, r2rml or yaml, got %q", c.Output.Format))
	}

	if _, err := rdfio.ParseFormat(c.Output.Syntax); err != nil {
		errs = append(errs, fmt.Errorf("output.syntax: %w", err))
	}

	if c.Base != "" && !prefix.IsAbsolute(c.Base) {
		errs = append(errs, fmt.Errorf("base must be an absolute IRI, got %q", c.Base))
	}

	if c.Watch.Debounce < 0 {
		errs = append(errs, errors.New("watch.debounce must not be negative"))
	}

	for _, p := range c.Prefixes {
		if p.Namespace == "" {
			errs = append(errs, fmt.Errorf("prefix %q has an empty namespace", p.Label))
		}
	}

	return errors.Join(errs...)
}

// PrefixTable returns the configured prefixes as a table, nil when none are set.
func (c *Config) PrefixTable() *prefix.Table {
	if len(c.Prefixes) == 0 {
		return nil
	}

	t := &prefix.Table{}
	for _, p := range c.Prefixes {
		t.Set(p.Label, p.Namespace)
	}

	return t
}

// LoadFromFile loads configuration from a YAML file over the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return rdfio.WriteFile(filepath.Clean(path), data)
}

// Merge merges another config into this one (other takes precedence for non-zero values).
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Output.Format != "" {
		c.Output.Format = other.Output.Format
	}

	if other.Output.Syntax != "" {
		c.Output.Syntax = other.Output.Syntax
	}

	if other.Output.PreserveDialect {
		c.Output.PreserveDialect = true
	}

	if other.Base != "" {
		c.Base = other.Base
	}

	if len(other.Prefixes) > 0 {
		c.Prefixes = append(append(Prefixes(nil), c.Prefixes...), other.Prefixes...)
	}

	if other.Watch.Debounce != 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}
}
