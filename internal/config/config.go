// Package config holds the hierarchical rule configuration and the engine settings.
//
// The rule configuration is a tree of scopes: root > rule set > rule > property.
// It is read with gopkg.in/yaml.v3 so rule ids keep their case. Engine settings
// live under the "jsguard" section of the same file and are read with viper
// (see settings.go).
package config

import (
	"fmt"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Well-known keys available on every rule set and rule scope
const (
	KeyActive   = "active"
	KeySeverity = "severity"
	KeyExcludes = "excludes"
	KeyIncludes = "includes"
	KeyAliases  = "aliases"
	KeyDebt     = "debt"
)

// SettingsSection is the top-level section holding engine settings
const SettingsSection = "jsguard"

// Config is one scope of the rule configuration
type Config interface {
	// SubConfig returns the named child scope. A missing child yields an
	// empty scope for which Exists is false.
	SubConfig(key string) Config

	// Local returns the raw value of key declared in this scope
	Local(key string) (any, bool)

	// Lookup returns the raw value of key from this scope or, failing
	// that, the nearest enclosing scope that declares it
	Lookup(key string) (any, bool)

	// Path returns the scope names from the root, e.g. ["style", "MaxLineLength"]
	Path() []string

	// Exists reports whether the scope is declared
	Exists() bool

	// Keys returns the keys declared in this scope, sorted
	Keys() []string
}

// YAMLConfig is a configuration scope backed by a parsed YAML document
type YAMLConfig struct {
	props  map[string]any
	path   []string
	parent *YAMLConfig
	exists bool
}

// Empty returns a configuration without any scope or value
func Empty() *YAMLConfig {
	return &YAMLConfig{props: map[string]any{}}
}

// ParseYAML parses a YAML document into a root configuration scope
func ParseYAML(data []byte) (*YAMLConfig, error) {
	props := map[string]any{}
	if err := yaml.Unmarshal(data, &props); err != nil {
		return nil, err
	}
	if props == nil {
		props = map[string]any{}
	}
	return &YAMLConfig{props: props, exists: true}, nil
}

// LoadYAML reads and parses a YAML configuration file
func LoadYAML(path string) (*YAMLConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// SubConfig implements Config
func (c *YAMLConfig) SubConfig(key string) Config {
	return c.sub(key)
}

func (c *YAMLConfig) sub(key string) *YAMLConfig {
	child := &YAMLConfig{
		props:  map[string]any{},
		path:   append(slices.Clone(c.path), key),
		parent: c,
	}
	if m, ok := c.props[key].(map[string]any); ok {
		child.props = m
		child.exists = true
	}
	return child
}

// Local implements Config
func (c *YAMLConfig) Local(key string) (any, bool) {
	v, ok := c.props[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Lookup implements Config
func (c *YAMLConfig) Lookup(key string) (any, bool) {
	for cur := c; cur != nil; cur = cur.parent {
		if v, ok := cur.Local(key); ok {
			return v, true
		}
	}
	return nil, false
}

// Path implements Config
func (c *YAMLConfig) Path() []string {
	return slices.Clone(c.path)
}

// Exists implements Config
func (c *YAMLConfig) Exists() bool {
	return c.exists
}

// Keys implements Config
func (c *YAMLConfig) Keys() []string {
	return sortedKeys(c.props)
}

func sortedKeys(m map[string]any) []string {
	return slices.Sorted(maps.Keys(m))
}

// Properties returns the raw property tree of this scope
func (c *YAMLConfig) Properties() map[string]any {
	return c.props
}

// CompositeConfig resolves values from a primary configuration first and
// falls back to a secondary one. It implements "build upon default" where
// the user configuration is primary and the shipped default is secondary.
type CompositeConfig struct {
	primary   Config
	secondary Config
	parent    *CompositeConfig
}

// NewCompositeConfig creates a composite of primary over secondary
func NewCompositeConfig(primary, secondary Config) *CompositeConfig {
	return &CompositeConfig{primary: primary, secondary: secondary}
}

// SubConfig implements Config
func (c *CompositeConfig) SubConfig(key string) Config {
	return &CompositeConfig{
		primary:   c.primary.SubConfig(key),
		secondary: c.secondary.SubConfig(key),
		parent:    c,
	}
}

// Local implements Config
func (c *CompositeConfig) Local(key string) (any, bool) {
	if v, ok := c.primary.Local(key); ok {
		return v, true
	}
	return c.secondary.Local(key)
}

// Lookup implements Config. Both layers are consulted at each scope
// before moving outward.
func (c *CompositeConfig) Lookup(key string) (any, bool) {
	for cur := c; cur != nil; cur = cur.parent {
		if v, ok := cur.Local(key); ok {
			return v, true
		}
	}
	return nil, false
}

// Path implements Config
func (c *CompositeConfig) Path() []string {
	return c.primary.Path()
}

// Exists implements Config
func (c *CompositeConfig) Exists() bool {
	return c.primary.Exists() || c.secondary.Exists()
}

// Keys implements Config
func (c *CompositeConfig) Keys() []string {
	keys := append(c.primary.Keys(), c.secondary.Keys()...)
	slices.Sort(keys)
	return slices.Compact(keys)
}

// uponDefaultConfig deactivates scopes that neither the user nor the
// default configuration declares
type uponDefaultConfig struct {
	Config
}

func (c uponDefaultConfig) SubConfig(key string) Config {
	return uponDefaultConfig{c.Config.SubConfig(key)}
}

func (c uponDefaultConfig) Local(key string) (any, bool) {
	if key == KeyActive && !c.Config.Exists() && len(c.Config.Path()) > 0 {
		return false, true
	}
	return c.Config.Local(key)
}

// allRulesConfig activates every rule. Rule sets keep an explicit
// "active: false".
type allRulesConfig struct {
	Config
}

func (c allRulesConfig) SubConfig(key string) Config {
	return allRulesConfig{c.Config.SubConfig(key)}
}

func (c allRulesConfig) Local(key string) (any, bool) {
	if key != KeyActive {
		return c.Config.Local(key)
	}
	switch len(c.Config.Path()) {
	case 1:
		if v, ok := c.Config.Local(key); ok && v == false {
			return false, true
		}
		return true, true
	case 2:
		return true, true
	}
	return c.Config.Local(key)
}

// LoadOptions control how the user configuration is combined with the default
type LoadOptions struct {
	// BuildUponDefault merges the user configuration over the default one
	BuildUponDefault bool

	// AllRules activates every rule regardless of configuration
	AllRules bool
}

// Load builds the rule configuration for a run. An empty path uses the
// shipped default configuration alone.
func Load(path string, opts LoadOptions) (Config, *YAMLConfig, error) {
	defaults, err := DefaultRuleConfig()
	if err != nil {
		return nil, nil, err
	}

	var (
		cfg  Config
		user *YAMLConfig
	)
	switch {
	case path == "":
		cfg = uponDefaultConfig{defaults}
	case opts.BuildUponDefault:
		user, err = LoadYAML(path)
		if err != nil {
			return nil, nil, err
		}
		cfg = uponDefaultConfig{NewCompositeConfig(user, defaults)}
	default:
		user, err = LoadYAML(path)
		if err != nil {
			return nil, nil, err
		}
		cfg = user
	}

	if opts.AllRules {
		// Unwrap the unlisted-scope policy; every rule runs.
		if u, ok := cfg.(uponDefaultConfig); ok {
			cfg = u.Config
		}
		cfg = allRulesConfig{cfg}
	}
	return cfg, user, nil
}
