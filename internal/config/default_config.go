package config

import (
	_ "embed"
	"fmt"
)

// DefaultConfigYAML contains the embedded default rule configuration
//
//go:embed default-config.yml
var DefaultConfigYAML string

// DefaultRuleConfig parses the embedded default rule configuration
func DefaultRuleConfig() (*YAMLConfig, error) {
	cfg, err := ParseYAML([]byte(DefaultConfigYAML))
	if err != nil {
		return nil, fmt.Errorf("invalid embedded default configuration: %w", err)
	}
	return cfg, nil
}
