// Package profile loads the shell profile: default variables and aliases
// every new terminal starts with.
//
//	aliases:
//	  ll: "ls -l"
//	  h: help
//	env:
//	  PS1: "{user}@{host}:{path}$ "
//	  HISTSIZE: "500"
//	motd: |
//	  Welcome!
package profile

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/nnoitra/terminal/internal/shared/utils"
)

// Profile is a parsed shell profile.
type Profile struct {
	Aliases map[string]string `yaml:"aliases,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
	Motd    string            `yaml:"motd,omitempty"`
}

// Default returns the built-in profile.
func Default() *Profile {
	return &Profile{
		Aliases: map[string]string{
			"h":   "help",
			"?":   "help",
			"cls": "clear",
		},
		Env: map[string]string{},
	}
}

// Parse decodes and validates a YAML profile. Variable names are
// upper-cased.
func Parse(content []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(content, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}

	for name := range p.Aliases {
		if err := utils.ValidateAliasName(name); err != nil {
			return nil, fmt.Errorf("aliases: %w", err)
		}
	}

	env := make(map[string]string, len(p.Env))
	for name, value := range p.Env {
		if err := utils.ValidateVariableName(name); err != nil {
			return nil, fmt.Errorf("env: %w", err)
		}
		env[strings.ToUpper(name)] = value
	}
	p.Env = env
	if p.Aliases == nil {
		p.Aliases = map[string]string{}
	}
	return &p, nil
}

// Load reads a profile from path. An empty path yields Default.
func Load(path string) (*Profile, error) {
	if path == "" {
		return Default(), nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	return Parse(content)
}

// Marshal encodes the profile as YAML.
func (p *Profile) Marshal() ([]byte, error) {
	return yaml.Marshal(p)
}
