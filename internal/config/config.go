// Package config implements the process configuration (A2): workspace root,
// allowed project directories, privacy rules, the model capability list, the
// tokenizer registry, and integration settings, loaded from a YAML file with
// ${VAR}-style environment expansion. spec.md names this as an external
// collaborator whose interface, not its on-disk format, is in scope (spec §1
// Non-goals: "on-disk configuration parsing"); this package supplies the one
// concrete on-disk loader the rest of the module depends on through small
// named interfaces (builtintools.Workspace's ProjectDirs/IsPrivate,
// contextpp's tokenizer registry, modelclient's per-model capabilities).
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ModelCapability describes what one model endpoint supports, grounding
// ToolBudget derivation (internal/contextpp) and tool-availability decisions
// (e.g. whether a model can receive image parts at all).
type ModelCapability struct {
	Name              string `yaml:"name"`
	NCtx              int    `yaml:"n_ctx"`
	Tokenizer         string `yaml:"tokenizer"`
	SupportsTools     bool   `yaml:"supports_tools"`
	SupportsImages    bool   `yaml:"supports_images"`
	SupportsReasoning bool   `yaml:"supports_reasoning"`
}

// Config is the process-wide configuration document.
type Config struct {
	WorkspaceRoot string                    `yaml:"workspace_root"`
	ProjectDirs   []string                  `yaml:"project_dirs"`
	PrivacyGlobs  []string                  `yaml:"privacy_globs"`
	Models        []ModelCapability         `yaml:"models"`
	Integrations  map[string]map[string]any `yaml:"integrations"`
}

// ModelCapabilityFor looks up a model's capabilities by name.
func (c *Config) ModelCapabilityFor(name string) (ModelCapability, bool) {
	for _, m := range c.Models {
		if m.Name == name {
			return m, true
		}
	}
	return ModelCapability{}, false
}

// TokenizerFor returns the tokenizer registered for a model, if any.
func (c *Config) TokenizerFor(name string) (string, bool) {
	m, ok := c.ModelCapabilityFor(name)
	if !ok || m.Tokenizer == "" {
		return "", false
	}
	return m.Tokenizer, true
}

// IsPrivate reports whether path matches one of the configured privacy
// globs. Globs are matched with path/filepath.Match against both the whole
// path and its base name, so a glob like "*.env" blocks "secrets/.env" as
// well as a bare ".env" at the root.
func (c *Config) IsPrivate(path string) bool {
	base := filepath.Base(path)
	for _, g := range c.PrivacyGlobs {
		if ok, _ := filepath.Match(g, path); ok {
			return true
		}
		if ok, _ := filepath.Match(g, base); ok {
			return true
		}
	}
	return false
}

// InProjectDirs reports whether path falls under one of the configured
// project directories. An empty ProjectDirs list puts every path in scope;
// WorkspaceRoot is not consulted.
func (c *Config) InProjectDirs(path string) bool {
	if len(c.ProjectDirs) == 0 {
		return true
	}
	clean := filepath.ToSlash(path)
	for _, d := range c.ProjectDirs {
		d = filepath.ToSlash(d)
		if clean == d || clean == d+"/" {
			return true
		}
		if len(clean) > len(d) && clean[:len(d)] == d && clean[len(d)] == '/' {
			return true
		}
	}
	return false
}

// Load reads and parses the YAML configuration at path, expanding
// ${VAR}/$VAR references against the process environment before parsing
// (the same order the teacher pack's own config loaders use: expand first,
// decode second, so a secret or path can be injected without templating the
// YAML structure itself).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := dec.Decode(new(struct{})); err != io.EOF {
		return nil, fmt.Errorf("config: %s must contain a single YAML document", path)
	}

	if cfg.WorkspaceRoot == "" {
		return nil, fmt.Errorf("config: workspace_root is required")
	}
	return &cfg, nil
}
