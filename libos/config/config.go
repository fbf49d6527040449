// Copyright (c) The Occlum Go Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package config loads the LibOS configuration (Occlum.json) from the
// enclave instance directory. The configuration is loaded exactly once during
// init and read-only thereafter; in particular it supplies the entry-point
// allow-list and the trusted process environment that new_process consumes.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the configuration file expected inside an instance dir.
const DefaultFileName = "Occlum.json"

// Config is the subset of the Occlum instance configuration the LibOS core
// consumes.
type Config struct {
	// ResourceLimits bounds the enclave's memory and threading resources.
	ResourceLimits ResourceLimits `json:"resource_limits" yaml:"resource_limits"`
	// Process holds the per-process default sizes.
	Process ProcessDefaults `json:"process" yaml:"process"`
	// EntryPoints is the ordered allow-list of path prefixes the host may
	// launch programs under.
	EntryPoints []string `json:"entry_points" yaml:"entry_points"`
	// Env defines the trusted default environment and which variable names
	// the host may override.
	Env EnvConfig `json:"env" yaml:"env"`
	// Metadata describes the enclave build.
	Metadata Metadata `json:"metadata" yaml:"metadata"`
}

// ResourceLimits mirrors the resource_limits section. Sizes keep their
// human-readable form ("32MB"); the LibOS core does not interpret them.
type ResourceLimits struct {
	KernelSpaceHeapSize string `json:"kernel_space_heap_size" yaml:"kernel_space_heap_size"`
	UserSpaceSize       string `json:"user_space_size" yaml:"user_space_size"`
	MaxNumOfThreads     uint32 `json:"max_num_of_threads" yaml:"max_num_of_threads"`
}

// ProcessDefaults mirrors the process section.
type ProcessDefaults struct {
	DefaultStackSize string `json:"default_stack_size" yaml:"default_stack_size"`
	DefaultHeapSize  string `json:"default_heap_size" yaml:"default_heap_size"`
	DefaultMmapSize  string `json:"default_mmap_size" yaml:"default_mmap_size"`
}

// EnvConfig defines the process environment handed to spawned programs.
type EnvConfig struct {
	// Default is the trusted environment, fixed at build time.
	Default []string `json:"default" yaml:"default"`
	// Untrusted lists the variable names whose values the host environment
	// may supply or override. Any name not listed here only ever takes its
	// value from Default.
	Untrusted []string `json:"untrusted" yaml:"untrusted"`
}

// Metadata describes the enclave build properties.
type Metadata struct {
	ProductID     uint32 `json:"product_id" yaml:"product_id"`
	VersionNumber uint32 `json:"version_number" yaml:"version_number"`
	Debuggable    bool   `json:"debuggable" yaml:"debuggable"`
}

// Load reads and validates the configuration file at path.
func Load(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading LibOS configuration: %w", err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing LibOS configuration: %w", err)
		}
	default:
		if !gjson.ValidBytes(data) {
			return nil, errors.New("LibOS configuration is not valid JSON")
		}
		if !gjson.GetBytes(data, "entry_points").Exists() {
			return nil, errors.New("LibOS configuration defines no entry_points")
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing LibOS configuration: %w", err)
		}
	}

	if err := cfg.Check(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Check checks the configuration for consistency.
func (c *Config) Check() error {
	if len(c.EntryPoints) == 0 {
		return errors.New("no entry points defined")
	}
	for _, ep := range c.EntryPoints {
		if !strings.HasPrefix(ep, "/") {
			return fmt.Errorf("entry point %q is not an absolute path", ep)
		}
		for _, comp := range strings.Split(ep, "/") {
			if comp == ".." {
				return fmt.Errorf("entry point %q contains a parent component", ep)
			}
		}
	}
	for _, kv := range c.Env.Default {
		if !strings.Contains(kv, "=") {
			return fmt.Errorf("default env entry %q is not of the form KEY=VALUE", kv)
		}
	}
	return nil
}

// TrustedEnvp builds the environment for a spawned process: the trusted
// defaults, with values from hostEnv applied only for the variable names the
// configuration marks untrusted. hostEnv entries for any other name are
// dropped silently.
func (c *Config) TrustedEnvp(hostEnv []string) []string {
	envp := make([]string, len(c.Env.Default))
	copy(envp, c.Env.Default)

	allowed := make(map[string]bool, len(c.Env.Untrusted))
	for _, name := range c.Env.Untrusted {
		allowed[name] = true
	}

	for _, kv := range hostEnv {
		name, _, ok := strings.Cut(kv, "=")
		if !ok || !allowed[name] {
			continue
		}
		replaced := false
		for i, existing := range envp {
			if strings.HasPrefix(existing, name+"=") {
				envp[i] = kv
				replaced = true
				break
			}
		}
		if !replaced {
			envp = append(envp, kv)
		}
	}
	return envp
}
