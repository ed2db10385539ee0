// Copyright 2025 TerraLytics
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package config loads provider configurations from YAML files with
// environment-variable expansion and secret-reference resolution.
package config

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"terralytics/platform/connectors/base"
)

// File is the root structure of a provider configuration file
type File struct {
	Version   string                    `yaml:"version"`
	Providers map[string]ProviderConfig `yaml:"providers"`
}

// ProviderConfig is one provider entry in the config file
type ProviderConfig struct {
	Type            string            `yaml:"type"`
	Enabled         *bool             `yaml:"enabled,omitempty"` // nil means enabled
	Endpoint        string            `yaml:"endpoint"`
	APIKey          string            `yaml:"api_key,omitempty"`
	Strategy        string            `yaml:"strategy,omitempty"`
	Layer           string            `yaml:"layer,omitempty"`
	TimeoutMs       int               `yaml:"timeout_ms,omitempty"`
	Region          string            `yaml:"region,omitempty"`
	State           string            `yaml:"state,omitempty"`
	DefaultLocation string            `yaml:"default_location,omitempty"`
	Headers         map[string]string `yaml:"headers,omitempty"`
}

// Loader reads provider configuration from a YAML file. ${VAR} and
// $VAR references are expanded from the environment before parsing;
// api_key values of the form secret://name[#key] are resolved through
// the injected SecretResolver.
type Loader struct {
	filePath string
	secrets  SecretResolver
	file     *File
}

// NewLoader parses the file at filePath. A nil resolver leaves
// secret:// references unresolved and fails loudly on first use.
func NewLoader(filePath string, secrets SecretResolver) (*Loader, error) {
	l := &Loader{filePath: filePath, secrets: secrets}
	if err := l.Reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// Reload re-reads and re-parses the configuration file
func (l *Loader) Reload() error {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", l.filePath, err)
	}

	expanded := expandEnvVars(string(data))

	var file File
	if err := yaml.Unmarshal([]byte(expanded), &file); err != nil {
		return fmt.Errorf("parse config file %s: %w", l.filePath, err)
	}
	l.file = &file
	return nil
}

// Providers returns the enabled provider configs, sorted by name so
// bootstrap order is deterministic.
func (l *Loader) Providers(ctx context.Context) ([]*base.ConnectorConfig, error) {
	if l.file == nil {
		return nil, fmt.Errorf("config not loaded")
	}

	names := make([]string, 0, len(l.file.Providers))
	for name := range l.file.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	var configs []*base.ConnectorConfig
	for _, name := range names {
		pc := l.file.Providers[name]
		if pc.Enabled != nil && !*pc.Enabled {
			continue
		}

		apiKey, err := l.resolveAPIKey(ctx, name, pc.APIKey)
		if err != nil {
			return nil, err
		}

		timeout := time.Duration(pc.TimeoutMs) * time.Millisecond
		configs = append(configs, &base.ConnectorConfig{
			Name:            name,
			Type:            base.ConnectorType(pc.Type),
			Endpoint:        pc.Endpoint,
			APIKey:          apiKey,
			Strategy:        pc.Strategy,
			Layer:           pc.Layer,
			Timeout:         timeout,
			Region:          pc.Region,
			State:           pc.State,
			DefaultLocation: pc.DefaultLocation,
			Headers:         pc.Headers,
		})
	}
	return configs, nil
}

// resolveAPIKey turns a secret:// reference into the credential it
// names. Plain values pass through untouched.
func (l *Loader) resolveAPIKey(ctx context.Context, provider, raw string) (string, error) {
	if !strings.HasPrefix(raw, "secret://") {
		return raw, nil
	}
	if l.secrets == nil {
		return "", fmt.Errorf("provider %s references a secret but no secret resolver is configured", provider)
	}

	ref := strings.TrimPrefix(raw, "secret://")
	field := "value"
	if idx := strings.Index(ref, "#"); idx >= 0 {
		field = ref[idx+1:]
		ref = ref[:idx]
	}

	secret, err := l.secrets.Resolve(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("resolve secret for provider %s: %w", provider, err)
	}
	val, ok := secret[field]
	if !ok {
		return "", fmt.Errorf("secret for provider %s has no field %q", provider, field)
	}
	return val, nil
}

// envVarRegex matches ${VAR_NAME} or $VAR_NAME patterns
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandEnvVars expands environment variable references, supporting
// ${VAR}, $VAR, and ${VAR:-default}. Undefined variables without a
// default become empty strings.
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		defaultVal := ""
		if idx := strings.Index(varName, ":-"); idx != -1 {
			defaultVal = varName[idx+2:]
			varName = varName[:idx]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultVal
	})
}
