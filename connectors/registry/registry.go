// Copyright 2025 TerraLytics
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package registry holds the live connector set. A Registry is built
// and injected by the caller; there is no package-level instance.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"terralytics/platform/connectors/base"
)

// Registry maps connector names to instances, with a secondary
// type-indexed view. Registration is append-only; a name can never be
// silently replaced.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]base.Connector
	byType map[base.ConnectorType][]base.Connector
}

func New() *Registry {
	return &Registry{
		byName: make(map[string]base.Connector),
		byType: make(map[base.ConnectorType][]base.Connector),
	}
}

// Register adds a connector under its own name. A duplicate name is
// rejected so a misconfigured bootstrap cannot shadow a live connector.
func (r *Registry) Register(conn base.Connector) error {
	if conn == nil {
		return fmt.Errorf("cannot register a nil connector")
	}
	name := conn.Name()
	if name == "" {
		return fmt.Errorf("cannot register a connector without a name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("connector %q is already registered", name)
	}
	r.byName[name] = conn
	r.byType[conn.Type()] = append(r.byType[conn.Type()], conn)
	return nil
}

// Get looks a connector up by name
func (r *Registry) Get(name string) (base.Connector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.byName[name]
	return conn, ok
}

// GetTyped looks a connector up by type and name. A name registered
// under a different type does not match.
func (r *Registry) GetTyped(t base.ConnectorType, name string) (base.Connector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.byName[name]
	if !ok || conn.Type() != t {
		return nil, false
	}
	return conn, true
}

// ByType returns every connector of one type, in registration order
func (r *Registry) ByType(t base.ConnectorType) []base.Connector {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conns := r.byType[t]
	out := make([]base.Connector, len(conns))
	copy(out, conns)
	return out
}

// Names returns every registered name, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byName))
	for name := range r.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// All returns every registered connector, ordered by name
func (r *Registry) All() []base.Connector {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]base.Connector, 0, len(names))
	for _, name := range names {
		out = append(out, r.byName[name])
	}
	return out
}

// Len reports how many connectors are registered
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}
