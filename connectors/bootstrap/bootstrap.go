// Copyright 2025 TerraLytics
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package bootstrap stands the connector set up from configuration.
// Each provider is attempted independently; one bad config never blocks
// the rest.
package bootstrap

import (
	"fmt"

	"terralytics/platform/connectors/base"
	"terralytics/platform/connectors/factory"
	"terralytics/platform/connectors/registry"
	"terralytics/platform/shared/logger"
)

// Summary reports how a bootstrap run resolved.
type Summary struct {
	Registered []string
	Failed     map[string]error
}

func (s *Summary) Ok() bool { return len(s.Failed) == 0 }

// Run attempts every provider config in order and reports the outcome
// once all attempts have resolved. Construction outcomes are audited
// individually by the factory; Run adds one closing summary record.
func Run(reg *registry.Registry, sink base.AuditSink, configs []*base.ConnectorConfig) *Summary {
	if sink == nil {
		sink = base.NopSink{}
	}
	log := logger.New("BOOTSTRAP")
	f := factory.New(reg, sink)

	summary := &Summary{Failed: make(map[string]error)}
	for _, cfg := range configs {
		name := configName(cfg)
		if _, err := f.Create(cfg); err != nil {
			summary.Failed[name] = err
			continue
		}
		summary.Registered = append(summary.Registered, name)
	}

	rec := base.NewAuditRecord(base.AuditCategoryFactory, "bootstrap",
		fmt.Sprintf("bootstrap complete: %d registered, %d failed",
			len(summary.Registered), len(summary.Failed)))
	rec.Params = map[string]interface{}{
		"registered": len(summary.Registered),
		"failed":     len(summary.Failed),
	}
	if !summary.Ok() {
		rec.Level = "warn"
	}
	sink.Record(rec)

	log.Info("", "bootstrap complete", map[string]interface{}{
		"registered": len(summary.Registered),
		"failed":     len(summary.Failed),
	})
	return summary
}

func configName(cfg *base.ConnectorConfig) string {
	if cfg == nil || cfg.Name == "" {
		return "(unnamed)"
	}
	return cfg.Name
}
