// Copyright 2025 TerraLytics
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terralytics/platform/connectors/base"
	"terralytics/platform/connectors/registry"
)

func TestOneFailureDoesNotBlockOthers(t *testing.T) {
	reg := registry.New()
	sink := &base.MemorySink{}

	summary := Run(reg, sink, []*base.ConnectorConfig{
		{Name: "gis-broken", Type: base.TypeGIS}, // endpoint missing
		{Name: "wx", Type: base.TypeWeather, Endpoint: "http://wx.example.com", APIKey: "k"},
	})

	assert.False(t, summary.Ok())
	assert.Equal(t, []string{"wx"}, summary.Registered)
	require.Contains(t, summary.Failed, "gis-broken")
	assert.Equal(t, base.KindConfiguration, base.KindOf(summary.Failed["gis-broken"]))

	// the registry holds exactly the weather connector
	assert.Equal(t, 1, reg.Len())
	_, ok := reg.Get("wx")
	assert.True(t, ok)
	_, ok = reg.Get("gis-broken")
	assert.False(t, ok)

	// exactly one failure record, and it references the GIS attempt
	var failures []*base.AuditRecord
	for _, rec := range sink.ByCategory(base.AuditCategoryFactory) {
		if !rec.Success && rec.Source == "factory" {
			failures = append(failures, rec)
		}
	}
	require.Len(t, failures, 1)
	assert.Equal(t, "gis-broken", failures[0].Params["connector_name"])
	assert.Contains(t, failures[0].Error, "endpoint is required")
}

func TestAllSucceed(t *testing.T) {
	reg := registry.New()
	sink := &base.MemorySink{}

	summary := Run(reg, sink, []*base.ConnectorConfig{
		{Name: "gis", Type: base.TypeGIS, Endpoint: "http://gis.example.gov"},
		{Name: "census", Type: base.TypeCensus, Endpoint: "http://census.example.gov"},
	})

	assert.True(t, summary.Ok())
	assert.Len(t, summary.Registered, 2)
	assert.Equal(t, 2, reg.Len())

	// per-attempt records plus the closing summary
	records := sink.ByCategory(base.AuditCategoryFactory)
	require.Len(t, records, 3)
	assert.Equal(t, "bootstrap", records[2].Source)
}

func TestEmptyConfigList(t *testing.T) {
	reg := registry.New()
	summary := Run(reg, nil, nil)
	assert.True(t, summary.Ok())
	assert.Equal(t, 0, reg.Len())
}

func TestNilConfigIsolated(t *testing.T) {
	reg := registry.New()
	summary := Run(reg, &base.MemorySink{}, []*base.ConnectorConfig{
		nil,
		{Name: "market", Type: base.TypeMarket, Endpoint: "http://mkt.example.com"},
	})
	assert.False(t, summary.Ok())
	require.Contains(t, summary.Failed, "(unnamed)")
	assert.Equal(t, []string{"market"}, summary.Registered)
	assert.Equal(t, 1, reg.Len())
}
