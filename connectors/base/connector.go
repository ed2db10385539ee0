// Copyright 2025 TerraLytics
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package base

import (
	"context"
	"time"
)

// ConnectorType identifies the provider family a connector adapts
type ConnectorType string

const (
	TypeGIS      ConnectorType = "gis"
	TypeWeather  ConnectorType = "weather"
	TypeCensus   ConnectorType = "census"
	TypeCAMA     ConnectorType = "cama"
	TypeMarket   ConnectorType = "market"
	TypeDocument ConnectorType = "document"
)

// Valid reports whether t is one of the supported connector types
func (t ConnectorType) Valid() bool {
	switch t {
	case TypeGIS, TypeWeather, TypeCensus, TypeCAMA, TypeMarket, TypeDocument:
		return true
	}
	return false
}

// GIS wire-format strategies. Selected once at configuration time; every
// call on a GIS connector branches on the strategy chosen here.
const (
	StrategyFeatureServer = "featureserver" // enterprise feature-server REST (service directory, envelope/point/polygon vocabulary)
	StrategyCommercial    = "commercial"    // commercial geocoding/tiles (token as query parameter)
	StrategyGeneric       = "generic"       // plain REST /features + /geocode fallback
)

// DefaultTimeout bounds a provider call when no timeout is configured
const DefaultTimeout = 30 * time.Second

// ConnectorConfig holds the per-instance configuration for a connector.
// It is captured at construction and never mutated afterwards, which is
// what makes connectors safe for concurrent callers.
type ConnectorConfig struct {
	Name            string            `json:"name"`
	Type            ConnectorType     `json:"type"`
	Endpoint        string            `json:"endpoint"`
	APIKey          string            `json:"api_key,omitempty"`
	Strategy        string            `json:"strategy,omitempty"` // GIS only
	Layer           string            `json:"layer,omitempty"`    // GIS: explicit feature endpoint, skips discovery
	Timeout         time.Duration     `json:"timeout,omitempty"`
	Region          string            `json:"region,omitempty"` // jurisdiction metadata
	State           string            `json:"state,omitempty"`
	DefaultLocation string            `json:"default_location,omitempty"`
	Headers         map[string]string `json:"headers,omitempty"`
}

// EffectiveTimeout returns the configured timeout, or DefaultTimeout if unset
func (c *ConnectorConfig) EffectiveTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

// Connector is the uniform contract every typed adapter implements
type Connector interface {
	// TestConnection issues a lightweight provider probe within the
	// configured timeout. It returns false on any failure, never an error.
	TestConnection(ctx context.Context) bool

	// FetchData executes a query against the provider and returns the
	// normalized result. Failures are raised as classified errors, never
	// as partial results.
	FetchData(ctx context.Context, query *Query) (*Result, error)

	// AvailableModels enumerates the logical layers/tables/endpoints a
	// caller may query. Providers without true introspection return a
	// fixed list.
	AvailableModels(ctx context.Context) ([]string, error)

	// ModelSchema returns the attribute shape of one logical model.
	// An unknown model name yields (nil, nil), not an error.
	ModelSchema(ctx context.Context, model string) (*ModelSchema, error)

	// Identity
	Name() string
	Type() ConnectorType
	Config() *ConnectorConfig
}

// GeoConnector extends Connector with GIS-specific operations.
// All strategies converge on the same FeatureCollection output shape;
// callers never need to know which strategy served a given connector.
type GeoConnector interface {
	Connector

	// GeocodeAddress resolves a single address. A zero-result geocode
	// returns an empty collection so callers can distinguish "not found"
	// from a provider failure.
	GeocodeAddress(ctx context.Context, address string) (*FeatureCollection, error)

	ParcelGeometry(ctx context.Context, parcelID string) (*Feature, error)
	ParcelsInBoundingBox(ctx context.Context, bbox BoundingBox, limit int) (*FeatureCollection, error)
	ParcelsInRadius(ctx context.Context, center Point, meters float64, limit int) (*FeatureCollection, error)
}

// ModelSchema describes the attribute/type shape of one logical model
type ModelSchema struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Geometry    string        `json:"geometry,omitempty"` // geometry type for spatial models
	Fields      []FieldSchema `json:"fields"`
}

// FieldSchema describes a single attribute of a model
type FieldSchema struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Result is the normalized payload of a FetchData call. Exactly one of
// Features, Records, or Sections is populated depending on the provider
// family: GIS yields a feature collection, tabular providers yield record
// maps, and a weather query spanning multiple endpoints yields one
// section per endpoint.
type Result struct {
	Connector string                   `json:"connector"`
	Model     string                   `json:"model,omitempty"`
	Features  *FeatureCollection       `json:"features,omitempty"`
	Records   []map[string]interface{} `json:"records,omitempty"`
	Sections  map[string]interface{}   `json:"sections,omitempty"`
	Count     int                      `json:"count"`
	Duration  time.Duration            `json:"duration"`
}
