// Copyright 2025 TerraLytics
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package gis

import (
	"context"
	"fmt"
	"time"

	"terralytics/platform/connectors/base"
	"terralytics/platform/shared/logger"
)

// Connector is the GIS adapter. The provider dialect is fixed at
// construction by the configured strategy; every operation after that is
// dialect-agnostic.
type Connector struct {
	cfg      *base.ConnectorConfig
	client   *base.Client
	strategy strategy
	logger   *logger.Logger
}

var _ base.GeoConnector = (*Connector)(nil)

// New builds a GIS connector. The endpoint is mandatory; a missing or
// unknown strategy tag fails here, not at first use.
func New(cfg *base.ConnectorConfig, sink base.AuditSink) (*Connector, error) {
	if cfg == nil {
		return nil, base.NewConfigurationError("gis", "configuration is required")
	}
	if cfg.Endpoint == "" {
		return nil, base.NewConfigurationError(cfg.Name, "endpoint is required")
	}
	strat, err := strategyFor(cfg)
	if err != nil {
		return nil, err
	}

	client := base.NewClient(cfg.Name, cfg, sink)
	// Commercial providers authenticate per request via query parameter;
	// everyone else takes a bearer header.
	if cfg.APIKey != "" && strat.name() != base.StrategyCommercial {
		client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	}

	return &Connector{
		cfg:      cfg,
		client:   client,
		strategy: strat,
		logger:   logger.New("GIS_CONNECTOR"),
	}, nil
}

func (c *Connector) Name() string                  { return c.cfg.Name }
func (c *Connector) Type() base.ConnectorType      { return base.TypeGIS }
func (c *Connector) Config() *base.ConnectorConfig { return c.cfg }

func (c *Connector) TestConnection(ctx context.Context) bool {
	if err := c.strategy.probe(ctx, c.client); err != nil {
		c.logger.Warn("", "connection test failed", map[string]interface{}{
			"connector": c.cfg.Name,
			"strategy":  c.strategy.name(),
			"error":     err.Error(),
		})
		return false
	}
	return true
}

func (c *Connector) FetchData(ctx context.Context, query *base.Query) (*base.Result, error) {
	if query == nil {
		return nil, base.NewValidationError(c.cfg.Name, "fetch", "query is required")
	}
	start := time.Now()
	fc, err := c.strategy.queryFeatures(ctx, c.client, query)
	if err != nil {
		return nil, err
	}
	return &base.Result{
		Connector: c.cfg.Name,
		Model:     query.Model,
		Features:  fc,
		Count:     fc.Len(),
		Duration:  time.Since(start),
	}, nil
}

func (c *Connector) AvailableModels(ctx context.Context) ([]string, error) {
	return c.strategy.models(ctx, c.client)
}

func (c *Connector) ModelSchema(ctx context.Context, model string) (*base.ModelSchema, error) {
	if model == "" {
		return nil, base.NewValidationError(c.cfg.Name, "schema", "model name is required")
	}
	return c.strategy.schema(ctx, c.client, model)
}

// GeocodeAddress never surfaces provider failures: downstream report
// generation treats an unresolvable address the same as an address with
// no matches. The failure is still audited and logged by the client.
func (c *Connector) GeocodeAddress(ctx context.Context, address string) (*base.FeatureCollection, error) {
	if address == "" {
		return nil, base.NewValidationError(c.cfg.Name, "geocode", "address is required")
	}
	fc, err := c.strategy.geocode(ctx, c.client, address)
	if err != nil {
		c.logger.Warn("", "geocode failed", map[string]interface{}{
			"connector": c.cfg.Name,
			"strategy":  c.strategy.name(),
			"error":     err.Error(),
		})
		return base.NewFeatureCollection(), nil
	}
	if fc == nil {
		return base.NewFeatureCollection(), nil
	}
	return fc, nil
}

func (c *Connector) ParcelGeometry(ctx context.Context, parcelID string) (*base.Feature, error) {
	if parcelID == "" {
		return nil, base.NewValidationError(c.cfg.Name, "parcel", "parcel id is required")
	}
	fc, err := c.strategy.queryFeatures(ctx, c.client, &base.Query{
		Spatial: &base.SpatialQuery{ID: parcelID},
		Limit:   1,
	})
	if err != nil {
		return nil, err
	}
	if fc.Len() == 0 {
		return nil, base.NewNotFoundError(c.cfg.Name, "parcel", fmt.Sprintf("parcel %q not found", parcelID))
	}
	return &fc.Features[0], nil
}

func (c *Connector) ParcelsInBoundingBox(ctx context.Context, bbox base.BoundingBox, limit int) (*base.FeatureCollection, error) {
	if !bbox.Valid() {
		return nil, base.NewValidationError(c.cfg.Name, "parcels", "bounding box is malformed")
	}
	return c.strategy.queryFeatures(ctx, c.client, &base.Query{
		Spatial: &base.SpatialQuery{BBox: &bbox},
		Limit:   limit,
	})
}

func (c *Connector) ParcelsInRadius(ctx context.Context, center base.Point, meters float64, limit int) (*base.FeatureCollection, error) {
	if meters <= 0 {
		return nil, base.NewValidationError(c.cfg.Name, "parcels", "radius must be positive")
	}
	return c.strategy.queryFeatures(ctx, c.client, &base.Query{
		Spatial: &base.SpatialQuery{Radius: &base.RadiusQuery{Center: center, Meters: meters}},
		Limit:   limit,
	})
}
