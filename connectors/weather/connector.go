// Copyright 2025 TerraLytics
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package weather adapts weather/climate data providers. One endpoint
// family (current, forecast, historical, climate, events) is selected by
// inspecting the query's date range against the clock; a range spanning
// the present queries both sides and merges them into one result.
package weather

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"terralytics/platform/connectors/base"
	"terralytics/platform/shared/logger"
)

// models is the fixed endpoint family; the provider has no introspection.
var models = []string{"current", "forecast", "historical", "climate", "events"}

// Connector is the weather/climate adapter.
type Connector struct {
	cfg    *base.ConnectorConfig
	client *base.Client
	logger *logger.Logger

	// now is swappable for endpoint-selection tests
	now func() time.Time
}

var _ base.Connector = (*Connector)(nil)

// New builds a weather connector. Both the endpoint and the API key are
// mandatory; the provider rejects anonymous calls.
func New(cfg *base.ConnectorConfig, sink base.AuditSink) (*Connector, error) {
	if cfg == nil {
		return nil, base.NewConfigurationError("weather", "configuration is required")
	}
	if cfg.Endpoint == "" {
		return nil, base.NewConfigurationError(cfg.Name, "endpoint is required")
	}
	if cfg.APIKey == "" {
		return nil, base.NewConfigurationError(cfg.Name, "api key is required")
	}
	client := base.NewClient(cfg.Name, cfg, sink)
	return &Connector{
		cfg:    cfg,
		client: client,
		logger: logger.New("WEATHER_CONNECTOR"),
		now:    time.Now,
	}, nil
}

func (c *Connector) Name() string                  { return c.cfg.Name }
func (c *Connector) Type() base.ConnectorType      { return base.TypeWeather }
func (c *Connector) Config() *base.ConnectorConfig { return c.cfg }

func (c *Connector) TestConnection(ctx context.Context) bool {
	params, err := c.locationParams(&base.Query{})
	if err != nil {
		// No default location configured; probe with a fixed one
		params = url.Values{}
		params.Set("location", "Washington, DC")
	}
	c.authorize(params)
	var payload map[string]interface{}
	if err := c.client.GetJSON(ctx, "/current", params, &payload); err != nil {
		c.logger.Warn("", "connection test failed", map[string]interface{}{
			"connector": c.cfg.Name,
			"error":     err.Error(),
		})
		return false
	}
	return true
}

func (c *Connector) AvailableModels(ctx context.Context) ([]string, error) {
	out := make([]string, len(models))
	copy(out, models)
	return out, nil
}

func (c *Connector) ModelSchema(ctx context.Context, model string) (*base.ModelSchema, error) {
	if model == "" {
		return nil, base.NewValidationError(c.cfg.Name, "schema", "model name is required")
	}
	schema, ok := staticSchemas[model]
	if !ok {
		return nil, nil
	}
	return schema, nil
}

// FetchData routes the query to the endpoint(s) its date range selects
// and merges multi-endpoint responses into named sections.
func (c *Connector) FetchData(ctx context.Context, query *base.Query) (*base.Result, error) {
	if query == nil {
		return nil, base.NewValidationError(c.cfg.Name, "fetch", "query is required")
	}

	endpoints, err := c.selectEndpoints(query)
	if err != nil {
		return nil, err
	}

	params, err := c.locationParams(query)
	if err != nil {
		return nil, err
	}
	c.authorize(params)
	if query.Start != nil {
		params.Set("start", query.Start.UTC().Format(time.RFC3339))
	}
	if query.End != nil {
		params.Set("end", query.End.UTC().Format(time.RFC3339))
	}
	if query.Limit > 0 {
		params.Set("limit", strconv.Itoa(query.Limit))
	}

	start := time.Now()
	sections := make(map[string]interface{}, len(endpoints))
	count := 0
	for _, endpoint := range endpoints {
		var payload map[string]interface{}
		if err := c.client.GetJSON(ctx, "/"+endpoint, params, &payload); err != nil {
			return nil, err
		}
		sections[endpoint] = payload
		count += sectionCount(payload)
	}

	return &base.Result{
		Connector: c.cfg.Name,
		Model:     query.Model,
		Sections:  sections,
		Count:     count,
		Duration:  time.Since(start),
	}, nil
}

// selectEndpoints maps the query's shape onto the endpoint family. An
// explicit model wins outright; otherwise the date range decides:
// no dates at all reads current conditions, a fully past range reads
// historical, a fully future range reads forecast, and a range spanning
// the present reads both and merges.
func (c *Connector) selectEndpoints(query *base.Query) ([]string, error) {
	if query.Model != "" {
		if !validModel(query.Model) {
			return nil, base.NewValidationError(c.cfg.Name, "fetch",
				fmt.Sprintf("unknown weather model %q", query.Model))
		}
		return []string{query.Model}, nil
	}

	if query.Start == nil && query.End == nil {
		return []string{"current"}, nil
	}

	now := c.now()
	startsPast := query.Start != nil && query.Start.Before(now)
	endsFuture := query.End == nil || query.End.After(now)

	switch {
	case startsPast && endsFuture:
		return []string{"historical", "forecast"}, nil
	case startsPast:
		return []string{"historical"}, nil
	default:
		return []string{"forecast"}, nil
	}
}

// locationParams resolves where the query is asking about: an explicit
// lat/lon wins, then a named location, then the configured default.
func (c *Connector) locationParams(query *base.Query) (url.Values, error) {
	params := url.Values{}
	if query.Spatial != nil && query.Spatial.Radius != nil {
		center := query.Spatial.Radius.Center
		params.Set("lat", strconv.FormatFloat(center.Lat, 'f', -1, 64))
		params.Set("lon", strconv.FormatFloat(center.Lon, 'f', -1, 64))
		return params, nil
	}
	if query.Location != "" {
		params.Set("location", query.Location)
		return params, nil
	}
	if c.cfg.DefaultLocation != "" {
		params.Set("location", c.cfg.DefaultLocation)
		return params, nil
	}
	return nil, base.NewValidationError(c.cfg.Name, "fetch",
		"no location in query and no default location configured")
}

func (c *Connector) authorize(params url.Values) {
	params.Set("apikey", c.cfg.APIKey)
}

func validModel(model string) bool {
	for _, m := range models {
		if m == model {
			return true
		}
	}
	return false
}

// sectionCount counts the records inside one endpoint payload. Providers
// wrap arrays under a handful of keys; a bare object counts as one.
func sectionCount(payload map[string]interface{}) int {
	for _, key := range []string{"data", "results", "periods", "events", "observations"} {
		if items, ok := payload[key].([]interface{}); ok {
			return len(items)
		}
	}
	if len(payload) == 0 {
		return 0
	}
	return 1
}

// staticSchemas describes the fixed endpoint family shapes.
var staticSchemas = map[string]*base.ModelSchema{
	"current": {
		Name: "current",
		Fields: []base.FieldSchema{
			{Name: "temperature", Type: "number"},
			{Name: "humidity", Type: "number"},
			{Name: "wind_speed", Type: "number"},
			{Name: "conditions", Type: "string"},
			{Name: "observed_at", Type: "date"},
		},
	},
	"forecast": {
		Name: "forecast",
		Fields: []base.FieldSchema{
			{Name: "period_start", Type: "date"},
			{Name: "period_end", Type: "date"},
			{Name: "temperature_high", Type: "number"},
			{Name: "temperature_low", Type: "number"},
			{Name: "precipitation_chance", Type: "number"},
			{Name: "conditions", Type: "string"},
		},
	},
	"historical": {
		Name: "historical",
		Fields: []base.FieldSchema{
			{Name: "date", Type: "date"},
			{Name: "temperature_high", Type: "number"},
			{Name: "temperature_low", Type: "number"},
			{Name: "precipitation", Type: "number"},
		},
	},
	"climate": {
		Name: "climate",
		Fields: []base.FieldSchema{
			{Name: "month", Type: "integer"},
			{Name: "normal_high", Type: "number"},
			{Name: "normal_low", Type: "number"},
			{Name: "normal_precipitation", Type: "number"},
		},
	},
	"events": {
		Name: "events",
		Fields: []base.FieldSchema{
			{Name: "event_type", Type: "string"},
			{Name: "severity", Type: "string"},
			{Name: "onset", Type: "date"},
			{Name: "expires", Type: "date"},
			{Name: "description", Type: "string"},
		},
	},
}
