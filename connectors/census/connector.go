// Copyright 2025 TerraLytics
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package census adapts demographic data providers. Models are the
// fixed subject tables the analytics reports consume; the provider is
// queried per table with geography filters.
package census

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"terralytics/platform/connectors/base"
	"terralytics/platform/shared/logger"
)

var models = []string{"population", "households", "income", "housing", "education", "employment"}

// Connector is the census/demographic adapter.
type Connector struct {
	cfg    *base.ConnectorConfig
	client *base.Client
	logger *logger.Logger
}

var _ base.Connector = (*Connector)(nil)

func New(cfg *base.ConnectorConfig, sink base.AuditSink) (*Connector, error) {
	if cfg == nil {
		return nil, base.NewConfigurationError("census", "configuration is required")
	}
	if cfg.Endpoint == "" {
		return nil, base.NewConfigurationError(cfg.Name, "endpoint is required")
	}
	client := base.NewClient(cfg.Name, cfg, sink)
	if cfg.APIKey != "" {
		client.SetHeader("X-API-Key", cfg.APIKey)
	}
	return &Connector{
		cfg:    cfg,
		client: client,
		logger: logger.New("CENSUS_CONNECTOR"),
	}, nil
}

func (c *Connector) Name() string                  { return c.cfg.Name }
func (c *Connector) Type() base.ConnectorType      { return base.TypeCensus }
func (c *Connector) Config() *base.ConnectorConfig { return c.cfg }

func (c *Connector) TestConnection(ctx context.Context) bool {
	var payload map[string]interface{}
	if err := c.client.GetJSON(ctx, "/catalog", nil, &payload); err != nil {
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

type recordsResponse struct {
	Records []map[string]interface{} `json:"records"`
	Data    []map[string]interface{} `json:"data"`
}

func (r *recordsResponse) rows() []map[string]interface{} {
	if r.Records != nil {
		return r.Records
	}
	return r.Data
}

// FetchData queries one subject table. Geography narrows by the query's
// filters first, then by the connector's configured jurisdiction.
func (c *Connector) FetchData(ctx context.Context, query *base.Query) (*base.Result, error) {
	if query == nil {
		return nil, base.NewValidationError(c.cfg.Name, "fetch", "query is required")
	}
	model := query.Model
	if model == "" {
		model = "population"
	}
	if !validModel(model) {
		return nil, base.NewValidationError(c.cfg.Name, "fetch",
			fmt.Sprintf("unknown census model %q", model))
	}

	params := url.Values{}
	for key, val := range query.Filters {
		params.Set(key, val)
	}
	if params.Get("region") == "" && c.cfg.Region != "" {
		params.Set("region", c.cfg.Region)
	}
	if params.Get("state") == "" && c.cfg.State != "" {
		params.Set("state", c.cfg.State)
	}
	if len(query.Fields) > 0 {
		for _, f := range query.Fields {
			params.Add("field", f)
		}
	}
	if query.Limit > 0 {
		params.Set("limit", strconv.Itoa(query.Limit))
	}

	start := time.Now()
	var resp recordsResponse
	if err := c.client.GetJSON(ctx, "/data/"+url.PathEscape(model), params, &resp); err != nil {
		return nil, err
	}
	rows := resp.rows()

	return &base.Result{
		Connector: c.cfg.Name,
		Model:     model,
		Records:   rows,
		Count:     len(rows),
		Duration:  time.Since(start),
	}, nil
}

func validModel(model string) bool {
	for _, m := range models {
		if m == model {
			return true
		}
	}
	return false
}

var staticSchemas = map[string]*base.ModelSchema{
	"population": {
		Name: "population",
		Fields: []base.FieldSchema{
			{Name: "geography_id", Type: "string"},
			{Name: "geography_name", Type: "string"},
			{Name: "total_population", Type: "integer"},
			{Name: "median_age", Type: "number"},
			{Name: "population_density", Type: "number"},
		},
	},
	"households": {
		Name: "households",
		Fields: []base.FieldSchema{
			{Name: "geography_id", Type: "string"},
			{Name: "total_households", Type: "integer"},
			{Name: "average_household_size", Type: "number"},
			{Name: "family_households", Type: "integer"},
		},
	},
	"income": {
		Name: "income",
		Fields: []base.FieldSchema{
			{Name: "geography_id", Type: "string"},
			{Name: "median_household_income", Type: "integer"},
			{Name: "per_capita_income", Type: "integer"},
			{Name: "poverty_rate", Type: "number"},
		},
	},
	"housing": {
		Name: "housing",
		Fields: []base.FieldSchema{
			{Name: "geography_id", Type: "string"},
			{Name: "total_units", Type: "integer"},
			{Name: "occupied_units", Type: "integer"},
			{Name: "owner_occupied_rate", Type: "number"},
			{Name: "median_home_value", Type: "integer"},
			{Name: "median_gross_rent", Type: "integer"},
		},
	},
	"education": {
		Name: "education",
		Fields: []base.FieldSchema{
			{Name: "geography_id", Type: "string"},
			{Name: "high_school_or_higher_rate", Type: "number"},
			{Name: "bachelors_or_higher_rate", Type: "number"},
		},
	},
	"employment": {
		Name: "employment",
		Fields: []base.FieldSchema{
			{Name: "geography_id", Type: "string"},
			{Name: "labor_force", Type: "integer"},
			{Name: "unemployment_rate", Type: "number"},
			{Name: "median_earnings", Type: "integer"},
		},
	},
}
