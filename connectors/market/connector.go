// Copyright 2025 TerraLytics
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package market adapts real-estate market data providers: active
// listings, closed sales, and aggregated trend series.
package market

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"terralytics/platform/connectors/base"
	"terralytics/platform/shared/logger"
)

var models = []string{"listings", "sales", "trends"}

// Connector is the market-data adapter.
type Connector struct {
	cfg    *base.ConnectorConfig
	client *base.Client
	logger *logger.Logger
}

var _ base.Connector = (*Connector)(nil)

func New(cfg *base.ConnectorConfig, sink base.AuditSink) (*Connector, error) {
	if cfg == nil {
		return nil, base.NewConfigurationError("market", "configuration is required")
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
		logger: logger.New("MARKET_CONNECTOR"),
	}, nil
}

func (c *Connector) Name() string                  { return c.cfg.Name }
func (c *Connector) Type() base.ConnectorType      { return base.TypeMarket }
func (c *Connector) Config() *base.ConnectorConfig { return c.cfg }

func (c *Connector) TestConnection(ctx context.Context) bool {
	var payload map[string]interface{}
	if err := c.client.GetJSON(ctx, "/status", nil, &payload); err != nil {
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
	Results []map[string]interface{} `json:"results"`
}

// FetchData queries one record family. Trends require a date range;
// listings and sales accept one optionally.
func (c *Connector) FetchData(ctx context.Context, query *base.Query) (*base.Result, error) {
	if query == nil {
		return nil, base.NewValidationError(c.cfg.Name, "fetch", "query is required")
	}
	model := query.Model
	if model == "" {
		model = "listings"
	}
	if !validModel(model) {
		return nil, base.NewValidationError(c.cfg.Name, "fetch",
			fmt.Sprintf("unknown market model %q", model))
	}
	if model == "trends" && query.Start == nil {
		return nil, base.NewValidationError(c.cfg.Name, "fetch", "trends require a start date")
	}

	params := url.Values{}
	for key, val := range query.Filters {
		params.Set(key, val)
	}
	if params.Get("area") == "" {
		if query.Location != "" {
			params.Set("area", query.Location)
		} else if c.cfg.DefaultLocation != "" {
			params.Set("area", c.cfg.DefaultLocation)
		}
	}
	if query.Start != nil {
		params.Set("start", query.Start.UTC().Format("2006-01-02"))
	}
	if query.End != nil {
		params.Set("end", query.End.UTC().Format("2006-01-02"))
	}
	if query.Limit > 0 {
		params.Set("limit", strconv.Itoa(query.Limit))
	}

	start := time.Now()
	var resp recordsResponse
	if err := c.client.GetJSON(ctx, "/"+model, params, &resp); err != nil {
		return nil, err
	}

	return &base.Result{
		Connector: c.cfg.Name,
		Model:     model,
		Records:   resp.Results,
		Count:     len(resp.Results),
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
	"listings": {
		Name: "listings",
		Fields: []base.FieldSchema{
			{Name: "listing_id", Type: "string"},
			{Name: "address", Type: "string"},
			{Name: "list_price", Type: "integer"},
			{Name: "bedrooms", Type: "integer"},
			{Name: "bathrooms", Type: "number"},
			{Name: "square_feet", Type: "integer"},
			{Name: "days_on_market", Type: "integer"},
			{Name: "status", Type: "string"},
		},
	},
	"sales": {
		Name: "sales",
		Fields: []base.FieldSchema{
			{Name: "sale_id", Type: "string"},
			{Name: "address", Type: "string"},
			{Name: "sale_price", Type: "integer"},
			{Name: "sale_date", Type: "date"},
			{Name: "price_per_sqft", Type: "number"},
		},
	},
	"trends": {
		Name: "trends",
		Fields: []base.FieldSchema{
			{Name: "period", Type: "date"},
			{Name: "area", Type: "string"},
			{Name: "median_sale_price", Type: "integer"},
			{Name: "median_list_price", Type: "integer"},
			{Name: "inventory", Type: "integer"},
			{Name: "median_days_on_market", Type: "integer"},
		},
	},
}
