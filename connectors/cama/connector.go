// Copyright 2025 TerraLytics
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package cama adapts computer-assisted mass appraisal systems. These
// expose assessment tables over a query API; better deployments also
// expose table introspection, so discovery is attempted live with a
// static fallback for the ones that don't.
package cama

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"terralytics/platform/connectors/base"
	"terralytics/platform/shared/logger"
)

// fallbackTables is the table set every supported CAMA deployment has,
// used when the introspection endpoint is absent.
var fallbackTables = []string{"parcels", "valuations", "sales", "permits"}

// Connector is the mass-appraisal system adapter.
type Connector struct {
	cfg    *base.ConnectorConfig
	client *base.Client
	logger *logger.Logger
}

var _ base.Connector = (*Connector)(nil)

func New(cfg *base.ConnectorConfig, sink base.AuditSink) (*Connector, error) {
	if cfg == nil {
		return nil, base.NewConfigurationError("cama", "configuration is required")
	}
	if cfg.Endpoint == "" {
		return nil, base.NewConfigurationError(cfg.Name, "endpoint is required")
	}
	client := base.NewClient(cfg.Name, cfg, sink)
	if cfg.APIKey != "" {
		client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	}
	return &Connector{
		cfg:    cfg,
		client: client,
		logger: logger.New("CAMA_CONNECTOR"),
	}, nil
}

func (c *Connector) Name() string                  { return c.cfg.Name }
func (c *Connector) Type() base.ConnectorType      { return base.TypeCAMA }
func (c *Connector) Config() *base.ConnectorConfig { return c.cfg }

func (c *Connector) TestConnection(ctx context.Context) bool {
	var payload map[string]interface{}
	if err := c.client.GetJSON(ctx, "/tables", nil, &payload); err != nil {
		c.logger.Warn("", "connection test failed", map[string]interface{}{
			"connector": c.cfg.Name,
			"error":     err.Error(),
		})
		return false
	}
	return true
}

type tablesResponse struct {
	Tables []string `json:"tables"`
}

// AvailableModels asks the deployment for its table list, falling back
// to the standard appraisal tables when introspection is unavailable.
func (c *Connector) AvailableModels(ctx context.Context) ([]string, error) {
	var resp tablesResponse
	err := c.client.GetJSON(ctx, "/tables", nil, &resp)
	if err != nil {
		if kind := base.KindOf(err); kind == base.KindProvider || kind == base.KindNotFound {
			out := make([]string, len(fallbackTables))
			copy(out, fallbackTables)
			return out, nil
		}
		return nil, err
	}
	if len(resp.Tables) == 0 {
		out := make([]string, len(fallbackTables))
		copy(out, fallbackTables)
		return out, nil
	}
	return resp.Tables, nil
}

type tableSchemaResponse struct {
	Name    string `json:"name"`
	Columns []struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"columns"`
}

// ModelSchema introspects one table, falling back to the static schema
// when the deployment cannot describe itself. Tables unknown to both
// yield a nil schema.
func (c *Connector) ModelSchema(ctx context.Context, model string) (*base.ModelSchema, error) {
	if model == "" {
		return nil, base.NewValidationError(c.cfg.Name, "schema", "model name is required")
	}

	var resp tableSchemaResponse
	err := c.client.GetJSON(ctx, fmt.Sprintf("/tables/%s/schema", url.PathEscape(model)), nil, &resp)
	if err != nil {
		if kind := base.KindOf(err); kind == base.KindProvider || kind == base.KindNotFound {
			if schema, ok := staticSchemas[model]; ok {
				return schema, nil
			}
			return nil, nil
		}
		return nil, err
	}
	if len(resp.Columns) == 0 {
		if schema, ok := staticSchemas[model]; ok {
			return schema, nil
		}
		return nil, nil
	}

	schema := &base.ModelSchema{Name: model}
	for _, col := range resp.Columns {
		schema.Fields = append(schema.Fields, base.FieldSchema{Name: col.Name, Type: col.Type})
	}
	return schema, nil
}

type recordsResponse struct {
	Records []map[string]interface{} `json:"records"`
	Rows    []map[string]interface{} `json:"rows"`
}

func (r *recordsResponse) rows() []map[string]interface{} {
	if r.Records != nil {
		return r.Records
	}
	return r.Rows
}

// FetchData queries one assessment table with attribute filters.
func (c *Connector) FetchData(ctx context.Context, query *base.Query) (*base.Result, error) {
	if query == nil {
		return nil, base.NewValidationError(c.cfg.Name, "fetch", "query is required")
	}
	table := query.Model
	if table == "" {
		table = "parcels"
	}

	params := url.Values{}
	for key, val := range query.Filters {
		params.Set(key, val)
	}
	if len(query.Fields) > 0 {
		for _, f := range query.Fields {
			params.Add("column", f)
		}
	}
	if query.Limit > 0 {
		params.Set("limit", strconv.Itoa(query.Limit))
	}
	if query.Start != nil {
		params.Set("from", query.Start.UTC().Format("2006-01-02"))
	}
	if query.End != nil {
		params.Set("to", query.End.UTC().Format("2006-01-02"))
	}

	start := time.Now()
	var resp recordsResponse
	if err := c.client.GetJSON(ctx, fmt.Sprintf("/tables/%s/records", url.PathEscape(table)), params, &resp); err != nil {
		return nil, err
	}
	rows := resp.rows()

	return &base.Result{
		Connector: c.cfg.Name,
		Model:     table,
		Records:   rows,
		Count:     len(rows),
		Duration:  time.Since(start),
	}, nil
}

var staticSchemas = map[string]*base.ModelSchema{
	"parcels": {
		Name: "parcels",
		Fields: []base.FieldSchema{
			{Name: "parcel_id", Type: "string"},
			{Name: "situs_address", Type: "string"},
			{Name: "land_use_code", Type: "string"},
			{Name: "acreage", Type: "number"},
			{Name: "zoning", Type: "string"},
		},
	},
	"valuations": {
		Name: "valuations",
		Fields: []base.FieldSchema{
			{Name: "parcel_id", Type: "string"},
			{Name: "tax_year", Type: "integer"},
			{Name: "land_value", Type: "integer"},
			{Name: "improvement_value", Type: "integer"},
			{Name: "total_value", Type: "integer"},
		},
	},
	"sales": {
		Name: "sales",
		Fields: []base.FieldSchema{
			{Name: "parcel_id", Type: "string"},
			{Name: "sale_date", Type: "date"},
			{Name: "sale_price", Type: "integer"},
			{Name: "deed_type", Type: "string"},
			{Name: "qualified", Type: "boolean"},
		},
	},
	"permits": {
		Name: "permits",
		Fields: []base.FieldSchema{
			{Name: "parcel_id", Type: "string"},
			{Name: "permit_number", Type: "string"},
			{Name: "issued_date", Type: "date"},
			{Name: "permit_type", Type: "string"},
			{Name: "estimated_cost", Type: "integer"},
		},
	},
}
