// Copyright 2025 TerraLytics
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package document adapts document/PDF extraction providers. Source
// documents are addressed by URL; s3:// sources are fetched from object
// storage first and submitted inline, http(s) sources are passed to the
// provider by reference.
package document

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"terralytics/platform/connectors/base"
	"terralytics/platform/shared/logger"
)

var models = []string{"text", "tables", "metadata"}

// Connector is the document-extraction adapter.
type Connector struct {
	cfg     *base.ConnectorConfig
	client  *base.Client
	logger  *logger.Logger
	fetcher objectFetcher
}

var _ base.Connector = (*Connector)(nil)

func New(cfg *base.ConnectorConfig, sink base.AuditSink) (*Connector, error) {
	if cfg == nil {
		return nil, base.NewConfigurationError("document", "configuration is required")
	}
	if cfg.Endpoint == "" {
		return nil, base.NewConfigurationError(cfg.Name, "endpoint is required")
	}
	client := base.NewClient(cfg.Name, cfg, sink)
	if cfg.APIKey != "" {
		client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	}
	return &Connector{
		cfg:     cfg,
		client:  client,
		logger:  logger.New("DOCUMENT_CONNECTOR"),
		fetcher: newS3Fetcher(cfg.Region),
	}, nil
}

func (c *Connector) Name() string                  { return c.cfg.Name }
func (c *Connector) Type() base.ConnectorType      { return base.TypeDocument }
func (c *Connector) Config() *base.ConnectorConfig { return c.cfg }

func (c *Connector) TestConnection(ctx context.Context) bool {
	var payload map[string]interface{}
	if err := c.client.GetJSON(ctx, "/health", nil, &payload); err != nil {
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

type extractRequest struct {
	Mode      string `json:"mode"`
	SourceURL string `json:"source_url,omitempty"`
	Content   string `json:"content,omitempty"` // base64
	Filename  string `json:"filename,omitempty"`
}

type extractResponse struct {
	Sections []map[string]interface{} `json:"sections"`
	Pages    []map[string]interface{} `json:"pages"`
}

func (r *extractResponse) rows() []map[string]interface{} {
	if r.Sections != nil {
		return r.Sections
	}
	return r.Pages
}

// FetchData submits one document for extraction. The source comes from
// the query's "source" filter; s3:// sources are resolved to bytes here
// so the provider never needs storage credentials.
func (c *Connector) FetchData(ctx context.Context, query *base.Query) (*base.Result, error) {
	if query == nil {
		return nil, base.NewValidationError(c.cfg.Name, "fetch", "query is required")
	}
	mode := query.Model
	if mode == "" {
		mode = "text"
	}
	if !validModel(mode) {
		return nil, base.NewValidationError(c.cfg.Name, "fetch",
			fmt.Sprintf("unknown extraction mode %q", mode))
	}
	source := query.Filters["source"]
	if source == "" {
		return nil, base.NewValidationError(c.cfg.Name, "fetch", "a source document url is required")
	}

	req := extractRequest{Mode: mode}
	switch {
	case strings.HasPrefix(source, "s3://"):
		bucket, key, err := splitS3URL(source)
		if err != nil {
			return nil, base.NewValidationError(c.cfg.Name, "fetch", err.Error())
		}
		content, err := c.fetcher.fetch(ctx, bucket, key)
		if err != nil {
			return nil, base.NewTransportError(c.cfg.Name, "fetch", err)
		}
		req.Content = base64.StdEncoding.EncodeToString(content)
		req.Filename = key[strings.LastIndex(key, "/")+1:]
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		req.SourceURL = source
	default:
		return nil, base.NewValidationError(c.cfg.Name, "fetch",
			fmt.Sprintf("unsupported source scheme in %q", source))
	}

	start := time.Now()
	var resp extractResponse
	if err := c.client.PostJSON(ctx, "/extract", req, &resp); err != nil {
		return nil, err
	}
	rows := resp.rows()

	return &base.Result{
		Connector: c.cfg.Name,
		Model:     mode,
		Records:   rows,
		Count:     len(rows),
		Duration:  time.Since(start),
	}, nil
}

// splitS3URL splits s3://bucket/key into its parts
func splitS3URL(raw string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(raw, "s3://")
	idx := strings.Index(rest, "/")
	if idx <= 0 || idx == len(rest)-1 {
		return "", "", fmt.Errorf("malformed s3 url %q, want s3://bucket/key", raw)
	}
	return rest[:idx], rest[idx+1:], nil
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
	"text": {
		Name: "text",
		Fields: []base.FieldSchema{
			{Name: "page", Type: "integer"},
			{Name: "text", Type: "string"},
		},
	},
	"tables": {
		Name: "tables",
		Fields: []base.FieldSchema{
			{Name: "page", Type: "integer"},
			{Name: "rows", Type: "integer"},
			{Name: "columns", Type: "integer"},
			{Name: "cells", Type: "string"},
		},
	},
	"metadata": {
		Name: "metadata",
		Fields: []base.FieldSchema{
			{Name: "title", Type: "string"},
			{Name: "author", Type: "string"},
			{Name: "created", Type: "date"},
			{Name: "page_count", Type: "integer"},
		},
	},
}
