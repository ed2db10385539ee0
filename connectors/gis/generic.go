// Copyright 2025 TerraLytics
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package gis

import (
	"context"
	"fmt"
	"net/url"

	"terralytics/platform/connectors/base"
)

// genericStrategy speaks a plain REST GeoJSON dialect: POST /features
// with the query passed through as the request body, GET /geocode and
// GET /models. It is the fallback for in-house and open-data providers.
type genericStrategy struct {
	cfg *base.ConnectorConfig
}

func (s *genericStrategy) name() string { return base.StrategyGeneric }

func (s *genericStrategy) probe(ctx context.Context, c *base.Client) error {
	var payload map[string]interface{}
	return c.GetJSON(ctx, "/status", nil, &payload)
}

// genericQueryBody is the wire form of a feature query. The spatial
// predicate fields are mutually exclusive on the wire; only the winning
// predicate is sent.
type genericQueryBody struct {
	Model   string            `json:"model,omitempty"`
	BBox    []float64         `json:"bbox,omitempty"`
	Center  []float64         `json:"center,omitempty"`
	Radius  float64           `json:"radius,omitempty"`
	Polygon [][]float64       `json:"polygon,omitempty"`
	ID      string            `json:"id,omitempty"`
	Fields  []string          `json:"fields,omitempty"`
	Limit   int               `json:"limit,omitempty"`
	Filters map[string]string `json:"filters,omitempty"`
}

func (s *genericStrategy) queryFeatures(ctx context.Context, c *base.Client, q *base.Query) (*base.FeatureCollection, error) {
	body := genericQueryBody{
		Model:   q.Model,
		Fields:  q.Fields,
		Limit:   q.Limit,
		Filters: q.Filters,
	}
	switch q.Spatial.Predicate() {
	case base.PredicateBBox:
		b := q.Spatial.BBox
		body.BBox = []float64{b.West, b.South, b.East, b.North}
	case base.PredicateRadius:
		r := q.Spatial.Radius
		body.Center = []float64{r.Center.Lon, r.Center.Lat}
		body.Radius = r.Meters
	case base.PredicatePolygon:
		for _, p := range q.Spatial.Polygon {
			body.Polygon = append(body.Polygon, []float64{p.Lon, p.Lat})
		}
	case base.PredicateID:
		body.ID = q.Spatial.ID
	}

	var payload map[string]interface{}
	if err := c.PostJSON(ctx, "/features", body, &payload); err != nil {
		return nil, err
	}
	return collectionFromPayload(payload), nil
}

type genericGeocodeResponse struct {
	Results []struct {
		Latitude   float64  `json:"latitude"`
		Longitude  float64  `json:"longitude"`
		Confidence *float64 `json:"confidence"`
		Address    string   `json:"address"`
		City       string   `json:"city"`
		County     string   `json:"county"`
		State      string   `json:"state"`
		PostalCode string   `json:"postal_code"`
		Country    string   `json:"country"`
	} `json:"results"`
}

func (s *genericStrategy) geocode(ctx context.Context, c *base.Client, address string) (*base.FeatureCollection, error) {
	params := url.Values{}
	params.Set("address", address)

	var resp genericGeocodeResponse
	if err := c.GetJSON(ctx, "/geocode", params, &resp); err != nil {
		return nil, err
	}

	out := base.NewFeatureCollection()
	for _, r := range resp.Results {
		res := base.GeocodeResult{
			Latitude:         r.Latitude,
			Longitude:        r.Longitude,
			Confidence:       base.NormalizeConfidence(nil, r.Confidence),
			FormattedAddress: r.Address,
			City:             r.City,
			County:           r.County,
			State:            r.State,
			PostalCode:       r.PostalCode,
			Country:          r.Country,
		}
		out.Add(res.Feature())
	}
	return out, nil
}

type genericModelsResponse struct {
	Models []string `json:"models"`
}

func (s *genericStrategy) models(ctx context.Context, c *base.Client) ([]string, error) {
	var resp genericModelsResponse
	if err := c.GetJSON(ctx, "/models", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Models, nil
}

func (s *genericStrategy) schema(ctx context.Context, c *base.Client, model string) (*base.ModelSchema, error) {
	var schema base.ModelSchema
	if err := c.GetJSON(ctx, fmt.Sprintf("/models/%s/schema", url.PathEscape(model)), nil, &schema); err != nil {
		if base.IsKind(err, base.KindNotFound) || base.IsKind(err, base.KindProvider) {
			return nil, nil
		}
		return nil, err
	}
	if schema.Name == "" {
		schema.Name = model
	}
	return &schema, nil
}
