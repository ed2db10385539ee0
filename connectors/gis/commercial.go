// Copyright 2025 TerraLytics
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package gis

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"terralytics/platform/connectors/base"
)

// commercialStrategy speaks the commercial geocoding/tiles dialect.
// The access token rides as a query parameter on every call; this is a
// provider requirement, not a choice, and must not be moved to a header.
type commercialStrategy struct {
	cfg *base.ConnectorConfig
}

func (s *commercialStrategy) name() string { return base.StrategyCommercial }

// commercialModels is the fixed capability list; the provider has no
// introspection endpoint.
var commercialModels = []string{"geocoding", "boundaries", "tiles"}

func (s *commercialStrategy) authParams() url.Values {
	params := url.Values{}
	if s.cfg.APIKey != "" {
		params.Set("access_token", s.cfg.APIKey)
	}
	return params
}

func (s *commercialStrategy) probe(ctx context.Context, c *base.Client) error {
	// The cheapest provider-appropriate probe is a geocode of the
	// connector's default location.
	location := s.cfg.DefaultLocation
	if location == "" {
		location = "Washington, DC"
	}
	_, err := s.geocode(ctx, c, location)
	return err
}

func (s *commercialStrategy) queryFeatures(ctx context.Context, c *base.Client, q *base.Query) (*base.FeatureCollection, error) {
	params := s.authParams()
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if len(q.Fields) > 0 {
		params.Set("fields", joinFields(q.Fields, ""))
	}

	switch q.Spatial.Predicate() {
	case base.PredicateBBox:
		b := q.Spatial.BBox
		params.Set("bbox", fmt.Sprintf("%g,%g,%g,%g", b.West, b.South, b.East, b.North))
	case base.PredicateRadius:
		r := q.Spatial.Radius
		params.Set("lon", strconv.FormatFloat(r.Center.Lon, 'f', -1, 64))
		params.Set("lat", strconv.FormatFloat(r.Center.Lat, 'f', -1, 64))
		params.Set("radius", strconv.FormatFloat(r.Meters, 'f', -1, 64))
	case base.PredicatePolygon:
		parts := make([]string, 0, len(q.Spatial.Polygon))
		for _, p := range q.Spatial.Polygon {
			parts = append(parts, fmt.Sprintf("%g %g", p.Lon, p.Lat))
		}
		params.Set("polygon", strings.Join(parts, ","))
	case base.PredicateID:
		params.Set("id", q.Spatial.ID)
	}

	var payload map[string]interface{}
	if err := c.GetJSON(ctx, "/features", params, &payload); err != nil {
		return nil, err
	}
	// Responses are not guaranteed to be feature collections already;
	// anything else is converted feature by feature.
	return collectionFromPayload(payload), nil
}

type commercialGeocodeResponse struct {
	Features []struct {
		Center    []float64 `json:"center"`
		PlaceName string    `json:"place_name"`
		Relevance *float64  `json:"relevance"`
		Context   []struct {
			ID   string `json:"id"`
			Text string `json:"text"`
		} `json:"context"`
	} `json:"features"`
}

func (s *commercialStrategy) geocode(ctx context.Context, c *base.Client, address string) (*base.FeatureCollection, error) {
	// Address is path-encoded, not a query parameter
	path := fmt.Sprintf("/geocoding/v5/places/%s.json", url.PathEscape(address))

	var resp commercialGeocodeResponse
	if err := c.GetJSON(ctx, path, s.authParams(), &resp); err != nil {
		return nil, err
	}

	out := base.NewFeatureCollection()
	for _, f := range resp.Features {
		if len(f.Center) < 2 {
			continue
		}
		res := base.GeocodeResult{
			Latitude:         f.Center[1],
			Longitude:        f.Center[0],
			Confidence:       base.NormalizeConfidence(nil, f.Relevance),
			FormattedAddress: f.PlaceName,
		}
		for _, ctxEntry := range f.Context {
			switch {
			case strings.HasPrefix(ctxEntry.ID, "neighborhood."):
				res.Neighborhood = ctxEntry.Text
			case strings.HasPrefix(ctxEntry.ID, "locality."):
				res.District = ctxEntry.Text
			case strings.HasPrefix(ctxEntry.ID, "place."):
				res.City = ctxEntry.Text
			case strings.HasPrefix(ctxEntry.ID, "district."):
				res.County = ctxEntry.Text
			case strings.HasPrefix(ctxEntry.ID, "region."):
				res.State = ctxEntry.Text
			case strings.HasPrefix(ctxEntry.ID, "postcode."):
				res.PostalCode = ctxEntry.Text
			case strings.HasPrefix(ctxEntry.ID, "country."):
				res.Country = ctxEntry.Text
			}
		}
		out.Add(res.Feature())
	}
	return out, nil
}

func (s *commercialStrategy) models(ctx context.Context, c *base.Client) ([]string, error) {
	out := make([]string, len(commercialModels))
	copy(out, commercialModels)
	return out, nil
}

func (s *commercialStrategy) schema(ctx context.Context, c *base.Client, model string) (*base.ModelSchema, error) {
	switch model {
	case "geocoding":
		return &base.ModelSchema{
			Name:     "geocoding",
			Geometry: "Point",
			Fields: []base.FieldSchema{
				{Name: "address", Type: "string"},
				{Name: "confidence", Type: "number"},
				{Name: "city", Type: "string"},
				{Name: "state", Type: "string"},
				{Name: "postal_code", Type: "string"},
				{Name: "country", Type: "string"},
			},
		}, nil
	case "boundaries":
		return &base.ModelSchema{
			Name:     "boundaries",
			Geometry: "Polygon",
			Fields: []base.FieldSchema{
				{Name: "name", Type: "string"},
				{Name: "admin_level", Type: "integer"},
			},
		}, nil
	case "tiles":
		return &base.ModelSchema{
			Name: "tiles",
			Fields: []base.FieldSchema{
				{Name: "z", Type: "integer"},
				{Name: "x", Type: "integer"},
				{Name: "y", Type: "integer"},
			},
		}, nil
	}
	return nil, nil
}
