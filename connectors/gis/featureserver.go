// Copyright 2025 TerraLytics
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package gis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"terralytics/platform/connectors/base"
)

// defaultLayerPath is the hard-coded fallback when the service directory
// cannot be reached and no explicit layer is configured.
const defaultLayerPath = "/MapServer/0"

// geocodeMaxLocations caps candidates from the enterprise locator
const geocodeMaxLocations = 5

// featureServerStrategy speaks the enterprise feature-server REST
// dialect: a service directory for discovery, envelope/point/polygon
// geometry vocabulary for spatial queries, and a locator service for
// geocoding.
type featureServerStrategy struct {
	cfg *base.ConnectorConfig
}

func (s *featureServerStrategy) name() string { return base.StrategyFeatureServer }

// directoryResponse is the service directory listing
type directoryResponse struct {
	Services []struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"services"`
}

// esriFeature is one feature in the provider's native query response
type esriFeature struct {
	Attributes map[string]interface{} `json:"attributes"`
	Geometry   *esriGeometry          `json:"geometry"`
}

type esriGeometry struct {
	X     *float64      `json:"x,omitempty"`
	Y     *float64      `json:"y,omitempty"`
	Rings [][][]float64 `json:"rings,omitempty"`
}

type esriQueryResponse struct {
	Features []esriFeature `json:"features"`
}

type esriLayerInfo struct {
	Name         string `json:"name"`
	GeometryType string `json:"geometryType"`
	Fields       []struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"fields"`
	Error *struct {
		Code int `json:"code"`
	} `json:"error"`
}

type geocodeCandidates struct {
	Candidates []struct {
		Address  string `json:"address"`
		Location struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
		} `json:"location"`
		Score      *float64               `json:"score"`
		Attributes map[string]interface{} `json:"attributes"`
	} `json:"candidates"`
}

func (s *featureServerStrategy) probe(ctx context.Context, c *base.Client) error {
	params := url.Values{}
	params.Set("f", "json")
	var dir directoryResponse
	return c.GetJSON(ctx, "", params, &dir)
}

// layerPath resolves the feature endpoint to query. An explicitly
// configured layer wins; otherwise the service directory is consulted,
// preferring the first service declared as a feature server, then the
// first listed service, then the hard-coded default.
func (s *featureServerStrategy) layerPath(ctx context.Context, c *base.Client) string {
	if s.cfg.Layer != "" {
		return s.cfg.Layer
	}

	params := url.Values{}
	params.Set("f", "json")
	var dir directoryResponse
	if err := c.GetJSON(ctx, "", params, &dir); err != nil || len(dir.Services) == 0 {
		return defaultLayerPath
	}

	selected := dir.Services[0]
	for _, svc := range dir.Services {
		if svc.Type == "FeatureServer" {
			selected = svc
			break
		}
	}
	return fmt.Sprintf("/%s/%s/0", selected.Name, selected.Type)
}

func (s *featureServerStrategy) queryFeatures(ctx context.Context, c *base.Client, q *base.Query) (*base.FeatureCollection, error) {
	params := url.Values{}
	params.Set("f", "json")
	params.Set("outFields", joinFields(q.Fields, "*"))
	params.Set("where", "1=1")
	if q.Limit > 0 {
		params.Set("resultRecordCount", strconv.Itoa(q.Limit))
	}

	switch q.Spatial.Predicate() {
	case base.PredicateBBox:
		b := q.Spatial.BBox
		params.Set("geometry", fmt.Sprintf("%g,%g,%g,%g", b.West, b.South, b.East, b.North))
		params.Set("geometryType", "esriGeometryEnvelope")
		params.Set("inSR", "4326")
		params.Set("spatialRel", "esriSpatialRelIntersects")
	case base.PredicateRadius:
		r := q.Spatial.Radius
		params.Set("geometry", fmt.Sprintf("%g,%g", r.Center.Lon, r.Center.Lat))
		params.Set("geometryType", "esriGeometryPoint")
		params.Set("inSR", "4326")
		params.Set("distance", strconv.FormatFloat(r.Meters, 'f', -1, 64))
		params.Set("units", "esriSRUnit_Meter")
		params.Set("spatialRel", "esriSpatialRelIntersects")
	case base.PredicatePolygon:
		rings := make([][][]float64, 1)
		for _, p := range q.Spatial.Polygon {
			rings[0] = append(rings[0], []float64{p.Lon, p.Lat})
		}
		encoded, _ := json.Marshal(map[string]interface{}{"rings": rings})
		params.Set("geometry", string(encoded))
		params.Set("geometryType", "esriGeometryPolygon")
		params.Set("inSR", "4326")
		params.Set("spatialRel", "esriSpatialRelIntersects")
	case base.PredicateID:
		params.Set("objectIds", q.Spatial.ID)
	}

	if len(q.Filters) > 0 {
		clauses := make([]string, 0, len(q.Filters))
		for key, val := range q.Filters {
			clauses = append(clauses, fmt.Sprintf("%s='%v'", key, val))
		}
		sort.Strings(clauses)
		params.Set("where", strings.Join(clauses, " AND "))
	}

	path := s.layerPath(ctx, c) + "/query"
	var resp esriQueryResponse
	if err := c.GetJSON(ctx, path, params, &resp); err != nil {
		return nil, err
	}

	out := base.NewFeatureCollection()
	for _, f := range resp.Features {
		out.Add(base.NewFeature(esriToGeometry(f.Geometry), f.Attributes))
	}
	return out, nil
}

// esriToGeometry converts the provider's x/y and rings vocabulary into
// the normalized geometry.
func esriToGeometry(g *esriGeometry) *base.Geometry {
	if g == nil {
		return nil
	}
	if g.X != nil && g.Y != nil {
		return base.NewPointGeometry(*g.X, *g.Y)
	}
	if len(g.Rings) > 0 {
		return &base.Geometry{Type: "Polygon", Coordinates: g.Rings}
	}
	return nil
}

func (s *featureServerStrategy) geocode(ctx context.Context, c *base.Client, address string) (*base.FeatureCollection, error) {
	params := url.Values{}
	params.Set("f", "json")
	params.Set("singleLine", address)
	params.Set("outFields", "*")
	params.Set("maxLocations", strconv.Itoa(geocodeMaxLocations))

	var resp geocodeCandidates
	if err := c.GetJSON(ctx, "/findAddressCandidates", params, &resp); err != nil {
		return nil, err
	}

	out := base.NewFeatureCollection()
	for _, cand := range resp.Candidates {
		res := base.GeocodeResult{
			Latitude:         cand.Location.Y,
			Longitude:        cand.Location.X,
			Confidence:       base.NormalizeConfidence(cand.Score, nil),
			FormattedAddress: cand.Address,
			Neighborhood:     stringAttr(cand.Attributes, "Nbrhd"),
			District:         stringAttr(cand.Attributes, "District"),
			City:             stringAttr(cand.Attributes, "City"),
			County:           stringAttr(cand.Attributes, "Subregion"),
			State:            stringAttr(cand.Attributes, "Region"),
			PostalCode:       stringAttr(cand.Attributes, "Postal"),
			Country:          stringAttr(cand.Attributes, "Country"),
		}
		out.Add(res.Feature())
	}
	return out, nil
}

func (s *featureServerStrategy) models(ctx context.Context, c *base.Client) ([]string, error) {
	params := url.Values{}
	params.Set("f", "json")
	var dir directoryResponse
	if err := c.GetJSON(ctx, "", params, &dir); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(dir.Services))
	for _, svc := range dir.Services {
		names = append(names, svc.Name)
	}
	return names, nil
}

func (s *featureServerStrategy) schema(ctx context.Context, c *base.Client, model string) (*base.ModelSchema, error) {
	params := url.Values{}
	params.Set("f", "json")

	var info esriLayerInfo
	err := c.GetJSON(ctx, fmt.Sprintf("/%s/FeatureServer/0", model), params, &info)
	if err != nil {
		// An unknown layer is a nil schema, not a failure
		if kind := base.KindOf(err); kind == base.KindProvider || kind == base.KindNotFound {
			return nil, nil
		}
		return nil, err
	}
	// Some directories report unknown layers inside a 200 body
	if info.Error != nil {
		return nil, nil
	}

	schema := &base.ModelSchema{
		Name:     model,
		Geometry: esriGeometryTypeName(info.GeometryType),
	}
	for _, f := range info.Fields {
		schema.Fields = append(schema.Fields, base.FieldSchema{Name: f.Name, Type: esriFieldTypeName(f.Type)})
	}
	return schema, nil
}

func esriGeometryTypeName(esri string) string {
	switch esri {
	case "esriGeometryPoint":
		return "Point"
	case "esriGeometryPolyline":
		return "LineString"
	case "esriGeometryPolygon":
		return "Polygon"
	case "esriGeometryEnvelope":
		return "Polygon"
	default:
		return ""
	}
}

func esriFieldTypeName(esri string) string {
	switch esri {
	case "esriFieldTypeString":
		return "string"
	case "esriFieldTypeInteger", "esriFieldTypeSmallInteger", "esriFieldTypeOID":
		return "integer"
	case "esriFieldTypeDouble", "esriFieldTypeSingle":
		return "number"
	case "esriFieldTypeDate":
		return "date"
	default:
		return "string"
	}
}

func stringAttr(attrs map[string]interface{}, key string) string {
	if attrs == nil {
		return ""
	}
	if s, ok := attrs[key].(string); ok {
		return s
	}
	return ""
}
