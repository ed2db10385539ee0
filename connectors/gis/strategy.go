// Copyright 2025 TerraLytics
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package gis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"terralytics/platform/connectors/base"
)

// strategy is one provider wire format. Each implementation owns the
// full translation both ways: logical query to provider parameters, and
// provider payload to the normalized feature collection.
type strategy interface {
	name() string

	// probe issues the lightweight connectivity check for TestConnection
	probe(ctx context.Context, c *base.Client) error

	queryFeatures(ctx context.Context, c *base.Client, q *base.Query) (*base.FeatureCollection, error)
	geocode(ctx context.Context, c *base.Client, address string) (*base.FeatureCollection, error)
	models(ctx context.Context, c *base.Client) ([]string, error)
	schema(ctx context.Context, c *base.Client, model string) (*base.ModelSchema, error)
}

// strategyFor selects the wire-format implementation for a config.
// The empty tag falls back to generic, the weakest contract.
func strategyFor(cfg *base.ConnectorConfig) (strategy, error) {
	switch cfg.Strategy {
	case base.StrategyFeatureServer:
		return &featureServerStrategy{cfg: cfg}, nil
	case base.StrategyCommercial:
		return &commercialStrategy{cfg: cfg}, nil
	case base.StrategyGeneric, "":
		return &genericStrategy{cfg: cfg}, nil
	default:
		return nil, base.NewConfigurationError(cfg.Name, fmt.Sprintf("unknown GIS strategy %q", cfg.Strategy))
	}
}

// geometryFromMap converts a GeoJSON-shaped geometry object into the
// normalized geometry. Items carrying bare lon/lat fields instead of a
// geometry object are promoted to points.
func geometryFromMap(raw map[string]interface{}) *base.Geometry {
	if raw == nil {
		return nil
	}
	if typ, ok := raw["type"].(string); ok {
		if coords, ok := raw["coordinates"]; ok {
			return &base.Geometry{Type: typ, Coordinates: coords}
		}
	}
	lon, lonOK := asFloat(raw["lon"])
	lat, latOK := asFloat(raw["lat"])
	if !lonOK || !latOK {
		lon, lonOK = asFloat(raw["longitude"])
		lat, latOK = asFloat(raw["latitude"])
	}
	if lonOK && latOK {
		return base.NewPointGeometry(lon, lat)
	}
	return nil
}

// featureFromItem builds a normalized feature from one provider item,
// extracting geometry and attributes individually.
func featureFromItem(item map[string]interface{}) base.Feature {
	var geom *base.Geometry
	if rawGeom, ok := item["geometry"].(map[string]interface{}); ok {
		geom = geometryFromMap(rawGeom)
	} else {
		geom = geometryFromMap(item)
	}

	props, ok := item["properties"].(map[string]interface{})
	if !ok {
		props, ok = item["attributes"].(map[string]interface{})
	}
	if !ok {
		props = make(map[string]interface{})
		for k, v := range item {
			if k == "geometry" {
				continue
			}
			props[k] = v
		}
	}
	return base.NewFeature(geom, props)
}

// collectionFromPayload converts an already-decoded provider payload into
// the canonical collection. Payloads that are valid feature collections
// pass through feature by feature; payloads carrying an item array are
// converted item by item rather than rejected.
func collectionFromPayload(payload map[string]interface{}) *base.FeatureCollection {
	out := base.NewFeatureCollection()

	if typ, _ := payload["type"].(string); typ == "FeatureCollection" {
		if features, ok := payload["features"].([]interface{}); ok {
			for _, raw := range features {
				if item, ok := raw.(map[string]interface{}); ok {
					out.Add(featureFromItem(item))
				}
			}
		}
		if bbox, ok := payload["bbox"].([]interface{}); ok {
			for _, v := range bbox {
				if f, ok := asFloat(v); ok {
					out.BBox = append(out.BBox, f)
				}
			}
		}
		return out
	}

	for _, key := range []string{"items", "results", "features"} {
		if items, ok := payload[key].([]interface{}); ok {
			for _, raw := range items {
				if item, ok := raw.(map[string]interface{}); ok {
					out.Add(featureFromItem(item))
				}
			}
			return out
		}
	}
	return out
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

// joinFields renders an attribute projection as a comma-joined list,
// with the provider wildcard when no projection is requested.
func joinFields(fields []string, wildcard string) string {
	if len(fields) == 0 {
		return wildcard
	}
	return strings.Join(fields, ",")
}
