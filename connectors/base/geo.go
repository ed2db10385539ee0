// Copyright 2025 TerraLytics
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package base

// Geometry is a GeoJSON-shaped geometry. Coordinates follows the GeoJSON
// nesting for the given type: [lon,lat] for Point, an array of rings for
// Polygon, and so on.
type Geometry struct {
	Type        string      `json:"type"`
	Coordinates interface{} `json:"coordinates"`
}

// NewPointGeometry builds a Point geometry from lon/lat
func NewPointGeometry(lon, lat float64) *Geometry {
	return &Geometry{Type: "Point", Coordinates: []float64{lon, lat}}
}

// NewPolygonGeometry builds a single-ring Polygon geometry. The ring is
// closed if the caller has not already closed it.
func NewPolygonGeometry(ring []Point) *Geometry {
	if len(ring) > 0 && ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	coords := make([][]float64, 0, len(ring))
	for _, p := range ring {
		coords = append(coords, []float64{p.Lon, p.Lat})
	}
	return &Geometry{Type: "Polygon", Coordinates: [][][]float64{coords}}
}

// Feature is one normalized geographic feature: a geometry plus an open
// attribute map. Every GIS provider's response converges on this shape.
type Feature struct {
	Type       string                 `json:"type"`
	Geometry   *Geometry              `json:"geometry,omitempty"`
	Properties map[string]interface{} `json:"properties"`
}

// NewFeature builds a Feature, never leaving Properties nil
func NewFeature(geom *Geometry, props map[string]interface{}) Feature {
	if props == nil {
		props = make(map[string]interface{})
	}
	return Feature{Type: "Feature", Geometry: geom, Properties: props}
}

// FeatureCollection is an ordered sequence of features with an optional
// bounding box, serialized as standard GeoJSON.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
	BBox     []float64 `json:"bbox,omitempty"`
}

// NewFeatureCollection builds an empty collection. Features is always
// non-nil so a zero-result collection serializes as "features": [].
func NewFeatureCollection() *FeatureCollection {
	return &FeatureCollection{Type: "FeatureCollection", Features: []Feature{}}
}

// Add appends a feature to the collection
func (fc *FeatureCollection) Add(f Feature) {
	fc.Features = append(fc.Features, f)
}

// Len returns the number of features
func (fc *FeatureCollection) Len() int {
	return len(fc.Features)
}

// GeocodeResult is the normalized resolution of a single address
type GeocodeResult struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	Confidence       float64 `json:"confidence"`
	FormattedAddress string  `json:"formatted_address"`
	Neighborhood     string  `json:"neighborhood,omitempty"`
	District         string  `json:"district,omitempty"`
	City             string  `json:"city,omitempty"`
	County           string  `json:"county,omitempty"`
	State            string  `json:"state,omitempty"`
	PostalCode       string  `json:"postal_code,omitempty"`
	Country          string  `json:"country,omitempty"`
}

// Feature converts the geocode result into the canonical feature shape
func (g GeocodeResult) Feature() Feature {
	props := map[string]interface{}{
		"address":    g.FormattedAddress,
		"confidence": g.Confidence,
	}
	if g.Neighborhood != "" {
		props["neighborhood"] = g.Neighborhood
	}
	if g.District != "" {
		props["district"] = g.District
	}
	if g.City != "" {
		props["city"] = g.City
	}
	if g.County != "" {
		props["county"] = g.County
	}
	if g.State != "" {
		props["state"] = g.State
	}
	if g.PostalCode != "" {
		props["postal_code"] = g.PostalCode
	}
	if g.Country != "" {
		props["country"] = g.Country
	}
	return NewFeature(NewPointGeometry(g.Longitude, g.Latitude), props)
}

// DefaultGeocodeConfidence applies when a provider reports neither a
// match score nor a confidence field.
const DefaultGeocodeConfidence = 0.8

// NormalizeConfidence maps provider-specific match quality onto a 0-1
// confidence. A 0-100 score is divided by 100; an existing 0-1
// confidence passes through; with neither, the documented default holds.
func NormalizeConfidence(score, confidence *float64) float64 {
	switch {
	case score != nil:
		return *score / 100
	case confidence != nil:
		return *confidence
	default:
		return DefaultGeocodeConfidence
	}
}
