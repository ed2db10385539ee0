// Copyright 2025 TerraLytics
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package base

import "time"

// BoundingBox is a west/south/east/north envelope in WGS84 degrees
type BoundingBox struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

// Valid reports whether the envelope is well formed
func (b BoundingBox) Valid() bool {
	return b.West < b.East && b.South < b.North &&
		b.West >= -180 && b.East <= 180 &&
		b.South >= -90 && b.North <= 90
}

// Point is a single lon/lat coordinate in WGS84 degrees
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// RadiusQuery is a point-plus-distance search; distance is always meters
type RadiusQuery struct {
	Center Point   `json:"center"`
	Meters float64 `json:"meters"`
}

// SpatialPredicate identifies which spatial constraint a query carries
type SpatialPredicate int

const (
	PredicateNone SpatialPredicate = iota
	PredicateBBox
	PredicateRadius
	PredicatePolygon
	PredicateID
)

func (p SpatialPredicate) String() string {
	switch p {
	case PredicateBBox:
		return "bbox"
	case PredicateRadius:
		return "radius"
	case PredicatePolygon:
		return "polygon"
	case PredicateID:
		return "id"
	default:
		return "none"
	}
}

// SpatialQuery carries at most one honored spatial constraint. When more
// than one field is populated the fixed precedence bbox > radius >
// polygon > identifier applies, so every connector resolves ambiguous
// queries identically.
type SpatialQuery struct {
	BBox    *BoundingBox `json:"bbox,omitempty"`
	Radius  *RadiusQuery `json:"radius,omitempty"`
	Polygon []Point      `json:"polygon,omitempty"`
	ID      string       `json:"id,omitempty"`
}

// Predicate resolves which spatial constraint is honored for this query
func (s *SpatialQuery) Predicate() SpatialPredicate {
	if s == nil {
		return PredicateNone
	}
	switch {
	case s.BBox != nil:
		return PredicateBBox
	case s.Radius != nil:
		return PredicateRadius
	case len(s.Polygon) > 0:
		return PredicatePolygon
	case s.ID != "":
		return PredicateID
	}
	return PredicateNone
}

// Query is the one logical query shape every connector translates into
// its provider's wire format.
type Query struct {
	// Model selects the logical layer/table/endpoint to query. Empty
	// means the connector's default model.
	Model string `json:"model,omitempty"`

	Spatial *SpatialQuery `json:"spatial,omitempty"`

	// Fields projects the returned attributes; empty means all fields
	Fields []string `json:"fields,omitempty"`

	// Limit caps the result count; zero means provider default
	Limit int `json:"limit,omitempty"`

	// Location is a named location for providers that resolve by name
	// (weather); lat/lon via Spatial takes priority
	Location string `json:"location,omitempty"`

	// Start/End bound time-ranged queries (weather, market trends)
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`

	// Filters carries provider-recognized attribute filters verbatim
	Filters map[string]string `json:"filters,omitempty"`
}
