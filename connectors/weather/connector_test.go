// Copyright 2025 TerraLytics
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package weather

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sort"
	"testing"
	"time"

	"terralytics/platform/connectors/base"
)

var testClock = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestConnector(t *testing.T, cfg *base.ConnectorConfig) *Connector {
	t.Helper()
	c, err := New(cfg, base.NopSink{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.now = func() time.Time { return testClock }
	return c
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  *base.ConnectorConfig
	}{
		{"nil config", nil},
		{"missing endpoint", &base.ConnectorConfig{Name: "wx", APIKey: "k"}},
		{"missing api key", &base.ConnectorConfig{Name: "wx", Endpoint: "http://localhost"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, nil)
			if base.KindOf(err) != base.KindConfiguration {
				t.Errorf("kind = %v, want configuration", base.KindOf(err))
			}
		})
	}
}

func TestEndpointSelection(t *testing.T) {
	past := testClock.Add(-48 * time.Hour)
	future := testClock.Add(48 * time.Hour)

	tests := []struct {
		name  string
		query *base.Query
		want  []string
	}{
		{"no dates", &base.Query{}, []string{"current"}},
		{"future only", &base.Query{Start: &future, End: &future}, []string{"forecast"}},
		{"open-ended future", &base.Query{Start: &future}, []string{"forecast"}},
		{"past only", &base.Query{Start: &past, End: &past}, []string{"historical"}},
		{"spans now", &base.Query{Start: &past, End: &future}, []string{"historical", "forecast"}},
		{"open-ended past start", &base.Query{Start: &past}, []string{"historical", "forecast"}},
		{"explicit model", &base.Query{Model: "climate", Start: &past}, []string{"climate"}},
	}

	conn := newTestConnector(t, &base.ConnectorConfig{Name: "wx", Endpoint: "http://localhost:1", APIKey: "k"})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := conn.selectEndpoints(tt.query)
			if err != nil {
				t.Fatalf("selectEndpoints: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("endpoints = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEndpointSelectionUnknownModel(t *testing.T) {
	conn := newTestConnector(t, &base.ConnectorConfig{Name: "wx", Endpoint: "http://localhost:1", APIKey: "k"})
	_, err := conn.selectEndpoints(&base.Query{Model: "tides"})
	if base.KindOf(err) != base.KindValidation {
		t.Errorf("kind = %v, want validation", base.KindOf(err))
	}
}

func TestFetchDataMergesSpanningRange(t *testing.T) {
	var hits []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits = append(hits, r.URL.Path)
		switch r.URL.Path {
		case "/historical":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"data": []map[string]interface{}{{"date": "2025-06-13"}, {"date": "2025-06-14"}},
			})
		case "/forecast":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"periods": []map[string]interface{}{{"period_start": "2025-06-16"}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	conn := newTestConnector(t, &base.ConnectorConfig{
		Name: "wx", Endpoint: server.URL, APIKey: "k", DefaultLocation: "Arlington, VA",
	})

	past := testClock.Add(-48 * time.Hour)
	future := testClock.Add(48 * time.Hour)
	result, err := conn.FetchData(context.Background(), &base.Query{Start: &past, End: &future})
	if err != nil {
		t.Fatalf("FetchData: %v", err)
	}

	sort.Strings(hits)
	if !reflect.DeepEqual(hits, []string{"/forecast", "/historical"}) {
		t.Errorf("hit %v, want both endpoints", hits)
	}
	if len(result.Sections) != 2 {
		t.Fatalf("sections = %d, want 2", len(result.Sections))
	}
	if _, ok := result.Sections["historical"]; !ok {
		t.Error("missing historical section")
	}
	if _, ok := result.Sections["forecast"]; !ok {
		t.Error("missing forecast section")
	}
	if result.Count != 3 {
		t.Errorf("count = %d, want 3 merged records", result.Count)
	}
}

func TestLocationResolutionChain(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"location": r.URL.Query().Get("location"),
			"lat":      r.URL.Query().Get("lat"),
			"lon":      r.URL.Query().Get("lon"),
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"data": []interface{}{}})
	}))
	defer server.Close()

	conn := newTestConnector(t, &base.ConnectorConfig{
		Name: "wx", Endpoint: server.URL, APIKey: "k", DefaultLocation: "Arlington, VA",
	})

	// lat/lon beats a named location
	_, err := conn.FetchData(context.Background(), &base.Query{
		Location: "Richmond, VA",
		Spatial:  &base.SpatialQuery{Radius: &base.RadiusQuery{Center: base.Point{Lon: -77.1, Lat: 38.88}, Meters: 1}},
	})
	if err != nil {
		t.Fatalf("FetchData: %v", err)
	}
	if gotQuery["lat"] == "" || gotQuery["location"] != "" {
		t.Errorf("lat/lon should win over named location: %v", gotQuery)
	}

	// named location beats the default
	if _, err := conn.FetchData(context.Background(), &base.Query{Location: "Richmond, VA"}); err != nil {
		t.Fatalf("FetchData: %v", err)
	}
	if gotQuery["location"] != "Richmond, VA" {
		t.Errorf("location = %q, want Richmond, VA", gotQuery["location"])
	}

	// default fills in when the query has nothing
	if _, err := conn.FetchData(context.Background(), &base.Query{}); err != nil {
		t.Fatalf("FetchData: %v", err)
	}
	if gotQuery["location"] != "Arlington, VA" {
		t.Errorf("location = %q, want the configured default", gotQuery["location"])
	}
}

func TestNoLocationAnywhere(t *testing.T) {
	conn := newTestConnector(t, &base.ConnectorConfig{Name: "wx", Endpoint: "http://localhost:1", APIKey: "k"})
	_, err := conn.FetchData(context.Background(), &base.Query{})
	if base.KindOf(err) != base.KindValidation {
		t.Errorf("kind = %v, want validation", base.KindOf(err))
	}
}

func TestAvailableModelsFixedList(t *testing.T) {
	conn := newTestConnector(t, &base.ConnectorConfig{Name: "wx", Endpoint: "http://localhost:1", APIKey: "k"})
	got, err := conn.AvailableModels(context.Background())
	if err != nil {
		t.Fatalf("AvailableModels: %v", err)
	}
	want := []string{"current", "forecast", "historical", "climate", "events"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("models = %v, want %v", got, want)
	}
}

func TestModelSchema(t *testing.T) {
	conn := newTestConnector(t, &base.ConnectorConfig{Name: "wx", Endpoint: "http://localhost:1", APIKey: "k"})

	schema, err := conn.ModelSchema(context.Background(), "forecast")
	if err != nil {
		t.Fatalf("ModelSchema: %v", err)
	}
	if schema == nil || schema.Name != "forecast" || len(schema.Fields) == 0 {
		t.Errorf("unexpected schema: %+v", schema)
	}

	schema, err = conn.ModelSchema(context.Background(), "tides")
	if err != nil || schema != nil {
		t.Errorf("unknown model: schema = %+v, err = %v; want nil, nil", schema, err)
	}
}

func TestAPIKeyOnWireButNotInAudit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("apikey") != "secret-key" {
			t.Error("api key missing from wire request")
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"data": []interface{}{}})
	}))
	defer server.Close()

	sink := &base.MemorySink{}
	conn, err := New(&base.ConnectorConfig{
		Name: "wx", Endpoint: server.URL, APIKey: "secret-key", DefaultLocation: "Arlington, VA",
	}, sink)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	conn.now = func() time.Time { return testClock }

	if _, err := conn.FetchData(context.Background(), &base.Query{}); err != nil {
		t.Fatalf("FetchData: %v", err)
	}

	records := sink.Records()
	if len(records) != 1 {
		t.Fatalf("audit records = %d, want 1", len(records))
	}
	if got := records[0].Params["apikey"]; got != base.Redacted {
		t.Errorf("audited apikey = %v, want %q", got, base.Redacted)
	}
	if got := records[0].Params["location"]; got != "Arlington, VA" {
		t.Errorf("non-sensitive param should survive: %v", got)
	}
}
