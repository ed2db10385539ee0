// Copyright 2025 TerraLytics
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package census

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"terralytics/platform/connectors/base"
)

func TestNewRequiresEndpoint(t *testing.T) {
	_, err := New(&base.ConnectorConfig{Name: "census"}, nil)
	if base.KindOf(err) != base.KindConfiguration {
		t.Errorf("kind = %v, want configuration", base.KindOf(err))
	}
}

func TestFetchDataAppliesJurisdictionDefaults(t *testing.T) {
	var gotPath, gotRegion, gotState string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRegion = r.URL.Query().Get("region")
		gotState = r.URL.Query().Get("state")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"records": []map[string]interface{}{
				{"geography_id": "51013", "median_household_income": 125000},
			},
		})
	}))
	defer server.Close()

	conn, err := New(&base.ConnectorConfig{
		Name: "census", Endpoint: server.URL, Region: "arlington", State: "VA",
	}, base.NopSink{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := conn.FetchData(context.Background(), &base.Query{Model: "income"})
	if err != nil {
		t.Fatalf("FetchData: %v", err)
	}
	if gotPath != "/data/income" {
		t.Errorf("path = %q, want /data/income", gotPath)
	}
	if gotRegion != "arlington" || gotState != "VA" {
		t.Errorf("jurisdiction defaults not applied: region=%q state=%q", gotRegion, gotState)
	}
	if result.Count != 1 || len(result.Records) != 1 {
		t.Errorf("count = %d, records = %d; want 1 each", result.Count, len(result.Records))
	}
}

func TestFetchDataQueryFiltersWin(t *testing.T) {
	var gotRegion string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRegion = r.URL.Query().Get("region")
		json.NewEncoder(w).Encode(map[string]interface{}{"data": []interface{}{}})
	}))
	defer server.Close()

	conn, _ := New(&base.ConnectorConfig{Name: "census", Endpoint: server.URL, Region: "arlington"}, base.NopSink{})
	_, err := conn.FetchData(context.Background(), &base.Query{
		Model:   "population",
		Filters: map[string]string{"region": "fairfax"},
	})
	if err != nil {
		t.Fatalf("FetchData: %v", err)
	}
	if gotRegion != "fairfax" {
		t.Errorf("region = %q, query filter should beat the config default", gotRegion)
	}
}

func TestFetchDataUnknownModel(t *testing.T) {
	conn, _ := New(&base.ConnectorConfig{Name: "census", Endpoint: "http://localhost:1"}, base.NopSink{})
	_, err := conn.FetchData(context.Background(), &base.Query{Model: "weather"})
	if base.KindOf(err) != base.KindValidation {
		t.Errorf("kind = %v, want validation", base.KindOf(err))
	}
}

func TestModelSchemaStatic(t *testing.T) {
	conn, _ := New(&base.ConnectorConfig{Name: "census", Endpoint: "http://localhost:1"}, base.NopSink{})

	schema, err := conn.ModelSchema(context.Background(), "housing")
	if err != nil || schema == nil {
		t.Fatalf("schema = %+v, err = %v", schema, err)
	}
	if schema.Name != "housing" {
		t.Errorf("name = %q", schema.Name)
	}

	schema, err = conn.ModelSchema(context.Background(), "missing")
	if err != nil || schema != nil {
		t.Errorf("unknown model: schema = %+v, err = %v; want nil, nil", schema, err)
	}
}
