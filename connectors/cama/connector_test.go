// Copyright 2025 TerraLytics
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package cama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"terralytics/platform/connectors/base"
)

func TestAvailableModelsIntrospection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"tables": []string{"parcels", "valuations", "sales", "permits", "appeals"},
		})
	}))
	defer server.Close()

	conn, err := New(&base.ConnectorConfig{Name: "cama", Endpoint: server.URL}, base.NopSink{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := conn.AvailableModels(context.Background())
	if err != nil {
		t.Fatalf("AvailableModels: %v", err)
	}
	if len(got) != 5 || got[4] != "appeals" {
		t.Errorf("models = %v, want the introspected list", got)
	}
}

func TestAvailableModelsFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"not supported"}`, http.StatusNotImplemented)
	}))
	defer server.Close()

	conn, _ := New(&base.ConnectorConfig{Name: "cama", Endpoint: server.URL}, base.NopSink{})
	got, err := conn.AvailableModels(context.Background())
	if err != nil {
		t.Fatalf("AvailableModels: %v", err)
	}
	want := []string{"parcels", "valuations", "sales", "permits"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("models = %v, want static fallback %v", got, want)
	}
}

func TestModelSchemaIntrospectionThenFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/tables/parcels/schema" {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"name": "parcels",
				"columns": []map[string]string{
					{"name": "pin", "type": "string"},
					{"name": "assessed_value", "type": "integer"},
				},
			})
			return
		}
		http.Error(w, `{"message":"unknown table"}`, http.StatusNotFound)
	}))
	defer server.Close()

	conn, _ := New(&base.ConnectorConfig{Name: "cama", Endpoint: server.URL}, base.NopSink{})

	schema, err := conn.ModelSchema(context.Background(), "parcels")
	if err != nil {
		t.Fatalf("ModelSchema: %v", err)
	}
	if len(schema.Fields) != 2 || schema.Fields[0].Name != "pin" {
		t.Errorf("introspected schema = %+v", schema)
	}

	// introspection 404s for sales, the static schema steps in
	schema, err = conn.ModelSchema(context.Background(), "sales")
	if err != nil {
		t.Fatalf("ModelSchema: %v", err)
	}
	if schema == nil || schema.Name != "sales" {
		t.Fatalf("fallback schema = %+v", schema)
	}

	// unknown to both introspection and the static set
	schema, err = conn.ModelSchema(context.Background(), "easements")
	if err != nil || schema != nil {
		t.Errorf("schema = %+v, err = %v; want nil, nil", schema, err)
	}
}

func TestFetchDataRecords(t *testing.T) {
	var gotPath, gotFilter string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotFilter = r.URL.Query().Get("land_use_code")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"records": []map[string]interface{}{
				{"parcel_id": "0042-17", "total_value": 540000},
				{"parcel_id": "0042-18", "total_value": 622000},
			},
		})
	}))
	defer server.Close()

	conn, _ := New(&base.ConnectorConfig{Name: "cama", Endpoint: server.URL}, base.NopSink{})
	result, err := conn.FetchData(context.Background(), &base.Query{
		Model:   "valuations",
		Filters: map[string]string{"land_use_code": "R1"},
	})
	if err != nil {
		t.Fatalf("FetchData: %v", err)
	}
	if gotPath != "/tables/valuations/records" {
		t.Errorf("path = %q", gotPath)
	}
	if gotFilter != "R1" {
		t.Errorf("filter = %q, want R1", gotFilter)
	}
	if result.Count != 2 {
		t.Errorf("count = %d, want 2", result.Count)
	}
}

func TestFetchDataDefaultsToParcels(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]interface{}{"rows": []interface{}{}})
	}))
	defer server.Close()

	conn, _ := New(&base.ConnectorConfig{Name: "cama", Endpoint: server.URL}, base.NopSink{})
	if _, err := conn.FetchData(context.Background(), &base.Query{}); err != nil {
		t.Fatalf("FetchData: %v", err)
	}
	if gotPath != "/tables/parcels/records" {
		t.Errorf("path = %q, want the parcels default", gotPath)
	}
}
