// Copyright 2025 TerraLytics
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terralytics/platform/connectors/base"
	"terralytics/platform/connectors/registry"
)

// fakeGeo is a scriptable GeoConnector for handler tests
type fakeGeo struct {
	name      string
	fetchErr  error
	geocodeFC *base.FeatureCollection
	parcel    *base.Feature
	parcelErr error
}

func (f *fakeGeo) TestConnection(ctx context.Context) bool { return true }
func (f *fakeGeo) FetchData(ctx context.Context, q *base.Query) (*base.Result, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return &base.Result{Connector: f.name, Count: 1}, nil
}
func (f *fakeGeo) AvailableModels(ctx context.Context) ([]string, error) {
	return []string{"parcels", "zoning"}, nil
}
func (f *fakeGeo) ModelSchema(ctx context.Context, model string) (*base.ModelSchema, error) {
	if model == "parcels" {
		return &base.ModelSchema{Name: "parcels"}, nil
	}
	return nil, nil
}
func (f *fakeGeo) Name() string             { return f.name }
func (f *fakeGeo) Type() base.ConnectorType { return base.TypeGIS }
func (f *fakeGeo) Config() *base.ConnectorConfig {
	return &base.ConnectorConfig{
		Name: f.name, Type: base.TypeGIS,
		Endpoint: "https://gis.example.gov", APIKey: "super-secret",
	}
}
func (f *fakeGeo) GeocodeAddress(ctx context.Context, address string) (*base.FeatureCollection, error) {
	if f.geocodeFC != nil {
		return f.geocodeFC, nil
	}
	return base.NewFeatureCollection(), nil
}
func (f *fakeGeo) ParcelGeometry(ctx context.Context, id string) (*base.Feature, error) {
	if f.parcelErr != nil {
		return nil, f.parcelErr
	}
	return f.parcel, nil
}
func (f *fakeGeo) ParcelsInBoundingBox(ctx context.Context, bbox base.BoundingBox, limit int) (*base.FeatureCollection, error) {
	return base.NewFeatureCollection(), nil
}
func (f *fakeGeo) ParcelsInRadius(ctx context.Context, center base.Point, meters float64, limit int) (*base.FeatureCollection, error) {
	return base.NewFeatureCollection(), nil
}

func newTestServer(t *testing.T, conns ...base.Connector) http.Handler {
	t.Helper()
	reg := registry.New()
	for _, conn := range conns {
		require.NoError(t, reg.Register(conn))
	}
	return NewServer(reg).Handler()
}

func doRequest(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestListConnectorsHidesCredentials(t *testing.T) {
	h := newTestServer(t, &fakeGeo{name: "gis-arlington"})

	rec := doRequest(h, "GET", "/api/v1/connectors", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "super-secret")

	var body struct {
		Connectors []connectorView `json:"connectors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Connectors, 1)
	assert.Equal(t, "gis-arlington", body.Connectors[0].Name)
	assert.Equal(t, "gis", body.Connectors[0].Type)
}

func TestGetUnknownConnector(t *testing.T) {
	h := newTestServer(t)
	rec := doRequest(h, "GET", "/api/v1/connectors/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "not_found", resp.Kind)
}

func TestErrorTaxonomyStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    *base.Error
		status int
	}{
		{"validation", base.NewValidationError("gis", "fetch", "bad query"), http.StatusBadRequest},
		{"not found", base.NewNotFoundError("gis", "fetch", "missing"), http.StatusNotFound},
		{"configuration", base.NewConfigurationError("gis", "bad config"), http.StatusUnprocessableEntity},
		{"timeout", base.NewTimeoutError("gis", "fetch", 30*time.Second, context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"transport", base.NewTransportError("gis", "fetch", assert.AnError), http.StatusBadGateway},
		{"provider", base.NewProviderError("gis", "fetch", "API Error", 500), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, &fakeGeo{name: "gis", fetchErr: tt.err})
			rec := doRequest(h, "POST", "/api/v1/connectors/gis/query", `{}`)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestQueryReturnsResult(t *testing.T) {
	h := newTestServer(t, &fakeGeo{name: "gis"})
	rec := doRequest(h, "POST", "/api/v1/connectors/gis/query", `{"limit": 5}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result base.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "gis", result.Connector)
	assert.Equal(t, 1, result.Count)
}

func TestQueryMalformedBody(t *testing.T) {
	h := newTestServer(t, &fakeGeo{name: "gis"})
	rec := doRequest(h, "POST", "/api/v1/connectors/gis/query", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSchemaHandling(t *testing.T) {
	h := newTestServer(t, &fakeGeo{name: "gis"})

	rec := doRequest(h, "GET", "/api/v1/connectors/gis/models/parcels/schema", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// nil schema becomes 404 at the boundary
	rec = doRequest(h, "GET", "/api/v1/connectors/gis/models/unknown/schema", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGeocodeEndpoint(t *testing.T) {
	fc := base.NewFeatureCollection()
	fc.Add(base.NewFeature(base.NewPointGeometry(-77.0, 38.9), map[string]interface{}{"address": "100 Main St"}))
	h := newTestServer(t, &fakeGeo{name: "gis", geocodeFC: fc})

	rec := doRequest(h, "GET", "/api/v1/connectors/gis/geocode?address=100+Main+St", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got base.FeatureCollection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 1, got.Len())
}

func TestParcelsRequireSpatialParams(t *testing.T) {
	h := newTestServer(t, &fakeGeo{name: "gis"})

	rec := doRequest(h, "GET", "/api/v1/connectors/gis/parcels", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(h, "GET", "/api/v1/connectors/gis/parcels?bbox=-77.1,38.8,-77.0,39.0", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(h, "GET", "/api/v1/connectors/gis/parcels?bbox=oops", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(h, "GET", "/api/v1/connectors/gis/parcels?lon=-77.05&lat=38.85&radius=500", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsLabelUsesRouteTemplate(t *testing.T) {
	h := newTestServer(t, &fakeGeo{name: "gis"})

	templated := promRequestsTotal.WithLabelValues("/api/v1/connectors/{name}", "GET", "200")
	before := testutil.ToFloat64(templated)

	rec := doRequest(h, "GET", "/api/v1/connectors/gis", "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, before+1, testutil.ToFloat64(templated))
	// the concrete request path must never become a label
	assert.Zero(t, testutil.ToFloat64(promRequestsTotal.WithLabelValues("/api/v1/connectors/gis", "GET", "200")))
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, &fakeGeo{name: "gis"})
	rec := doRequest(h, "GET", "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"connectors":1`)
}

func TestJWTAuth(t *testing.T) {
	secret := []byte("test-secret")
	reg := registry.New()
	require.NoError(t, reg.Register(&fakeGeo{name: "gis"}))
	h := NewServer(reg, WithJWTSecret(secret)).Handler()

	// no token
	rec := doRequest(h, "GET", "/api/v1/connectors", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// bad token
	req := httptest.NewRequest("GET", "/api/v1/connectors", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// valid token
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "analyst",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(secret)
	require.NoError(t, err)

	req = httptest.NewRequest("GET", "/api/v1/connectors", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// health stays open
	rec = doRequest(h, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
