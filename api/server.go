// Copyright 2025 TerraLytics
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package api exposes the connector registry over HTTP. Handlers are
// thin: decode, dispatch to the connector, map the error taxonomy onto
// status codes.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"terralytics/platform/connectors/base"
	"terralytics/platform/connectors/registry"
	"terralytics/platform/shared/logger"
)

// Server serves the connector API from an injected registry.
type Server struct {
	registry  *registry.Registry
	logger    *logger.Logger
	jwtSecret []byte
}

// Option configures a Server
type Option func(*Server)

// WithJWTSecret enables HS256 bearer-token authentication
func WithJWTSecret(secret []byte) Option {
	return func(s *Server) { s.jwtSecret = secret }
}

func NewServer(reg *registry.Registry, opts ...Option) *Server {
	s := &Server{
		registry: reg,
		logger:   logger.New("CONNECTOR_API"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the full middleware-wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	// metrics must run inside the router so the matched route template
	// is available for the path label
	r.Use(metricsMiddleware)

	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.Handle("/prometheus", promhttp.Handler()).Methods("GET")

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(authMiddleware(s.jwtSecret))
	apiRouter.HandleFunc("/connectors", s.handleList).Methods("GET")
	apiRouter.HandleFunc("/connectors/{name}", s.handleGet).Methods("GET")
	apiRouter.HandleFunc("/connectors/{name}/test", s.handleTest).Methods("GET")
	apiRouter.HandleFunc("/connectors/{name}/models", s.handleModels).Methods("GET")
	apiRouter.HandleFunc("/connectors/{name}/models/{model}/schema", s.handleSchema).Methods("GET")
	apiRouter.HandleFunc("/connectors/{name}/query", s.handleQuery).Methods("POST")
	apiRouter.HandleFunc("/connectors/{name}/geocode", s.handleGeocode).Methods("GET")
	apiRouter.HandleFunc("/connectors/{name}/parcels", s.handleParcels).Methods("GET")
	apiRouter.HandleFunc("/connectors/{name}/parcels/{id}", s.handleParcel).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return c.Handler(r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "healthy",
		"connectors": s.registry.Len(),
	})
}

// connectorView is the outward shape of a connector. Credentials stay
// inside; only identity and routing metadata cross the boundary.
type connectorView struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Endpoint string `json:"endpoint"`
	Strategy string `json:"strategy,omitempty"`
	Region   string `json:"region,omitempty"`
	State    string `json:"state,omitempty"`
}

func viewOf(conn base.Connector) connectorView {
	cfg := conn.Config()
	return connectorView{
		Name:     conn.Name(),
		Type:     string(conn.Type()),
		Endpoint: cfg.Endpoint,
		Strategy: cfg.Strategy,
		Region:   cfg.Region,
		State:    cfg.State,
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	conns := s.registry.All()
	if typeFilter := r.URL.Query().Get("type"); typeFilter != "" {
		conns = s.registry.ByType(base.ConnectorType(typeFilter))
	}
	views := make([]connectorView, 0, len(conns))
	for _, conn := range conns {
		views = append(views, viewOf(conn))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"connectors": views})
}

// lookup fetches the named connector or writes the 404 itself
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (base.Connector, bool) {
	name := mux.Vars(r)["name"]
	conn, ok := s.registry.Get(name)
	if !ok {
		writeError(w, base.NewNotFoundError(name, "lookup", "connector not found"))
		return nil, false
	}
	return conn, true
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	conn, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewOf(conn))
}

func (s *Server) handleTest(w http.ResponseWriter, r *http.Request) {
	conn, ok := s.lookup(w, r)
	if !ok {
		return
	}
	healthy := conn.TestConnection(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"connector": conn.Name(),
		"healthy":   healthy,
	})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	conn, ok := s.lookup(w, r)
	if !ok {
		return
	}
	models, err := conn.AvailableModels(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"models": models})
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	conn, ok := s.lookup(w, r)
	if !ok {
		return
	}
	model := mux.Vars(r)["model"]
	schema, err := conn.ModelSchema(r.Context(), model)
	if err != nil {
		writeError(w, err)
		return
	}
	if schema == nil {
		writeError(w, base.NewNotFoundError(conn.Name(), "schema", "model not found"))
		return
	}
	writeJSON(w, http.StatusOK, schema)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	conn, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var query base.Query
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		writeError(w, base.NewValidationError(conn.Name(), "query", "request body is not a valid query"))
		return
	}
	result, err := conn.FetchData(r.Context(), &query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	conn, ok := s.lookup(w, r)
	if !ok {
		return
	}
	geo, ok := conn.(base.GeoConnector)
	if !ok {
		writeError(w, base.NewValidationError(conn.Name(), "geocode", "connector does not support geocoding"))
		return
	}
	address := r.URL.Query().Get("address")
	fc, err := geo.GeocodeAddress(r.Context(), address)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fc)
}

func (s *Server) handleParcels(w http.ResponseWriter, r *http.Request) {
	conn, ok := s.lookup(w, r)
	if !ok {
		return
	}
	geo, ok := conn.(base.GeoConnector)
	if !ok {
		writeError(w, base.NewValidationError(conn.Name(), "parcels", "connector does not support parcel queries"))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	if raw := r.URL.Query().Get("bbox"); raw != "" {
		bbox, err := parseBBox(conn.Name(), raw)
		if err != nil {
			writeError(w, err)
			return
		}
		fc, err := geo.ParcelsInBoundingBox(r.Context(), bbox, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, fc)
		return
	}

	lon := r.URL.Query().Get("lon")
	lat := r.URL.Query().Get("lat")
	radius := r.URL.Query().Get("radius")
	if lon != "" && lat != "" && radius != "" {
		center, meters, err := parseRadius(conn.Name(), lon, lat, radius)
		if err != nil {
			writeError(w, err)
			return
		}
		fc, err := geo.ParcelsInRadius(r.Context(), center, meters, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, fc)
		return
	}

	writeError(w, base.NewValidationError(conn.Name(), "parcels", "either bbox or lon/lat/radius is required"))
}

func (s *Server) handleParcel(w http.ResponseWriter, r *http.Request) {
	conn, ok := s.lookup(w, r)
	if !ok {
		return
	}
	geo, ok := conn.(base.GeoConnector)
	if !ok {
		writeError(w, base.NewValidationError(conn.Name(), "parcel", "connector does not support parcel queries"))
		return
	}
	feature, err := geo.ParcelGeometry(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, feature)
}

// parseBBox parses "west,south,east,north"
func parseBBox(connector, raw string) (base.BoundingBox, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return base.BoundingBox{}, base.NewValidationError(connector, "parcels", "bbox must be west,south,east,north")
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return base.BoundingBox{}, base.NewValidationError(connector, "parcels", "bbox must be numeric")
		}
		vals[i] = f
	}
	return base.BoundingBox{West: vals[0], South: vals[1], East: vals[2], North: vals[3]}, nil
}

func parseRadius(connector, lon, lat, radius string) (base.Point, float64, error) {
	lonF, err1 := strconv.ParseFloat(lon, 64)
	latF, err2 := strconv.ParseFloat(lat, 64)
	meters, err3 := strconv.ParseFloat(radius, 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return base.Point{}, 0, base.NewValidationError(connector, "parcels", "lon, lat, and radius must be numeric")
	}
	return base.Point{Lon: lonF, Lat: latF}, meters, nil
}
