// Copyright 2025 TerraLytics
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package factory constructs typed connectors from configuration and
// registers them. Every construction attempt, successful or not, leaves
// exactly one audit record.
package factory

import (
	"fmt"

	"terralytics/platform/connectors/base"
	"terralytics/platform/connectors/cama"
	"terralytics/platform/connectors/census"
	"terralytics/platform/connectors/document"
	"terralytics/platform/connectors/gis"
	"terralytics/platform/connectors/market"
	"terralytics/platform/connectors/registry"
	"terralytics/platform/connectors/weather"
	"terralytics/platform/shared/logger"
)

// Factory builds connectors and registers them with the injected
// registry. Construction validates configuration before anything is
// registered; a failed attempt leaves the registry untouched.
type Factory struct {
	registry *registry.Registry
	sink     base.AuditSink
	logger   *logger.Logger
}

func New(reg *registry.Registry, sink base.AuditSink) *Factory {
	if sink == nil {
		sink = base.NopSink{}
	}
	return &Factory{
		registry: reg,
		sink:     sink,
		logger:   logger.New("CONNECTOR_FACTORY"),
	}
}

// Create dispatches on the config's type tag.
func (f *Factory) Create(cfg *base.ConnectorConfig) (base.Connector, error) {
	if cfg == nil {
		err := base.NewConfigurationError("factory", "configuration is required")
		f.audit("", "", err)
		return nil, err
	}
	switch cfg.Type {
	case base.TypeGIS:
		return f.CreateGIS(cfg)
	case base.TypeWeather:
		return f.CreateWeather(cfg)
	case base.TypeCensus:
		return f.CreateCensus(cfg)
	case base.TypeCAMA:
		return f.CreateCAMA(cfg)
	case base.TypeMarket:
		return f.CreateMarket(cfg)
	case base.TypeDocument:
		return f.CreateDocument(cfg)
	default:
		err := base.NewConfigurationError(cfg.Name, fmt.Sprintf("unknown connector type %q", cfg.Type))
		f.audit(cfg.Type, cfg.Name, err)
		return nil, err
	}
}

func (f *Factory) CreateGIS(cfg *base.ConnectorConfig) (base.Connector, error) {
	conn, err := gis.New(cfg, f.sink)
	return f.finish(base.TypeGIS, cfg, conn, err)
}

func (f *Factory) CreateWeather(cfg *base.ConnectorConfig) (base.Connector, error) {
	conn, err := weather.New(cfg, f.sink)
	return f.finish(base.TypeWeather, cfg, conn, err)
}

func (f *Factory) CreateCensus(cfg *base.ConnectorConfig) (base.Connector, error) {
	conn, err := census.New(cfg, f.sink)
	return f.finish(base.TypeCensus, cfg, conn, err)
}

func (f *Factory) CreateCAMA(cfg *base.ConnectorConfig) (base.Connector, error) {
	conn, err := cama.New(cfg, f.sink)
	return f.finish(base.TypeCAMA, cfg, conn, err)
}

func (f *Factory) CreateMarket(cfg *base.ConnectorConfig) (base.Connector, error) {
	conn, err := market.New(cfg, f.sink)
	return f.finish(base.TypeMarket, cfg, conn, err)
}

func (f *Factory) CreateDocument(cfg *base.ConnectorConfig) (base.Connector, error) {
	conn, err := document.New(cfg, f.sink)
	return f.finish(base.TypeDocument, cfg, conn, err)
}

// finish registers a successfully built connector and writes the single
// audit record for the attempt. conn is only consulted when err is nil.
func (f *Factory) finish(t base.ConnectorType, cfg *base.ConnectorConfig, conn base.Connector, err error) (base.Connector, error) {
	name := ""
	if cfg != nil {
		name = cfg.Name
	}
	if err != nil {
		f.audit(t, name, err)
		return nil, err
	}
	if regErr := f.registry.Register(conn); regErr != nil {
		err := base.NewConfigurationError(name, regErr.Error())
		f.audit(t, name, err)
		return nil, err
	}
	f.audit(t, name, nil)
	return conn, nil
}

// audit writes the one record per construction attempt
func (f *Factory) audit(t base.ConnectorType, name string, err error) {
	rec := base.NewAuditRecord(base.AuditCategoryFactory, "factory",
		fmt.Sprintf("create %s connector %q", t, name))
	rec.Params = map[string]interface{}{
		"connector_type": string(t),
		"connector_name": name,
	}
	if err != nil {
		rec.Fail(err)
		f.logger.Error("", "connector creation failed", map[string]interface{}{
			"type":  string(t),
			"name":  name,
			"error": base.SanitizeLogString(err.Error()),
		})
	} else {
		f.logger.Info("", "connector created", map[string]interface{}{
			"type": string(t),
			"name": name,
		})
	}
	f.sink.Record(rec)
}
