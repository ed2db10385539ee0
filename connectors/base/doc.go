// Copyright 2025 TerraLytics
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

/*
Package base defines the contract that every TerraLytics data connector
implements, together with the cross-cutting behavior they all share.

# Overview

A connector is a typed adapter over one external provider: a GIS service,
a weather/climate API, a census/demographic endpoint, a CAMA
(computer-assisted mass appraisal) system, a market-data feed, or a
document-extraction service. Structurally incompatible providers are
presented to the rest of the platform through one uniform capability set:

	TestConnection(ctx) bool
	FetchData(ctx, query) (*Result, error)
	AvailableModels(ctx) ([]string, error)
	ModelSchema(ctx, name) (*ModelSchema, error)

GIS connectors additionally implement GeoConnector for geocoding and
parcel lookups.

# Cross-cutting behavior

The Client helper in this package wraps every outbound provider call with:

  - a hard per-call timeout, bound to the request context so a timeout
    actually cancels the in-flight network request
  - exactly one audit trace per call, success or failure, carrying the
    method, endpoint, sanitized parameters, and elapsed duration
  - error classification into the shared taxonomy (configuration,
    validation, not-found, provider, timeout, transport)

Credential-bearing parameters are stripped before anything is logged,
and never before the request is sent to the provider.
*/
package base
