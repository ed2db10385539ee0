// Copyright 2025 TerraLytics
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

/*
Package gis implements the GIS connector, the adapter over geographic
feature and geocoding providers.

A GIS connector is constructed with one of three wire-format strategies,
selected by the configuration's strategy tag:

  - featureserver: enterprise feature-server REST. The service directory
    is queried to discover feature services when no explicit layer is
    configured; spatial predicates translate to the provider's
    envelope/point/polygon geometry vocabulary with meter-based radius
    search.
  - commercial: commercial geocoding/tile services. Authentication rides
    as a query parameter, addresses are path-encoded, and responses that
    are not already feature collections are converted item by item.
  - generic: a plain REST fallback with fixed /features and /geocode
    endpoints and minimal query translation.

All three strategies converge on the same normalized FeatureCollection,
so callers never need to know which strategy serves a given connector.
*/
package gis
