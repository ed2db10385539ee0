// Copyright 2025 TerraLytics
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

/*
Package logger provides structured JSON logging for TerraLytics platform
components.

# Overview

The logger outputs one JSON object per line to stdout, making logs directly
consumable by CloudWatch, ELK, or any other log aggregation system.

Each log entry includes:
  - Timestamp (RFC3339Nano format)
  - Log level (DEBUG, INFO, WARN, ERROR)
  - Component name (connector type, factory, api, etc.)
  - Instance ID and host (for distributed tracing)
  - Request ID (for request correlation)
  - Custom fields

# Usage

Create a logger for your component:

	log := logger.New("gis-connector")

Log messages with request context:

	log.Info(requestID, "feature query completed", map[string]interface{}{
		"layer":    "parcels",
		"features": 42,
	})

Use the duration and status-code helpers for request/response traces:

	log.InfoWithDuration(requestID, "provider call", 125.0, nil)
	log.ErrorWithCode(requestID, "provider call failed", 502, err, nil)
*/
package logger
