// Copyright 2025 TerraLytics
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package main is the entry point for the TerraLytics connector service.
//
// The service loads provider configuration, bootstraps the connector
// registry, and serves the connector HTTP API.
//
// Usage:
//
//	./server
//
// See api.Run for the environment variables it reads.
package main

import (
	"terralytics/platform/api"
)

func main() {
	api.Run()
}
