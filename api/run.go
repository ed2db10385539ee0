// Copyright 2025 TerraLytics
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package api

import (
	"context"
	"log"
	"net/http"
	"os"

	"terralytics/platform/audit"
	"terralytics/platform/connectors/base"
	"terralytics/platform/connectors/bootstrap"
	"terralytics/platform/connectors/config"
	"terralytics/platform/connectors/registry"
)

// Run wires the whole service from environment configuration and blocks
// serving HTTP.
//
// Environment Variables:
//
//	PORT              - HTTP server port (default: 8080)
//	CONNECTORS_CONFIG - provider config file path (default: connectors.yaml)
//	DATABASE_URL      - PostgreSQL audit sink (optional)
//	MONGO_URI         - MongoDB audit sink (optional)
//	MONGO_DATABASE    - MongoDB database name (default: terralytics)
//	JWT_SECRET        - HS256 secret; empty disables API auth
//	SECRETS_BACKEND   - "aws" to resolve secret:// refs via Secrets Manager
//	AWS_REGION        - region for the Secrets Manager client (optional)
func Run() {
	log.Println("Starting TerraLytics connector service...")

	ctx := context.Background()

	resolver := buildSecretResolver(ctx)
	sink, cleanup := buildAuditSink(ctx)
	defer cleanup()

	configPath := getEnv("CONNECTORS_CONFIG", "connectors.yaml")
	loader, err := config.NewLoader(configPath, resolver)
	if err != nil {
		log.Fatalf("Failed to load connector config %s: %v", configPath, err)
	}
	configs, err := loader.Providers(ctx)
	if err != nil {
		log.Fatalf("Failed to resolve provider configs: %v", err)
	}

	reg := registry.New()
	summary := bootstrap.Run(reg, sink, configs)
	if !summary.Ok() {
		for name, err := range summary.Failed {
			log.Printf("Provider %s failed to register: %v", name, err)
		}
	}
	log.Printf("Registered %d connectors", len(summary.Registered))

	var opts []Option
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		opts = append(opts, WithJWTSecret([]byte(secret)))
	}
	server := NewServer(reg, opts...)

	port := getEnv("PORT", "8080")
	log.Printf("TerraLytics connector API listening on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, server.Handler()))
}

// buildSecretResolver picks the backend for secret:// references. AWS is
// opt-in; everything else falls back to SECRET_* environment variables.
func buildSecretResolver(ctx context.Context) config.SecretResolver {
	if os.Getenv("SECRETS_BACKEND") != "aws" {
		return config.EnvSecretResolver{}
	}
	resolver, err := config.NewAWSSecretResolver(ctx, config.AWSSecretResolverOptions{
		Region: os.Getenv("AWS_REGION"),
	})
	if err != nil {
		log.Printf("Secrets Manager unavailable, falling back to env secrets: %v", err)
		return config.EnvSecretResolver{}
	}
	return resolver
}

// buildAuditSink assembles the audit fan-out. The logger sink is always
// present; Postgres and Mongo join when their connection strings are set.
// A sink that fails to connect is skipped, not fatal.
func buildAuditSink(ctx context.Context) (base.AuditSink, func()) {
	sinks := []base.AuditSink{audit.NewLoggerSink()}
	var closers []func()

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pg, err := audit.NewPostgresSink(dbURL)
		if err != nil {
			log.Printf("Postgres audit sink unavailable: %v", err)
		} else {
			sinks = append(sinks, pg)
			closers = append(closers, pg.Close)
		}
	}

	if mongoURI := os.Getenv("MONGO_URI"); mongoURI != "" {
		database := getEnv("MONGO_DATABASE", "terralytics")
		ms, err := audit.NewMongoSink(ctx, mongoURI, database, "connector_audit")
		if err != nil {
			log.Printf("Mongo audit sink unavailable: %v", err)
		} else {
			sinks = append(sinks, ms)
			closers = append(closers, func() {
				if err := ms.Close(context.Background()); err != nil {
					log.Printf("Mongo audit sink close: %v", err)
				}
			})
		}
	}

	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}
	if len(sinks) == 1 {
		return sinks[0], cleanup
	}
	return audit.NewMultiSink(sinks...), cleanup
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
