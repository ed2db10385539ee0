// Copyright 2025 TerraLytics
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretResolver turns a secret reference into its credential map
type SecretResolver interface {
	Resolve(ctx context.Context, ref string) (map[string]string, error)
}

// AWSSecretResolver resolves references through AWS Secrets Manager.
// Values are cached with a TTL so bootstrap retries and config reloads
// don't hammer the service.
type AWSSecretResolver struct {
	client *secretsmanager.Client
	ttl    time.Duration
	logger *log.Logger

	mu    sync.RWMutex
	cache map[string]*cachedSecret
}

type cachedSecret struct {
	value     map[string]string
	expiresAt time.Time
}

// AWSSecretResolverOptions configures an AWSSecretResolver
type AWSSecretResolverOptions struct {
	Region   string
	CacheTTL time.Duration
	Logger   *log.Logger
}

func NewAWSSecretResolver(ctx context.Context, opts AWSSecretResolverOptions) (*AWSSecretResolver, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "[SECRETS] ", log.LstdFlags)
	}

	cfgOpts := []func(*awsconfig.LoadOptions) error{}
	if opts.Region != "" {
		cfgOpts = append(cfgOpts, awsconfig.WithRegion(opts.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, cfgOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &AWSSecretResolver{
		client: secretsmanager.NewFromConfig(cfg),
		ttl:    ttl,
		logger: logger,
		cache:  make(map[string]*cachedSecret),
	}, nil
}

// Resolve fetches one secret. JSON-object secrets become field maps;
// plain-string secrets are exposed under the "value" field.
func (r *AWSSecretResolver) Resolve(ctx context.Context, ref string) (map[string]string, error) {
	r.mu.RLock()
	entry, ok := r.cache[ref]
	r.mu.RUnlock()
	if ok && time.Now().Before(entry.expiresAt) {
		return entry.value, nil
	}

	r.logger.Printf("fetching secret %s", maskRef(ref))
	result, err := r.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(ref),
	})
	if err != nil {
		return nil, fmt.Errorf("get secret %s: %w", maskRef(ref), err)
	}
	if result.SecretString == nil {
		return nil, fmt.Errorf("secret %s has no string value", maskRef(ref))
	}

	var fields map[string]string
	if err := json.Unmarshal([]byte(*result.SecretString), &fields); err != nil {
		fields = map[string]string{"value": *result.SecretString}
	}

	r.mu.Lock()
	r.cache[ref] = &cachedSecret{value: fields, expiresAt: time.Now().Add(r.ttl)}
	r.mu.Unlock()
	return fields, nil
}

// Invalidate drops one cached secret
func (r *AWSSecretResolver) Invalidate(ref string) {
	r.mu.Lock()
	delete(r.cache, ref)
	r.mu.Unlock()
}

// maskRef hides all but the tail of a secret reference in logs
func maskRef(ref string) string {
	if len(ref) <= 12 {
		return "***"
	}
	return "..." + ref[len(ref)-8:]
}

// EnvSecretResolver resolves references from environment variables,
// for development and deployments without AWS. A reference NAME reads
// the variable SECRET_NAME (uppercased, dashes to underscores).
type EnvSecretResolver struct{}

func (EnvSecretResolver) Resolve(ctx context.Context, ref string) (map[string]string, error) {
	key := "SECRET_" + sanitizeEnvKey(ref)
	val := os.Getenv(key)
	if val == "" {
		return nil, fmt.Errorf("environment variable %s is not set", key)
	}

	var fields map[string]string
	if err := json.Unmarshal([]byte(val), &fields); err != nil {
		fields = map[string]string{"value": val}
	}
	return fields, nil
}

func sanitizeEnvKey(ref string) string {
	out := make([]byte, 0, len(ref))
	for i := 0; i < len(ref); i++ {
		c := ref[i]
		switch {
		case c >= 'a' && c <= 'z':
			out = append(out, c-('a'-'A'))
		case c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
