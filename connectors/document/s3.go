// Copyright 2025 TerraLytics
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package document

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// objectFetcher retrieves source document bytes from object storage
type objectFetcher interface {
	fetch(ctx context.Context, bucket, key string) ([]byte, error)
}

// s3Fetcher reads objects through the AWS SDK using the ambient
// credential chain. The client is built lazily so connectors pointing at
// http sources never touch AWS configuration.
type s3Fetcher struct {
	region string

	once   sync.Once
	client *s3.Client
	err    error
}

func newS3Fetcher(region string) *s3Fetcher {
	return &s3Fetcher{region: region}
}

func (f *s3Fetcher) init(ctx context.Context) {
	optFns := []func(*config.LoadOptions) error{}
	if f.region != "" {
		optFns = append(optFns, config.WithRegion(f.region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		f.err = fmt.Errorf("load aws config: %w", err)
		return
	}
	f.client = s3.NewFromConfig(awsCfg)
}

func (f *s3Fetcher) fetch(ctx context.Context, bucket, key string) ([]byte, error) {
	f.once.Do(func() { f.init(ctx) })
	if f.err != nil {
		return nil, f.err
	}

	output, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", bucket, key, err)
	}
	defer output.Body.Close()

	content, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, fmt.Errorf("read s3://%s/%s: %w", bucket, key, err)
	}
	return content, nil
}
