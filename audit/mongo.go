// Copyright 2025 TerraLytics
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package audit

import (
	"context"
	"log"
	"os"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"terralytics/platform/connectors/base"
)

const mongoWriteTimeout = 5 * time.Second

// MongoSink persists audit records to a MongoDB collection. Like the
// Postgres sink, writes are asynchronous and failures are logged, never
// surfaced.
type MongoSink struct {
	collection *mongo.Collection
	client     *mongo.Client
	queue      chan *base.AuditRecord
	done       chan struct{}
	logger     *log.Logger

	mu     sync.Mutex
	closed bool
}

// NewMongoSink connects to MongoDB and targets db.collection for writes.
func NewMongoSink(ctx context.Context, uri, database, collection string) (*MongoSink, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, err
	}

	s := &MongoSink{
		collection: client.Database(database).Collection(collection),
		client:     client,
		queue:      make(chan *base.AuditRecord, 256),
		done:       make(chan struct{}),
		logger:     log.New(os.Stdout, "[AUDIT_MONGO] ", log.LstdFlags),
	}
	go s.worker()
	return s, nil
}

func (s *MongoSink) Record(rec *base.AuditRecord) {
	if rec == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.queue <- rec:
	default:
		s.logger.Printf("audit queue full, dropping record %s", rec.ID)
	}
}

func (s *MongoSink) worker() {
	for rec := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), mongoWriteTimeout)
		if _, err := s.collection.InsertOne(ctx, rec); err != nil {
			s.logger.Printf("failed to insert audit record %s: %v", rec.ID, err)
		}
		cancel()
	}
	close(s.done)
}

// Close drains the queue, stops the worker, and disconnects. Records
// arriving after Close are discarded.
func (s *MongoSink) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()
	<-s.done
	return s.client.Disconnect(ctx)
}
