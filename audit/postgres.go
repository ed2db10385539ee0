// Copyright 2025 TerraLytics
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package audit

import (
	"database/sql"
	"encoding/json"
	"log"
	"os"
	"sync"

	_ "github.com/lib/pq"

	"terralytics/platform/connectors/base"
)

const insertAuditSQL = `
	INSERT INTO connector_audit (
		id, timestamp, level, category, message, source,
		method, endpoint, params, duration_ms, status_code,
		success, error
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

const auditSchemaSQL = `
	CREATE TABLE IF NOT EXISTS connector_audit (
		id VARCHAR(255) PRIMARY KEY,
		timestamp TIMESTAMP NOT NULL,
		level VARCHAR(20) NOT NULL,
		category VARCHAR(100) NOT NULL,
		message TEXT NOT NULL,
		source VARCHAR(255) NOT NULL,
		method VARCHAR(10),
		endpoint TEXT,
		params JSONB,
		duration_ms DOUBLE PRECISION,
		status_code INTEGER,
		success BOOLEAN NOT NULL,
		error TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_connector_audit_timestamp ON connector_audit(timestamp);
	CREATE INDEX IF NOT EXISTS idx_connector_audit_source ON connector_audit(source);
	CREATE INDEX IF NOT EXISTS idx_connector_audit_category ON connector_audit(category);`

// PostgresSink persists audit records to PostgreSQL. Writes happen on a
// background worker so callers never wait on the database; insert
// failures are logged and the record dropped rather than surfaced.
type PostgresSink struct {
	db     *sql.DB
	queue  chan *base.AuditRecord
	done   chan struct{}
	logger *log.Logger

	mu     sync.Mutex
	closed bool
}

// NewPostgresSink connects to the database and ensures the audit table
// exists.
func NewPostgresSink(databaseURL string) (*PostgresSink, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(auditSchemaSQL); err != nil {
		db.Close()
		return nil, err
	}
	return NewPostgresSinkFromDB(db), nil
}

// NewPostgresSinkFromDB wraps an existing database handle. The caller
// keeps ownership of the handle; Close stops the worker only.
func NewPostgresSinkFromDB(db *sql.DB) *PostgresSink {
	s := &PostgresSink{
		db:     db,
		queue:  make(chan *base.AuditRecord, 256),
		done:   make(chan struct{}),
		logger: log.New(os.Stdout, "[AUDIT_PG] ", log.LstdFlags),
	}
	go s.worker()
	return s
}

func (s *PostgresSink) Record(rec *base.AuditRecord) {
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
		// Queue is full. Auditing must not block connector calls, so
		// the record is dropped.
		s.logger.Printf("audit queue full, dropping record %s", rec.ID)
	}
}

func (s *PostgresSink) worker() {
	for rec := range s.queue {
		s.insert(rec)
	}
	close(s.done)
}

func (s *PostgresSink) insert(rec *base.AuditRecord) {
	var params []byte
	if len(rec.Params) > 0 {
		params, _ = json.Marshal(rec.Params)
	}
	_, err := s.db.Exec(insertAuditSQL,
		rec.ID,
		rec.Timestamp,
		rec.Level,
		rec.Category,
		rec.Message,
		rec.Source,
		rec.Method,
		rec.Endpoint,
		nullableBytes(params),
		rec.DurationMS,
		rec.StatusCode,
		rec.Success,
		rec.Error,
	)
	if err != nil {
		s.logger.Printf("failed to insert audit record %s: %v", rec.ID, err)
	}
}

// Close drains the queue and stops the worker. Records arriving after
// Close are discarded; Close is idempotent.
func (s *PostgresSink) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()
	<-s.done
}

func nullableBytes(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
