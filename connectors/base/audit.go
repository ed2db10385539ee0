// Copyright 2025 TerraLytics
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package base

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Audit record categories
const (
	AuditCategoryFactory = "connector_factory"
	AuditCategoryRequest = "connector_request"
)

// AuditRecord is a write-only fact describing either a factory creation
// attempt or one provider request/response/error trace. Records are
// produced by every connector operation and never read back by the
// connector framework itself.
type AuditRecord struct {
	ID         string                 `json:"id"`
	Timestamp  time.Time              `json:"timestamp"`
	Level      string                 `json:"level"`
	Category   string                 `json:"category"`
	Message    string                 `json:"message"`
	Source     string                 `json:"source"` // connector name
	Method     string                 `json:"method,omitempty"`
	Endpoint   string                 `json:"endpoint,omitempty"`
	Params     map[string]interface{} `json:"params,omitempty"` // sanitized before assignment
	DurationMS float64                `json:"duration_ms,omitempty"`
	StatusCode int                    `json:"status_code,omitempty"`
	Success    bool                   `json:"success"`
	Error      string                 `json:"error,omitempty"`
	Tags       []string               `json:"tags,omitempty"`
}

// NewAuditRecord builds a record with identity and timestamp filled in
func NewAuditRecord(category, source, message string) *AuditRecord {
	return &AuditRecord{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Level:     "info",
		Category:  category,
		Source:    source,
		Message:   message,
		Success:   true,
	}
}

// Fail marks the record as a failure carrying the error message
func (r *AuditRecord) Fail(err error) *AuditRecord {
	r.Level = "error"
	r.Success = false
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// AuditSink receives audit records. Implementations are write-only and
// must swallow their own failures: a broken sink never propagates an
// error into the operation that produced the record.
type AuditSink interface {
	Record(rec *AuditRecord)
}

// NopSink discards all records
type NopSink struct{}

func (NopSink) Record(*AuditRecord) {}

// MemorySink retains records in memory. Used by tests and by callers
// that inspect creation outcomes after bootstrap.
type MemorySink struct {
	mu      sync.Mutex
	records []*AuditRecord
}

func (s *MemorySink) Record(rec *AuditRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
}

// Records returns a snapshot of everything recorded so far
func (s *MemorySink) Records() []*AuditRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*AuditRecord, len(s.records))
	copy(out, s.records)
	return out
}

// ByCategory returns recorded entries matching the given category
func (s *MemorySink) ByCategory(category string) []*AuditRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*AuditRecord
	for _, rec := range s.records {
		if rec.Category == category {
			out = append(out, rec)
		}
	}
	return out
}
