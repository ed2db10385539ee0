// Copyright 2025 TerraLytics
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package audit provides the durable sinks connector audit records flow
// into: structured logs, PostgreSQL, and MongoDB. Sinks are write-only
// and never fail the operation that produced the record.
package audit

import (
	"terralytics/platform/connectors/base"
	"terralytics/platform/shared/logger"
)

// LoggerSink writes audit records to the structured log stream. It is
// the default sink when no database is configured.
type LoggerSink struct {
	logger *logger.Logger
}

func NewLoggerSink() *LoggerSink {
	return &LoggerSink{logger: logger.New("AUDIT")}
}

func (s *LoggerSink) Record(rec *base.AuditRecord) {
	if rec == nil {
		return
	}
	fields := map[string]interface{}{
		"audit_id": rec.ID,
		"category": rec.Category,
		"source":   rec.Source,
		"success":  rec.Success,
	}
	if rec.Method != "" {
		fields["method"] = rec.Method
	}
	if rec.Endpoint != "" {
		fields["endpoint"] = rec.Endpoint
	}
	if rec.StatusCode != 0 {
		fields["status_code"] = rec.StatusCode
	}
	if rec.DurationMS > 0 {
		fields["duration_ms"] = rec.DurationMS
	}
	if len(rec.Params) > 0 {
		fields["params"] = rec.Params
	}
	if rec.Error != "" {
		fields["error"] = base.SanitizeLogString(rec.Error)
		s.logger.Error("", rec.Message, fields)
		return
	}
	s.logger.Info("", rec.Message, fields)
}
