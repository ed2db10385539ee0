// Copyright 2025 TerraLytics
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package audit

import "terralytics/platform/connectors/base"

// MultiSink fans each record out to every configured sink.
type MultiSink struct {
	sinks []base.AuditSink
}

func NewMultiSink(sinks ...base.AuditSink) *MultiSink {
	out := make([]base.AuditSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return &MultiSink{sinks: out}
}

func (m *MultiSink) Record(rec *base.AuditRecord) {
	for _, s := range m.sinks {
		s.Record(rec)
	}
}
