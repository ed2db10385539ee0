// Copyright 2025 TerraLytics
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package base

import (
	"errors"
	"sync"
	"testing"
)

func TestNewAuditRecord(t *testing.T) {
	rec := NewAuditRecord(AuditCategoryFactory, "gis-county", "connector created")

	if rec.ID == "" {
		t.Error("expected generated ID")
	}
	if rec.Timestamp.IsZero() {
		t.Error("expected timestamp")
	}
	if !rec.Success || rec.Level != "info" {
		t.Error("new records default to success")
	}
	if rec.Category != AuditCategoryFactory || rec.Source != "gis-county" {
		t.Errorf("identity fields wrong: %+v", rec)
	}
}

func TestAuditRecord_Fail(t *testing.T) {
	rec := NewAuditRecord(AuditCategoryRequest, "weather-1", "GET /forecast")
	rec.Fail(errors.New("connection reset"))

	if rec.Success {
		t.Error("expected Success = false")
	}
	if rec.Level != "error" {
		t.Errorf("Level = %q, want error", rec.Level)
	}
	if rec.Error != "connection reset" {
		t.Errorf("Error = %q", rec.Error)
	}
}

func TestMemorySink_ConcurrentRecord(t *testing.T) {
	sink := &MemorySink{}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sink.Record(NewAuditRecord(AuditCategoryRequest, "c", "m"))
		}()
	}
	wg.Wait()

	if got := len(sink.Records()); got != 20 {
		t.Errorf("records = %d, want 20", got)
	}
}

func TestMemorySink_ByCategory(t *testing.T) {
	sink := &MemorySink{}
	sink.Record(NewAuditRecord(AuditCategoryFactory, "a", "created"))
	sink.Record(NewAuditRecord(AuditCategoryRequest, "a", "GET /x"))
	sink.Record(NewAuditRecord(AuditCategoryFactory, "b", "created"))

	if got := len(sink.ByCategory(AuditCategoryFactory)); got != 2 {
		t.Errorf("factory records = %d, want 2", got)
	}
	if got := len(sink.ByCategory(AuditCategoryRequest)); got != 1 {
		t.Errorf("request records = %d, want 1", got)
	}
}
