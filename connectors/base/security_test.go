// Copyright 2025 TerraLytics
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package base

import (
	"net/url"
	"strings"
	"testing"
)

func TestIsSensitiveKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"api_key", true},
		{"apiKey", true},
		{"access_token", true},
		{"Authorization", true},
		{"client_secret", true},
		{"password", true},
		{"X-Api-Key", true},
		{"bbox", false},
		{"outFields", false},
		{"limit", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := IsSensitiveKey(tt.key); got != tt.want {
				t.Errorf("IsSensitiveKey(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestSanitizeParams(t *testing.T) {
	params := map[string]interface{}{
		"bbox":    "-122.5,37.7,-122.3,37.9",
		"api_key": "super-secret",
		"nested": map[string]interface{}{
			"token": "also-secret",
			"limit": 10,
		},
	}

	out := SanitizeParams(params)

	if out["api_key"] != Redacted {
		t.Errorf("api_key = %v, want redacted", out["api_key"])
	}
	if out["bbox"] != "-122.5,37.7,-122.3,37.9" {
		t.Errorf("bbox = %v, should be untouched", out["bbox"])
	}
	nested := out["nested"].(map[string]interface{})
	if nested["token"] != Redacted {
		t.Errorf("nested token = %v, want redacted", nested["token"])
	}
	if nested["limit"] != 10 {
		t.Errorf("nested limit = %v, should be untouched", nested["limit"])
	}

	// Input map must be unchanged so the live request still carries the key
	if params["api_key"] != "super-secret" {
		t.Error("sanitization must not mutate the input")
	}
}

func TestSanitizeParams_Nil(t *testing.T) {
	if SanitizeParams(nil) != nil {
		t.Error("expected nil for nil input")
	}
}

func TestSanitizeValues(t *testing.T) {
	values := url.Values{}
	values.Set("singleLine", "123 Main St")
	values.Set("access_token", "tok-123")
	values.Add("tags", "a")
	values.Add("tags", "b")

	out := SanitizeValues(values)

	if out["access_token"] != Redacted {
		t.Errorf("access_token = %v, want redacted", out["access_token"])
	}
	if out["singleLine"] != "123 Main St" {
		t.Errorf("singleLine = %v", out["singleLine"])
	}
	if tags, ok := out["tags"].([]string); !ok || len(tags) != 2 {
		t.Errorf("tags = %v, want both values", out["tags"])
	}
}

func TestSanitizeLogString(t *testing.T) {
	in := "line1\nline2\r\x1b[31mred\x1b[0m"
	out := SanitizeLogString(in)

	if strings.Contains(out, "\n") || strings.Contains(out, "\r") {
		t.Error("newlines must be escaped")
	}
	if strings.Contains(out, "\x1b") {
		t.Error("ANSI escapes must be removed")
	}

	long := strings.Repeat("x", 600)
	if !strings.HasSuffix(SanitizeLogString(long), "...[truncated]") {
		t.Error("overlong strings must be truncated")
	}
}
