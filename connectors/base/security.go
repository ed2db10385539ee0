// Copyright 2025 TerraLytics
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package base

import (
	"net/url"
	"regexp"
	"strings"
)

// Redacted replaces credential values in sanitized parameter sets
const Redacted = "[REDACTED]"

// sensitiveKeyFragments marks parameter names whose values never reach a
// log line. Matching is case-insensitive substring matching so that
// provider-specific spellings (access_token, apiKey, X-Api-Key) are all
// caught.
var sensitiveKeyFragments = []string{
	"key",
	"token",
	"secret",
	"password",
	"credential",
	"authorization",
	"signature",
}

// IsSensitiveKey reports whether a parameter or header name carries a
// credential.
func IsSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, frag := range sensitiveKeyFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

// SanitizeParams returns a copy of params safe to log: credential-bearing
// keys are redacted, nested maps are sanitized recursively. The input map
// is never modified, so the values still reach the provider untouched.
func SanitizeParams(params map[string]interface{}) map[string]interface{} {
	if params == nil {
		return nil
	}
	out := make(map[string]interface{}, len(params))
	for key, val := range params {
		if IsSensitiveKey(key) {
			out[key] = Redacted
			continue
		}
		if nested, ok := val.(map[string]interface{}); ok {
			out[key] = SanitizeParams(nested)
			continue
		}
		out[key] = val
	}
	return out
}

// SanitizeValues converts url.Values into a loggable parameter map with
// credentials redacted.
func SanitizeValues(values url.Values) map[string]interface{} {
	if values == nil {
		return nil
	}
	out := make(map[string]interface{}, len(values))
	for key, vals := range values {
		if IsSensitiveKey(key) {
			out[key] = Redacted
			continue
		}
		if len(vals) == 1 {
			out[key] = vals[0]
		} else {
			out[key] = vals
		}
	}
	return out
}

var ansiEscapes = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// SanitizeLogString neutralizes log injection: newlines are escaped, ANSI
// escape sequences removed, and overlong values truncated.
func SanitizeLogString(s string) string {
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = ansiEscapes.ReplaceAllString(s, "")
	const maxLogLength = 500
	if len(s) > maxLogLength {
		s = s[:maxLogLength] + "...[truncated]"
	}
	return s
}
