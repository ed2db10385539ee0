// Copyright 2025 TerraLytics
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"terralytics/platform/connectors/base"
)

// errorResponse is the uniform error body. Only the classified message
// crosses the boundary; raw provider bodies and credentials never do.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// statusForKind maps the error taxonomy onto HTTP status codes.
func statusForKind(kind base.Kind) int {
	switch kind {
	case base.KindValidation:
		return http.StatusBadRequest
	case base.KindNotFound:
		return http.StatusNotFound
	case base.KindConfiguration:
		return http.StatusUnprocessableEntity
	case base.KindTimeout:
		return http.StatusGatewayTimeout
	case base.KindTransport, base.KindProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	kind := base.KindOf(err)
	message := "internal error"
	var taxonomy *base.Error
	if errors.As(err, &taxonomy) {
		message = taxonomy.Message
		if message == "" {
			message = taxonomy.Error()
		}
	}
	writeJSON(w, statusForKind(kind), errorResponse{
		Error: base.SanitizeLogString(message),
		Kind:  kind.String(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
