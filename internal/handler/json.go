// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"net/http"
)

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	writeJSONErrorDetails(w, statusCode, message, nil)
}

// writeJSONErrorDetails writes a JSON error response with per-field details.
func writeJSONErrorDetails(w http.ResponseWriter, statusCode int, message string, details map[string]string) {
	body := map[string]any{
		"success": false,
		"error":   message,
	}
	if len(details) > 0 {
		body["details"] = details
	}
	writeJSON(w, statusCode, body)
}

// writeJSONSuccess writes a JSON success response.
func writeJSONSuccess(w http.ResponseWriter, data map[string]any) {
	writeJSONStatus(w, http.StatusOK, data)
}

// writeJSONStatus writes a success response with an explicit status code.
func writeJSONStatus(w http.ResponseWriter, statusCode int, data map[string]any) {
	if data == nil {
		data = make(map[string]any)
	}
	data["success"] = true
	writeJSON(w, statusCode, data)
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
