/*
Copyright 2026 The Sentinelguard Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package httpapi exposes the detection-and-response pipeline over HTTP:
// bearer-token authenticated JSON endpoints for the identity graph,
// detection scans, response plans, and the audit log.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/sentinelguard/sentinelguard/internal/apperrors"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps any error to a structured JSON error response. AppErrors
// carry their own status code and safe message; anything else is treated
// as an internal error and never echoes the underlying error text to the
// caller.
func writeError(w http.ResponseWriter, err error) {
	status := apperrors.GetStatusCode(err)
	writeJSON(w, status, map[string]string{
		"error": apperrors.SafeErrorMessage(err),
		"type":  string(apperrors.GetType(err)),
	})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperrors.Wrap(err, apperrors.ErrorTypeValidation, "invalid request body")
	}
	return nil
}
