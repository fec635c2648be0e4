// Package shared holds the JSON response helpers every handler uses, keeping
// the error envelope consistent across endpoints.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	"docproof/pkg/domainerr"
)

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSON writes a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError translates a domain error into its HTTP status and envelope.
// Unrecognized errors collapse to a 500 without leaking internals.
func WriteError(w http.ResponseWriter, err error) {
	var de *domainerr.Error
	if !errors.As(err, &de) {
		WriteJSON(w, http.StatusInternalServerError, map[string]ErrorBody{
			"error": {Code: string(domainerr.CodeInternal), Message: "internal error"},
		})
		return
	}
	WriteJSON(w, domainerr.ToHTTPStatus(de.Code), map[string]ErrorBody{
		"error": {Code: string(de.Code), Message: de.Message},
	})
}
