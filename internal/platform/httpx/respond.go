package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
)

// WriteJSON encodes payload as the response body with the given status.
// A nil payload writes only the status line.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	if payload == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// DecodeJSON strictly decodes the request body into dst, rejecting unknown
// fields and trailing content.
func DecodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	var extra any
	if err := decoder.Decode(&extra); err == nil {
		return errTrailingBody
	}
	return nil
}

var errTrailingBody = errors.New("httpx: unexpected trailing request body")
