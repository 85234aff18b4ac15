package transport

import (
	"encoding/json"
	"net/http"
	"reflect"
)

type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, message string, details map[string]string) {
	WriteJSON(w, status, ErrorResponse{
		Error:   message,
		Details: details,
	})
}

// WriteItems writes {"items": [...]} and never encodes a nil slice as null,
// so an empty result is always distinguishable from an error body.
func WriteItems(w http.ResponseWriter, items interface{}, extra map[string]interface{}) {
	if v := reflect.ValueOf(items); !v.IsValid() || (v.Kind() == reflect.Slice && v.IsNil()) {
		items = []struct{}{}
	}
	payload := map[string]interface{}{"items": items}
	for k, v := range extra {
		payload[k] = v
	}
	WriteJSON(w, http.StatusOK, payload)
}
