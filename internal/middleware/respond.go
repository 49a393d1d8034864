package middleware

import (
	"encoding/json"
	"net/http"
)

// errorBody mirrors the controller error envelope so clients see a single
// shape whether a request was rejected here or in a handler.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, msg, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: msg, Code: code})
}
