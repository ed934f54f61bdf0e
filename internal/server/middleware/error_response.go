package middleware

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the error document of every endpoint. It carries the fields
// both GoTrue and PostgREST clients look at.
type ErrorBody struct {
	Code             string `json:"code"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
}

// WriteError writes status with an ErrorBody built from code and msg.
func WriteError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorBody{
		Code:             code,
		Error:            code,
		ErrorDescription: msg,
		Msg:              msg,
	})
}

// WriteInternalServerError hides the cause; it is logged by the caller.
func WriteInternalServerError(w http.ResponseWriter) {
	WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
}
