// Package response writes the JSON envelope every admin endpoint answers with.
package response

import (
	"encoding/json"
	"net/http"
)

// Response is the JSON envelope.
type Response struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// WriteJSON encodes the envelope with status.
func WriteJSON(w http.ResponseWriter, status int, message string, data any, err error) {
	r := Response{Message: message, Data: data}
	if err != nil {
		r.Error = err.Error()
	}

	body, err := json.Marshal(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func OK(w http.ResponseWriter, message string, data any) {
	WriteJSON(w, http.StatusOK, message, data, nil)
}

func Accepted(w http.ResponseWriter, message string, data any) {
	WriteJSON(w, http.StatusAccepted, message, data, nil)
}

func BadRequest(w http.ResponseWriter, message string, err error) {
	WriteJSON(w, http.StatusBadRequest, message, nil, err)
}

func UnprocessableEntity(w http.ResponseWriter, message string, err error) {
	WriteJSON(w, http.StatusUnprocessableEntity, message, nil, err)
}

func InternalServerError(w http.ResponseWriter, message string, err error) {
	WriteJSON(w, http.StatusInternalServerError, message, nil, err)
}
