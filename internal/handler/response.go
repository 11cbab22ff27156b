package handler

import (
	"encoding/json"
	"log"
	"net/http"
)

// envelope is the standard response body: the HTTP status repeated in the
// payload, a human message, and the data when there is any.
type envelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// pageMeta describes one page of a paginated list.
type pageMeta struct {
	Total       int64 `json:"total"`
	Size        int   `json:"size"`
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
}

type pagedEnvelope struct {
	Success bool     `json:"success"`
	Status  int      `json:"status"`
	Message string   `json:"message"`
	Data    any      `json:"data"`
	Meta    pageMeta `json:"meta"`
}

func respond(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Status: status, Message: message, Data: data})
}

func respondError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Status: status, Message: message})
}

// respondValidation reports per-field validation failures as 422.
func respondValidation(w http.ResponseWriter, fields map[string]string) {
	writeJSON(w, http.StatusUnprocessableEntity, envelope{
		Status:  http.StatusUnprocessableEntity,
		Message: "validation failed",
		Data:    fields,
	})
}

func respondPage(w http.ResponseWriter, message string, data any, total int64, page, size int) {
	lastPage := int((total + int64(size) - 1) / int64(size))
	if lastPage < 1 {
		lastPage = 1
	}
	writeJSON(w, http.StatusOK, pagedEnvelope{
		Success: true,
		Status:  http.StatusOK,
		Message: message,
		Data:    data,
		Meta: pageMeta{
			Total:       total,
			Size:        size,
			CurrentPage: page,
			LastPage:    lastPage,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}
