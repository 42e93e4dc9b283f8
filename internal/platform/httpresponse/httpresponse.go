// Package httpresponse writes the uniform JSON envelope spec §4.9/§6.1
// requires: {success, data} on success, optionally with pagination, and
// {success: false, error} on failure.
package httpresponse

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrE-scrum-master/courtesy-inspection/internal/errs"
	"github.com/MrE-scrum-master/courtesy-inspection/internal/platform/logger"
)

// Pagination mirrors the shape described in spec §4.5.7/§6.1.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type envelope struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

var log = logger.NewDefault()

// OK writes a 200 envelope carrying data.
func OK(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

// Created writes a 201 envelope carrying data.
func Created(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusCreated, envelope{Success: true, Data: data})
}

// Paginated writes a 200 envelope carrying data plus pagination metadata.
func Paginated(w http.ResponseWriter, data interface{}, p Pagination) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data, Pagination: &p})
}

// Error writes an error envelope. The HTTP status and the user-visible
// message are both derived from err's taxonomy Kind; internal causes are
// never included in the message, only logged.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	kind := errs.KindOf(err)
	status := errs.HTTPStatus(kind)

	message := userMessage(kind, err)
	if status >= 500 {
		log.WithContext(r.Context()).WithField("error", err.Error()).Error("internal error")
	}
	writeJSON(w, status, envelope{Success: false, Error: message})
}

// userMessage returns the text sent to the client. Internal errors are
// always generic per spec §7 ("details go to the logger only").
func userMessage(kind errs.Kind, err error) string {
	if kind == errs.Internal {
		return "internal server error"
	}
	var e *errs.Error
	errors.As(err, &e)
	if e != nil && e.Message != "" {
		return e.Message
	}
	return string(kind)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
