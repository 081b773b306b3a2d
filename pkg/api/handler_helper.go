package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/damianmunoz/debinfo-dispatcher/pkg/api/middleware"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/logging"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/translate"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/validation"
)

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("encode JSON response", logging.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.respondJSON(w, status, ErrorResponse{
		Error:     http.StatusText(status),
		Message:   message,
		Code:      status,
		RequestID: middleware.GetRequestID(r),
	})
}

// sanitizeError logs err in full and answers with a generic message so
// file paths never reach the client.
func (s *Server) sanitizeError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	s.logger.Error(operation+" failed", logging.Error(err), logging.RequestID(middleware.GetRequestID(r)))
	s.respondError(w, r, http.StatusInternalServerError, operation+" failed")
}

// graphName extracts and validates the {name} URL parameter. It answers
// the request and returns false when the name is invalid.
func (s *Server) graphName(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := chi.URLParam(r, "name")
	if err := validation.ValidateGraphName(name); err != nil {
		s.respondError(w, r, http.StatusBadRequest, err.Error())
		return "", false
	}
	return name, true
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New(key + " must be an integer")
	}
	return n, nil
}

// queryBool parses an optional boolean query parameter.
func queryBool(r *http.Request, key string) (bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.New(key + " must be a boolean")
	}
	return b, nil
}

// translateStatus maps a translation failure to an HTTP status. Inputs that
// cannot be recognised are bad requests, inputs that fail to parse are
// unprocessable, and anything else is a server fault.
func translateStatus(err error) int {
	var te *translate.TranslateError
	if !errors.As(err, &te) {
		return http.StatusInternalServerError
	}
	switch te.Op {
	case "detect":
		return http.StatusBadRequest
	case "parse":
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
