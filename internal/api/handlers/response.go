package handlers

import (
	"net/http"
	"strconv"

	"github.com/dom/pixelcart/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type ErrorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// statusForKind maps domain error kinds onto HTTP statuses.
func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindInvalidState, domain.KindFull, domain.KindConflict:
		return http.StatusConflict
	case domain.KindNotReady:
		return http.StatusPreconditionFailed
	case domain.KindInvalidArgument:
		return http.StatusBadRequest
	case domain.KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeErrorBody(w http.ResponseWriter, status int, kind domain.ErrorKind, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorBody{Kind: string(kind), Message: message}})
}

// writeError renders err. Domain errors are expected outcomes; anything
// else is logged under op and hidden behind a 500.
func writeError(w http.ResponseWriter, logger *logrus.Logger, op string, err error) {
	kind := domain.KindOf(err)
	if kind == "" {
		logger.WithError(err).WithField("op", op).Error("request failed")
		writeErrorBody(w, http.StatusInternalServerError, "internal", "Internal server error")
		return
	}
	writeErrorBody(w, statusForKind(kind), kind, err.Error())
}

func badRequest(w http.ResponseWriter, message string) {
	writeErrorBody(w, http.StatusBadRequest, domain.KindInvalidArgument, message)
}

func unauthorized(w http.ResponseWriter) {
	writeErrorBody(w, http.StatusUnauthorized, domain.KindUnauthenticated, "Unauthorized")
}

func decodeBody(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func uuidParam(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	return id, err == nil
}

func intQuery(r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	return n, err == nil
}
