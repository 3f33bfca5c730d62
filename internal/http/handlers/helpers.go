package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"householdmeter/internal/models"
	"householdmeter/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps the service error taxonomy to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		writeError(w, http.StatusBadRequest, validationErr.Reason)
		return
	}
	var notFoundErr *service.NotFoundError
	if errors.As(err, &notFoundErr) {
		writeError(w, http.StatusNotFound, notFoundErr.Reason)
		return
	}
	writeError(w, http.StatusInternalServerError, "internal error")
}

// meterTypeFromPath parses the {type} path segment.
func meterTypeFromPath(r *http.Request) (models.MeterType, bool) {
	meterType, err := models.ParseMeterType(r.PathValue("type"))
	return meterType, err == nil
}
