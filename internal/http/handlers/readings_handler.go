package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"householdmeter/internal/models"
	"householdmeter/internal/service"
)

type createReadingRequest struct {
	MeterType   string          `json:"meter_type"`
	Value       decimal.Decimal `json:"reading_value"`
	ReadingWeek *int            `json:"reading_week"`
	ReadingDate time.Time       `json:"reading_date"`
	Notes       string          `json:"notes"`
}

// NewCreateReadingHandler returns POST /v1/meter-readings handler.
func NewCreateReadingHandler(svc *service.ReadingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createReadingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		meterType, err := models.ParseMeterType(req.MeterType)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.ReadingDate.IsZero() {
			writeError(w, http.StatusBadRequest, "reading_date required")
			return
		}

		reading, err := svc.Create(r.Context(), service.CreateReadingInput{
			MeterType:   meterType,
			Value:       req.Value,
			ReadingWeek: req.ReadingWeek,
			ReadingDate: req.ReadingDate,
			Notes:       req.Notes,
		})
		if err != nil {
			logger.Warn("create meter reading rejected", zap.Error(err))
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, reading)
	}
}

// NewListReadingsHandler returns GET /v1/meter-readings handler.
func NewListReadingsHandler(svc *service.ReadingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		readings, err := svc.List(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, readings)
	}
}

// NewReadingsByTypeHandler returns GET /v1/meter-readings/{type} handler.
func NewReadingsByTypeHandler(svc *service.ReadingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		meterType, ok := meterTypeFromPath(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid meter type")
			return
		}
		readings, err := svc.ListByType(r.Context(), meterType)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, readings)
	}
}

// NewLatestReadingHandler returns GET /v1/meter-readings/{type}/latest handler.
func NewLatestReadingHandler(svc *service.ReadingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		meterType, ok := meterTypeFromPath(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid meter type")
			return
		}
		reading, err := svc.Latest(r.Context(), meterType)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, reading)
	}
}

// NewConsumptionHandler returns GET /v1/meter-readings/{type}/consumption handler.
func NewConsumptionHandler(svc *service.ReadingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		meterType, ok := meterTypeFromPath(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid meter type")
			return
		}
		consumption, err := svc.Consumption(r.Context(), meterType)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, consumption)
	}
}
