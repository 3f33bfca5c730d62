package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"householdmeter/internal/models"
	"householdmeter/internal/service"
)

type createPriceRequest struct {
	MeterType string          `json:"meter_type"`
	Price     decimal.Decimal `json:"price"`
	ValidFrom models.Date     `json:"valid_from"`
	ValidTo   *models.Date    `json:"valid_to"`
}

// NewCreatePriceHandler returns POST /v1/utility-prices handler.
func NewCreatePriceHandler(svc *service.PriceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createPriceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		meterType, err := models.ParseMeterType(req.MeterType)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.ValidFrom.IsZero() {
			writeError(w, http.StatusBadRequest, "valid_from required")
			return
		}

		price, err := svc.Create(r.Context(), service.CreatePriceInput{
			MeterType: meterType,
			Price:     req.Price,
			ValidFrom: req.ValidFrom,
			ValidTo:   req.ValidTo,
		})
		if err != nil {
			logger.Warn("create utility price rejected", zap.Error(err))
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, price)
	}
}

// NewListPricesHandler returns GET /v1/utility-prices handler.
func NewListPricesHandler(svc *service.PriceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		prices, err := svc.List(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, prices)
	}
}

// NewPricesByTypeHandler returns GET /v1/utility-prices/{type} handler.
func NewPricesByTypeHandler(svc *service.PriceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		meterType, ok := meterTypeFromPath(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid meter type")
			return
		}
		prices, err := svc.ListByType(r.Context(), meterType)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, prices)
	}
}

// NewCurrentPriceHandler returns GET /v1/utility-prices/{type}/current handler.
// An optional date query parameter (YYYY-MM-DD) overrides "today".
func NewCurrentPriceHandler(svc *service.PriceService, now func() models.Date) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		meterType, ok := meterTypeFromPath(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid meter type")
			return
		}

		asOf := now()
		if raw := r.URL.Query().Get("date"); raw != "" {
			parsed, err := models.ParseDate(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
				return
			}
			asOf = parsed
		}

		price, err := svc.Current(r.Context(), meterType, asOf)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, price)
	}
}

// NewDeletePriceHandler returns DELETE /v1/utility-prices/{id} handler.
func NewDeletePriceHandler(svc *service.PriceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid price id")
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			logger.Warn("delete utility price rejected", zap.Int64("id", id), zap.Error(err))
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
