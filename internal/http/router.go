package httpserver

import "net/http"

// Routes groups HTTP handlers.
type Routes struct {
	CreateReading      http.HandlerFunc
	ListReadings       http.HandlerFunc
	ReadingsByType     http.HandlerFunc
	LatestReading      http.HandlerFunc
	ReadingConsumption http.HandlerFunc
	ImportReadings     http.HandlerFunc

	CreatePrice  http.HandlerFunc
	ListPrices   http.HandlerFunc
	PricesByType http.HandlerFunc
	CurrentPrice http.HandlerFunc
	DeletePrice  http.HandlerFunc

	Health  http.HandlerFunc
	Metrics http.Handler
}

// NewRouter registers service endpoints.
func NewRouter(routes Routes) http.Handler {
	mux := http.NewServeMux()

	if routes.CreateReading != nil {
		mux.Handle("POST /v1/meter-readings", routes.CreateReading)
	}
	if routes.ListReadings != nil {
		mux.Handle("GET /v1/meter-readings", routes.ListReadings)
	}
	if routes.ImportReadings != nil {
		mux.Handle("POST /v1/meter-readings/import", routes.ImportReadings)
	}
	if routes.ReadingsByType != nil {
		mux.Handle("GET /v1/meter-readings/{type}", routes.ReadingsByType)
	}
	if routes.LatestReading != nil {
		mux.Handle("GET /v1/meter-readings/{type}/latest", routes.LatestReading)
	}
	if routes.ReadingConsumption != nil {
		mux.Handle("GET /v1/meter-readings/{type}/consumption", routes.ReadingConsumption)
	}

	if routes.CreatePrice != nil {
		mux.Handle("POST /v1/utility-prices", routes.CreatePrice)
	}
	if routes.ListPrices != nil {
		mux.Handle("GET /v1/utility-prices", routes.ListPrices)
	}
	if routes.PricesByType != nil {
		mux.Handle("GET /v1/utility-prices/{type}", routes.PricesByType)
	}
	if routes.CurrentPrice != nil {
		mux.Handle("GET /v1/utility-prices/{type}/current", routes.CurrentPrice)
	}
	if routes.DeletePrice != nil {
		mux.Handle("DELETE /v1/utility-prices/{id}", routes.DeletePrice)
	}

	if routes.Health != nil {
		mux.Handle("GET /health", routes.Health)
	}
	if routes.Metrics != nil {
		mux.Handle("GET /metrics", routes.Metrics)
	}

	return mux
}
