package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MeterReading is one observation of a meter at a point in time.
// Value carries two fractional digits (kWh for electricity, m3 for gas/water).
type MeterReading struct {
	ID          int64           `db:"id" json:"id"`
	MeterType   MeterType       `db:"meter_type" json:"meter_type"`
	Value       decimal.Decimal `db:"reading_value" json:"reading_value"`
	ReadingWeek *int            `db:"reading_week" json:"reading_week,omitempty"`
	ReadingDate time.Time       `db:"reading_date" json:"reading_date"`
	Notes       string          `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}
