package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UtilityPrice is a unit price in force for a meter type over a half-open
// [ValidFrom, ValidTo) interval. A nil ValidTo means valid indefinitely.
// Price carries four fractional digits (EUR per kWh or per m3).
type UtilityPrice struct {
	ID        int64           `db:"id" json:"id"`
	MeterType MeterType       `db:"meter_type" json:"meter_type"`
	Price     decimal.Decimal `db:"price" json:"price"`
	ValidFrom Date            `db:"valid_from" json:"valid_from"`
	ValidTo   *Date           `db:"valid_to" json:"valid_to,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}
