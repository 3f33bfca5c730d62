package repository

import (
	"context"
	"database/sql"
	"time"

	"householdmeter/internal/models"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ReadingStore is the record-store contract for meter readings.
// InTx runs fn against a store bound to a serializable transaction so that
// read-then-write checks (monotonicity, dedup) are atomic.
type ReadingStore interface {
	InTx(ctx context.Context, fn func(ReadingStore) error) error
	Create(ctx context.Context, reading *models.MeterReading) error
	FindAll(ctx context.Context) ([]models.MeterReading, error)
	FindByType(ctx context.Context, meterType models.MeterType) ([]models.MeterReading, error)
	FindLatestByType(ctx context.Context, meterType models.MeterType) (*models.MeterReading, error)
	FindTop2ByType(ctx context.Context, meterType models.MeterType) ([]models.MeterReading, error)
	ExistsByTypeAndDate(ctx context.Context, meterType models.MeterType, readingDate time.Time) (bool, error)
}

// PriceStore is the record-store contract for utility prices.
type PriceStore interface {
	InTx(ctx context.Context, fn func(PriceStore) error) error
	Create(ctx context.Context, price *models.UtilityPrice) error
	FindAll(ctx context.Context) ([]models.UtilityPrice, error)
	FindByType(ctx context.Context, meterType models.MeterType) ([]models.UtilityPrice, error)
	FindCurrent(ctx context.Context, meterType models.MeterType, asOf models.Date) (*models.UtilityPrice, error)
	FindOverlapping(ctx context.Context, meterType models.MeterType, from, to models.Date) ([]models.UtilityPrice, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) error
}

func runInTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
