package repository

import (
	"context"
	"database/sql"
	"errors"

	"householdmeter/internal/models"
)

// PriceRepository persists utility prices.
type PriceRepository struct {
	db *sql.DB
	q  querier
}

// NewPriceRepository returns repository.
func NewPriceRepository(db *sql.DB) *PriceRepository {
	return &PriceRepository{db: db, q: db}
}

// InTx runs fn against a repository bound to a serializable transaction.
func (r *PriceRepository) InTx(ctx context.Context, fn func(PriceStore) error) error {
	if r.db == nil {
		return fn(r)
	}
	return runInTx(ctx, r.db, func(tx *sql.Tx) error {
		return fn(&PriceRepository{q: tx})
	})
}

// Create inserts a new price. Timestamps are stamped by the store.
func (r *PriceRepository) Create(ctx context.Context, price *models.UtilityPrice) error {
	const query = `
		INSERT INTO utility_prices (meter_type, price, valid_from, valid_to, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	var validTo sql.NullTime
	if price.ValidTo != nil {
		validTo = sql.NullTime{Time: price.ValidTo.Time, Valid: true}
	}
	return r.q.QueryRowContext(ctx, query,
		price.MeterType,
		price.Price,
		price.ValidFrom.Time,
		validTo,
	).Scan(&price.ID, &price.CreatedAt, &price.UpdatedAt)
}

const priceColumns = `id, meter_type, price, valid_from, valid_to, created_at, updated_at`

// FindAll returns every price across meter types, newest validity first.
func (r *PriceRepository) FindAll(ctx context.Context) ([]models.UtilityPrice, error) {
	const query = `
		SELECT ` + priceColumns + `
		FROM utility_prices
		ORDER BY valid_from DESC
	`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPrices(rows)
}

// FindByType returns prices for one meter type ordered by valid_from descending.
func (r *PriceRepository) FindByType(ctx context.Context, meterType models.MeterType) ([]models.UtilityPrice, error) {
	const query = `
		SELECT ` + priceColumns + `
		FROM utility_prices
		WHERE meter_type = $1
		ORDER BY valid_from DESC
	`
	rows, err := r.q.QueryContext(ctx, query, meterType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPrices(rows)
}

// FindCurrent returns the price whose half-open interval contains asOf,
// or nil when no price covers the date.
func (r *PriceRepository) FindCurrent(ctx context.Context, meterType models.MeterType, asOf models.Date) (*models.UtilityPrice, error) {
	const query = `
		SELECT ` + priceColumns + `
		FROM utility_prices
		WHERE meter_type = $1
		  AND valid_from <= $2
		  AND (valid_to IS NULL OR valid_to > $2)
		ORDER BY valid_from DESC
		LIMIT 1
	`
	price, err := scanPrice(r.q.QueryRowContext(ctx, query, meterType, asOf.Time))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return price, nil
}

// FindOverlapping returns prices whose [valid_from, valid_to) intersects
// [from, to) for the given meter type. Open-ended rows count as unbounded.
func (r *PriceRepository) FindOverlapping(ctx context.Context, meterType models.MeterType, from, to models.Date) ([]models.UtilityPrice, error) {
	const query = `
		SELECT ` + priceColumns + `
		FROM utility_prices
		WHERE meter_type = $1
		  AND valid_from < $3
		  AND (valid_to IS NULL OR valid_to > $2)
	`
	rows, err := r.q.QueryContext(ctx, query, meterType, from.Time, to.Time)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPrices(rows)
}

// ExistsByID reports whether a price row exists.
func (r *PriceRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM utility_prices WHERE id = $1)`
	var exists bool
	if err := r.q.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Delete removes a price row by id.
func (r *PriceRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM utility_prices WHERE id = $1`
	result, err := r.q.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func scanPriceInto(s rowScanner, price *models.UtilityPrice) error {
	var validFrom sql.NullTime
	var validTo sql.NullTime
	if err := s.Scan(
		&price.ID,
		&price.MeterType,
		&price.Price,
		&validFrom,
		&validTo,
		&price.CreatedAt,
		&price.UpdatedAt,
	); err != nil {
		return err
	}
	if validFrom.Valid {
		price.ValidFrom = models.DateOf(validFrom.Time)
	}
	if validTo.Valid {
		d := models.DateOf(validTo.Time)
		price.ValidTo = &d
	}
	return nil
}

func scanPrice(row *sql.Row) (*models.UtilityPrice, error) {
	var price models.UtilityPrice
	if err := scanPriceInto(row, &price); err != nil {
		return nil, err
	}
	return &price, nil
}

func scanPrices(rows *sql.Rows) ([]models.UtilityPrice, error) {
	var prices []models.UtilityPrice
	for rows.Next() {
		var price models.UtilityPrice
		if err := scanPriceInto(rows, &price); err != nil {
			return nil, err
		}
		prices = append(prices, price)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return prices, nil
}
