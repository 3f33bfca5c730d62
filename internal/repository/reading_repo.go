package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"householdmeter/internal/models"
)

// ReadingRepository persists meter readings.
type ReadingRepository struct {
	db *sql.DB
	q  querier
}

// NewReadingRepository returns repository.
func NewReadingRepository(db *sql.DB) *ReadingRepository {
	return &ReadingRepository{db: db, q: db}
}

// InTx runs fn against a repository bound to a serializable transaction.
// A repository already inside a transaction reuses it.
func (r *ReadingRepository) InTx(ctx context.Context, fn func(ReadingStore) error) error {
	if r.db == nil {
		return fn(r)
	}
	return runInTx(ctx, r.db, func(tx *sql.Tx) error {
		return fn(&ReadingRepository{q: tx})
	})
}

// Create inserts a new reading. Timestamps are stamped by the store.
// The unique index on (meter_type, reading_date) backstops deduplication.
func (r *ReadingRepository) Create(ctx context.Context, reading *models.MeterReading) error {
	const query = `
		INSERT INTO meter_readings (meter_type, reading_value, reading_week, reading_date, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	var week sql.NullInt64
	if reading.ReadingWeek != nil {
		week = sql.NullInt64{Int64: int64(*reading.ReadingWeek), Valid: true}
	}
	var notes sql.NullString
	if reading.Notes != "" {
		notes = sql.NullString{String: reading.Notes, Valid: true}
	}
	return r.q.QueryRowContext(ctx, query,
		reading.MeterType,
		reading.Value,
		week,
		reading.ReadingDate,
		notes,
	).Scan(&reading.ID, &reading.CreatedAt, &reading.UpdatedAt)
}

const readingColumns = `id, meter_type, reading_value, reading_week, reading_date, notes, created_at, updated_at`

// FindAll returns every reading across meter types, newest first.
func (r *ReadingRepository) FindAll(ctx context.Context) ([]models.MeterReading, error) {
	const query = `
		SELECT ` + readingColumns + `
		FROM meter_readings
		ORDER BY reading_date DESC
	`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReadings(rows)
}

// FindByType returns readings for one meter type ordered by date descending.
func (r *ReadingRepository) FindByType(ctx context.Context, meterType models.MeterType) ([]models.MeterReading, error) {
	const query = `
		SELECT ` + readingColumns + `
		FROM meter_readings
		WHERE meter_type = $1
		ORDER BY reading_date DESC
	`
	rows, err := r.q.QueryContext(ctx, query, meterType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReadings(rows)
}

// FindLatestByType returns the most recent reading, or nil when none exists.
func (r *ReadingRepository) FindLatestByType(ctx context.Context, meterType models.MeterType) (*models.MeterReading, error) {
	const query = `
		SELECT ` + readingColumns + `
		FROM meter_readings
		WHERE meter_type = $1
		ORDER BY reading_date DESC
		LIMIT 1
	`
	reading, err := scanReading(r.q.QueryRowContext(ctx, query, meterType))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return reading, nil
}

// FindTop2ByType returns up to the two most recent readings, newest first.
func (r *ReadingRepository) FindTop2ByType(ctx context.Context, meterType models.MeterType) ([]models.MeterReading, error) {
	const query = `
		SELECT ` + readingColumns + `
		FROM meter_readings
		WHERE meter_type = $1
		ORDER BY reading_date DESC
		LIMIT 2
	`
	rows, err := r.q.QueryContext(ctx, query, meterType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReadings(rows)
}

// ExistsByTypeAndDate reports whether a reading exists at the exact timestamp.
func (r *ReadingRepository) ExistsByTypeAndDate(ctx context.Context, meterType models.MeterType, readingDate time.Time) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM meter_readings WHERE meter_type = $1 AND reading_date = $2
		)
	`
	var exists bool
	if err := r.q.QueryRowContext(ctx, query, meterType, readingDate).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReadingInto(s rowScanner, reading *models.MeterReading) error {
	var week sql.NullInt64
	var notes sql.NullString
	if err := s.Scan(
		&reading.ID,
		&reading.MeterType,
		&reading.Value,
		&week,
		&reading.ReadingDate,
		&notes,
		&reading.CreatedAt,
		&reading.UpdatedAt,
	); err != nil {
		return err
	}
	if week.Valid {
		w := int(week.Int64)
		reading.ReadingWeek = &w
	}
	reading.Notes = notes.String
	return nil
}

func scanReading(row *sql.Row) (*models.MeterReading, error) {
	var reading models.MeterReading
	if err := scanReadingInto(row, &reading); err != nil {
		return nil, err
	}
	return &reading, nil
}

func scanReadings(rows *sql.Rows) ([]models.MeterReading, error) {
	var readings []models.MeterReading
	for rows.Next() {
		var reading models.MeterReading
		if err := scanReadingInto(rows, &reading); err != nil {
			return nil, err
		}
		readings = append(readings, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return readings, nil
}
