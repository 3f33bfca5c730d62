// Package importer loads meter readings from the weekly wide-format
// "Ressourcenverbrauch" CSV export.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"householdmeter/internal/metrics"
	"householdmeter/internal/models"
	"householdmeter/internal/repository"
)

// Column layout of the wide-format export: one row per week with sub-columns
// per meter type, plus trailing free-text note columns.
const (
	colDate               = 0
	colWeek               = 1
	colElectricityReading = 2
	colElectricityNotes   = 5
	colGasReading         = 7
	colWaterReading       = 12
	colExtraNotesStart    = 13
)

// latestInvalidator drops the cached newest reading for a meter type.
type latestInvalidator interface {
	Invalidate(ctx context.Context, meterType models.MeterType) error
}

// CSVImporter creates meter readings from CSV rows, skipping rows that
// already exist for the same (meter type, timestamp) pair.
type CSVImporter struct {
	store   repository.ReadingStore
	cache   latestInvalidator
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewCSVImporter builds importer. cache may be nil.
func NewCSVImporter(store repository.ReadingStore, cache latestInvalidator, m *metrics.Metrics, logger *zap.Logger) *CSVImporter {
	return &CSVImporter{
		store:   store,
		cache:   cache,
		metrics: m,
		logger:  logger,
	}
}

// ImportFromPath imports readings from a CSV file. A missing or unreadable
// file yields a zero count, not an error, so boot-time imports never abort
// the service.
func (i *CSVImporter) ImportFromPath(ctx context.Context, path string) int {
	file, err := os.Open(path)
	if err != nil {
		i.logger.Error("csv file not readable", zap.String("path", path), zap.Error(err))
		return 0
	}
	defer file.Close()

	created, err := i.ImportFromReader(ctx, file)
	if err != nil {
		i.logger.Error("csv import failed", zap.String("path", path), zap.Error(err))
	}
	return created
}

// ImportFromReader imports readings from CSV content (e.g. an upload).
// It returns the number of readings actually created, which is zero on
// re-import of already-loaded rows.
func (i *CSVImporter) ImportFromReader(ctx context.Context, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	createdCount := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return createdCount, err
		}

		readingDate, ok := NormalizeDate(getValue(record, colDate))
		if !ok {
			continue
		}

		var readingWeek *int
		if week, ok := NormalizeInteger(getValue(record, colWeek)); ok {
			readingWeek = &week
		}

		extraNote := findExtraNote(record, colExtraNotesStart)
		electricityNote := combineNotes(getValue(record, colElectricityNotes), extraNote)

		for _, candidate := range []struct {
			meterType models.MeterType
			rawValue  string
			notes     string
		}{
			{models.MeterElectricity, getValue(record, colElectricityReading), electricityNote},
			{models.MeterGas, getValue(record, colGasReading), extraNote},
			{models.MeterWater, getValue(record, colWaterReading), extraNote},
		} {
			created, err := i.createIfPresent(ctx, candidate.meterType, candidate.rawValue, readingDate, readingWeek, candidate.notes)
			if err != nil {
				return createdCount, err
			}
			createdCount += created
		}
	}

	i.metrics.ImportReadingsCreated(createdCount)
	i.logger.Info("csv import finished", zap.Int("created", createdCount))
	return createdCount, nil
}

// createIfPresent appends one reading unless the value is absent or a reading
// already exists at the same timestamp. The append is raw: historical bulk
// loads may legitimately contain decreasing values, so the monotonicity check
// of the single-insert path does not apply here. The dedup check and the
// insert share one transaction; the (meter_type, reading_date) unique index
// backstops concurrent imports.
func (i *CSVImporter) createIfPresent(ctx context.Context, meterType models.MeterType, rawValue string,
	readingDate time.Time, readingWeek *int, notes string) (int, error) {
	value, ok := NormalizeDecimal(rawValue)
	if !ok {
		return 0, nil
	}

	created := 0
	err := i.store.InTx(ctx, func(store repository.ReadingStore) error {
		exists, err := store.ExistsByTypeAndDate(ctx, meterType, readingDate)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}

		reading := &models.MeterReading{
			MeterType:   meterType,
			Value:       value,
			ReadingWeek: readingWeek,
			ReadingDate: readingDate,
			Notes:       notes,
		}
		if err := store.Create(ctx, reading); err != nil {
			return err
		}
		created = 1
		return nil
	})
	if err != nil {
		return 0, err
	}

	if created == 1 && i.cache != nil {
		if err := i.cache.Invalidate(ctx, meterType); err != nil {
			i.logger.Warn("latest reading cache invalidation failed", zap.Error(err))
		}
	}
	return created, nil
}

func getValue(record []string, index int) string {
	if index < 0 || index >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[index])
}

// findExtraNote joins trailing free-text columns that contain at least one
// letter; pure numbers and symbols in the tail are noise.
func findExtraNote(record []string, startIndex int) string {
	if len(record) <= startIndex {
		return ""
	}

	var notes []string
	for idx := startIndex; idx < len(record); idx++ {
		value := getValue(record, idx)
		if value != "" && containsLetters(value) {
			notes = append(notes, value)
		}
	}
	return strings.Join(notes, " | ")
}

func containsLetters(value string) bool {
	for _, r := range value {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func combineNotes(first, second string) string {
	if first == "" {
		return second
	}
	if second == "" {
		return first
	}
	return first + " | " + second
}
