package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"householdmeter/internal/metrics"
	"householdmeter/internal/models"
	"householdmeter/internal/repository"
)

// LatestCache caches the newest reading per meter type. Optional; a nil
// cache disables it and every lookup goes to the store.
type LatestCache interface {
	Get(ctx context.Context, meterType models.MeterType) (*models.MeterReading, error)
	Save(ctx context.Context, reading models.MeterReading) error
	Invalidate(ctx context.Context, meterType models.MeterType) error
}

// ReadingService manages meter readings and consumption calculations.
type ReadingService struct {
	repo    repository.ReadingStore
	cache   LatestCache
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewReadingService builds service.
func NewReadingService(repo repository.ReadingStore, cache LatestCache, m *metrics.Metrics, logger *zap.Logger) *ReadingService {
	return &ReadingService{
		repo:    repo,
		cache:   cache,
		metrics: m,
		logger:  logger,
	}
}

// CreateReadingInput carries a single reading to record.
type CreateReadingInput struct {
	MeterType   models.MeterType
	Value       decimal.Decimal
	ReadingWeek *int
	ReadingDate time.Time
	Notes       string
}

// ReadingWithConsumption is a reading annotated with derived consumption.
// The derived fields are only set on the newest reading of its meter type.
type ReadingWithConsumption struct {
	models.MeterReading
	Consumption          *decimal.Decimal `json:"consumption,omitempty"`
	DaysSinceLastReading *int             `json:"days_since_last_reading,omitempty"`
}

// ConsumptionResult describes usage between the two most recent readings.
type ConsumptionResult struct {
	MeterType               models.MeterType `json:"meter_type"`
	CurrentReading          decimal.Decimal  `json:"current_reading"`
	PreviousReading         decimal.Decimal  `json:"previous_reading"`
	Consumption             decimal.Decimal  `json:"consumption"`
	CurrentReadingDate      time.Time        `json:"current_reading_date"`
	PreviousReadingDate     time.Time        `json:"previous_reading_date"`
	DaysBetweenReadings     int              `json:"days_between_readings"`
	AverageDailyConsumption *decimal.Decimal `json:"average_daily_consumption,omitempty"`
}

// Create records a new reading after checking it against the previous one.
// Meters only count upward; a smaller value than the latest reading for the
// same meter type is rejected.
func (s *ReadingService) Create(ctx context.Context, input CreateReadingInput) (*ReadingWithConsumption, error) {
	if !input.Value.IsPositive() {
		s.metrics.ValidationRejected("reading_value")
		return nil, &ValidationError{Reason: fmt.Sprintf("reading value must be positive, got %s", input.Value)}
	}
	if input.ReadingWeek != nil && (*input.ReadingWeek < 1 || *input.ReadingWeek > 53) {
		s.metrics.ValidationRejected("reading_week")
		return nil, &ValidationError{Reason: fmt.Sprintf("reading week must be between 1 and 53, got %d", *input.ReadingWeek)}
	}

	reading := &models.MeterReading{
		MeterType:   input.MeterType,
		Value:       input.Value,
		ReadingWeek: resolveReadingWeek(input),
		ReadingDate: input.ReadingDate,
		Notes:       input.Notes,
	}

	err := s.repo.InTx(ctx, func(store repository.ReadingStore) error {
		previous, err := store.FindLatestByType(ctx, input.MeterType)
		if err != nil {
			return err
		}
		if previous != nil && input.Value.LessThan(previous.Value) {
			s.metrics.ValidationRejected("monotonicity")
			return &ValidationError{Reason: fmt.Sprintf(
				"new reading value (%s) cannot be less than previous reading (%s); if the meter was reset, add a note explaining this",
				input.Value, previous.Value)}
		}
		return store.Create(ctx, reading)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateLatest(ctx, input.MeterType)
	s.metrics.ReadingCreated(input.MeterType.String())
	s.logger.Info("meter reading created",
		zap.Int64("id", reading.ID),
		zap.String("meter_type", input.MeterType.String()),
		zap.String("value", input.Value.String()),
	)

	return s.annotate(ctx, *reading)
}

// List returns all readings across meter types, newest first. Only the newest
// reading per meter type carries derived consumption fields; the newest-two
// pair is looked up once per meter type, not once per row.
func (s *ReadingService) List(ctx context.Context) ([]ReadingWithConsumption, error) {
	readings, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.annotateAll(ctx, readings)
}

// ListByType returns readings for one meter type ordered by date descending.
func (s *ReadingService) ListByType(ctx context.Context, meterType models.MeterType) ([]ReadingWithConsumption, error) {
	readings, err := s.repo.FindByType(ctx, meterType)
	if err != nil {
		return nil, err
	}
	return s.annotateAll(ctx, readings)
}

// Latest returns the most recent reading for a meter type.
func (s *ReadingService) Latest(ctx context.Context, meterType models.MeterType) (*ReadingWithConsumption, error) {
	reading, err := s.lookupLatest(ctx, meterType)
	if err != nil {
		return nil, err
	}
	if reading == nil {
		return nil, &NotFoundError{Reason: fmt.Sprintf("no readings found for meter type: %s", meterType)}
	}
	return s.annotate(ctx, *reading)
}

// Consumption calculates usage between the two most recent readings.
func (s *ReadingService) Consumption(ctx context.Context, meterType models.MeterType) (*ConsumptionResult, error) {
	lastTwo, err := s.repo.FindTop2ByType(ctx, meterType)
	if err != nil {
		return nil, err
	}
	if len(lastTwo) < 2 {
		return nil, &NotFoundError{Reason: fmt.Sprintf(
			"insufficient readings to calculate consumption for meter type: %s; at least two readings are required", meterType)}
	}

	current, previous := lastTwo[0], lastTwo[1]
	delta := current.Value.Sub(previous.Value)
	days := wholeDaysBetween(previous.ReadingDate, current.ReadingDate)

	result := &ConsumptionResult{
		MeterType:           meterType,
		CurrentReading:      current.Value,
		PreviousReading:     previous.Value,
		Consumption:         delta,
		CurrentReadingDate:  current.ReadingDate,
		PreviousReadingDate: previous.ReadingDate,
		DaysBetweenReadings: days,
	}
	// Same-day pairs have no meaningful daily rate.
	if days > 0 {
		avg := delta.DivRound(decimal.NewFromInt(int64(days)), 2)
		result.AverageDailyConsumption = &avg
	}
	return result, nil
}

func (s *ReadingService) lookupLatest(ctx context.Context, meterType models.MeterType) (*models.MeterReading, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, meterType)
		if err != nil {
			s.logger.Warn("latest reading cache read failed", zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	reading, err := s.repo.FindLatestByType(ctx, meterType)
	if err != nil {
		return nil, err
	}
	if reading != nil && s.cache != nil {
		if err := s.cache.Save(ctx, *reading); err != nil {
			s.logger.Warn("latest reading cache write failed", zap.Error(err))
		}
	}
	return reading, nil
}

func (s *ReadingService) invalidateLatest(ctx context.Context, meterType models.MeterType) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, meterType); err != nil {
		s.logger.Warn("latest reading cache invalidation failed", zap.Error(err))
	}
}

// annotate attaches derived consumption when reading is the newest of its type.
func (s *ReadingService) annotate(ctx context.Context, reading models.MeterReading) (*ReadingWithConsumption, error) {
	lastTwo, err := s.repo.FindTop2ByType(ctx, reading.MeterType)
	if err != nil {
		return nil, err
	}
	result := ReadingWithConsumption{MeterReading: reading}
	applyConsumption(&result, lastTwo)
	return &result, nil
}

func (s *ReadingService) annotateAll(ctx context.Context, readings []models.MeterReading) ([]ReadingWithConsumption, error) {
	lastTwoByType := make(map[models.MeterType][]models.MeterReading)
	results := make([]ReadingWithConsumption, 0, len(readings))
	for _, reading := range readings {
		lastTwo, ok := lastTwoByType[reading.MeterType]
		if !ok {
			var err error
			lastTwo, err = s.repo.FindTop2ByType(ctx, reading.MeterType)
			if err != nil {
				return nil, err
			}
			lastTwoByType[reading.MeterType] = lastTwo
		}

		result := ReadingWithConsumption{MeterReading: reading}
		applyConsumption(&result, lastTwo)
		results = append(results, result)
	}
	return results, nil
}

func applyConsumption(result *ReadingWithConsumption, lastTwo []models.MeterReading) {
	if len(lastTwo) != 2 || lastTwo[0].ID != result.ID {
		return
	}
	previous := lastTwo[1]
	delta := result.Value.Sub(previous.Value)
	days := wholeDaysBetween(previous.ReadingDate, result.ReadingDate)
	result.Consumption = &delta
	result.DaysSinceLastReading = &days
}

// wholeDaysBetween counts whole 24-hour periods, truncating any remainder.
func wholeDaysBetween(from, to time.Time) int {
	return int(to.Sub(from) / (24 * time.Hour))
}

func resolveReadingWeek(input CreateReadingInput) *int {
	if input.ReadingWeek != nil {
		return input.ReadingWeek
	}
	if input.ReadingDate.IsZero() {
		return nil
	}
	_, week := input.ReadingDate.ISOWeek()
	return &week
}
