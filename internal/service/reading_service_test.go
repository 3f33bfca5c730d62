package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"householdmeter/internal/models"
	"householdmeter/internal/repository"
)

type fakeReadingStore struct {
	readings []models.MeterReading
	nextID   int64
}

func (f *fakeReadingStore) InTx(ctx context.Context, fn func(repository.ReadingStore) error) error {
	return fn(f)
}

func (f *fakeReadingStore) Create(ctx context.Context, reading *models.MeterReading) error {
	f.nextID++
	reading.ID = f.nextID
	reading.CreatedAt = time.Now()
	reading.UpdatedAt = reading.CreatedAt
	f.readings = append(f.readings, *reading)
	return nil
}

func (f *fakeReadingStore) sortedByType(meterType models.MeterType) []models.MeterReading {
	var result []models.MeterReading
	for _, r := range f.readings {
		if r.MeterType == meterType {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ReadingDate.After(result[j].ReadingDate)
	})
	return result
}

func (f *fakeReadingStore) FindAll(ctx context.Context) ([]models.MeterReading, error) {
	result := append([]models.MeterReading(nil), f.readings...)
	sort.Slice(result, func(i, j int) bool {
		return result[i].ReadingDate.After(result[j].ReadingDate)
	})
	return result, nil
}

func (f *fakeReadingStore) FindByType(ctx context.Context, meterType models.MeterType) ([]models.MeterReading, error) {
	return f.sortedByType(meterType), nil
}

func (f *fakeReadingStore) FindLatestByType(ctx context.Context, meterType models.MeterType) (*models.MeterReading, error) {
	byType := f.sortedByType(meterType)
	if len(byType) == 0 {
		return nil, nil
	}
	return &byType[0], nil
}

func (f *fakeReadingStore) FindTop2ByType(ctx context.Context, meterType models.MeterType) ([]models.MeterReading, error) {
	byType := f.sortedByType(meterType)
	if len(byType) > 2 {
		byType = byType[:2]
	}
	return byType, nil
}

func (f *fakeReadingStore) ExistsByTypeAndDate(ctx context.Context, meterType models.MeterType, readingDate time.Time) (bool, error) {
	for _, r := range f.readings {
		if r.MeterType == meterType && r.ReadingDate.Equal(readingDate) {
			return true, nil
		}
	}
	return false, nil
}

func newTestReadingService(store repository.ReadingStore) *ReadingService {
	return NewReadingService(store, nil, nil, zap.NewNop())
}

func dec(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return d
}

func day(offset int) time.Time {
	return time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func seedReading(t *testing.T, svc *ReadingService, meterType models.MeterType, value string, date time.Time) {
	t.Helper()
	if _, err := svc.Create(context.Background(), CreateReadingInput{
		MeterType:   meterType,
		Value:       dec(value),
		ReadingDate: date,
	}); err != nil {
		t.Fatalf("seed reading %s: %v", value, err)
	}
}

func TestCreateRejectsDecreasingValue(t *testing.T) {
	svc := newTestReadingService(&fakeReadingStore{})
	seedReading(t, svc, models.MeterElectricity, "150.00", day(0))

	_, err := svc.Create(context.Background(), CreateReadingInput{
		MeterType:   models.MeterElectricity,
		Value:       dec("149.99"),
		ReadingDate: day(7),
	})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestCreateAcceptsEqualAndIncreasingValues(t *testing.T) {
	svc := newTestReadingService(&fakeReadingStore{})
	seedReading(t, svc, models.MeterElectricity, "150.00", day(0))
	seedReading(t, svc, models.MeterElectricity, "150.00", day(7))
	seedReading(t, svc, models.MeterElectricity, "160.00", day(14))
}

func TestCreateChecksPerMeterType(t *testing.T) {
	svc := newTestReadingService(&fakeReadingStore{})
	seedReading(t, svc, models.MeterElectricity, "900.00", day(0))
	// A lower gas value does not conflict with electricity history.
	seedReading(t, svc, models.MeterGas, "100.00", day(1))
}

func TestCreateRejectsNonPositiveValue(t *testing.T) {
	svc := newTestReadingService(&fakeReadingStore{})
	for _, value := range []string{"0", "-1.50"} {
		_, err := svc.Create(context.Background(), CreateReadingInput{
			MeterType:   models.MeterWater,
			Value:       dec(value),
			ReadingDate: day(0),
		})
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Errorf("value %s: expected ValidationError, got %v", value, err)
		}
	}
}

func TestCreateRejectsOutOfRangeWeek(t *testing.T) {
	svc := newTestReadingService(&fakeReadingStore{})
	week := 54
	_, err := svc.Create(context.Background(), CreateReadingInput{
		MeterType:   models.MeterWater,
		Value:       dec("10.00"),
		ReadingWeek: &week,
		ReadingDate: day(0),
	})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestCreateDerivesISOWeek(t *testing.T) {
	svc := newTestReadingService(&fakeReadingStore{})
	created, err := svc.Create(context.Background(), CreateReadingInput{
		MeterType: models.MeterWater,
		Value:     dec("10.00"),
		// Thursday of ISO week 1 of 2026.
		ReadingDate: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ReadingWeek == nil || *created.ReadingWeek != 1 {
		t.Errorf("reading week = %v, want 1", created.ReadingWeek)
	}
}

func TestCreateReturnsDerivedConsumption(t *testing.T) {
	svc := newTestReadingService(&fakeReadingStore{})
	seedReading(t, svc, models.MeterElectricity, "100.00", day(0))

	created, err := svc.Create(context.Background(), CreateReadingInput{
		MeterType:   models.MeterElectricity,
		Value:       dec("150.00"),
		ReadingDate: day(10),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Consumption == nil || created.Consumption.String() != "50" {
		t.Errorf("consumption = %v, want 50", created.Consumption)
	}
	if created.DaysSinceLastReading == nil || *created.DaysSinceLastReading != 10 {
		t.Errorf("days since last reading = %v, want 10", created.DaysSinceLastReading)
	}
}

func TestConsumptionArithmetic(t *testing.T) {
	svc := newTestReadingService(&fakeReadingStore{})
	seedReading(t, svc, models.MeterElectricity, "100.00", day(0))
	seedReading(t, svc, models.MeterElectricity, "150.00", day(10))

	result, err := svc.Consumption(context.Background(), models.MeterElectricity)
	if err != nil {
		t.Fatalf("consumption: %v", err)
	}
	if result.Consumption.String() != "50" {
		t.Errorf("consumption = %s, want 50", result.Consumption)
	}
	if result.DaysBetweenReadings != 10 {
		t.Errorf("days = %d, want 10", result.DaysBetweenReadings)
	}
	if result.AverageDailyConsumption == nil || result.AverageDailyConsumption.String() != "5" {
		t.Errorf("average = %v, want 5", result.AverageDailyConsumption)
	}
}

func TestConsumptionSameDayOmitsAverage(t *testing.T) {
	svc := newTestReadingService(&fakeReadingStore{})
	seedReading(t, svc, models.MeterGas, "200.00", day(0))
	seedReading(t, svc, models.MeterGas, "210.00", day(0).Add(4*time.Hour))

	result, err := svc.Consumption(context.Background(), models.MeterGas)
	if err != nil {
		t.Fatalf("consumption: %v", err)
	}
	if result.DaysBetweenReadings != 0 {
		t.Errorf("days = %d, want 0", result.DaysBetweenReadings)
	}
	if result.AverageDailyConsumption != nil {
		t.Errorf("average = %s, want omitted", result.AverageDailyConsumption)
	}
}

func TestConsumptionRequiresTwoReadings(t *testing.T) {
	svc := newTestReadingService(&fakeReadingStore{})
	seedReading(t, svc, models.MeterWater, "10.00", day(0))

	_, err := svc.Consumption(context.Background(), models.MeterWater)
	var notFoundErr *NotFoundError
	if !errors.As(err, &notFoundErr) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestLatestNotFound(t *testing.T) {
	svc := newTestReadingService(&fakeReadingStore{})
	_, err := svc.Latest(context.Background(), models.MeterGas)
	var notFoundErr *NotFoundError
	if !errors.As(err, &notFoundErr) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestListAnnotatesOnlyNewestPerType(t *testing.T) {
	svc := newTestReadingService(&fakeReadingStore{})
	seedReading(t, svc, models.MeterElectricity, "100.00", day(0))
	seedReading(t, svc, models.MeterElectricity, "110.00", day(7))
	seedReading(t, svc, models.MeterElectricity, "125.00", day(14))
	seedReading(t, svc, models.MeterWater, "30.00", day(3))

	readings, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(readings) != 4 {
		t.Fatalf("listed %d readings, want 4", len(readings))
	}

	annotated := 0
	for _, reading := range readings {
		if reading.Consumption == nil {
			continue
		}
		annotated++
		if reading.MeterType != models.MeterElectricity {
			t.Errorf("unexpected annotation on %s", reading.MeterType)
			continue
		}
		if reading.Value.String() != "125" {
			t.Errorf("annotated reading value = %s, want the newest (125)", reading.Value)
		}
		if reading.Consumption.String() != "15" {
			t.Errorf("consumption = %s, want 15", reading.Consumption)
		}
	}
	// Water has a single reading, so only the newest electricity row qualifies.
	if annotated != 1 {
		t.Errorf("annotated rows = %d, want 1", annotated)
	}
}
