package importer

import (
	"context"
	"strings"
	"testing"
	"time"

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

func (f *fakeReadingStore) FindAll(ctx context.Context) ([]models.MeterReading, error) {
	return f.readings, nil
}

func (f *fakeReadingStore) FindByType(ctx context.Context, meterType models.MeterType) ([]models.MeterReading, error) {
	var result []models.MeterReading
	for _, r := range f.readings {
		if r.MeterType == meterType {
			result = append(result, r)
		}
	}
	return result, nil
}

func (f *fakeReadingStore) FindLatestByType(ctx context.Context, meterType models.MeterType) (*models.MeterReading, error) {
	var latest *models.MeterReading
	for idx := range f.readings {
		r := f.readings[idx]
		if r.MeterType != meterType {
			continue
		}
		if latest == nil || r.ReadingDate.After(latest.ReadingDate) {
			latest = &f.readings[idx]
		}
	}
	return latest, nil
}

func (f *fakeReadingStore) FindTop2ByType(ctx context.Context, meterType models.MeterType) ([]models.MeterReading, error) {
	byType, _ := f.FindByType(ctx, meterType)
	for i := 0; i < len(byType); i++ {
		for j := i + 1; j < len(byType); j++ {
			if byType[j].ReadingDate.After(byType[i].ReadingDate) {
				byType[i], byType[j] = byType[j], byType[i]
			}
		}
	}
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

func (f *fakeReadingStore) byType(meterType models.MeterType) []models.MeterReading {
	result, _ := f.FindByType(context.Background(), meterType)
	return result
}

const sampleCSV = `Datum,KW,Strom,Stand,Diff,Hinweis,Kosten,Gas,Stand,Diff,Kosten,CO2,Wasser,Extra,Notizen
01.02.2024,5,"1.234,56",,,Zählerwechsel,,"450,3",,,,,"120,5",,Urlaub 2 Wochen
08.02.2024,6,"1.250,00",,,,,"455,1",,,,,,,
`

func newTestImporter(store repository.ReadingStore) *CSVImporter {
	return NewCSVImporter(store, nil, nil, zap.NewNop())
}

func TestImportCreatesReadingsPerMeterType(t *testing.T) {
	store := &fakeReadingStore{}
	imp := newTestImporter(store)

	created, err := imp.ImportFromReader(context.Background(), strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	// Row one has all three readings, row two is missing water.
	if created != 5 {
		t.Fatalf("created = %d, want 5", created)
	}

	electricity := store.byType(models.MeterElectricity)
	if len(electricity) != 2 {
		t.Fatalf("electricity readings = %d, want 2", len(electricity))
	}
	first := electricity[0]
	if first.Value.String() != "1234.56" {
		t.Errorf("electricity value = %s, want 1234.56", first.Value)
	}
	if first.Notes != "Zählerwechsel | Urlaub 2 Wochen" {
		t.Errorf("electricity notes = %q", first.Notes)
	}
	if first.ReadingWeek == nil || *first.ReadingWeek != 5 {
		t.Errorf("electricity week = %v, want 5", first.ReadingWeek)
	}
	wantDate := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	if !first.ReadingDate.Equal(wantDate) {
		t.Errorf("electricity date = %s, want %s", first.ReadingDate, wantDate)
	}

	gas := store.byType(models.MeterGas)
	if len(gas) != 2 {
		t.Fatalf("gas readings = %d, want 2", len(gas))
	}
	if gas[0].Notes != "Urlaub 2 Wochen" {
		t.Errorf("gas notes = %q, want trailing note only", gas[0].Notes)
	}

	if water := store.byType(models.MeterWater); len(water) != 1 {
		t.Errorf("water readings = %d, want 1", len(water))
	}
}

func TestImportIsIdempotent(t *testing.T) {
	store := &fakeReadingStore{}
	imp := newTestImporter(store)

	first, err := imp.ImportFromReader(context.Background(), strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("first import failed: %v", err)
	}
	if first != 5 {
		t.Fatalf("first pass created = %d, want 5", first)
	}

	second, err := imp.ImportFromReader(context.Background(), strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("second import failed: %v", err)
	}
	if second != 0 {
		t.Errorf("second pass created = %d, want 0", second)
	}
	if len(store.readings) != 5 {
		t.Errorf("stored readings = %d, want 5", len(store.readings))
	}
}

func TestImportSkipsUnparseableRows(t *testing.T) {
	content := `Datum,KW,Strom,,,Hinweis,,Gas,,,,,Wasser
not-a-date,9,"100,0",,,,,"200,0",,,,,"300,0"
,10,"100,0",,,,,"200,0",,,,,"300,0"
15.02.2024,7,"1.260,00",,,,,,,,,,
`
	store := &fakeReadingStore{}
	imp := newTestImporter(store)

	created, err := imp.ImportFromReader(context.Background(), strings.NewReader(content))
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	// Only the last row has a valid date, and only its electricity value is set.
	if created != 1 {
		t.Fatalf("created = %d, want 1", created)
	}
}

func TestImportAllowsDecreasingHistory(t *testing.T) {
	content := `01.02.2024,5,"1.500,00",,,,,,,,,,
08.02.2024,6,"1.400,00",,,,,,,,,,
`
	store := &fakeReadingStore{}
	imp := newTestImporter(store)

	created, err := imp.ImportFromReader(context.Background(), strings.NewReader(content))
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	// Bulk history loads bypass the monotonicity check.
	if created != 2 {
		t.Fatalf("created = %d, want 2", created)
	}
}

func TestImportFromPathMissingFile(t *testing.T) {
	imp := newTestImporter(&fakeReadingStore{})
	if created := imp.ImportFromPath(context.Background(), "/does/not/exist.csv"); created != 0 {
		t.Errorf("created = %d, want 0", created)
	}
}
