package app

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"householdmeter/internal/cache"
	"householdmeter/internal/config"
	"householdmeter/internal/db"
	httpserver "householdmeter/internal/http"
	"householdmeter/internal/http/handlers"
	"householdmeter/internal/importer"
	"householdmeter/internal/metrics"
	"householdmeter/internal/models"
	"householdmeter/internal/repository"
	"householdmeter/internal/service"
)

// App wires household meter service dependencies.
type App struct {
	server      *httpserver.Server
	csvImporter *importer.CSVImporter
	cfg         *config.Config
	db          *sql.DB
	logger      *zap.Logger
}

// New constructs application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	// BigDecimal-style JSON numbers rather than quoted strings.
	decimal.MarshalJSONWithoutQuotes = true

	sqlDB, err := db.NewPostgresDB(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	var latestCache service.LatestCache
	var latestInvalidator *cache.LatestReadingStore
	if cfg.Redis.Addr != "" {
		redisClient, err := cache.NewRedisClient(cfg.Redis.Addr)
		if err != nil {
			logger.Warn("redis unavailable, latest reading cache disabled", zap.Error(err))
		} else {
			latestInvalidator = cache.NewLatestReadingStore(redisClient, time.Duration(cfg.Redis.TTLSeconds)*time.Second)
			latestCache = latestInvalidator
		}
	}

	serviceMetrics := metrics.New()

	readingRepo := repository.NewReadingRepository(sqlDB)
	priceRepo := repository.NewPriceRepository(sqlDB)
	readingService := service.NewReadingService(readingRepo, latestCache, serviceMetrics, logger)
	priceService := service.NewPriceService(priceRepo, serviceMetrics, logger)

	csvImporter := newCSVImporter(readingRepo, latestInvalidator, serviceMetrics, logger)

	routes := httpserver.Routes{
		CreateReading:      handlers.NewCreateReadingHandler(readingService, logger),
		ListReadings:       handlers.NewListReadingsHandler(readingService),
		ReadingsByType:     handlers.NewReadingsByTypeHandler(readingService),
		LatestReading:      handlers.NewLatestReadingHandler(readingService),
		ReadingConsumption: handlers.NewConsumptionHandler(readingService),
		ImportReadings:     handlers.NewImportReadingsHandler(csvImporter, logger),

		CreatePrice:  handlers.NewCreatePriceHandler(priceService, logger),
		ListPrices:   handlers.NewListPricesHandler(priceService),
		PricesByType: handlers.NewPricesByTypeHandler(priceService),
		CurrentPrice: handlers.NewCurrentPriceHandler(priceService, today),
		DeletePrice:  handlers.NewDeletePriceHandler(priceService, logger),

		Health:  handlers.NewHealthHandler(),
		Metrics: serviceMetrics.Handler(),
	}

	router := httpserver.NewRouter(routes)
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server:      server,
		csvImporter: csvImporter,
		cfg:         cfg,
		db:          sqlDB,
		logger:      logger,
	}, nil
}

// Run performs the optional boot-time CSV import, then serves HTTP.
func (a *App) Run(ctx context.Context) error {
	if path := a.cfg.Import.CSVPath; path != "" {
		created := a.csvImporter.ImportFromPath(ctx, path)
		a.logger.Info("boot import finished", zap.String("path", path), zap.Int("created", created))
	}
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
}

func newCSVImporter(repo *repository.ReadingRepository, latest *cache.LatestReadingStore, m *metrics.Metrics, logger *zap.Logger) *importer.CSVImporter {
	if latest == nil {
		return importer.NewCSVImporter(repo, nil, m, logger)
	}
	return importer.NewCSVImporter(repo, latest, m, logger)
}

func today() models.Date {
	return models.DateOf(time.Now())
}
