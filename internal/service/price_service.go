package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"householdmeter/internal/metrics"
	"householdmeter/internal/models"
	"householdmeter/internal/repository"
)

// farFuture substitutes an open-ended valid_to in overlap checks only.
// It is never persisted.
var farFuture = models.NewDate(9999, 12, 31)

// PriceService manages utility prices with non-overlapping validity periods.
type PriceService struct {
	repo    repository.PriceStore
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewPriceService builds service.
func NewPriceService(repo repository.PriceStore, m *metrics.Metrics, logger *zap.Logger) *PriceService {
	return &PriceService{
		repo:    repo,
		metrics: m,
		logger:  logger,
	}
}

// CreatePriceInput carries a single price to record.
type CreatePriceInput struct {
	MeterType models.MeterType
	Price     decimal.Decimal
	ValidFrom models.Date
	ValidTo   *models.Date
}

// Create records a new price after validating the meter type, the validity
// period, and that the period does not overlap any existing one.
func (s *PriceService) Create(ctx context.Context, input CreatePriceInput) (*models.UtilityPrice, error) {
	if err := s.validateMeterType(input.MeterType); err != nil {
		return nil, err
	}
	if !input.Price.IsPositive() {
		s.metrics.ValidationRejected("price_value")
		return nil, &ValidationError{Reason: fmt.Sprintf("price must be positive, got %s", input.Price)}
	}
	if input.ValidTo != nil && !input.ValidFrom.Before(*input.ValidTo) {
		s.metrics.ValidationRejected("validity_period")
		return nil, &ValidationError{Reason: fmt.Sprintf(
			"valid from date (%s) must be before valid to date (%s)", input.ValidFrom, input.ValidTo)}
	}

	price := &models.UtilityPrice{
		MeterType: input.MeterType,
		Price:     input.Price,
		ValidFrom: input.ValidFrom,
		ValidTo:   input.ValidTo,
	}

	err := s.repo.InTx(ctx, func(store repository.PriceStore) error {
		effectiveValidTo := farFuture
		if input.ValidTo != nil {
			effectiveValidTo = *input.ValidTo
		}
		overlapping, err := store.FindOverlapping(ctx, input.MeterType, input.ValidFrom, effectiveValidTo)
		if err != nil {
			return err
		}
		if len(overlapping) > 0 {
			s.metrics.ValidationRejected("period_overlap")
			validTo := "indefinite"
			if input.ValidTo != nil {
				validTo = input.ValidTo.String()
			}
			return &ValidationError{Reason: fmt.Sprintf(
				"the validity period (%s to %s) overlaps with the existing price period (%s to %s) for %s",
				input.ValidFrom, validTo, overlapping[0].ValidFrom, formatValidTo(overlapping[0].ValidTo), input.MeterType)}
		}
		return store.Create(ctx, price)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.PriceCreated(input.MeterType.String())
	s.logger.Info("utility price created",
		zap.Int64("id", price.ID),
		zap.String("meter_type", input.MeterType.String()),
		zap.String("price", input.Price.String()),
	)
	return price, nil
}

// List returns every price across meter types, newest validity first.
func (s *PriceService) List(ctx context.Context) ([]models.UtilityPrice, error) {
	return s.repo.FindAll(ctx)
}

// ListByType returns prices for one meter type ordered by valid_from descending.
func (s *PriceService) ListByType(ctx context.Context, meterType models.MeterType) ([]models.UtilityPrice, error) {
	if err := s.validateMeterType(meterType); err != nil {
		return nil, err
	}
	return s.repo.FindByType(ctx, meterType)
}

// Current returns the price whose validity interval contains asOf. By the
// overlap invariant at most one can.
func (s *PriceService) Current(ctx context.Context, meterType models.MeterType, asOf models.Date) (*models.UtilityPrice, error) {
	if err := s.validateMeterType(meterType); err != nil {
		return nil, err
	}

	price, err := s.repo.FindCurrent(ctx, meterType, asOf)
	if err != nil {
		return nil, err
	}
	if price == nil {
		return nil, &NotFoundError{Reason: fmt.Sprintf("no current price found for meter type: %s", meterType)}
	}
	return price, nil
}

// Delete removes a price by id.
func (s *PriceService) Delete(ctx context.Context, id int64) error {
	exists, err := s.repo.ExistsByID(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return &NotFoundError{Reason: fmt.Sprintf("utility price not found with id: %d", id)}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("utility price deleted", zap.Int64("id", id))
	return nil
}

// Prices only exist for electricity and water; gas is billed externally.
func (s *PriceService) validateMeterType(meterType models.MeterType) error {
	if meterType != models.MeterElectricity && meterType != models.MeterWater {
		s.metrics.ValidationRejected("price_meter_type")
		return &ValidationError{Reason: fmt.Sprintf(
			"utility prices are only supported for ELECTRICITY and WATER meter types, got: %s", meterType)}
	}
	return nil
}

func formatValidTo(validTo *models.Date) string {
	if validTo == nil {
		return "indefinite"
	}
	return validTo.String()
}
