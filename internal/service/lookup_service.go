package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"plate-registry/internal/domain/plate"
	"plate-registry/internal/metrics"
	"plate-registry/internal/utils"
)

type LookupService struct {
	store    PlateStore
	exporter ReportExporter
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

func NewLookupService(store PlateStore, exporter ReportExporter, m *metrics.Metrics, log zerolog.Logger) *LookupService {
	return &LookupService{
		store:    store,
		exporter: exporter,
		metrics:  m,
		log:      log,
	}
}

func (s *LookupService) FindByPlateNumber(ctx context.Context, number string) ([]plate.Record, error) {
	normalized := utils.NormalizePlate(number)
	if normalized == "" {
		return nil, fmt.Errorf("%w: plate number cannot be empty", ErrInvalidInput)
	}

	records, err := s.store.FindByNumber(ctx, normalized)
	if err != nil {
		s.log.Error().Err(err).Str("plate", normalized).Msg("failed to find plates")
		return nil, fmt.Errorf("%w: find plates: %v", ErrStorageFailed, err)
	}
	if len(records) == 0 {
		s.metrics.LookupOutcome("plate", plate.OutcomeNotFound)
		return nil, fmt.Errorf("%w: plate %s is not registered", ErrNotFound, normalized)
	}

	s.metrics.LookupOutcome("plate", plate.OutcomeFound)
	return records, nil
}

func (s *LookupService) FindByCity(ctx context.Context, city string) ([]plate.Record, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, fmt.Errorf("%w: city cannot be empty", ErrInvalidInput)
	}

	records, err := s.store.FindByCity(ctx, city)
	if err != nil {
		s.log.Error().Err(err).Str("city", city).Msg("failed to find plates by city")
		return nil, fmt.Errorf("%w: find plates by city: %v", ErrStorageFailed, err)
	}
	if len(records) == 0 {
		s.metrics.LookupOutcome("city", plate.OutcomeNotFound)
		return nil, fmt.Errorf("%w: no records for city %s", ErrNotFound, city)
	}

	s.metrics.LookupOutcome("city", plate.OutcomeFound)
	return records, nil
}

// CityReport renders every record of a city into a single document. The
// exporter is called once and its output is returned unchanged.
func (s *LookupService) CityReport(ctx context.Context, city string) (*plate.Report, error) {
	records, err := s.FindByCity(ctx, city)
	if err != nil {
		return nil, err
	}
	city = strings.TrimSpace(city)

	content, err := s.exporter.Render(ctx, records)
	if err != nil {
		s.log.Error().Err(err).Str("city", city).Int("records", len(records)).Msg("failed to render report")
		return nil, fmt.Errorf("render report: %w", err)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("render report: empty document for city %s", city)
	}

	s.log.Info().
		Str("city", city).
		Int("records", len(records)).
		Int("bytes", len(content)).
		Msg("city report generated")

	return &plate.Report{
		FileName:    "relatorio_" + city + ".pdf",
		ContentType: s.exporter.ContentType(),
		Content:     content,
		Records:     len(records),
	}, nil
}
