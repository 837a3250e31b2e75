package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"plate-registry/internal/domain/plate"
	"plate-registry/internal/metrics"
	"plate-registry/internal/ocr"
	"plate-registry/internal/utils"
)

type RegistrationRequest struct {
	Image      ImageSource
	CityHint   string
	UploadedBy string
}

type RegistrationService struct {
	recognizer TextRecognizer
	store      PlateStore
	metrics    *metrics.Metrics
	now        func() time.Time
	log        zerolog.Logger
}

func NewRegistrationService(recognizer TextRecognizer, store PlateStore, m *metrics.Metrics, log zerolog.Logger) *RegistrationService {
	return &RegistrationService{
		recognizer: recognizer,
		store:      store,
		metrics:    m,
		now:        time.Now,
		log:        log,
	}
}

// RegisterPlate runs recognize -> parse -> persist. The returned result is
// never nil; on failure its Outcome tells which step stopped the attempt and
// the error wraps the matching sentinel.
func (s *RegistrationService) RegisterPlate(ctx context.Context, req RegistrationRequest) (*plate.RegistrationResult, error) {
	if req.Image == nil {
		return s.fail(plate.OutcomeRecognitionFailed, fmt.Errorf("%w: %w: image is required", ErrRecognitionFailed, ErrInvalidInput))
	}
	info := req.Image.Info()

	text, err := s.recognize(ctx, req.Image)
	if err != nil {
		s.log.Warn().
			Err(err).
			Str("file_name", info.FileName).
			Msg("text recognition failed")
		return s.fail(plate.OutcomeRecognitionFailed, fmt.Errorf("%w: %v", ErrRecognitionFailed, err))
	}

	parsed, ok := utils.ParsePlateText(text)
	if !ok {
		s.log.Info().
			Str("file_name", info.FileName).
			Msg("recognized text does not match plate format")
		return s.fail(plate.OutcomeUnrecognizedFormat, ErrUnrecognizedFormat)
	}

	info.UploadedBy = req.UploadedBy
	rec := &plate.Record{
		Number:     parsed.PlateNumber,
		State:      parsed.State,
		City:       resolveCity(parsed.City, req.CityHint),
		RecordedAt: s.now(),
		Source:     &info,
	}

	if err := s.store.Insert(ctx, rec); err != nil {
		s.log.Error().
			Err(err).
			Str("plate", rec.Number).
			Str("city", rec.City).
			Msg("failed to store plate record")
		return s.fail(plate.OutcomeStorageFailed, fmt.Errorf("%w: %v", ErrStorageFailed, err))
	}

	s.log.Info().
		Int64("record_id", rec.ID).
		Str("plate", rec.Number).
		Str("state", rec.State).
		Str("city", rec.City).
		Time("recorded_at", rec.RecordedAt).
		Msg("plate registered")
	s.metrics.RegistrationOutcome(plate.OutcomeRegistered)

	return &plate.RegistrationResult{Outcome: plate.OutcomeRegistered, Record: rec}, nil
}

// recognize reads the image and calls the recognizer. The image is released
// before returning on every path.
func (s *RegistrationService) recognize(ctx context.Context, img ImageSource) (string, error) {
	defer func() {
		if err := img.Release(); err != nil {
			s.log.Warn().Err(err).Msg("failed to release uploaded image")
		}
	}()

	data, err := img.Read()
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}

	start := time.Now()
	text, err := s.recognizer.Recognize(ctx, ocr.Image{Data: data, ContentType: img.ContentType()})
	s.metrics.ObserveOCR(time.Since(start), err)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("no text recognized")
	}
	return text, nil
}

func (s *RegistrationService) fail(outcome plate.Outcome, err error) (*plate.RegistrationResult, error) {
	s.metrics.RegistrationOutcome(outcome)
	return &plate.RegistrationResult{Outcome: outcome}, err
}

func resolveCity(parsed, hint string) string {
	if city := strings.TrimSpace(parsed); city != "" {
		return city
	}
	if city := strings.TrimSpace(hint); city != "" {
		return city
	}
	return plate.UnknownCity
}
