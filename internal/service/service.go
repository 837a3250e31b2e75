package service

import (
	"context"
	"errors"

	"plate-registry/internal/domain/plate"
	"plate-registry/internal/ocr"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
	ErrRecognitionFailed  = errors.New("could not recognize text in the image")
	ErrUnrecognizedFormat = errors.New("recognized text is not in the expected format")
	ErrStorageFailed      = errors.New("storage failure")
)

type TextRecognizer interface {
	Recognize(ctx context.Context, img ocr.Image) (string, error)
}

type PlateStore interface {
	Insert(ctx context.Context, rec *plate.Record) error
	FindByNumber(ctx context.Context, number string) ([]plate.Record, error)
	FindByCity(ctx context.Context, city string) ([]plate.Record, error)
}

type ReportExporter interface {
	Render(ctx context.Context, records []plate.Record) ([]byte, error)
	ContentType() string
}

// ImageSource is an uploaded image that holds a resource until Release.
type ImageSource interface {
	Read() ([]byte, error)
	ContentType() string
	Info() plate.UploadInfo
	Release() error
}

// OutcomeOf classifies an error returned by the registration and lookup
// workflows. A nil error is a successful registration.
func OutcomeOf(err error) plate.Outcome {
	switch {
	case err == nil:
		return plate.OutcomeRegistered
	case errors.Is(err, ErrRecognitionFailed):
		return plate.OutcomeRecognitionFailed
	case errors.Is(err, ErrUnrecognizedFormat):
		return plate.OutcomeUnrecognizedFormat
	case errors.Is(err, ErrNotFound):
		return plate.OutcomeNotFound
	default:
		return plate.OutcomeStorageFailed
	}
}
