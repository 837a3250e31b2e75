//go:build !tesseract

package ocr

import (
	"errors"

	"github.com/rs/zerolog"

	"plate-registry/internal/config"
)

func newTesseract(config.OCRConfig, zerolog.Logger) (Recognizer, error) {
	return nil, errors.New("tesseract OCR provider requires building with -tags tesseract")
}
