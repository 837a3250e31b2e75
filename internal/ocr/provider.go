package ocr

import (
	"fmt"

	"github.com/rs/zerolog"

	"plate-registry/internal/config"
)

// New returns the recognizer selected by cfg.Provider.
func New(cfg config.OCRConfig, log zerolog.Logger) (Recognizer, error) {
	switch cfg.Provider {
	case config.OCRProviderHTTP, "":
		return NewClient(cfg, log), nil
	case config.OCRProviderTesseract:
		return newTesseract(cfg, log)
	default:
		return nil, fmt.Errorf("unknown OCR provider %q", cfg.Provider)
	}
}
