//go:build tesseract

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
	"github.com/rs/zerolog"

	"plate-registry/internal/config"
)

// Tesseract recognizes text locally. Only image bytes are supported.
type Tesseract struct {
	language string
	log      zerolog.Logger
}

func newTesseract(cfg config.OCRConfig, log zerolog.Logger) (Recognizer, error) {
	return &Tesseract{
		language: cfg.Language,
		log:      log.With().Str("component", "ocr_tesseract").Logger(),
	}, nil
}

func (t *Tesseract) Recognize(ctx context.Context, img Image) (string, error) {
	if len(img.Data) == 0 {
		return "", fmt.Errorf("%w: tesseract needs image bytes", ErrRecognition)
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRecognition, err)
	}

	prepared, err := preprocess(img.Data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRecognition, err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if t.language != "" {
		if err := client.SetLanguage(t.language); err != nil {
			return "", fmt.Errorf("%w: set language: %v", ErrRecognition, err)
		}
	}
	if err := client.SetWhitelist("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyzÀÁÂÃÇÉÊÍÓÔÕÚàáâãçéêíóôõú0123456789- "); err != nil {
		return "", fmt.Errorf("%w: set whitelist: %v", ErrRecognition, err)
	}
	if err := client.SetImageFromBytes(prepared); err != nil {
		return "", fmt.Errorf("%w: set image: %v", ErrRecognition, err)
	}

	text, err := client.Text()
	if err != nil {
		t.log.Error().Err(err).Msg("tesseract failed")
		return "", fmt.Errorf("%w: %v", ErrRecognition, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: no text found", ErrRecognition)
	}
	return text, nil
}

// preprocess converts to grayscale, boosts contrast and sharpens the
// image before it is handed to tesseract.
func preprocess(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	out := imaging.Grayscale(src)
	out = imaging.AdjustContrast(out, 20)
	out = imaging.Sharpen(out, 0.5)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
