package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"plate-registry/internal/config"
)

var ErrRecognition = errors.New("text recognition failed")

const maxResponseBytes = 1 << 20

// Image is the input of a recognition call. Either Data or URL is set.
type Image struct {
	Data        []byte
	ContentType string
	URL         string
}

type Recognizer interface {
	Recognize(ctx context.Context, img Image) (string, error)
}

// Client calls a hosted OCR endpoint (RapidAPI style headers) once per image.
type Client struct {
	httpClient  *http.Client
	url         string
	contentType string
	apiKey      string
	apiHost     string
	log         zerolog.Logger
}

func NewClient(cfg config.OCRConfig, log zerolog.Logger) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		url:         cfg.URL,
		contentType: cfg.ContentType,
		apiKey:      cfg.APIKey,
		apiHost:     cfg.APIHost,
		log:         log.With().Str("component", "ocr_client").Logger(),
	}
}

type recognizeRequest struct {
	ImageURL string `json:"imageUrl"`
}

type recognizeResponse struct {
	Text *string `json:"text"`
}

func (c *Client) Recognize(ctx context.Context, img Image) (string, error) {
	source, err := imageSource(img)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(recognizeRequest{ImageURL: source})
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", ErrRecognition, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrRecognition, err)
	}
	req.Header.Set("content-type", c.contentType)
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.apiHost)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().Err(err).Msg("OCR request failed")
		return "", fmt.Errorf("%w: %v", ErrRecognition, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrRecognition, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn().
			Int("status", resp.StatusCode).
			Int("body_bytes", len(raw)).
			Msg("OCR service returned non-success status")
		return "", fmt.Errorf("%w: unexpected status %d", ErrRecognition, resp.StatusCode)
	}

	var payload recognizeResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrRecognition, err)
	}
	if payload.Text == nil || strings.TrimSpace(*payload.Text) == "" {
		return "", fmt.Errorf("%w: response has no text", ErrRecognition)
	}

	c.log.Debug().
		Int("text_length", len(*payload.Text)).
		Msg("OCR text received")

	return *payload.Text, nil
}

func imageSource(img Image) (string, error) {
	if img.URL != "" {
		return img.URL, nil
	}
	if len(img.Data) == 0 {
		return "", fmt.Errorf("%w: empty image", ErrRecognition)
	}
	return DataURI(img.Data, img.ContentType), nil
}

// DataURI encodes image bytes as data:<type>;base64,<payload>. The content
// type is sniffed when not provided.
func DataURI(data []byte, contentType string) string {
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
