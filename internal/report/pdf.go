package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"plate-registry/internal/domain/plate"
)

const ContentTypePDF = "application/pdf"

const timestampLayout = "02/01/2006 15:04:05"

var ErrNoRecords = errors.New("report has no records")

type Option func(*PDFExporter)

// WithCompression toggles content stream compression (on by default).
func WithCompression(enabled bool) Option {
	return func(e *PDFExporter) { e.compress = enabled }
}

// WithLocation sets the zone timestamps are printed in.
func WithLocation(loc *time.Location) Option {
	return func(e *PDFExporter) { e.loc = loc }
}

// PDFExporter renders plate records as one text block per record.
type PDFExporter struct {
	compress bool
	loc      *time.Location
	now      func() time.Time
}

func NewPDFExporter(opts ...Option) *PDFExporter {
	e := &PDFExporter{
		compress: true,
		loc:      time.Local,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *PDFExporter) ContentType() string { return ContentTypePDF }

func (e *PDFExporter) Render(ctx context.Context, records []plate.Record) ([]byte, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(e.compress)
	pdf.SetCreationDate(e.now())
	pdf.SetTitle("Relatório de placas - "+records[0].City, true)
	pdf.SetCreator("plate-registry", true)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, tr("Relatório de placas - "+records[0].City), "", 1, "L", false, 0, "")
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "", 12)

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lines := []string{
			fmt.Sprintf("Registro %d:", i+1),
			"Número da Placa: " + rec.Number,
			"Cidade: " + rec.City,
			"Data e Hora: " + rec.RecordedAt.In(e.loc).Format(timestampLayout),
		}
		for _, line := range lines {
			pdf.CellFormat(0, 6, tr(line), "", 1, "L", false, 0, "")
		}
		pdf.Ln(6)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
