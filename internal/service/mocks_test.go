package service

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"plate-registry/internal/domain/plate"
	"plate-registry/internal/ocr"
)

func newLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type recognizerMock struct {
	recognizeFunc func(ctx context.Context, img ocr.Image) (string, error)
	calls         int
}

func (m *recognizerMock) Recognize(ctx context.Context, img ocr.Image) (string, error) {
	m.calls++
	return m.recognizeFunc(ctx, img)
}

type storeMock struct {
	insertFunc       func(ctx context.Context, rec *plate.Record) error
	findByNumberFunc func(ctx context.Context, number string) ([]plate.Record, error)
	findByCityFunc   func(ctx context.Context, city string) ([]plate.Record, error)
	inserted         []plate.Record
}

func (m *storeMock) Insert(ctx context.Context, rec *plate.Record) error {
	if m.insertFunc != nil {
		if err := m.insertFunc(ctx, rec); err != nil {
			return err
		}
	}
	rec.ID = int64(len(m.inserted) + 1)
	m.inserted = append(m.inserted, *rec)
	return nil
}

func (m *storeMock) FindByNumber(ctx context.Context, number string) ([]plate.Record, error) {
	if m.findByNumberFunc != nil {
		return m.findByNumberFunc(ctx, number)
	}
	var out []plate.Record
	for _, rec := range m.inserted {
		if rec.Number == number {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *storeMock) FindByCity(ctx context.Context, city string) ([]plate.Record, error) {
	if m.findByCityFunc != nil {
		return m.findByCityFunc(ctx, city)
	}
	var out []plate.Record
	for _, rec := range m.inserted {
		if rec.City == city {
			out = append(out, rec)
		}
	}
	return out, nil
}

type imageMock struct {
	data     []byte
	readErr  error
	released int
}

func (m *imageMock) Read() ([]byte, error) { return m.data, m.readErr }

func (m *imageMock) ContentType() string { return "image/jpeg" }

func (m *imageMock) Info() plate.UploadInfo {
	return plate.UploadInfo{FileName: "placa.jpg", ContentType: "image/jpeg", Size: int64(len(m.data))}
}

func (m *imageMock) Release() error {
	m.released++
	return nil
}

type exporterMock struct {
	renderFunc func(ctx context.Context, records []plate.Record) ([]byte, error)
	calls      int
	received   []plate.Record
}

func (m *exporterMock) Render(ctx context.Context, records []plate.Record) ([]byte, error) {
	m.calls++
	m.received = records
	return m.renderFunc(ctx, records)
}

func (m *exporterMock) ContentType() string { return "application/pdf" }

type userStoreMock struct {
	createFunc      func(ctx context.Context, user *plate.User) error
	findByEmailFunc func(ctx context.Context, email string) (*plate.User, error)
}

func (m *userStoreMock) Create(ctx context.Context, user *plate.User) error {
	return m.createFunc(ctx, user)
}

func (m *userStoreMock) FindByEmail(ctx context.Context, email string) (*plate.User, error) {
	return m.findByEmailFunc(ctx, email)
}
