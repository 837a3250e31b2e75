package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"plate-registry/internal/domain/plate"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

type PlateRepository struct {
	db *gorm.DB
}

func NewPlateRepository(db *gorm.DB) *PlateRepository {
	return &PlateRepository{db: db}
}

type Plate struct {
	ID         int64                                `gorm:"primaryKey"`
	Number     string                               `gorm:"not null"`
	State      *string
	City       string                               `gorm:"not null"`
	RecordedAt time.Time                            `gorm:"not null"`
	Source     datatypes.JSONType[plate.UploadInfo] `gorm:"type:jsonb"`
	CreatedAt  time.Time
}

func (r *PlateRepository) Insert(ctx context.Context, rec *plate.Record) error {
	row := toPlateRow(rec)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	rec.ID = row.ID
	return nil
}

func (r *PlateRepository) FindByNumber(ctx context.Context, number string) ([]plate.Record, error) {
	var rows []Plate
	err := r.db.WithContext(ctx).
		Where("number = ?", number).
		Order("recorded_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toRecords(rows), nil
}

func (r *PlateRepository) FindByCity(ctx context.Context, city string) ([]plate.Record, error) {
	var rows []Plate
	err := r.db.WithContext(ctx).
		Where("city = ?", city).
		Order("recorded_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toRecords(rows), nil
}

func toPlateRow(rec *plate.Record) Plate {
	row := Plate{
		Number:     rec.Number,
		City:       rec.City,
		RecordedAt: rec.RecordedAt,
		CreatedAt:  time.Now(),
	}
	if rec.State != "" {
		state := rec.State
		row.State = &state
	}
	if rec.Source != nil {
		row.Source = datatypes.NewJSONType(*rec.Source)
	}
	return row
}

func toRecord(row Plate) plate.Record {
	rec := plate.Record{
		ID:         row.ID,
		Number:     row.Number,
		City:       row.City,
		RecordedAt: row.RecordedAt,
	}
	if row.State != nil {
		rec.State = *row.State
	}
	if src := row.Source.Data(); src != (plate.UploadInfo{}) {
		rec.Source = &src
	}
	return rec
}

func toRecords(rows []Plate) []plate.Record {
	out := make([]plate.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, toRecord(row))
	}
	return out
}
