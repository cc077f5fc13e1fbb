package database

import (
	"context"
	"io/fs"

	"github.com/haierkeys/draft-sync-service/pkg/timex"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (d *DB) Get(ctx context.Context, key string) (string, error) {
	var record DraftRecord
	err := d.Engine.WithContext(ctx).
		Where("record_key = ?", key).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", errors.Wrap(fs.ErrNotExist, "database")
		}
		return "", errors.Wrap(err, "database")
	}
	return record.Value, nil
}

func (d *DB) Set(ctx context.Context, key string, value string) error {
	record := DraftRecord{
		Key:       key,
		Value:     value,
		UpdatedAt: timex.Now(),
	}
	err := d.Engine.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "record_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&record).Error
	if err != nil {
		return errors.Wrap(err, "database")
	}
	return nil
}

func (d *DB) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := d.Engine.WithContext(ctx).
		Model(&DraftRecord{}).
		Order("record_key").
		Pluck("record_key", &keys).Error
	if err != nil {
		return nil, errors.Wrap(err, "database")
	}
	return keys, nil
}
