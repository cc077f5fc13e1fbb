package database

import (
	"context"

	"github.com/pkg/errors"
)

func (d *DB) Remove(ctx context.Context, key string) error {
	err := d.Engine.WithContext(ctx).
		Where("record_key = ?", key).
		Delete(&DraftRecord{}).Error
	if err != nil {
		return errors.Wrap(err, "database")
	}
	return nil
}
