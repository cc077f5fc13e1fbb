package bolt

import (
	"context"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

func (b *Bolt) Remove(ctx context.Context, key string) error {
	err := b.DB.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(b.Config.Bucket))
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(key))
	})
	if err != nil {
		return errors.Wrap(err, "bolt")
	}
	return nil
}
