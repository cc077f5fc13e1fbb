package bolt

import (
	"context"
	"io/fs"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

func (b *Bolt) Get(ctx context.Context, key string) (string, error) {
	var value []byte
	err := b.DB.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(b.Config.Bucket))
		if bucket == nil {
			return errors.Wrap(fs.ErrNotExist, "bolt")
		}
		if v := bucket.Get([]byte(key)); v != nil {
			value = make([]byte, len(v))
			copy(value, v)
			return nil
		}
		return errors.Wrap(fs.ErrNotExist, "bolt")
	})
	if err != nil {
		return "", err
	}
	return string(value), nil
}

func (b *Bolt) Set(ctx context.Context, key string, value string) error {
	err := b.DB.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(b.Config.Bucket))
		if err != nil {
			return err
		}
		return bucket.Put([]byte(key), []byte(value))
	})
	if err != nil {
		return errors.Wrap(err, "bolt")
	}
	return nil
}

func (b *Bolt) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := b.DB.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(b.Config.Bucket))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, v []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "bolt")
	}
	return keys, nil
}
